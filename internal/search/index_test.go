package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pmattila/loom/internal/org"
)

func writeTestDoc(t *testing.T, dir, name string, build func(*org.Document)) {
	t.Helper()
	doc := &org.Document{Path: filepath.Join(dir, name)}
	build(doc)
	if err := doc.Save(); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func testWorkdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeTestDoc(t, dir, "EX.org", func(doc *org.Document) {
		top := doc.AppendTopLevel("EX Tickets")
		for _, e := range []struct{ key, title string }{
			{"EX-1", "TODO Fix the flux capacitor"},
			{"EX-2", "DONE Ship the release"},
		} {
			sec := top.AppendChild(e.title)
			sec.SetProperty(org.PropertyID, e.key)
			sec.SetProperty(org.PropertyCustomID, e.key)
		}
	})

	writeTestDoc(t, dir, "OPS.org", func(doc *org.Document) {
		top := doc.AppendTopLevel("OPS Tickets")
		sec := top.AppendChild("TODO Rotate the pager schedule")
		sec.SetProperty(org.PropertyID, "OPS-9")
		sec.SetProperty(org.PropertyCustomID, "OPS-9")
	})

	// Non-outline files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("* not indexed"), 0o644); err != nil {
		t.Fatal(err)
	}

	return dir
}

func TestRebuildAndSnapshot(t *testing.T) {
	ix := New(testWorkdir(t))
	if err := ix.Rebuild(); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	snap := ix.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(snap))
	}

	entry, ok := ix.Resolve("OPS-9")
	if !ok {
		t.Fatal("OPS-9 not resolvable")
	}
	if filepath.Base(entry.File) != "OPS.org" {
		t.Errorf("entry file = %q", entry.File)
	}
	if entry.Summary != "TODO Rotate the pager schedule" {
		t.Errorf("entry summary = %q", entry.Summary)
	}
}

func TestMatchNarrows(t *testing.T) {
	ix := New(testWorkdir(t))
	if err := ix.Rebuild(); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	got := ix.Match("flux")
	if len(got) != 1 || got[0].Identity != "EX-1" {
		t.Errorf("Match(flux) = %v", got)
	}

	// Empty pattern returns everything.
	if got := ix.Match(""); len(got) != 3 {
		t.Errorf("Match(\"\") returned %d entries, want 3", len(got))
	}

	if got := ix.Match("zzzzzz"); len(got) != 0 {
		t.Errorf("Match(zzzzzz) = %v, want none", got)
	}
}

func TestRebuildReplaces(t *testing.T) {
	dir := testWorkdir(t)
	ix := New(dir)
	if err := ix.Rebuild(); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	// Dropping a file from the workdir drops its entries on the next
	// rebuild.
	if err := os.Remove(filepath.Join(dir, "OPS.org")); err != nil {
		t.Fatal(err)
	}
	if err := ix.Rebuild(); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if _, ok := ix.Resolve("OPS-9"); ok {
		t.Error("stale entry survived rebuild")
	}
}
