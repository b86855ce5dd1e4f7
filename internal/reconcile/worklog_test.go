package reconcile

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pmattila/loom/internal/fields"
	"github.com/pmattila/loom/internal/org"
	"github.com/pmattila/loom/pkg/models"
)

// MockWorklogAPI implements WorklogAPI for testing.
type MockWorklogAPI struct {
	remote []models.Worklog

	updates []string
	creates []models.Worklog

	GetWorklogsFunc func(string) ([]models.Worklog, error)
}

func (m *MockWorklogAPI) GetWorklogs(issueKey string) ([]models.Worklog, error) {
	if m.GetWorklogsFunc != nil {
		return m.GetWorklogsFunc(issueKey)
	}
	return append([]models.Worklog(nil), m.remote...), nil
}

func (m *MockWorklogAPI) AddWorklog(issueKey string, w models.Worklog) (models.Worklog, error) {
	m.creates = append(m.creates, w)
	w.ID = fmt.Sprintf("new-%d", len(m.creates))
	m.remote = append(m.remote, w)
	return w, nil
}

func (m *MockWorklogAPI) UpdateWorklog(issueKey, worklogID string, w models.Worklog) (models.Worklog, error) {
	m.updates = append(m.updates, worklogID)
	for i := range m.remote {
		if m.remote[i].ID == worklogID {
			m.remote[i].Started = w.Started
			m.remote[i].Seconds = w.Seconds
			m.remote[i].Comment = w.Comment
		}
	}
	w.ID = worklogID
	return w, nil
}

// issueDoc builds a document holding one issue section with the given
// clock entries.
func issueDoc(key string, clocks []org.ClockEntry) *org.Document {
	doc := &org.Document{}
	top := doc.AppendTopLevel("EX Tickets")
	sec := top.AppendChild("TODO Some issue")
	sec.SetProperty(org.PropertyID, key)
	sec.SetProperty(org.PropertyCustomID, key)
	sec.Clocks = clocks
	return doc
}

func TestReconcileMissingSection(t *testing.T) {
	r := NewWorklogReconciler(&MockWorklogAPI{})
	_, err := r.Reconcile(&org.Document{}, "EX-1")
	if !errors.Is(err, org.ErrIdentityNotFound) {
		t.Errorf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestReconcileDiff(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	t1 := t0.Add(2 * time.Hour)

	api := &MockWorklogAPI{
		remote: []models.Worklog{
			{ID: "W1", Started: t0, Seconds: 3600},
			{ID: "W2", Started: t1, Seconds: 1800},
		},
	}

	// W1 changed locally, W2 matches exactly.
	doc := issueDoc("EX-1", []org.ClockEntry{
		{ID: "W1", Start: t0, Seconds: 7200},
		{ID: "W2", Start: t1, Seconds: 1800},
	})

	r := NewWorklogReconciler(api)
	res, err := r.Reconcile(doc, "EX-1")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if len(api.updates) != 1 || api.updates[0] != "W1" {
		t.Errorf("expected exactly one update for W1, got %v", api.updates)
	}
	if len(api.creates) != 0 {
		t.Errorf("unexpected creates: %v", api.creates)
	}
	if res.Updated != 1 || res.Skipped != 1 {
		t.Errorf("result = %+v, want 1 updated 1 skipped", res)
	}
}

func TestReconcileStartChangeTriggersUpdate(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	api := &MockWorklogAPI{
		remote: []models.Worklog{{ID: "W1", Started: t0, Seconds: 3600}},
	}
	doc := issueDoc("EX-1", []org.ClockEntry{
		{ID: "W1", Start: t0.Add(15 * time.Minute), Seconds: 3600},
	})

	r := NewWorklogReconciler(api)
	if _, err := r.Reconcile(doc, "EX-1"); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if len(api.updates) != 1 {
		t.Errorf("start-time change should trigger an update, got %v", api.updates)
	}
}

func TestReconcileProvisionalInterval(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	api := &MockWorklogAPI{}
	doc := issueDoc("EX-1", []org.ClockEntry{
		{Start: t0, Seconds: 900, Note: "quick fix"},
	})

	r := NewWorklogReconciler(api)
	res, err := r.Reconcile(doc, "EX-1")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if len(api.creates) != 1 || api.creates[0].Comment != "quick fix" {
		t.Errorf("expected one create with note, got %v", api.creates)
	}
	if res.Created != 1 {
		t.Errorf("result = %+v, want 1 created", res)
	}

	// The regenerated block carries the identity assigned remotely.
	sec := doc.FindByIdentity("EX-1")
	if len(sec.Clocks) != 1 || sec.Clocks[0].ID == "" {
		t.Errorf("regenerated block missing assigned identity: %+v", sec.Clocks)
	}
}

func TestRegenerationCompleteness(t *testing.T) {
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)
	api := &MockWorklogAPI{
		remote: []models.Worklog{
			{ID: "W1", Started: base, Seconds: 600},
			{ID: "W3", Started: base.Add(4 * time.Hour), Seconds: 1200, Comment: "late entry"},
			{ID: "W2", Started: base.Add(2 * time.Hour), Seconds: 900},
		},
	}
	// Local block has only one of the three remote entries.
	doc := issueDoc("EX-1", []org.ClockEntry{
		{ID: "W1", Start: base, Seconds: 600},
	})

	r := NewWorklogReconciler(api)
	if _, err := r.Reconcile(doc, "EX-1"); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	sec := doc.FindByIdentity("EX-1")
	if len(sec.Clocks) != len(api.remote) {
		t.Fatalf("block entry count = %d, want %d", len(sec.Clocks), len(api.remote))
	}
	// Sorted by start time descending.
	for i := 1; i < len(sec.Clocks); i++ {
		if sec.Clocks[i].Start.After(sec.Clocks[i-1].Start) {
			t.Errorf("block not sorted descending: %v before %v",
				sec.Clocks[i-1].Start, sec.Clocks[i].Start)
		}
	}
	if sec.Clocks[0].ID != "W3" || sec.Clocks[0].Note != "late entry" {
		t.Errorf("newest entry wrong: %+v", sec.Clocks[0])
	}
}

// The worked scenario: remote has W10 (T0, 3600s) and W11 (T1, 1800s);
// locally W10 was edited to 7200s and an unlinked interval matches
// W11 exactly. Expected: one update for W10, no call at all for the
// provisional interval (it coincides with W11), and a regenerated
// block of exactly two entries ordered newest first.
func TestReconcileScenario(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	t1 := t0.Add(3 * time.Hour)

	api := &MockWorklogAPI{
		remote: []models.Worklog{
			{ID: "W10", Started: t0, Seconds: 3600},
			{ID: "W11", Started: t1, Seconds: 1800},
		},
	}
	doc := issueDoc("EX-5", []org.ClockEntry{
		{ID: "W10", Start: t0, Seconds: 7200},
		{Start: t1, Seconds: 1800},
	})

	r := NewWorklogReconciler(api)
	res, err := r.Reconcile(doc, "EX-5")
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if len(api.updates) != 1 || api.updates[0] != "W10" {
		t.Errorf("expected exactly one update for W10, got %v", api.updates)
	}
	if len(api.creates) != 0 {
		t.Errorf("provisional interval matching W11 must not be created again: %v", api.creates)
	}
	if res.Updated != 1 || res.Created != 0 || res.Skipped != 1 {
		t.Errorf("result = %+v, want 1 updated, 0 created, 1 skipped", res)
	}

	sec := doc.FindByIdentity("EX-5")
	if len(sec.Clocks) != len(api.remote) {
		t.Fatalf("block entry count = %d, want %d", len(sec.Clocks), len(api.remote))
	}
	if !sec.Clocks[0].Start.After(sec.Clocks[1].Start) && !sec.Clocks[0].Start.Equal(sec.Clocks[1].Start) {
		t.Errorf("block not ordered newest first")
	}
}

func TestReconcileFailedCreateKeepsProvisional(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	api := &MockWorklogAPI{}
	calls := 0
	api.GetWorklogsFunc = func(string) ([]models.Worklog, error) {
		calls++
		if calls > 1 {
			// Regeneration fetch fails; the local block must be left
			// alone so the provisional interval survives.
			return nil, errors.New("network down")
		}
		return nil, nil
	}

	doc := issueDoc("EX-1", []org.ClockEntry{{Start: t0, Seconds: 300}})
	r := NewWorklogReconciler(api)
	_, err := r.Reconcile(doc, "EX-1")
	if err == nil {
		t.Fatal("expected error from failed regeneration fetch")
	}

	sec := doc.FindByIdentity("EX-1")
	if len(sec.Clocks) != 1 || sec.Clocks[0].ID != "" {
		t.Errorf("provisional interval lost on failure: %+v", sec.Clocks)
	}
}

func TestClockEntrySurvivesSerialization(t *testing.T) {
	t0 := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	api := &MockWorklogAPI{
		remote: []models.Worklog{
			{ID: "W1", Started: t0, Seconds: 5400, Comment: "pairing"},
		},
	}
	doc := issueDoc("EX-1", nil)
	r := NewWorklogReconciler(api)
	if _, err := r.Reconcile(doc, "EX-1"); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	reparsed := org.Parse(doc.String())
	sec := reparsed.FindByIdentity("EX-1")
	if sec == nil || len(sec.Clocks) != 1 {
		t.Fatalf("clock block lost in serialization")
	}
	e := sec.Clocks[0]
	if e.ID != "W1" || e.Seconds != 5400 || e.Note != "pairing" {
		t.Errorf("entry = %+v", e)
	}
	if e.Start.Format(fields.LocalTimeLayout) != t0.Format(fields.LocalTimeLayout) {
		t.Errorf("start drifted: %v != %v", e.Start, t0)
	}
}
