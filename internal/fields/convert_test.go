package fields

import (
	"testing"
	"time"
)

func TestTimestampRoundTrip(t *testing.T) {
	// Converting remote to local and back must preserve the instant to
	// one-second precision.
	remote := "2026-03-14T09:26:53.000+0000"
	local := ToLocalTime(remote)
	back := ToRemoteTime(local)

	want, err := time.Parse(RemoteTimeLayout, remote)
	if err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	got, err := time.Parse(RemoteTimeLayout, back)
	if err != nil {
		t.Fatalf("round trip produced unparseable value %q: %v", back, err)
	}
	if !got.Truncate(time.Second).Equal(want.Truncate(time.Second)) {
		t.Errorf("round trip drifted: %v != %v", got, want)
	}
}

func TestConversionFailureReturnsOriginal(t *testing.T) {
	testCases := []string{
		"not a timestamp",
		"",
		"2026-13-45T99:99:99.000+0000",
	}
	for _, tc := range testCases {
		if got := ToLocalTime(tc); got != tc {
			t.Errorf("ToLocalTime(%q) = %q, want input unchanged", tc, got)
		}
		if got := ToRemoteTime(tc); got != tc {
			t.Errorf("ToRemoteTime(%q) = %q, want input unchanged", tc, got)
		}
	}
}

func TestPriorityMarker(t *testing.T) {
	testCases := []struct {
		priority string
		want     string
	}{
		{"Highest", "[#A]"},
		{"High", "[#B]"},
		{"Medium", "[#C]"},
		{"Low", "[#D]"},
		{"Lowest", "[#E]"},
		{"Unknown", ""},
		{"", ""},
	}
	for _, tc := range testCases {
		if got := PriorityMarker(tc.priority); got != tc.want {
			t.Errorf("PriorityMarker(%q) = %q, want %q", tc.priority, got, tc.want)
		}
	}
}

func TestNormalizerModern(t *testing.T) {
	n := &Normalizer{}
	v := decode(t, `{"status": {"id": "3", "name": "In Progress"}}`)
	if got := n.StatusName(v); got != "In Progress" {
		t.Errorf("StatusName = %q, want In Progress", got)
	}
}

func TestNormalizerLegacy(t *testing.T) {
	n := &Normalizer{
		Legacy:   true,
		Statuses: map[string]string{"3": "In Progress"},
	}

	// Legacy payload carries only the id.
	v := decode(t, `{"status": {"id": "3"}}`)
	if got := n.StatusName(v); got != "In Progress" {
		t.Errorf("StatusName = %q, want In Progress", got)
	}

	// An id absent from the reference list falls back to the id itself.
	v = decode(t, `{"status": {"id": "99"}}`)
	if got := n.StatusName(v); got != "99" {
		t.Errorf("StatusName = %q, want 99", got)
	}
}

func TestStatusKeyword(t *testing.T) {
	n := &Normalizer{DoneStatuses: []string{"Shipped"}}
	testCases := []struct {
		status string
		want   string
	}{
		{"To Do", "TODO"},
		{"In Progress", "IN-PROGRESS"},
		{"Blocked", "BLOCKED"},
		{"Done", "DONE"},
		{"Shipped", "DONE"},
		{"Weird Custom State", "TODO"},
	}
	for _, tc := range testCases {
		if got := n.StatusKeyword(tc.status); got != tc.want {
			t.Errorf("StatusKeyword(%q) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	testCases := []struct {
		seconds int
		want    string
	}{
		{3600, "1:00"},
		{5400, "1:30"},
		{60, "0:01"},
		{0, "0:00"},
		{7260, "2:01"},
	}
	for _, tc := range testCases {
		if got := FormatDuration(tc.seconds); got != tc.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
