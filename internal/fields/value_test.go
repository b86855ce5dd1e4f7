package fields

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, raw string) Value {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	return FromJSON(v)
}

func TestLookup(t *testing.T) {
	testCases := []struct {
		name    string
		payload string
		path    string
		want    string
	}{
		{
			name:    "plain scalar",
			payload: `{"summary": "fix the flux capacitor"}`,
			path:    "summary",
			want:    "fix the flux capacitor",
		},
		{
			name:    "nested mapping",
			payload: `{"status": {"name": "In Progress", "id": "3"}}`,
			path:    "status.name",
			want:    "In Progress",
		},
		{
			name:    "sequence of mappings",
			payload: `{"fields": [{"status": {"name": "Done"}}, {"priority": {"name": "High"}}]}`,
			path:    "fields.priority.name",
			want:    "High",
		},
		{
			name:    "raw value fallback",
			payload: `{"status": "Open"}`,
			path:    "status.name",
			want:    "Open",
		},
		{
			name:    "terminal miss yields empty",
			payload: `{"status": {"id": "3"}}`,
			path:    "status.name",
			want:    "",
		},
		{
			name:    "missing root key yields empty",
			payload: `{"status": {"id": "3"}}`,
			path:    "priority.name",
			want:    "",
		},
		{
			name:    "numeric id renders without decimal",
			payload: `{"id": 10042}`,
			path:    "id",
			want:    "10042",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := decode(t, tc.payload).Lookup(tc.path).Str()
			if got != tc.want {
				t.Errorf("Lookup(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}

func TestLookupNeverErrors(t *testing.T) {
	v := decode(t, `{"a": [1, 2, 3]}`)
	// Descending into a sequence of scalars finds nothing.
	if got := v.Lookup("a.b.c.d"); !got.IsAbsent() {
		t.Errorf("expected absent value, got kind %v", got.Kind())
	}
	// Lookup on the zero value is safe.
	var zero Value
	if got := zero.Lookup("x.y"); !got.IsAbsent() {
		t.Errorf("expected absent value from zero Value")
	}
}

func TestInt(t *testing.T) {
	v := decode(t, `{"limit": 25, "name": "board", "count": "12"}`)
	if got := v.Lookup("limit").Int(); got != 25 {
		t.Errorf("Int() = %d, want 25", got)
	}
	if got := v.Lookup("count").Int(); got != 12 {
		t.Errorf("Int() on numeric string = %d, want 12", got)
	}
	if got := v.Lookup("name").Int(); got != 0 {
		t.Errorf("Int() on non-numeric = %d, want 0", got)
	}
}

func TestStrs(t *testing.T) {
	v := decode(t, `{"labels": ["backend", "", "urgent"]}`)
	got := v.Lookup("labels").Strs()
	if len(got) != 2 || got[0] != "backend" || got[1] != "urgent" {
		t.Errorf("Strs() = %v, want [backend urgent]", got)
	}
}
