package fields

import (
	"fmt"
	"time"

	"github.com/pmattila/loom/internal/logging"
)

// Layouts for the two timestamp representations: the remote service
// speaks ISO-8601 with milliseconds and a numeric zone, the local
// document uses the human-readable outline form.
const (
	RemoteTimeLayout = "2006-01-02T15:04:05.000-0700"
	LocalTimeLayout  = "2006-01-02 Mon 15:04:05"
	LocalDateLayout  = "2006-01-02 Mon"
)

// ToLocalTime reformats a remote timestamp into the local form.
// Conversion failures return the input unchanged: remote schema drift
// is expected and must not abort a render.
func ToLocalTime(remote string) string {
	t, err := time.Parse(RemoteTimeLayout, remote)
	if err != nil {
		logging.Debug("timestamp conversion failed, keeping original",
			"value", remote, "error", err)
		return remote
	}
	return t.Local().Format(LocalTimeLayout)
}

// ToRemoteTime reformats a local timestamp into the remote form,
// returning the input unchanged on parse failure.
func ToRemoteTime(local string) string {
	t, err := time.ParseInLocation(LocalTimeLayout, local, time.Local)
	if err != nil {
		logging.Debug("timestamp conversion failed, keeping original",
			"value", local, "error", err)
		return local
	}
	return t.Format(RemoteTimeLayout)
}

// FormatLocal renders a time in the local document form.
func FormatLocal(t time.Time) string {
	return t.Local().Format(LocalTimeLayout)
}

// FormatLocalDate renders a date-only value (due dates).
func FormatLocalDate(t time.Time) string {
	return t.Local().Format(LocalDateLayout)
}

// priorityMarkers maps remote priority display names to the outline's
// bracketed priority cookies.
var priorityMarkers = map[string]string{
	"Highest": "[#A]",
	"High":    "[#B]",
	"Medium":  "[#C]",
	"Low":     "[#D]",
	"Lowest":  "[#E]",
}

// PriorityMarker returns the outline priority cookie for a remote
// priority name, empty when the priority is unset or unknown.
func PriorityMarker(priority string) string {
	return priorityMarkers[priority]
}

// Normalizer resolves display names for coded fields. Under the legacy
// transport the payload carries only ids, and names come from a
// secondary lookup against reference lists fetched once per session;
// under the modern transport the display name is nested in the payload
// itself.
type Normalizer struct {
	// Legacy selects the reference-list resolution mode.
	Legacy bool

	// Reference lists, keyed by id, populated only in legacy mode.
	Statuses    map[string]string
	Types       map[string]string
	Priorities  map[string]string
	Resolutions map[string]string

	// DoneStatuses are status names treated as terminal when deriving
	// the headline keyword.
	DoneStatuses []string
}

// StatusName resolves the status display name from a raw field value.
func (n *Normalizer) StatusName(v Value) string {
	return n.resolve(v, "status", n.Statuses)
}

// TypeName resolves the issue-type display name.
func (n *Normalizer) TypeName(v Value) string {
	return n.resolve(v, "issuetype", n.Types)
}

// PriorityName resolves the priority display name.
func (n *Normalizer) PriorityName(v Value) string {
	return n.resolve(v, "priority", n.Priorities)
}

// ResolutionName resolves the resolution display name.
func (n *Normalizer) ResolutionName(v Value) string {
	return n.resolve(v, "resolution", n.Resolutions)
}

func (n *Normalizer) resolve(v Value, field string, refs map[string]string) string {
	if n.Legacy {
		id := v.Lookup(field + ".id").Str()
		if id == "" {
			id = v.Lookup(field).Str()
		}
		if name, ok := refs[id]; ok {
			return name
		}
		return id
	}
	return v.Lookup(field + ".name").Str()
}

// StatusKeyword maps a status display name onto the outline headline
// keyword.
func (n *Normalizer) StatusKeyword(status string) string {
	for _, done := range n.DoneStatuses {
		if status == done {
			return "DONE"
		}
	}
	switch status {
	case "In Progress", "In Review":
		return "IN-PROGRESS"
	case "Blocked":
		return "BLOCKED"
	case "Done", "Closed", "Resolved":
		return "DONE"
	default:
		return "TODO"
	}
}

// FormatDuration renders whole seconds as the outline's H:MM clock
// duration.
func FormatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	return fmt.Sprintf("%d:%02d", h, m)
}
