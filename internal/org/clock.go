package org

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pmattila/loom/internal/fields"
)

// logbookDrawer names the drawer holding a section's timer block.
const logbookDrawer = "LOGBOOK"

// clockIDProperty is the embedded property line linking a local clock
// entry to its remote worklog identity.
const clockIDProperty = "id"

// ClockEntry is one interval of a section's timer block.
type ClockEntry struct {
	// Start is the interval start.
	Start time.Time

	// Seconds is the interval duration in whole seconds.
	Seconds int

	// ID is the remote worklog identity, empty for a provisional
	// interval not yet created remotely.
	ID string

	// Note is the free-text comment attached to the interval.
	Note string
}

// End returns the interval end derived from start and duration.
func (c ClockEntry) End() time.Time {
	return c.Start.Add(time.Duration(c.Seconds) * time.Second)
}

var clockLineRe = regexp.MustCompile(`^\s*CLOCK:\s*\[([^\]]+)\]--\[([^\]]+)\]\s*=>\s*\d+:\d{2}\s*$`)
var clockNoteRe = regexp.MustCompile(`^\s*-\s?(.*)$`)

// parseClockBlock decodes the lines between :LOGBOOK: and :END: into
// clock entries. Unparseable timestamp pairs drop the entry; note and
// id lines attach to the entry whose CLOCK line precedes them.
func parseClockBlock(lines []string) []ClockEntry {
	var entries []ClockEntry
	var cur *ClockEntry
	for _, line := range lines {
		if m := clockLineRe.FindStringSubmatch(line); m != nil {
			start, err1 := time.ParseInLocation(fields.LocalTimeLayout, m[1], time.Local)
			end, err2 := time.ParseInLocation(fields.LocalTimeLayout, m[2], time.Local)
			if err1 != nil || err2 != nil || end.Before(start) {
				cur = nil
				continue
			}
			entries = append(entries, ClockEntry{
				Start:   start,
				Seconds: int(end.Sub(start) / time.Second),
			})
			cur = &entries[len(entries)-1]
			continue
		}
		if cur == nil {
			continue
		}
		if m := propertyRe.FindStringSubmatch(line); m != nil {
			if strings.EqualFold(m[1], clockIDProperty) {
				cur.ID = m[2]
			}
			continue
		}
		if m := clockNoteRe.FindStringSubmatch(line); m != nil {
			if cur.Note != "" {
				cur.Note += "\n"
			}
			cur.Note += m[1]
		}
	}
	return entries
}

func writeClockBlock(b *strings.Builder, entries []ClockEntry) {
	fmt.Fprintf(b, ":%s:\n", logbookDrawer)
	for _, e := range entries {
		fmt.Fprintf(b, "CLOCK: [%s]--[%s] =>  %s\n",
			e.Start.Local().Format(fields.LocalTimeLayout),
			e.End().Local().Format(fields.LocalTimeLayout),
			fields.FormatDuration(e.Seconds))
		if e.ID != "" {
			fmt.Fprintf(b, ":%s: %s\n", clockIDProperty, e.ID)
		}
		for _, note := range strings.Split(e.Note, "\n") {
			if note == "" {
				continue
			}
			fmt.Fprintf(b, "- %s\n", note)
		}
	}
	b.WriteString(":END:\n")
}
