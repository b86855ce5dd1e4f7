// Package org implements the local outline document: a tree of headed
// sections carrying key/value properties, body text, and clock
// entries. The sync engine addresses sections by identity property and
// edits them through narrowed regions so an upsert can never disturb
// sibling content.
package org

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// ErrIdentityNotFound reports that a section expected to exist for an
// identity key is missing. Callers treat this as fatal for the current
// command: rendering would otherwise land in the wrong location.
var ErrIdentityNotFound = errors.New("no section found for identity")

// Property names under which a section's identity key is stored. The
// key is written under both so documents produced by older versions
// keep resolving.
const (
	PropertyID       = "ID"
	PropertyCustomID = "CUSTOM_ID"
)

// Property is one entry of a section's ordered property bag.
type Property struct {
	Name  string
	Value string
}

// Section is one node of the outline.
type Section struct {
	// Level is the headline depth, 1 for top-level sections.
	Level int

	// Title is the headline text after the stars.
	Title string

	// Properties is the ordered property bag.
	Properties []Property

	// Clocks are the parsed entries of the section's timer block.
	Clocks []ClockEntry

	// Body holds the section's own text lines, excluding the property
	// drawer, the timer block, and child headlines.
	Body []string

	// Children are the nested subsections, in document order.
	Children []*Section
}

// Document is one parsed outline file.
type Document struct {
	// Path is where the document loads from and saves to.
	Path string

	// Preamble holds any lines appearing before the first headline.
	Preamble []string

	// Sections are the top-level sections in document order.
	Sections []*Section
}

var headlineRe = regexp.MustCompile(`^(\*+)\s+(.*)$`)
var propertyRe = regexp.MustCompile(`^\s*:([^:\s]+):\s*(.*)$`)

// Parse builds a Document from outline text.
func Parse(text string) *Document {
	doc := &Document{}
	var stack []*Section

	push := func(sec *Section) {
		for len(stack) > 0 && stack[len(stack)-1].Level >= sec.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			doc.Sections = append(doc.Sections, sec)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, sec)
		}
		stack = append(stack, sec)
	}

	lines := strings.Split(text, "\n")
	// Drop the phantom line a trailing newline produces.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if m := headlineRe.FindStringSubmatch(line); m != nil {
			push(&Section{Level: len(m[1]), Title: m[2]})
			continue
		}
		if len(stack) == 0 {
			doc.Preamble = append(doc.Preamble, line)
			continue
		}
		cur := stack[len(stack)-1]
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.EqualFold(trimmed, ":PROPERTIES:"):
			i = parseDrawer(lines, i, func(l string) {
				if m := propertyRe.FindStringSubmatch(l); m != nil {
					cur.Properties = append(cur.Properties, Property{Name: m[1], Value: m[2]})
				}
			})
		case strings.EqualFold(trimmed, ":"+logbookDrawer+":"):
			var block []string
			i = parseDrawer(lines, i, func(l string) {
				block = append(block, l)
			})
			cur.Clocks = parseClockBlock(block)
		default:
			cur.Body = append(cur.Body, line)
		}
	}

	return doc
}

// parseDrawer feeds each line between the drawer opener at lines[i]
// and its :END: to fn, returning the index of the :END: line. A drawer
// left unterminated consumes the rest of the buffer.
func parseDrawer(lines []string, i int, fn func(string)) int {
	j := i + 1
	for ; j < len(lines); j++ {
		if strings.EqualFold(strings.TrimSpace(lines[j]), ":END:") {
			return j
		}
		if headlineRe.MatchString(lines[j]) {
			return j - 1
		}
		fn(lines[j])
	}
	return j - 1
}

// Load reads and parses the document at path. A missing file yields an
// empty document bound to that path, so first sync of a project can
// create its file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Document{Path: path}, nil
		}
		return nil, fmt.Errorf("failed to read document %s: %w", path, err)
	}
	doc := Parse(string(data))
	doc.Path = path
	return doc, nil
}

// Save serializes the document back to its path.
func (d *Document) Save() error {
	if d.Path == "" {
		return fmt.Errorf("document has no path")
	}
	if err := os.WriteFile(d.Path, []byte(d.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write document %s: %w", d.Path, err)
	}
	return nil
}

// String serializes the document to outline text.
func (d *Document) String() string {
	var b strings.Builder
	for _, line := range d.Preamble {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, sec := range d.Sections {
		writeSection(&b, sec)
	}
	return b.String()
}

func writeSection(b *strings.Builder, sec *Section) {
	b.WriteString(strings.Repeat("*", sec.Level))
	b.WriteByte(' ')
	b.WriteString(sec.Title)
	b.WriteByte('\n')
	if len(sec.Properties) > 0 {
		b.WriteString(":PROPERTIES:\n")
		for _, p := range sec.Properties {
			fmt.Fprintf(b, ":%s: %s\n", p.Name, p.Value)
		}
		b.WriteString(":END:\n")
	}
	if len(sec.Clocks) > 0 {
		writeClockBlock(b, sec.Clocks)
	}
	for _, line := range sec.Body {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, child := range sec.Children {
		writeSection(b, child)
	}
}
