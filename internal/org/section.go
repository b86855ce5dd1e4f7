package org

import (
	"strings"
)

// Property returns the value stored under name, empty when absent.
func (s *Section) Property(name string) string {
	for _, p := range s.Properties {
		if strings.EqualFold(p.Name, name) {
			return p.Value
		}
	}
	return ""
}

// SetProperty writes a property, replacing an existing entry of the
// same name in place so the bag keeps its order across re-renders.
func (s *Section) SetProperty(name, value string) {
	for i, p := range s.Properties {
		if strings.EqualFold(p.Name, name) {
			s.Properties[i].Value = value
			return
		}
	}
	s.Properties = append(s.Properties, Property{Name: name, Value: value})
}

// DeleteProperty removes a property if present.
func (s *Section) DeleteProperty(name string) {
	for i, p := range s.Properties {
		if strings.EqualFold(p.Name, name) {
			s.Properties = append(s.Properties[:i], s.Properties[i+1:]...)
			return
		}
	}
}

// Identity returns the section's identity key, consulting both
// identity property names.
func (s *Section) Identity() string {
	if id := s.Property(PropertyID); id != "" {
		return id
	}
	return s.Property(PropertyCustomID)
}

// AppendChild creates and returns a new subsection at the end of s's
// children, one level deeper.
func (s *Section) AppendChild(title string) *Section {
	child := &Section{Level: s.Level + 1, Title: title}
	s.Children = append(s.Children, child)
	return child
}

// RemoveChild detaches child from s, reporting whether it was found.
func (s *Section) RemoveChild(child *Section) bool {
	for i, c := range s.Children {
		if c == child {
			s.Children = append(s.Children[:i], s.Children[i+1:]...)
			return true
		}
	}
	return false
}

// Walk visits s and every descendant in document order, stopping early
// when fn returns false.
func (s *Section) Walk(fn func(*Section) bool) bool {
	if !fn(s) {
		return false
	}
	for _, child := range s.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// FindByIdentity searches a section forest depth-first for the section
// whose identity property matches key.
func FindByIdentity(sections []*Section, key string) *Section {
	var found *Section
	for _, sec := range sections {
		sec.Walk(func(s *Section) bool {
			if s.Identity() == key {
				found = s
				return false
			}
			return true
		})
		if found != nil {
			break
		}
	}
	return found
}

// FindByIdentity searches the whole document.
func (d *Document) FindByIdentity(key string) *Section {
	return FindByIdentity(d.Sections, key)
}

// FindTopLevel returns the first top-level section whose title matches
// pred, or nil.
func (d *Document) FindTopLevel(pred func(title string) bool) *Section {
	for _, sec := range d.Sections {
		if pred(sec.Title) {
			return sec
		}
	}
	return nil
}

// AppendTopLevel creates and returns a new top-level section at the
// end of the document.
func (d *Document) AppendTopLevel(title string) *Section {
	sec := &Section{Level: 1, Title: title}
	d.Sections = append(d.Sections, sec)
	return sec
}
