package org

// Region is a narrowed edit handle over one section's subtree. All
// section surgery performed by the sync engine goes through a Region
// so a single upsert's blast radius is bounded to its own subtree and
// the view discipline (narrow, edit, widen) is restored on every exit
// path. Callers must Widen when done, normally via defer.
type Region struct {
	doc  *Document
	sec  *Section
	open bool
}

// Narrow opens an edit region over sec.
func (d *Document) Narrow(sec *Section) *Region {
	return &Region{doc: d, sec: sec, open: true}
}

// Widen closes the region. Safe to call more than once; edits after
// widening are discarded.
func (r *Region) Widen() {
	r.open = false
}

// Section exposes the narrowed section for reads.
func (r *Region) Section() *Section {
	return r.sec
}

// SetTitle rewrites the headline text.
func (r *Region) SetTitle(title string) {
	if !r.open {
		return
	}
	r.sec.Title = title
}

// ClearContent drops the section's own title and body while leaving
// its property bag, timer block, and children untouched. Used before a
// rewrite so a re-render replaces rather than appends, without losing
// unsynced local clock edits.
func (r *Region) ClearContent() {
	if !r.open {
		return
	}
	r.sec.Title = ""
	r.sec.Body = nil
}

// SetBody replaces the section's body text.
func (r *Region) SetBody(lines []string) {
	if !r.open {
		return
	}
	r.sec.Body = append([]string(nil), lines...)
}

// SetProperty writes a property through the region.
func (r *Region) SetProperty(name, value string) {
	if !r.open {
		return
	}
	r.sec.SetProperty(name, value)
}

// SetClocks replaces the section's timer block wholesale.
func (r *Region) SetClocks(entries []ClockEntry) {
	if !r.open {
		return
	}
	r.sec.Clocks = append([]ClockEntry(nil), entries...)
}
