// Package models defines data structures shared across the application.
package models

import (
	"time"
)

// Issue represents one remote issue as a snapshot taken at fetch time.
type Issue struct {
	// Key is the project-scoped human-readable identifier (e.g. "EX-12")
	Key string

	// ID is the service-internal numeric identifier
	ID string

	// Summary is the issue's one-line title
	Summary string

	// Description is the full body text of the issue
	Description string

	// Status is the workflow status display name (e.g. "In Progress")
	Status string

	// Type is the issue type display name (e.g. "Story", "Bug")
	Type string

	// Priority is the priority display name (e.g. "Highest")
	Priority string

	// Resolution is the resolution display name, empty while unresolved
	Resolution string

	// Assignee is the display name of the current assignee
	Assignee string

	// Reporter is the display name of the reporter
	Reporter string

	// Labels is the set of label names attached to the issue
	Labels []string

	// Components is the set of component names attached to the issue
	Components []string

	// Created is the timestamp when the issue was created
	Created time.Time

	// Updated is the timestamp when the issue was last updated
	Updated time.Time

	// DueDate is the optional due date; zero when unset
	DueDate time.Time

	// ProjectKey is the key of the owning project (e.g. "EX")
	ProjectKey string

	// Filename is the base name of the local document file this issue
	// renders into, derived from ProjectKey unless overridden
	Filename string
}

// Comment represents one remote comment beneath an issue.
type Comment struct {
	// ID is the service-assigned numeric identifier
	ID string

	// Author is the display name of the comment's author
	Author string

	// Body is the comment text
	Body string

	// Created is the timestamp when the comment was posted
	Created time.Time

	// Updated is the timestamp when the comment was last edited
	Updated time.Time

	// IssueKey is the identity of the owning issue
	IssueKey string
}

// Worklog represents one work-time record against an issue. A worklog
// parsed from the local document may not yet exist remotely, in which
// case ID is empty (a provisional interval).
type Worklog struct {
	// ID is the service-assigned numeric identifier, empty for
	// provisional local intervals
	ID string

	// Started is the interval start timestamp
	Started time.Time

	// Seconds is the interval duration in whole seconds
	Seconds int

	// Comment is the free-text note attached to the record
	Comment string

	// IssueKey is the identity of the owning issue
	IssueKey string
}

// Attachment represents one file attached to an issue.
type Attachment struct {
	// ID is the service-assigned numeric identifier
	ID string

	// Filename is the attachment's file name
	Filename string

	// URL is the content download location
	URL string

	// Author is the display name of the uploader
	Author string

	// Size is the content size in bytes
	Size int

	// IssueKey is the identity of the owning issue
	IssueKey string
}

// Board represents a remote board definition.
type Board struct {
	// ID is the service-assigned numeric identifier
	ID int

	// Name is the board's display name
	Name string

	// Type is the board flavor (e.g. "scrum", "kanban")
	Type string

	// Query is the optional query bound to the board. The board
	// listing API does not expose it, so it is maintained as a local
	// property in the board index and survives re-renders there.
	Query string

	// Limit caps the number of issues fetched for the board; zero
	// means the service default. Like Query it is kept locally in the
	// board index rather than fetched.
	Limit int
}

// Project represents a remote project definition.
type Project struct {
	// ID is the service-assigned numeric identifier
	ID string

	// Key is the short project key (e.g. "EX")
	Key string

	// Name is the project's display name
	Name string
}

// SyncResult accumulates the outcome of one synchronization pass.
type SyncResult struct {
	// Created counts remote or local records newly created
	Created int

	// Updated counts records changed on either side
	Updated int

	// Skipped counts records compared and found identical
	Skipped int

	// Failed counts records whose processing errored and was isolated
	Failed int
}

// Add folds another result into r.
func (r *SyncResult) Add(o SyncResult) {
	r.Created += o.Created
	r.Updated += o.Updated
	r.Skipped += o.Skipped
	r.Failed += o.Failed
}
