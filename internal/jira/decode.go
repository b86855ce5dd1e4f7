package jira

import (
	"time"

	jira "github.com/andygrunwald/go-jira"

	"github.com/pmattila/loom/internal/fields"
	"github.com/pmattila/loom/pkg/models"
)

// decodeIssue normalizes one raw issue into a snapshot. Coded fields
// (status, type, priority, resolution) route through the field
// normalizer so both transport generations resolve to display names;
// everything else is read from the typed payload directly.
func (c *Client) decodeIssue(ji *jira.Issue) models.Issue {
	f := ji.Fields
	if f == nil {
		f = &jira.IssueFields{}
	}

	v := codedFieldsValue(f)

	issue := models.Issue{
		Key:         ji.Key,
		ID:          ji.ID,
		Summary:     f.Summary,
		Description: f.Description,
		Status:      c.normalizer.StatusName(v),
		Type:        c.normalizer.TypeName(v),
		Priority:    c.normalizer.PriorityName(v),
		Resolution:  c.normalizer.ResolutionName(v),
		Assignee:    displayName(f.Assignee),
		Reporter:    displayName(f.Reporter),
		Labels:      append([]string(nil), f.Labels...),
		Created:     time.Time(f.Created),
		Updated:     time.Time(f.Updated),
		DueDate:     time.Time(f.Duedate),
		ProjectKey:  f.Project.Key,
	}
	for _, comp := range f.Components {
		if comp != nil && comp.Name != "" {
			issue.Components = append(issue.Components, comp.Name)
		}
	}
	return issue
}

// codedFieldsValue assembles the tagged payload variant the normalizer
// resolves against: the coded subfields plus any unknown custom
// fields, which keep their raw decoded shape.
func codedFieldsValue(f *jira.IssueFields) fields.Value {
	raw := map[string]any{}
	if f.Status != nil {
		raw["status"] = map[string]any{"id": f.Status.ID, "name": f.Status.Name}
	}
	if f.Type.ID != "" || f.Type.Name != "" {
		raw["issuetype"] = map[string]any{"id": f.Type.ID, "name": f.Type.Name}
	}
	if f.Priority != nil {
		raw["priority"] = map[string]any{"id": f.Priority.ID, "name": f.Priority.Name}
	}
	if f.Resolution != nil {
		raw["resolution"] = map[string]any{"id": f.Resolution.ID, "name": f.Resolution.Name}
	}
	for k, v := range f.Unknowns {
		raw[k] = v
	}
	return fields.FromJSON(raw)
}

func decodeComment(cm *jira.Comment, issueKey string) models.Comment {
	if cm == nil {
		return models.Comment{IssueKey: issueKey}
	}
	return models.Comment{
		ID:       cm.ID,
		Author:   userName(cm.Author),
		Body:     cm.Body,
		Created:  parseRemoteTime(cm.Created),
		Updated:  parseRemoteTime(cm.Updated),
		IssueKey: issueKey,
	}
}

func decodeWorklog(w *jira.WorklogRecord, issueKey string) models.Worklog {
	if w == nil {
		return models.Worklog{IssueKey: issueKey}
	}
	out := models.Worklog{
		ID:       w.ID,
		Seconds:  w.TimeSpentSeconds,
		Comment:  w.Comment,
		IssueKey: issueKey,
	}
	if w.Started != nil {
		out.Started = time.Time(*w.Started)
	}
	return out
}

// parseRemoteTime decodes the remote timestamp string, returning the
// zero time when the value does not parse.
func parseRemoteTime(s string) time.Time {
	t, err := time.Parse(fields.RemoteTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func displayName(u *jira.User) string {
	if u == nil {
		return ""
	}
	return userName(*u)
}

func userName(u jira.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Name != "" {
		return u.Name
	}
	return u.EmailAddress
}
