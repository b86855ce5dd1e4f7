// Package render upserts document sections for remote entities by
// identity key. Rendering the same identity twice mutates the original
// section in place; a second section is never created.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pmattila/loom/internal/config"
	"github.com/pmattila/loom/internal/fields"
	"github.com/pmattila/loom/internal/org"
	"github.com/pmattila/loom/pkg/models"
)

// Renderer writes entity snapshots into outline documents.
type Renderer struct {
	cfg  *config.Config
	norm *fields.Normalizer
}

// New creates a renderer bound to configuration and a field
// normalizer.
func New(cfg *config.Config, norm *fields.Normalizer) *Renderer {
	return &Renderer{cfg: cfg, norm: norm}
}

// projectTitle formats the top-level heading owning a project's
// issues. EnsureProject matches on this exact form.
func projectTitle(projectKey string) string {
	return fmt.Sprintf("%s Tickets", projectKey)
}

// EnsureProject returns the top-level section owning projectKey's
// issues, creating it at the end of the document on first sync.
func (r *Renderer) EnsureProject(doc *org.Document, projectKey string) *org.Section {
	title := projectTitle(projectKey)
	if sec := doc.FindTopLevel(func(t string) bool { return t == title }); sec != nil {
		return sec
	}
	return doc.AppendTopLevel(title)
}

// UpsertIssue renders an issue beneath its project heading. An
// existing section with the issue's identity is rewritten in place
// (children and timer block preserved); otherwise a new subsection is
// appended at the end of the project scope.
func (r *Renderer) UpsertIssue(doc *org.Document, issue models.Issue) *org.Section {
	parent := r.EnsureProject(doc, issue.ProjectKey)
	sec := org.FindByIdentity([]*org.Section{parent}, issue.Key)
	if sec == nil {
		sec = parent.AppendChild("")
	}

	region := doc.Narrow(sec)
	defer region.Widen()

	region.ClearContent()
	region.SetTitle(r.issueHeadline(issue))

	// Scalar properties, empties skipped so a sparse payload cannot
	// blank out previously-set values.
	r.setProp(region, "assignee", issue.Assignee)
	r.setProp(region, "reporter", issue.Reporter)
	r.setProp(region, "type", issue.Type)
	r.setProp(region, "priority", issue.Priority)
	r.setProp(region, "status", issue.Status)
	r.setProp(region, "resolution", issue.Resolution)
	r.setProp(region, "components", strings.Join(issue.Components, ", "))
	r.setProp(region, "labels", strings.Join(issue.Labels, ", "))
	if !issue.Created.IsZero() {
		r.setProp(region, "created", fields.FormatLocal(issue.Created))
	}
	if !issue.Updated.IsZero() {
		r.setProp(region, "updated", fields.FormatLocal(issue.Updated))
	}
	if !issue.DueDate.IsZero() {
		r.setProp(region, "deadline", fields.FormatLocalDate(issue.DueDate))
	}

	// Identity written under both names, exempt from overrides.
	region.SetProperty(org.PropertyID, issue.Key)
	region.SetProperty(org.PropertyCustomID, issue.Key)

	if issue.Description != "" {
		region.SetBody(strings.Split(issue.Description, "\n"))
	}

	return sec
}

// issueHeadline derives the section title: status keyword, priority
// marker, then summary.
func (r *Renderer) issueHeadline(issue models.Issue) string {
	parts := []string{r.norm.StatusKeyword(issue.Status)}
	if marker := fields.PriorityMarker(issue.Priority); marker != "" {
		parts = append(parts, marker)
	}
	parts = append(parts, issue.Summary)
	return strings.Join(parts, " ")
}

// UpsertComment renders a comment as a subsection beneath its issue's
// section.
func (r *Renderer) UpsertComment(doc *org.Document, issueSec *org.Section, comment models.Comment) *org.Section {
	sec := org.FindByIdentity(issueSec.Children, comment.ID)
	if sec == nil {
		sec = issueSec.AppendChild("")
	}

	region := doc.Narrow(sec)
	defer region.Widen()

	region.ClearContent()
	region.SetTitle(fmt.Sprintf("Comment: %s", comment.Author))
	r.setProp(region, "author", comment.Author)
	if !comment.Created.IsZero() {
		r.setProp(region, "created", fields.FormatLocal(comment.Created))
	}
	if !comment.Updated.IsZero() {
		r.setProp(region, "updated", fields.FormatLocal(comment.Updated))
	}
	region.SetProperty(org.PropertyID, comment.ID)
	region.SetProperty(org.PropertyCustomID, comment.ID)
	if comment.Body != "" {
		region.SetBody(strings.Split(comment.Body, "\n"))
	}

	return sec
}

// UpsertAttachments rewrites the attachment list beneath an issue
// section as a single child section, or removes it when the issue has
// no attachments.
func (r *Renderer) UpsertAttachments(doc *org.Document, issueSec *org.Section, attachments []models.Attachment) {
	const title = "Attachments"
	var sec *org.Section
	for _, child := range issueSec.Children {
		if child.Title == title {
			sec = child
			break
		}
	}
	if len(attachments) == 0 {
		if sec != nil {
			issueSec.RemoveChild(sec)
		}
		return
	}
	if sec == nil {
		sec = issueSec.AppendChild(title)
	}

	region := doc.Narrow(sec)
	defer region.Widen()

	lines := make([]string, 0, len(attachments))
	for _, a := range attachments {
		lines = append(lines, fmt.Sprintf("- [[%s][%s]]", a.URL, a.Filename))
	}
	region.SetBody(lines)
}

// UpsertBoard renders a board entry into the board index document.
func (r *Renderer) UpsertBoard(doc *org.Document, board models.Board) *org.Section {
	identity := strconv.Itoa(board.ID)
	sec := doc.FindByIdentity(identity)
	if sec == nil {
		sec = doc.AppendTopLevel("")
	}

	region := doc.Narrow(sec)
	defer region.Widen()

	region.ClearContent()
	region.SetTitle(board.Name)
	r.setProp(region, "type", board.Type)
	r.setProp(region, "query", board.Query)
	if board.Limit > 0 {
		r.setProp(region, "limit", strconv.Itoa(board.Limit))
	}
	region.SetProperty(org.PropertyID, identity)
	region.SetProperty(org.PropertyCustomID, identity)

	return sec
}

// UpsertProject renders a project entry into the project index
// document.
func (r *Renderer) UpsertProject(doc *org.Document, project models.Project) *org.Section {
	sec := doc.FindByIdentity(project.Key)
	if sec == nil {
		sec = doc.AppendTopLevel("")
	}

	region := doc.Narrow(sec)
	defer region.Widen()

	region.ClearContent()
	region.SetTitle(fmt.Sprintf("%s: %s", project.Key, project.Name))
	r.setProp(region, "name", project.Name)
	r.setProp(region, "project-id", project.ID)
	region.SetProperty(org.PropertyID, project.Key)
	region.SetProperty(org.PropertyCustomID, project.Key)

	return sec
}

// UpsertIssueHead renders a head-only issue entry (key, headline,
// status) into the issue index document.
func (r *Renderer) UpsertIssueHead(doc *org.Document, issue models.Issue) *org.Section {
	sec := doc.FindByIdentity(issue.Key)
	if sec == nil {
		sec = doc.AppendTopLevel("")
	}

	region := doc.Narrow(sec)
	defer region.Widen()

	region.ClearContent()
	region.SetTitle(fmt.Sprintf("%s: %s", issue.Key, issue.Summary))
	r.setProp(region, "status", issue.Status)
	r.setProp(region, "type", issue.Type)
	region.SetProperty(org.PropertyID, issue.Key)
	region.SetProperty(org.PropertyCustomID, issue.Key)

	return sec
}

// setProp writes one canonical property through the override table,
// skipping empty values.
func (r *Renderer) setProp(region *org.Region, canonical, value string) {
	if value == "" {
		return
	}
	region.SetProperty(r.cfg.PropertyName(canonical), value)
}
