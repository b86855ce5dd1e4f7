// Package jira wraps the remote issue-tracking service behind the
// query surface the sync engine consumes. All methods are synchronous;
// background fetches are driven from the session layer, which owns
// the executor that serializes their continuations.
package jira

import (
	"context"
	"fmt"
	"net/http"

	jira "github.com/andygrunwald/go-jira"
	"golang.org/x/oauth2"

	"github.com/pmattila/loom/internal/config"
	"github.com/pmattila/loom/internal/fields"
	"github.com/pmattila/loom/internal/logging"
	"github.com/pmattila/loom/pkg/models"
)

// Client handles interactions with the remote service.
type Client struct {
	client     *jira.Client
	normalizer *fields.Normalizer
	maxResults int
}

// NewClient creates a client from configuration. In legacy transport
// mode the coded-field reference lists are fetched once up front;
// failure there degrades name resolution but is not fatal.
func NewClient(cfg *config.Config) (*Client, error) {
	if err := config.ValidateJiraConfig(cfg); err != nil {
		return nil, err
	}

	var httpClient *http.Client
	switch cfg.Jira.AuthMode {
	case "bearer":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Jira.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	default:
		tp := jira.BasicAuthTransport{
			Username: cfg.Jira.Username,
			Password: cfg.Jira.Token,
		}
		httpClient = tp.Client()
	}

	client, err := jira.NewClient(httpClient, cfg.Jira.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}

	logging.Info("jira client configured",
		"url", cfg.Jira.URL,
		"auth_mode", cfg.Jira.AuthMode,
		"token", logging.MaskSensitive(cfg.Jira.Token))

	c := &Client{
		client: client,
		normalizer: &fields.Normalizer{
			Legacy:       cfg.Jira.Legacy,
			DoneStatuses: cfg.DoneStatuses,
		},
		maxResults: cfg.MaxResults,
	}

	if cfg.Jira.Legacy {
		c.loadReferenceLists()
	}

	return c, nil
}

// Normalizer exposes the client's field normalizer for headline
// derivation.
func (c *Client) Normalizer() *fields.Normalizer {
	return c.normalizer
}

// loadReferenceLists populates the id-to-name tables the legacy transport
// needs for status, priority, and resolution fields.
func (c *Client) loadReferenceLists() {
	c.normalizer.Statuses = map[string]string{}
	c.normalizer.Priorities = map[string]string{}
	c.normalizer.Resolutions = map[string]string{}

	if statuses, _, err := c.client.Status.GetAllStatuses(); err != nil {
		logging.Warn("failed to fetch status reference list", "error", err)
	} else {
		for _, s := range statuses {
			c.normalizer.Statuses[s.ID] = s.Name
		}
	}

	if priorities, _, err := c.client.Priority.GetList(); err != nil {
		logging.Warn("failed to fetch priority reference list", "error", err)
	} else {
		for _, p := range priorities {
			c.normalizer.Priorities[p.ID] = p.Name
		}
	}

	if resolutions, _, err := c.client.Resolution.GetList(); err != nil {
		logging.Warn("failed to fetch resolution reference list", "error", err)
	} else {
		for _, r := range resolutions {
			c.normalizer.Resolutions[r.ID] = r.Name
		}
	}
}

// SearchIssues runs a query and returns decoded issue snapshots.
func (c *Client) SearchIssues(query string, limit int) ([]models.Issue, error) {
	if limit <= 0 {
		limit = c.maxResults
	}
	issues, resp, err := c.client.Issue.Search(query, &jira.SearchOptions{MaxResults: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to search issues: %v (status: %d)", err, statusCode(resp))
	}
	out := make([]models.Issue, 0, len(issues))
	for i := range issues {
		out = append(out, c.decodeIssue(&issues[i]))
	}
	return out, nil
}

// GetIssue fetches a single issue by key or id.
func (c *Client) GetIssue(key string) (models.Issue, error) {
	issue, resp, err := c.client.Issue.Get(key, nil)
	if err != nil {
		return models.Issue{}, fmt.Errorf("failed to get issue %s: %v (status: %d)", key, err, statusCode(resp))
	}
	return c.decodeIssue(issue), nil
}

// GetComments fetches the comments beneath an issue.
func (c *Client) GetComments(issueKey string) ([]models.Comment, error) {
	issue, resp, err := c.client.Issue.Get(issueKey, &jira.GetQueryOptions{Fields: "comment"})
	if err != nil {
		return nil, fmt.Errorf("failed to get comments for %s: %v (status: %d)", issueKey, err, statusCode(resp))
	}
	if issue.Fields == nil || issue.Fields.Comments == nil {
		return nil, nil
	}
	out := make([]models.Comment, 0, len(issue.Fields.Comments.Comments))
	for _, cm := range issue.Fields.Comments.Comments {
		out = append(out, decodeComment(cm, issueKey))
	}
	return out, nil
}

// GetWorklogs fetches the work-time records against an issue.
func (c *Client) GetWorklogs(issueKey string) ([]models.Worklog, error) {
	wl, resp, err := c.client.Issue.GetWorklogs(issueKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get worklogs for %s: %v (status: %d)", issueKey, err, statusCode(resp))
	}
	out := make([]models.Worklog, 0, len(wl.Worklogs))
	for i := range wl.Worklogs {
		out = append(out, decodeWorklog(&wl.Worklogs[i], issueKey))
	}
	return out, nil
}

// GetAttachments fetches the attachment metadata of an issue.
func (c *Client) GetAttachments(issueKey string) ([]models.Attachment, error) {
	issue, resp, err := c.client.Issue.Get(issueKey, &jira.GetQueryOptions{Fields: "attachment"})
	if err != nil {
		return nil, fmt.Errorf("failed to get attachments for %s: %v (status: %d)", issueKey, err, statusCode(resp))
	}
	if issue.Fields == nil {
		return nil, nil
	}
	out := make([]models.Attachment, 0, len(issue.Fields.Attachments))
	for _, a := range issue.Fields.Attachments {
		out = append(out, models.Attachment{
			ID:       a.ID,
			Filename: a.Filename,
			URL:      a.Content,
			Author:   displayName(a.Author),
			Size:     a.Size,
			IssueKey: issueKey,
		})
	}
	return out, nil
}

// AddWorklog creates a work-time record and returns the created
// record with its assigned identity.
func (c *Client) AddWorklog(issueKey string, w models.Worklog) (models.Worklog, error) {
	started := jira.Time(w.Started)
	record := &jira.WorklogRecord{
		Started:          &started,
		TimeSpentSeconds: w.Seconds,
		Comment:          w.Comment,
	}
	created, resp, err := c.client.Issue.AddWorklogRecord(issueKey, record)
	if err != nil {
		return models.Worklog{}, fmt.Errorf("failed to add worklog to %s: %v (status: %d)", issueKey, err, statusCode(resp))
	}
	return decodeWorklog(created, issueKey), nil
}

// UpdateWorklog rewrites an existing work-time record.
func (c *Client) UpdateWorklog(issueKey, worklogID string, w models.Worklog) (models.Worklog, error) {
	started := jira.Time(w.Started)
	record := &jira.WorklogRecord{
		Started:          &started,
		TimeSpentSeconds: w.Seconds,
		Comment:          w.Comment,
	}
	updated, resp, err := c.client.Issue.UpdateWorklogRecord(issueKey, worklogID, record)
	if err != nil {
		return models.Worklog{}, fmt.Errorf("failed to update worklog %s on %s: %v (status: %d)", worklogID, issueKey, err, statusCode(resp))
	}
	return decodeWorklog(updated, issueKey), nil
}

// AddComment posts a new comment beneath an issue.
func (c *Client) AddComment(issueKey, body string) (models.Comment, error) {
	cm, resp, err := c.client.Issue.AddComment(issueKey, &jira.Comment{Body: body})
	if err != nil {
		return models.Comment{}, fmt.Errorf("failed to add comment to %s: %v (status: %d)", issueKey, err, statusCode(resp))
	}
	return decodeComment(cm, issueKey), nil
}

// EditComment rewrites an existing comment's body.
func (c *Client) EditComment(issueKey, commentID, body string) (models.Comment, error) {
	cm, resp, err := c.client.Issue.UpdateComment(issueKey, &jira.Comment{ID: commentID, Body: body})
	if err != nil {
		return models.Comment{}, fmt.Errorf("failed to edit comment %s on %s: %v (status: %d)", commentID, issueKey, err, statusCode(resp))
	}
	return decodeComment(cm, issueKey), nil
}

// CreateIssue creates a new issue and returns its decoded snapshot.
func (c *Client) CreateIssue(projectKey, issueType, summary, description string) (models.Issue, error) {
	issue := &jira.Issue{
		Fields: &jira.IssueFields{
			Project:     jira.Project{Key: projectKey},
			Type:        jira.IssueType{Name: issueType},
			Summary:     summary,
			Description: description,
		},
	}
	created, resp, err := c.client.Issue.Create(issue)
	if err != nil {
		return models.Issue{}, fmt.Errorf("failed to create issue: %v (status: %d)", err, statusCode(resp))
	}
	return c.GetIssue(created.Key)
}

// UpdateIssue rewrites the summary and description of an issue.
func (c *Client) UpdateIssue(key, summary, description string) error {
	issue := &jira.Issue{
		Key: key,
		Fields: &jira.IssueFields{
			Summary:     summary,
			Description: description,
		},
	}
	_, resp, err := c.client.Issue.Update(issue)
	if err != nil {
		return fmt.Errorf("failed to update issue %s: %v (status: %d)", key, err, statusCode(resp))
	}
	return nil
}

// GetProjects fetches all visible projects.
func (c *Client) GetProjects() ([]models.Project, error) {
	list, resp, err := c.client.Project.GetList()
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %v (status: %d)", err, statusCode(resp))
	}
	out := make([]models.Project, 0, len(*list))
	for _, p := range *list {
		out = append(out, models.Project{ID: p.ID, Key: p.Key, Name: p.Name})
	}
	return out, nil
}

// GetBoards fetches all visible boards.
func (c *Client) GetBoards() ([]models.Board, error) {
	list, resp, err := c.client.Board.GetAllBoards(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %v (status: %d)", err, statusCode(resp))
	}
	out := make([]models.Board, 0, len(list.Values))
	for _, b := range list.Values {
		out = append(out, models.Board{ID: b.ID, Name: b.Name, Type: b.Type})
	}
	return out, nil
}

// GetBoardIssues fetches the issues on a board, capped at limit.
func (c *Client) GetBoardIssues(boardID int, limit int) ([]models.Issue, error) {
	if limit <= 0 {
		limit = c.maxResults
	}
	issues, resp, err := c.client.Board.GetIssuesForBoard(boardID, &jira.SearchOptions{MaxResults: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to get issues for board %d: %v (status: %d)", boardID, err, statusCode(resp))
	}
	out := make([]models.Issue, 0, len(issues))
	for i := range issues {
		out = append(out, c.decodeIssue(&issues[i]))
	}
	return out, nil
}

func statusCode(resp *jira.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}
