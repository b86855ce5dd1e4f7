// Package session ties the sync engine together: one Session holds
// the active remote endpoint, the working directory, the document
// cache, and the search index, and exposes the synchronization
// operations the command layer calls.
//
// All document mutation runs on the session's single executor
// goroutine, so no operation can observe a half-written section.
// Overlapping syncs of the same issue or query collapse into one
// in-flight call.
package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pmattila/loom/internal/config"
	"github.com/pmattila/loom/internal/fields"
	"github.com/pmattila/loom/internal/jira"
	"github.com/pmattila/loom/internal/logging"
	"github.com/pmattila/loom/internal/org"
	"github.com/pmattila/loom/internal/reconcile"
	"github.com/pmattila/loom/internal/render"
	"github.com/pmattila/loom/internal/search"
	"github.com/pmattila/loom/pkg/models"
)

// RemoteAPI is the remote-service surface a session consumes. The
// concrete implementation is internal/jira; tests substitute mocks.
type RemoteAPI interface {
	reconcile.WorklogAPI

	SearchIssues(query string, limit int) ([]models.Issue, error)
	GetIssue(key string) (models.Issue, error)
	GetComments(issueKey string) ([]models.Comment, error)
	GetAttachments(issueKey string) ([]models.Attachment, error)
	GetProjects() ([]models.Project, error)
	GetBoards() ([]models.Board, error)
	GetBoardIssues(boardID int, limit int) ([]models.Issue, error)
	CreateIssue(projectKey, issueType, summary, description string) (models.Issue, error)
	UpdateIssue(key, summary, description string) error
	AddComment(issueKey, body string) (models.Comment, error)
	EditComment(issueKey, commentID, body string) (models.Comment, error)
	Normalizer() *fields.Normalizer
}

// Session is one synchronization context.
type Session struct {
	cfg      *config.Config
	remote   RemoteAPI
	renderer *render.Renderer
	worklogs *reconcile.WorklogReconciler
	comments *reconcile.CommentReconciler
	index    *search.Index

	ops    chan func()
	flight singleflight.Group

	// docs is the per-session document cache, touched only from the
	// executor goroutine.
	docs map[string]*org.Document

	closeOnce   sync.Once
	watchCancel context.CancelFunc
}

// New creates a session over an already-constructed remote client.
func New(cfg *config.Config, remote RemoteAPI) *Session {
	s := &Session{
		cfg:      cfg,
		remote:   remote,
		renderer: render.New(cfg, remote.Normalizer()),
		index:    search.New(cfg.Workdir),
		ops:      make(chan func(), 16),
		docs:     make(map[string]*org.Document),
	}
	s.worklogs = reconcile.NewWorklogReconciler(remote)
	s.comments = reconcile.NewCommentReconciler(cfg, s.renderer)
	go s.run()
	return s
}

// Open creates a session with a real remote client from config.
func Open(cfg *config.Config) (*Session, error) {
	client, err := jira.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jira client: %w", err)
	}
	return New(cfg, client), nil
}

// Close shuts down the executor and any active index watcher. The
// session must not be used afterwards.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.watchCancel != nil {
			s.watchCancel()
		}
		close(s.ops)
	})
}

func (s *Session) run() {
	for fn := range s.ops {
		fn()
	}
}

// do runs fn on the executor goroutine and waits for it.
func (s *Session) do(fn func() error) error {
	errc := make(chan error, 1)
	s.ops <- func() { errc <- fn() }
	return <-errc
}

// post schedules fn on the executor without waiting; used for
// continuations of asynchronous fetches.
func (s *Session) post(fn func()) {
	s.ops <- fn
}

// document returns the cached parse of path, loading it on first use.
// Executor goroutine only.
func (s *Session) document(path string) (*org.Document, error) {
	if doc, ok := s.docs[path]; ok {
		return doc, nil
	}
	doc, err := org.Load(path)
	if err != nil {
		return nil, err
	}
	s.docs[path] = doc
	return doc, nil
}

// saveAll flushes every cached document. Executor goroutine only.
func (s *Session) saveAll() error {
	for _, doc := range s.docs {
		if err := doc.Save(); err != nil {
			return err
		}
	}
	return nil
}

// SyncIssueList fetches up to limit issues matching query (zero means
// the configured page size) and renders them with full comment and
// worklog sub-passes. Concurrent calls with the same query share one
// pass.
func (s *Session) SyncIssueList(query string, limit int) (models.SyncResult, error) {
	v, err, _ := s.flight.Do(fmt.Sprintf("sync:%d:%s", limit, query), func() (any, error) {
		issues, err := s.remote.SearchIssues(query, limit)
		if err != nil {
			return models.SyncResult{}, fmt.Errorf("failed to fetch issues: %w", err)
		}
		return s.RenderIssues(issues)
	})
	res, _ := v.(models.SyncResult)
	return res, err
}

// SyncIssueListAsync runs SyncIssueList off the calling goroutine and
// posts the continuation onto the executor once rendering completed.
func (s *Session) SyncIssueListAsync(query string, limit int, cb func(models.SyncResult, error)) {
	go func() {
		res, err := s.SyncIssueList(query, limit)
		s.post(func() { cb(res, err) })
	}()
}

// RenderIssues renders a pre-fetched entity list. Failures are
// isolated per entity: one bad issue never aborts the batch.
func (s *Session) RenderIssues(issues []models.Issue) (models.SyncResult, error) {
	var res models.SyncResult
	err := s.do(func() error {
		for i := range issues {
			per, err := s.renderIssue(&issues[i])
			if err != nil {
				logging.Error("failed to render issue",
					"issue", issues[i].Key,
					"error", err)
				per = models.SyncResult{Failed: 1}
			}
			res.Add(per)
		}
		return s.saveAll()
	})
	if err != nil {
		return res, err
	}
	if rerr := s.index.Rebuild(); rerr != nil {
		logging.Warn("index rebuild after render failed", "error", rerr)
	}
	return res, nil
}

// renderIssue upserts one issue section and runs the comment,
// attachment, and worklog sub-passes, reporting whether the section
// was newly created or rewritten. Executor goroutine only.
func (s *Session) renderIssue(issue *models.Issue) (models.SyncResult, error) {
	path := s.cfg.FileFor(issue.ProjectKey)
	issue.Filename = filepath.Base(path)

	doc, err := s.document(path)
	if err != nil {
		return models.SyncResult{}, err
	}

	per := models.SyncResult{Updated: 1}
	if doc.FindByIdentity(issue.Key) == nil {
		per = models.SyncResult{Created: 1}
	}

	sec := s.renderer.UpsertIssue(doc, *issue)

	if comments, err := s.remote.GetComments(issue.Key); err != nil {
		logging.Warn("failed to fetch comments", "issue", issue.Key, "error", err)
	} else {
		s.comments.Reconcile(doc, sec, comments)
	}

	if attachments, err := s.remote.GetAttachments(issue.Key); err != nil {
		logging.Warn("failed to fetch attachments", "issue", issue.Key, "error", err)
	} else {
		s.renderer.UpsertAttachments(doc, sec, attachments)
	}

	if _, err := s.worklogs.Reconcile(doc, issue.Key); err != nil {
		logging.Warn("failed to reconcile worklogs", "issue", issue.Key, "error", err)
	}

	if head, err := s.document(filepath.Join(s.cfg.Workdir, config.IssueIndexFile)); err != nil {
		logging.Warn("failed to load issue index", "issue", issue.Key, "error", err)
	} else {
		s.renderer.UpsertIssueHead(head, *issue)
	}

	return per, nil
}

// RefreshIssue re-fetches one issue and re-renders its section.
// Overlapping refreshes of the same key share one pass.
func (s *Session) RefreshIssue(key string) error {
	_, err, _ := s.flight.Do("issue:"+key, func() (any, error) {
		issue, err := s.remote.GetIssue(key)
		if err != nil {
			return nil, err
		}
		_, err = s.RenderIssues([]models.Issue{issue})
		return nil, err
	})
	return err
}

// CreateIssue creates an issue remotely and renders its new section.
func (s *Session) CreateIssue(projectKey, issueType, summary, description string) (models.Issue, error) {
	issue, err := s.remote.CreateIssue(projectKey, issueType, summary, description)
	if err != nil {
		return models.Issue{}, err
	}
	_, err = s.RenderIssues([]models.Issue{issue})
	return issue, err
}

// UpdateIssue pushes a summary/description change upstream and
// re-renders the issue's section from the updated remote state.
func (s *Session) UpdateIssue(key, summary, description string) error {
	if err := s.remote.UpdateIssue(key, summary, description); err != nil {
		return err
	}
	return s.RefreshIssue(key)
}

// AddComment posts a comment upstream and re-renders the issue's
// section so the new comment appears locally.
func (s *Session) AddComment(issueKey, body string) (models.Comment, error) {
	comment, err := s.remote.AddComment(issueKey, body)
	if err != nil {
		return models.Comment{}, err
	}
	return comment, s.RefreshIssue(issueKey)
}

// EditComment rewrites an existing comment upstream and re-renders the
// issue's section.
func (s *Session) EditComment(issueKey, commentID, body string) (models.Comment, error) {
	comment, err := s.remote.EditComment(issueKey, commentID, body)
	if err != nil {
		return models.Comment{}, err
	}
	return comment, s.RefreshIssue(issueKey)
}

// ReconcileWorklogs runs the worklog reconciler for one issue already
// present in the local documents.
func (s *Session) ReconcileWorklogs(issueKey string) (models.SyncResult, error) {
	v, err, _ := s.flight.Do("worklog:"+issueKey, func() (any, error) {
		var res models.SyncResult
		err := s.do(func() error {
			doc, err := s.document(s.cfg.FileFor(projectOf(issueKey)))
			if err != nil {
				return err
			}
			res, err = s.worklogs.Reconcile(doc, issueKey)
			if err != nil {
				return err
			}
			return doc.Save()
		})
		return res, err
	})
	res, _ := v.(models.SyncResult)
	return res, err
}

// SyncProjects renders the project index document.
func (s *Session) SyncProjects() (int, error) {
	projects, err := s.remote.GetProjects()
	if err != nil {
		return 0, fmt.Errorf("failed to fetch projects: %w", err)
	}
	err = s.do(func() error {
		doc, err := s.document(filepath.Join(s.cfg.Workdir, config.ProjectIndexFile))
		if err != nil {
			return err
		}
		for _, p := range projects {
			s.renderer.UpsertProject(doc, p)
		}
		return doc.Save()
	})
	return len(projects), err
}

// SyncBoards renders the board index document.
func (s *Session) SyncBoards() (int, error) {
	boards, err := s.remote.GetBoards()
	if err != nil {
		return 0, fmt.Errorf("failed to fetch boards: %w", err)
	}
	err = s.do(func() error {
		doc, err := s.document(filepath.Join(s.cfg.Workdir, config.BoardIndexFile))
		if err != nil {
			return err
		}
		for _, b := range boards {
			s.renderer.UpsertBoard(doc, b)
		}
		return doc.Save()
	})
	return len(boards), err
}

// SyncBoard fetches a board's issues and renders them like a query
// sync.
func (s *Session) SyncBoard(boardID int, limit int) (models.SyncResult, error) {
	v, err, _ := s.flight.Do(fmt.Sprintf("board:%d", boardID), func() (any, error) {
		issues, err := s.remote.GetBoardIssues(boardID, limit)
		if err != nil {
			return models.SyncResult{}, fmt.Errorf("failed to fetch board issues: %w", err)
		}
		return s.RenderIssues(issues)
	})
	res, _ := v.(models.SyncResult)
	return res, err
}

// SearchIndexSnapshot returns the current picker entries, building the
// index on first use.
func (s *Session) SearchIndexSnapshot() []search.Entry {
	if len(s.index.Snapshot()) == 0 {
		if err := s.index.Rebuild(); err != nil {
			logging.Warn("search index rebuild failed", "error", err)
		}
	}
	return s.index.Snapshot()
}

// Index exposes the live search index for picker front ends.
func (s *Session) Index() *search.Index {
	return s.index
}

// StartIndexWatch keeps the index refreshing in the background while
// an interactive picker session is open. Close (or the returned
// cancel) stops it.
func (s *Session) StartIndexWatch(interval time.Duration) context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	s.watchCancel = cancel
	go func() {
		if err := s.index.Watch(ctx, interval); err != nil && err != context.Canceled {
			logging.Warn("index watcher stopped", "error", err)
		}
	}()
	return cancel
}

// projectOf derives the owning project key from an issue key
// ("EX-12" yields "EX").
func projectOf(issueKey string) string {
	if i := strings.IndexByte(issueKey, '-'); i > 0 {
		return issueKey[:i]
	}
	return issueKey
}
