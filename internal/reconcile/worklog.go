// Package reconcile aligns local document state with remote records:
// two-way diffing for work-time intervals, filtered upserts for
// comments.
package reconcile

import (
	"fmt"
	"sort"
	"time"

	"github.com/pmattila/loom/internal/logging"
	"github.com/pmattila/loom/internal/org"
	"github.com/pmattila/loom/pkg/models"
)

// WorklogAPI is the slice of the remote surface the worklog
// reconciler drives. Calls are synchronous: consecutive compare and
// update steps for one issue must stay strictly ordered.
type WorklogAPI interface {
	GetWorklogs(issueKey string) ([]models.Worklog, error)
	AddWorklog(issueKey string, w models.Worklog) (models.Worklog, error)
	UpdateWorklog(issueKey, worklogID string, w models.Worklog) (models.Worklog, error)
}

// WorklogReconciler diffs an issue section's timer block against the
// remote worklog set and regenerates the block from the merged result.
type WorklogReconciler struct {
	api WorklogAPI
}

// NewWorklogReconciler creates a reconciler over the given remote
// surface.
func NewWorklogReconciler(api WorklogAPI) *WorklogReconciler {
	return &WorklogReconciler{api: api}
}

// Reconcile runs one terminal pass for issueKey:
//
//  1. fetch the remote worklog set and index it by identity;
//  2. scan the local timer block;
//  3. linked intervals whose duration or start differ remotely get an
//     update call, identical ones are skipped without a network call;
//  4. provisional intervals (no identity) get a create call, unless a
//     remote record with identical start and duration already exists;
//     the assigned identity is not written back here;
//  5. the block is deleted wholesale and rebuilt from a fresh fetch of
//     the authoritative remote set, sorted by start time descending.
//
// Comparison uses exact equality on whole seconds; both sides store
// whole seconds, so no epsilon applies.
func (r *WorklogReconciler) Reconcile(doc *org.Document, issueKey string) (models.SyncResult, error) {
	var res models.SyncResult

	sec := doc.FindByIdentity(issueKey)
	if sec == nil {
		return res, fmt.Errorf("%w: %s", org.ErrIdentityNotFound, issueKey)
	}

	remote, err := r.api.GetWorklogs(issueKey)
	if err != nil {
		return res, err
	}
	byID := make(map[string]models.Worklog, len(remote))
	for _, w := range remote {
		byID[w.ID] = w
	}

	for _, local := range sec.Clocks {
		interval := models.Worklog{
			ID:       local.ID,
			Started:  local.Start,
			Seconds:  local.Seconds,
			Comment:  local.Note,
			IssueKey: issueKey,
		}

		if local.ID == "" {
			// A provisional interval identical to an existing remote
			// record was already pushed once and merely lost its
			// link; creating again would duplicate it.
			if matchesRemote(remote, interval) {
				res.Skipped++
				continue
			}
			// Create remotely. The assigned identity lands in the
			// block via the regeneration below.
			if _, err := r.api.AddWorklog(issueKey, interval); err != nil {
				logging.Error("failed to create worklog",
					"issue", issueKey,
					"started", interval.Started,
					"error", err)
				res.Failed++
				continue
			}
			res.Created++
			continue
		}

		rw, ok := byID[local.ID]
		if !ok {
			logging.Warn("local interval references unknown worklog id",
				"issue", issueKey,
				"worklog_id", local.ID)
			continue
		}
		if rw.Seconds == interval.Seconds && sameInstant(rw.Started, interval.Started) {
			res.Skipped++
			continue
		}
		if _, err := r.api.UpdateWorklog(issueKey, local.ID, interval); err != nil {
			logging.Error("failed to update worklog",
				"issue", issueKey,
				"worklog_id", local.ID,
				"error", err)
			res.Failed++
			continue
		}
		res.Updated++
	}

	// Incremental patching of the block would drift against edits made
	// through other clients; only a full rebuild stays correct.
	remote, err = r.api.GetWorklogs(issueKey)
	if err != nil {
		return res, fmt.Errorf("failed to refetch worklogs for regeneration: %w", err)
	}
	sort.SliceStable(remote, func(i, j int) bool {
		return remote[i].Started.After(remote[j].Started)
	})

	entries := make([]org.ClockEntry, 0, len(remote))
	for _, w := range remote {
		entries = append(entries, org.ClockEntry{
			Start:   w.Started,
			Seconds: w.Seconds,
			ID:      w.ID,
			Note:    w.Comment,
		})
	}

	region := doc.Narrow(sec)
	defer region.Widen()
	region.SetClocks(entries)

	return res, nil
}

// matchesRemote reports whether a provisional interval coincides with
// an existing remote record on start and duration.
func matchesRemote(remote []models.Worklog, interval models.Worklog) bool {
	for _, w := range remote {
		if w.Seconds == interval.Seconds && sameInstant(w.Started, interval.Started) {
			return true
		}
	}
	return false
}

// sameInstant compares two timestamps at whole-second resolution.
func sameInstant(a, b time.Time) bool {
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}
