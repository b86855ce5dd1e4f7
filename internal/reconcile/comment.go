package reconcile

import (
	"sort"

	"github.com/pmattila/loom/internal/config"
	"github.com/pmattila/loom/internal/logging"
	"github.com/pmattila/loom/internal/org"
	"github.com/pmattila/loom/internal/render"
	"github.com/pmattila/loom/pkg/models"
)

// CommentReconciler upserts comment sections beneath an issue section.
// Comments that vanished remotely are left in place.
type CommentReconciler struct {
	cfg      *config.Config
	renderer *render.Renderer
}

// NewCommentReconciler creates a reconciler using the given renderer.
func NewCommentReconciler(cfg *config.Config, renderer *render.Renderer) *CommentReconciler {
	return &CommentReconciler{cfg: cfg, renderer: renderer}
}

// Reconcile filters out comments by ignored authors, applies the
// configured ordering, and upserts each remaining comment by identity.
// Returns the number of comments rendered.
func (r *CommentReconciler) Reconcile(doc *org.Document, issueSec *org.Section, comments []models.Comment) int {
	kept := make([]models.Comment, 0, len(comments))
	for _, cm := range comments {
		if r.cfg.IsIgnoredAuthor(cm.Author) {
			logging.Debug("skipping comment by ignored author",
				"comment_id", cm.ID,
				"author", cm.Author)
			continue
		}
		kept = append(kept, cm)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if r.cfg.ReverseComments {
			return kept[i].Created.After(kept[j].Created)
		}
		return kept[i].Created.Before(kept[j].Created)
	})

	for _, cm := range kept {
		r.renderer.UpsertComment(doc, issueSec, cm)
	}
	return len(kept)
}
