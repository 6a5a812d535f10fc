package service

import (
	"context"
	"log/slog"

	"quorum/internal/featureflags"
	"quorum/internal/middleware"
	"quorum/internal/models"
	"quorum/internal/notifications"
	"quorum/internal/observability"
	"quorum/internal/repository"

	"gorm.io/gorm"
)

// SolutionService is the single place where the one-solution-per-post
// invariant, the score ledger and the derived post status are kept
// consistent. Every toggle runs as one transaction: either the flag, the
// ledger and the status all move together, or none of them do.
type SolutionService struct {
	db       *gorm.DB
	notifier *notifications.Notifier
	flags    *featureflags.Manager
}

func NewSolutionService(db *gorm.DB, notifier *notifications.Notifier, flags *featureflags.Manager) *SolutionService {
	return &SolutionService{db: db, notifier: notifier, flags: flags}
}

// canModerate reports whether the actor may flip solution flags on the post:
// the post's author, an admin, or a company account moderating a post written
// by one of its own employees.
func canModerate(actor models.Actor, post *models.Post) bool {
	if actor.UserID == post.UserID || actor.IsAdmin() {
		return true
	}
	if actor.IsCompanyScoped() && post.User.CompanyID != nil {
		return *actor.CompanyID == *post.User.CompanyID
	}
	return false
}

// ToggleSolution flips a comment's solution flag.
//
// Marking awards one point to the comment's author unless the ledger already
// holds a (author, comment) entry, so retries and double-clicks cannot
// double-award. Unmarking revokes that entry and re-derives the post status,
// never touching a rejected status. Returns the updated comment.
func (s *SolutionService) ToggleSolution(ctx context.Context, actor models.Actor, commentID uint) (*models.Comment, error) {
	ctx, span := observability.GetTraceLayer().TraceServiceCall(ctx, "SolutionService", "ToggleSolution")
	defer span.End()

	var updated *models.Comment
	var newlySolved bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Preload("User").First(&comment, commentID).Error; err != nil {
			return asNotFound(err, "Comment", commentID)
		}

		var post models.Post
		if err := tx.Preload("User").First(&post, comment.PostID).Error; err != nil {
			return asNotFound(err, "Post", comment.PostID)
		}

		if !canModerate(actor, &post) {
			return models.NewUnauthorizedError("Only the post author or a moderator can mark a solution")
		}

		if !comment.IsSolution {
			// Demote any previously marked solution so the post never holds
			// two live solutions, even if older data predates this service.
			var current []models.Comment
			if err := tx.Where("post_id = ? AND is_solution = ? AND id <> ?", post.ID, true, comment.ID).
				Find(&current).Error; err != nil {
				return err
			}
			for i := range current {
				if err := tx.Model(&current[i]).Update("is_solution", false).Error; err != nil {
					return err
				}
				if _, err := repository.RevokePoint(tx, current[i].UserID, current[i].ID); err != nil {
					return err
				}
			}

			if err := tx.Model(&comment).Update("is_solution", true).Error; err != nil {
				return err
			}
			if _, err := repository.AwardPoint(tx, comment.UserID, comment.ID); err != nil {
				return err
			}
			if post.Status != models.PostStatusRejected {
				if err := tx.Model(&post).Update("status", models.PostStatusSolve).Error; err != nil {
					return err
				}
			}
			newlySolved = true
		} else {
			if err := tx.Model(&comment).Update("is_solution", false).Error; err != nil {
				return err
			}
			if _, err := repository.RevokePoint(tx, comment.UserID, comment.ID); err != nil {
				return err
			}
			if err := rederivePostStatus(tx, post.ID); err != nil {
				return err
			}
		}

		updated = &comment
		return nil
	})
	if err != nil {
		observability.RecordErrorInContext(ctx, err)
		return nil, err
	}

	if newlySolved {
		middleware.SolutionToggles.WithLabelValues("mark").Inc()
		// Best-effort: a failed notification must never fail the toggle.
		s.notifySolved(ctx, updated)
	} else {
		middleware.SolutionToggles.WithLabelValues("unmark").Inc()
	}
	return updated, nil
}

// RejectPost moves a post into the rejected status. Only an admin or a
// company account responsible for the post's author may reject; a rejected
// post keeps that status through later solution toggles until moderation
// lifts it.
func (s *SolutionService) RejectPost(ctx context.Context, actor models.Actor, postID uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("User").First(&post, postID).Error; err != nil {
			return asNotFound(err, "Post", postID)
		}

		allowed := actor.IsAdmin()
		if !allowed && actor.IsCompanyScoped() && post.User.CompanyID != nil {
			allowed = *actor.CompanyID == *post.User.CompanyID
		}
		if !allowed {
			return models.NewUnauthorizedError("Only an admin or the responsible company account can reject a post")
		}

		return tx.Model(&post).Update("status", models.PostStatusRejected).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// rederivePostStatus restores the comment-derived status after a solution was
// revoked or retired: problem when no live solution remains, solve otherwise.
// A rejected status belongs to the moderation workflow and is left alone.
func rederivePostStatus(tx *gorm.DB, postID uint) error {
	var post models.Post
	if err := tx.First(&post, postID).Error; err != nil {
		return err
	}
	if post.Status == models.PostStatusRejected {
		return nil
	}

	var remaining int64
	if err := tx.Model(&models.Comment{}).
		Where("post_id = ? AND is_solution = ?", postID, true).
		Count(&remaining).Error; err != nil {
		return err
	}

	status := models.PostStatusProblem
	if remaining > 0 {
		status = models.PostStatusSolve
	}
	if post.Status == status {
		return nil
	}
	return tx.Model(&post).Update("status", status).Error
}

func (s *SolutionService) notifySolved(ctx context.Context, comment *models.Comment) {
	if s.notifier == nil {
		return
	}
	// Rollout-gated so delivery can be ramped or switched off per user.
	if !s.flags.Enabled("solved_notify", comment.UserID) {
		return
	}
	if err := s.notifier.PublishSolutionMarked(ctx, comment); err != nil {
		middleware.Logger.WarnContext(ctx, "solution notification dropped",
			slog.Any("comment_id", comment.ID),
			slog.Any("user_id", comment.UserID),
			slog.String("error", err.Error()),
		)
	}
}
