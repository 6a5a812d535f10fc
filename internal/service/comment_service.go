package service

import (
	"context"
	"errors"

	"quorum/internal/models"
	"quorum/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxCommentLen = 5000

// CommentService implements comment CRUD, like toggling and the cascading
// "retire" operation that keeps the score ledger consistent with deletions.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	db          *gorm.DB
}

type CreateCommentInput struct {
	Actor    models.Actor
	PostID   uint
	ParentID *uint
	Content  string
}

type UpdateCommentInput struct {
	Actor     models.Actor
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	Actor     models.Actor
	CommentID uint
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	Likes   int64 `json:"likes"`
	IsLiked bool  `json:"is_liked"`
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	db *gorm.DB,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		db:          db,
	}
}

// asNotFound converts gorm's missing-record error into the typed NOT_FOUND
// error; soft-deleted rows are excluded by gorm's default scope, so "deleted"
// and "missing" surface identically.
func asNotFound(err error, resource string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return err
}

func validateContent(content string) error {
	if content == "" {
		return models.NewValidationError("Content is required")
	}
	if len(content) > maxCommentLen {
		return models.NewValidationError("Comment too long (max 5000 characters)")
	}
	return nil
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}
	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, asNotFound(err, "Post", in.PostID)
	}

	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, asNotFound(err, "Parent comment", *in.ParentID)
		}
		if parent.PostID != in.PostID {
			return nil, models.NewUnauthorizedError("Parent comment does not belong to this post")
		}
	}

	comment := &models.Comment{
		Content:  in.Content,
		UserID:   in.Actor.UserID,
		PostID:   in.PostID,
		ParentID: in.ParentID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

// ListComments returns the reply tree for a post. The flat fetch is ordered
// by creation time ascending and the builder preserves that order.
func (s *CommentService) ListComments(ctx context.Context, postID, viewerID uint) ([]*models.CommentNode, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, asNotFound(err, "Post", postID)
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}
	return BuildThread(comments), nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, asNotFound(err, "Comment", in.CommentID)
	}

	if comment.UserID != in.Actor.UserID && !in.Actor.IsAdmin() {
		return nil, models.NewUnauthorizedError("You can only update your own comments")
	}
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}

	comment.Content = in.Content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

// DeleteComment retires a comment: it soft-deletes the comment and its whole
// reply subtree, revokes any solution points earned inside that subtree and
// re-derives the post status, all in one transaction. A crash mid-way leaves
// nothing half-deleted and no dangling ledger entries.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Comment, error) {
	var deleted *models.Comment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, in.CommentID).Error; err != nil {
			return asNotFound(err, "Comment", in.CommentID)
		}
		if comment.UserID != in.Actor.UserID && !in.Actor.IsAdmin() {
			return models.NewUnauthorizedError("You can only delete your own comments")
		}

		// Collect the live subtree breadth-first over parent_id.
		ids := []uint{comment.ID}
		var solutions []models.Comment
		if comment.IsSolution {
			solutions = append(solutions, comment)
		}
		frontier := []uint{comment.ID}
		for len(frontier) > 0 {
			var children []models.Comment
			if err := tx.Select("id", "user_id", "post_id", "is_solution").
				Where("parent_id IN ?", frontier).
				Find(&children).Error; err != nil {
				return err
			}
			frontier = frontier[:0]
			for i := range children {
				ids = append(ids, children[i].ID)
				frontier = append(frontier, children[i].ID)
				if children[i].IsSolution {
					solutions = append(solutions, children[i])
				}
			}
		}

		if err := tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		for _, sol := range solutions {
			if _, err := repository.RevokePoint(tx, sol.UserID, sol.ID); err != nil {
				return err
			}
		}
		if len(solutions) > 0 {
			if err := rederivePostStatus(tx, comment.PostID); err != nil {
				return err
			}
		}

		deleted = &comment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// ToggleLike flips the (comment, user) like membership. The row's existence
// is the liked state, so concurrent toggles serialize at the unique index
// instead of desyncing a counter.
func (s *CommentService) ToggleLike(ctx context.Context, commentID, userID uint) (*LikeResult, error) {
	result := &LikeResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, commentID).Error; err != nil {
			return asNotFound(err, "Comment", commentID)
		}

		var existing int64
		if err := tx.Model(&models.CommentLike{}).
			Where("comment_id = ? AND user_id = ?", commentID, userID).
			Count(&existing).Error; err != nil {
			return err
		}

		if existing > 0 {
			if err := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).
				Delete(&models.CommentLike{}).Error; err != nil {
				return err
			}
			result.IsLiked = false
		} else {
			like := &models.CommentLike{CommentID: commentID, UserID: userID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error; err != nil {
				return err
			}
			result.IsLiked = true
		}

		return tx.Model(&models.CommentLike{}).
			Where("comment_id = ?", commentID).
			Count(&result.Likes).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
