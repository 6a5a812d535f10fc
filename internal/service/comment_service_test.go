package service

import (
	"context"
	"strings"
	"testing"

	"quorum/internal/models"
	"quorum/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCommentService(db *gorm.DB) *CommentService {
	return NewCommentService(
		repository.NewCommentRepository(db),
		repository.NewPostRepository(db),
		db,
	)
}

func TestCreateComment(t *testing.T) {
	db := setupTestDB(t)
	svc := newCommentService(db)
	ctx := context.Background()

	author := createUser(t, db, models.RoleUser, nil)
	post := createPost(t, db, author)

	t.Run("Success", func(t *testing.T) {
		comment, err := svc.CreateComment(ctx, CreateCommentInput{
			Actor:   actorFor(author),
			PostID:  post.ID,
			Content: "Have you tried turning it off and on again?",
		})
		require.NoError(t, err)
		assert.Equal(t, author.ID, comment.UserID)
		assert.Equal(t, post.ID, comment.PostID)
		assert.Nil(t, comment.ParentID)
		assert.Equal(t, author.Username, comment.User.Username)
	})

	t.Run("Reply", func(t *testing.T) {
		parent := createComment(t, db, author, post, nil)
		reply, err := svc.CreateComment(ctx, CreateCommentInput{
			Actor:    actorFor(author),
			PostID:   post.ID,
			ParentID: &parent.ID,
			Content:  "Replying",
		})
		require.NoError(t, err)
		require.NotNil(t, reply.ParentID)
		assert.Equal(t, parent.ID, *reply.ParentID)
	})

	t.Run("Empty content", func(t *testing.T) {
		_, err := svc.CreateComment(ctx, CreateCommentInput{
			Actor:  actorFor(author),
			PostID: post.ID,
		})
		assertAppErrorCode(t, err, "VALIDATION_ERROR")
	})

	t.Run("Content too long", func(t *testing.T) {
		_, err := svc.CreateComment(ctx, CreateCommentInput{
			Actor:   actorFor(author),
			PostID:  post.ID,
			Content: strings.Repeat("x", maxCommentLen+1),
		})
		assertAppErrorCode(t, err, "VALIDATION_ERROR")
	})

	t.Run("Missing post", func(t *testing.T) {
		_, err := svc.CreateComment(ctx, CreateCommentInput{
			Actor:   actorFor(author),
			PostID:  9999,
			Content: "hello",
		})
		assertAppErrorCode(t, err, "NOT_FOUND")
	})

	t.Run("Parent on another post", func(t *testing.T) {
		otherPost := createPost(t, db, author)
		foreignParent := createComment(t, db, author, otherPost, nil)
		_, err := svc.CreateComment(ctx, CreateCommentInput{
			Actor:    actorFor(author),
			PostID:   post.ID,
			ParentID: &foreignParent.ID,
			Content:  "cross-post reply",
		})
		assertAppErrorCode(t, err, "UNAUTHORIZED")
	})

	t.Run("Missing parent", func(t *testing.T) {
		missing := uint(4242)
		_, err := svc.CreateComment(ctx, CreateCommentInput{
			Actor:    actorFor(author),
			PostID:   post.ID,
			ParentID: &missing,
			Content:  "reply to nothing",
		})
		assertAppErrorCode(t, err, "NOT_FOUND")
	})
}

func TestListComments_BuildsNestedTree(t *testing.T) {
	db := setupTestDB(t)
	svc := newCommentService(db)
	ctx := context.Background()

	author := createUser(t, db, models.RoleUser, nil)
	post := createPost(t, db, author)

	root := createComment(t, db, author, post, nil)
	reply := createComment(t, db, author, post, &root.ID)
	createComment(t, db, author, post, &reply.ID)
	createComment(t, db, author, post, nil)

	tree, err := svc.ListComments(ctx, post.ID, 0)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	require.Len(t, tree[0].Replies, 1)
	require.Len(t, tree[0].Replies[0].Replies, 1)
}

func TestListComments_OrphanPromotedAfterParentRetired(t *testing.T) {
	db := setupTestDB(t)
	svc := newCommentService(db)
	ctx := context.Background()

	author := createUser(t, db, models.RoleUser, nil)
	post := createPost(t, db, author)

	parent := createComment(t, db, author, post, nil)
	orphan := createComment(t, db, author, post, &parent.ID)

	// Data predating the cascading delete can hold live replies under a
	// retired parent; they must stay visible as roots.
	require.NoError(t, db.Delete(&models.Comment{}, parent.ID).Error)

	tree, err := svc.ListComments(ctx, post.ID, 0)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, orphan.ID, tree[0].ID)
}

func TestListComments_PostNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := newCommentService(db)

	_, err := svc.ListComments(context.Background(), 777, 0)
	assertAppErrorCode(t, err, "NOT_FOUND")
}

func TestUpdateComment_OwnerOrAdminOnly(t *testing.T) {
	db := setupTestDB(t)
	svc := newCommentService(db)
	ctx := context.Background()

	owner := createUser(t, db, models.RoleUser, nil)
	stranger := createUser(t, db, models.RoleUser, nil)
	admin := createUser(t, db, models.RoleAdmin, nil)
	post := createPost(t, db, owner)
	comment := createComment(t, db, owner, post, nil)

	_, err := svc.UpdateComment(ctx, UpdateCommentInput{
		Actor:     actorFor(stranger),
		CommentID: comment.ID,
		Content:   "hijacked",
	})
	assertAppErrorCode(t, err, "UNAUTHORIZED")

	updated, err := svc.UpdateComment(ctx, UpdateCommentInput{
		Actor:     actorFor(owner),
		CommentID: comment.ID,
		Content:   "edited by owner",
	})
	require.NoError(t, err)
	assert.Equal(t, "edited by owner", updated.Content)

	updated, err = svc.UpdateComment(ctx, UpdateCommentInput{
		Actor:     actorFor(admin),
		CommentID: comment.ID,
		Content:   "edited by admin",
	})
	require.NoError(t, err)
	assert.Equal(t, "edited by admin", updated.Content)
}

func TestDeleteComment_CascadesAndCleansLedger(t *testing.T) {
	db := setupTestDB(t)
	commentSvc := newCommentService(db)
	solutionSvc := newSolutionService(db)
	ctx := context.Background()

	author := createUser(t, db, models.RoleUser, nil)
	helper := createUser(t, db, models.RoleUser, nil)
	post := createPost(t, db, author)

	// root -> mid -> leaf, where leaf is the accepted solution.
	root := createComment(t, db, helper, post, nil)
	mid := createComment(t, db, author, post, &root.ID)
	leaf := createComment(t, db, helper, post, &mid.ID)
	unrelated := createComment(t, db, author, post, nil)

	_, err := solutionSvc.ToggleSolution(ctx, actorFor(author), leaf.ID)
	require.NoError(t, err)
	require.Equal(t, models.PostStatusSolve, postStatus(t, db, post.ID))
	require.Equal(t, 1, summaryTotal(t, db, helper.ID))

	_, err = commentSvc.DeleteComment(ctx, DeleteCommentInput{
		Actor:     actorFor(helper),
		CommentID: root.ID,
	})
	require.NoError(t, err)

	// The whole subtree is gone, the sibling survives.
	var remaining []models.Comment
	require.NoError(t, db.Where("post_id = ?", post.ID).Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, unrelated.ID, remaining[0].ID)

	// The retired solution's point is revoked and the status re-derived.
	assert.EqualValues(t, 0, ledgerCount(t, db))
	assert.Equal(t, 0, summaryTotal(t, db, helper.ID))
	assert.Equal(t, models.PostStatusProblem, postStatus(t, db, post.ID))

	// Soft delete: the rows are still there for audit.
	var retired int64
	require.NoError(t, db.Unscoped().
		Model(&models.Comment{}).
		Where("post_id = ? AND deleted_at IS NOT NULL", post.ID).
		Count(&retired).Error)
	assert.EqualValues(t, 3, retired)
}

func TestDeleteComment_OwnerOrAdminOnly(t *testing.T) {
	db := setupTestDB(t)
	svc := newCommentService(db)
	ctx := context.Background()

	owner := createUser(t, db, models.RoleUser, nil)
	stranger := createUser(t, db, models.RoleUser, nil)
	post := createPost(t, db, owner)
	comment := createComment(t, db, owner, post, nil)

	_, err := svc.DeleteComment(ctx, DeleteCommentInput{
		Actor:     actorFor(stranger),
		CommentID: comment.ID,
	})
	assertAppErrorCode(t, err, "UNAUTHORIZED")

	_, err = svc.DeleteComment(ctx, DeleteCommentInput{
		Actor:     actorFor(owner),
		CommentID: comment.ID,
	})
	require.NoError(t, err)

	_, err = svc.DeleteComment(ctx, DeleteCommentInput{
		Actor:     actorFor(owner),
		CommentID: comment.ID,
	})
	assertAppErrorCode(t, err, "NOT_FOUND")
}

func TestToggleLike_Involution(t *testing.T) {
	db := setupTestDB(t)
	svc := newCommentService(db)
	ctx := context.Background()

	author := createUser(t, db, models.RoleUser, nil)
	liker := createUser(t, db, models.RoleUser, nil)
	post := createPost(t, db, author)
	comment := createComment(t, db, author, post, nil)

	res, err := svc.ToggleLike(ctx, comment.ID, liker.ID)
	require.NoError(t, err)
	assert.True(t, res.IsLiked)
	assert.EqualValues(t, 1, res.Likes)

	res, err = svc.ToggleLike(ctx, comment.ID, liker.ID)
	require.NoError(t, err)
	assert.False(t, res.IsLiked)
	assert.EqualValues(t, 0, res.Likes)

	// Likes from different users accumulate independently.
	_, err = svc.ToggleLike(ctx, comment.ID, author.ID)
	require.NoError(t, err)
	res, err = svc.ToggleLike(ctx, comment.ID, liker.ID)
	require.NoError(t, err)
	assert.True(t, res.IsLiked)
	assert.EqualValues(t, 2, res.Likes)
}

func TestToggleLike_CommentNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := newCommentService(db)

	user := createUser(t, db, models.RoleUser, nil)
	_, err := svc.ToggleLike(context.Background(), 31337, user.ID)
	assertAppErrorCode(t, err, "NOT_FOUND")
}
