package service

import (
	"fmt"
	"testing"

	"quorum/internal/database"
	"quorum/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory sqlite database with the full schema so
// service tests exercise real transactions.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

var fixtureSeq int

func createCompany(t *testing.T, db *gorm.DB, name string) *models.Company {
	t.Helper()
	company := &models.Company{Name: name}
	require.NoError(t, db.Create(company).Error)
	return company
}

func createUser(t *testing.T, db *gorm.DB, role models.Role, companyID *uint) *models.User {
	t.Helper()
	fixtureSeq++
	user := &models.User{
		Username:  fmt.Sprintf("user%d", fixtureSeq),
		FullName:  fmt.Sprintf("User %d", fixtureSeq),
		Email:     fmt.Sprintf("user%d@example.com", fixtureSeq),
		Role:      role,
		CompanyID: companyID,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createPost(t *testing.T, db *gorm.DB, author *models.User) *models.Post {
	t.Helper()
	fixtureSeq++
	post := &models.Post{
		Title:   fmt.Sprintf("Problem %d", fixtureSeq),
		Content: "How do I fix this?",
		UserID:  author.ID,
		Status:  models.PostStatusProblem,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

func createComment(t *testing.T, db *gorm.DB, author *models.User, post *models.Post, parentID *uint) *models.Comment {
	t.Helper()
	fixtureSeq++
	comment := &models.Comment{
		Content:  fmt.Sprintf("comment %d", fixtureSeq),
		UserID:   author.ID,
		PostID:   post.ID,
		ParentID: parentID,
	}
	require.NoError(t, db.Create(comment).Error)
	return comment
}

func actorFor(u *models.User) models.Actor {
	return models.ActorFor(u)
}

func ledgerCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.UserPoint{}).Count(&count).Error)
	return count
}

func summaryTotal(t *testing.T, db *gorm.DB, userID uint) int {
	t.Helper()
	var summary models.PointSummary
	err := db.Where("user_id = ?", userID).First(&summary).Error
	if err == gorm.ErrRecordNotFound {
		return 0
	}
	require.NoError(t, err)
	return summary.Total
}

func postStatus(t *testing.T, db *gorm.DB, postID uint) models.PostStatus {
	t.Helper()
	var post models.Post
	require.NoError(t, db.First(&post, postID).Error)
	return post.Status
}
