package repository

import (
	"fmt"
	"testing"

	"quorum/internal/database"
	"quorum/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupMockDB returns a gorm DB backed by sqlmock for query-shape tests.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// setupSQLiteDB returns an in-memory database with the full schema for tests
// that exercise real reads and writes.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

var seq int

func mustCreateUser(t *testing.T, db *gorm.DB, companyID *uint) *models.User {
	t.Helper()
	seq++
	user := &models.User{
		Username:  fmt.Sprintf("repo_user%d", seq),
		FullName:  fmt.Sprintf("Repo User %d", seq),
		Email:     fmt.Sprintf("repo%d@example.com", seq),
		Role:      models.RoleUser,
		CompanyID: companyID,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func mustCreatePost(t *testing.T, db *gorm.DB, userID uint) *models.Post {
	t.Helper()
	seq++
	post := &models.Post{
		Title:   fmt.Sprintf("post %d", seq),
		Content: "content",
		UserID:  userID,
		Status:  models.PostStatusProblem,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

func mustCreateComment(t *testing.T, db *gorm.DB, userID, postID uint, parentID *uint) *models.Comment {
	t.Helper()
	seq++
	comment := &models.Comment{
		Content:  fmt.Sprintf("comment %d", seq),
		UserID:   userID,
		PostID:   postID,
		ParentID: parentID,
	}
	require.NoError(t, db.Create(comment).Error)
	return comment
}
