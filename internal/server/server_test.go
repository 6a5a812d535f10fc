package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quorum/internal/config"
	"quorum/internal/database"
	"quorum/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret-key-that-is-long-enough-123"

func newTestServer(t *testing.T) (*Server, *fiber.App, *gorm.DB) {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:      testJWTSecret,
		Port:           "8480",
		Env:            "test",
		AllowedOrigins: "*",
		FeatureFlags:   "solved_notify=on",
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupRoutes(app)
	return srv, app, db
}

func bearerFor(t *testing.T, userID uint) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": fmt.Sprintf("%d", userID),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

var fixtureSeq int

func seedUser(t *testing.T, db *gorm.DB, role models.Role, companyID *uint) *models.User {
	t.Helper()
	fixtureSeq++
	user := &models.User{
		Username:  fmt.Sprintf("api_user%d", fixtureSeq),
		FullName:  fmt.Sprintf("API User %d", fixtureSeq),
		Email:     fmt.Sprintf("api%d@example.com", fixtureSeq),
		Role:      role,
		CompanyID: companyID,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedPost(t *testing.T, db *gorm.DB, userID uint) *models.Post {
	t.Helper()
	fixtureSeq++
	post := &models.Post{
		Title:   fmt.Sprintf("api post %d", fixtureSeq),
		Content: "content",
		UserID:  userID,
		Status:  models.PostStatusProblem,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

func seedComment(t *testing.T, db *gorm.DB, userID, postID uint, parentID *uint) *models.Comment {
	t.Helper()
	fixtureSeq++
	comment := &models.Comment{
		Content:  fmt.Sprintf("api comment %d", fixtureSeq),
		UserID:   userID,
		PostID:   postID,
		ParentID: parentID,
	}
	require.NoError(t, db.Create(comment).Error)
	return comment
}

func doJSON(t *testing.T, app *fiber.App, method, path, auth string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func TestHealthEndpoints(t *testing.T) {
	_, app, _ := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestAuthRequiredOnProtectedRoutes(t *testing.T) {
	_, app, _ := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/posts", "", map[string]string{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestCreateAndGetPost(t *testing.T) {
	_, app, db := newTestServer(t)
	author := seedUser(t, db, models.RoleUser, nil)
	auth := bearerFor(t, author.ID)

	resp := doJSON(t, app, http.MethodPost, "/api/posts", auth, map[string]string{
		"title":   "Deploy hangs",
		"content": "The deploy job hangs after the migration step.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Post
	decodeBody(t, resp, &created)
	assert.Equal(t, models.PostStatusProblem, created.Status)
	assert.Equal(t, author.ID, created.UserID)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/posts/%d", created.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Post
	decodeBody(t, resp, &fetched)
	assert.Equal(t, created.ID, fetched.ID)

	t.Run("Validation error maps to 400", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/posts", auth, map[string]string{"title": "", "content": "c"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("Missing post maps to 404", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts/99999", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("Bad id parameter maps to 400", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/posts/banana", "", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})
}

func TestCommentFlow(t *testing.T) {
	_, app, db := newTestServer(t)
	author := seedUser(t, db, models.RoleUser, nil)
	post := seedPost(t, db, author.ID)
	auth := bearerFor(t, author.ID)

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), auth,
		map[string]string{"content": "root comment"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var root models.Comment
	decodeBody(t, resp, &root)

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), auth,
		map[string]any{"content": "a reply", "parent_id": root.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	// Anonymous listing returns the nested tree.
	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/posts/%d/comments", post.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tree []struct {
		ID      uint `json:"id"`
		Replies []struct {
			ID uint `json:"id"`
		} `json:"replies"`
	}
	decodeBody(t, resp, &tree)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Replies, 1)

	t.Run("Empty content maps to 400", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), auth,
			map[string]string{"content": ""})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("Update by stranger maps to 403", func(t *testing.T) {
		stranger := seedUser(t, db, models.RoleUser, nil)
		resp := doJSON(t, app, http.MethodPut,
			fmt.Sprintf("/api/posts/%d/comments/%d", post.ID, root.ID),
			bearerFor(t, stranger.ID), map[string]string{"content": "hijack"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("Like toggle", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost,
			fmt.Sprintf("/api/posts/%d/comments/%d/like", post.ID, root.ID), auth, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var like struct {
			Likes   int64 `json:"likes"`
			IsLiked bool  `json:"is_liked"`
		}
		decodeBody(t, resp, &like)
		assert.True(t, like.IsLiked)
		assert.EqualValues(t, 1, like.Likes)
	})

	t.Run("Delete removes the subtree", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodDelete,
			fmt.Sprintf("/api/posts/%d/comments/%d", post.ID, root.ID), auth, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()

		var remaining int64
		require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&remaining).Error)
		assert.EqualValues(t, 0, remaining)
	})
}

func TestSolutionFlow(t *testing.T) {
	_, app, db := newTestServer(t)
	author := seedUser(t, db, models.RoleUser, nil)
	helper := seedUser(t, db, models.RoleUser, nil)
	stranger := seedUser(t, db, models.RoleUser, nil)
	post := seedPost(t, db, author.ID)
	comment := seedComment(t, db, helper.ID, post.ID, nil)

	url := fmt.Sprintf("/api/posts/%d/comments/%d/solution", post.ID, comment.ID)

	t.Run("Stranger is forbidden", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, url, bearerFor(t, stranger.ID), nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("Author marks the solution", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, url, bearerFor(t, author.ID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var updated models.Comment
		decodeBody(t, resp, &updated)
		assert.True(t, updated.IsSolution)

		var dbPost models.Post
		require.NoError(t, db.First(&dbPost, post.ID).Error)
		assert.Equal(t, models.PostStatusSolve, dbPost.Status)

		var ledger int64
		require.NoError(t, db.Model(&models.UserPoint{}).Count(&ledger).Error)
		assert.EqualValues(t, 1, ledger)
	})

	t.Run("Author unmarks the solution", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, url, bearerFor(t, author.ID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var updated models.Comment
		decodeBody(t, resp, &updated)
		assert.False(t, updated.IsSolution)

		var dbPost models.Post
		require.NoError(t, db.First(&dbPost, post.ID).Error)
		assert.Equal(t, models.PostStatusProblem, dbPost.Status)

		var ledger int64
		require.NoError(t, db.Model(&models.UserPoint{}).Count(&ledger).Error)
		assert.EqualValues(t, 0, ledger)
	})

	t.Run("Missing comment maps to 404", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost,
			fmt.Sprintf("/api/posts/%d/comments/99999/solution", post.ID),
			bearerFor(t, author.ID), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		_ = resp.Body.Close()
	})
}

func TestRejectPostEndpoint(t *testing.T) {
	_, app, db := newTestServer(t)
	author := seedUser(t, db, models.RoleUser, nil)
	admin := seedUser(t, db, models.RoleAdmin, nil)
	post := seedPost(t, db, author.ID)

	url := fmt.Sprintf("/api/posts/%d/reject", post.ID)

	resp := doJSON(t, app, http.MethodPost, url, bearerFor(t, author.ID), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, url, bearerFor(t, admin.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rejected models.Post
	decodeBody(t, resp, &rejected)
	assert.Equal(t, models.PostStatusRejected, rejected.Status)
}

func TestRankingEndpoints(t *testing.T) {
	_, app, db := newTestServer(t)
	first := seedUser(t, db, models.RoleUser, nil)
	second := seedUser(t, db, models.RoleUser, nil)
	viewer := seedUser(t, db, models.RoleUser, nil)

	require.NoError(t, db.Create(&models.PointSummary{UserID: first.ID, Total: 6}).Error)
	require.NoError(t, db.Create(&models.PointSummary{UserID: second.ID, Total: 2}).Error)

	t.Run("List", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/rankings/", bearerFor(t, viewer.ID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page struct {
			Data  []models.RankingRow `json:"data"`
			Total int64               `json:"total"`
		}
		decodeBody(t, resp, &page)
		require.Len(t, page.Data, 2)
		assert.EqualValues(t, 2, page.Total)
		assert.Equal(t, first.ID, page.Data[0].UserID)
	})

	t.Run("Unknown period maps to 400", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/rankings/?period=fortnight", bearerFor(t, viewer.ID), nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("My rank", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/rankings/me", bearerFor(t, second.ID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var row models.RankingRow
		decodeBody(t, resp, &row)
		require.NotNil(t, row.Rank)
		assert.EqualValues(t, 2, *row.Rank)
	})

	t.Run("Unranked viewer gets sentinel", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/rankings/me", bearerFor(t, viewer.ID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var row models.RankingRow
		decodeBody(t, resp, &row)
		assert.Nil(t, row.Rank)
		assert.Zero(t, row.Points)
	})
}

func TestGetMyProfile(t *testing.T) {
	_, app, db := newTestServer(t)
	user := seedUser(t, db, models.RoleUser, nil)

	resp := doJSON(t, app, http.MethodGet, "/api/users/me", bearerFor(t, user.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile models.User
	decodeBody(t, resp, &profile)
	assert.Equal(t, user.Username, profile.Username)
}
