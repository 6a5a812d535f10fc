package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment on a post. A comment may reply to another
// comment on the same post via ParentID. At most one live comment per post
// may carry IsSolution = true; the solution service owns that invariant.
type Comment struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Content    string `gorm:"type:text;not null" json:"content"`
	UserID     uint   `gorm:"not null;index" json:"user_id"`
	PostID     uint   `gorm:"not null;index" json:"post_id"`
	ParentID   *uint  `gorm:"index" json:"parent_id,omitempty"`
	IsSolution bool   `gorm:"not null;default:false" json:"is_solution"`
	User       User   `gorm:"foreignKey:UserID" json:"user"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likes_count"`
	// Liked indicates whether the current requesting user liked this comment (computed)
	Liked     bool           `gorm:"->" json:"liked"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CommentNode is a comment plus its nested replies, as produced by the
// thread builder. Replies are ordered the same way the flat fetch was.
type CommentNode struct {
	*Comment
	Replies []*CommentNode `json:"replies"`
}
