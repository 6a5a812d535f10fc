// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// PostStatus is the resolution state of a problem post. It is derived from the
// post's comments: solve if and only if a live comment is marked as the
// solution, otherwise problem (unless an admin or company account rejected it).
type PostStatus string

const (
	PostStatusProblem  PostStatus = "problem"
	PostStatusSolve    PostStatus = "solve"
	PostStatusRejected PostStatus = "reject_by_admin_or_company_acc"
)

// Post represents a problem posted by a user.
type Post struct {
	ID      uint       `gorm:"primaryKey" json:"id"`
	Title   string     `gorm:"not null" json:"title"`
	Content string     `gorm:"type:text;not null" json:"content"`
	UserID  uint       `gorm:"not null;index" json:"user_id"`
	User    User       `gorm:"foreignKey:UserID" json:"user"`
	Status  PostStatus `gorm:"not null;default:problem" json:"status"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int            `gorm:"->" json:"comments_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
