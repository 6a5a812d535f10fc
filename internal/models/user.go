// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the access level a user holds within the platform.
type Role string

const (
	// RoleAdmin may moderate any post and query any ranking scope.
	RoleAdmin Role = "admin"
	// RoleCompany is a company account restricted to its own company's data.
	RoleCompany Role = "company"
	// RoleUser is a regular employee account.
	RoleUser Role = "user"
)

// User represents an account in the Quorum platform.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"unique;not null" json:"username"`
	FullName  string         `gorm:"not null" json:"full_name"`
	Email     string         `gorm:"unique;not null" json:"email"`
	Role      Role           `gorm:"not null;default:user" json:"role"`
	CompanyID *uint          `gorm:"index" json:"company_id,omitempty"`
	Company   *Company       `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Actor is the resolved identity of a requester: who they are and which
// enforcement branch applies. It is consumed by both the solution permission
// check and the ranking scoping logic so the two cannot drift.
type Actor struct {
	UserID    uint
	Role      Role
	CompanyID *uint
}

// IsAdmin reports whether the actor holds the unscoped moderation role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsCompanyScoped reports whether the actor is restricted to a single company.
func (a Actor) IsCompanyScoped() bool {
	return a.Role == RoleCompany && a.CompanyID != nil
}

// ActorFor projects a user row into the tagged access union.
func ActorFor(u *User) Actor {
	return Actor{UserID: u.ID, Role: u.Role, CompanyID: u.CompanyID}
}
