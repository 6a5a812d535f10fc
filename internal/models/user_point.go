package models

import (
	"time"
)

// UserPoint is one entry in the score ledger: a single point granted to the
// author of a comment that was marked as the solution. The unique index on
// (user_id, comment_id) turns a concurrent double-award into a detectable
// conflict instead of a silent duplicate.
type UserPoint struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_comment" json:"user_id"`
	CommentID *uint     `gorm:"uniqueIndex:idx_user_comment" json:"comment_id,omitempty"`
	Point     int       `gorm:"not null;default:1" json:"point"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// PointSummary is the per-user materialized aggregate of the ledger, one
// counter per ranking period. Award and revocation adjust all four inside the
// awarding transaction; the periodic job that rotates the weekly, monthly and
// yearly counters lives outside this service.
type PointSummary struct {
	UserID  uint `gorm:"primaryKey" json:"user_id"`
	Total   int  `gorm:"not null;default:0" json:"total"`
	Weekly  int  `gorm:"not null;default:0" json:"weekly"`
	Monthly int  `gorm:"not null;default:0" json:"monthly"`
	Yearly  int  `gorm:"not null;default:0" json:"yearly"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// RankingPeriod selects which PointSummary counter a leaderboard reads.
type RankingPeriod string

const (
	PeriodTotal   RankingPeriod = "total"
	PeriodWeekly  RankingPeriod = "weekly"
	PeriodMonthly RankingPeriod = "monthly"
	PeriodYearly  RankingPeriod = "yearly"
)

// Valid reports whether p names a known ranking period.
func (p RankingPeriod) Valid() bool {
	switch p {
	case PeriodTotal, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// RankingRow is one leaderboard entry. Rank is dense and deterministic:
// ordered by points descending, ties broken by ascending user id, numbered
// from 1 over the filtered population. A nil Rank means "not yet ranked"
// (zero points for the period), which is a valid outcome, not an error.
type RankingRow struct {
	UserID      uint   `gorm:"column:user_id" json:"user_id"`
	FullName    string `gorm:"column:full_name" json:"full_name"`
	Email       string `gorm:"column:email" json:"email"`
	CompanyName string `gorm:"column:company_name" json:"company_name"`
	Points      int    `gorm:"column:points" json:"points"`
	Rank        *int64 `gorm:"column:rank" json:"rank"`
}
