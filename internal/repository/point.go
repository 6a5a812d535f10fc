package repository

import (
	"context"
	"fmt"

	"quorum/internal/models"
	"quorum/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PointRepository defines read access to the score ledger and its ranking
// projection. Mutations (award/revoke) are package-level helpers that run on
// the caller's transaction so the solution toggle and the cascading comment
// retirement share one code path.
type PointRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]*models.UserPoint, error)
	Ranking(ctx context.Context, period models.RankingPeriod, companyID *uint, limit, offset int) ([]*models.RankingRow, error)
	CountRanked(ctx context.Context, period models.RankingPeriod, companyID *uint) (int64, error)
	UserRank(ctx context.Context, userID uint, period models.RankingPeriod, companyID *uint) (*models.RankingRow, error)
}

type pointRepository struct {
	db *gorm.DB
}

// NewPointRepository creates a new point repository
func NewPointRepository(db *gorm.DB) PointRepository {
	return &pointRepository{db: db}
}

func (r *pointRepository) ListByUser(ctx context.Context, userID uint) ([]*models.UserPoint, error) {
	var points []*models.UserPoint
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&points).Error
	return points, err
}

// periodColumn maps a validated period onto its summary column. The switch is
// the only place a period name reaches SQL, so an unknown value can never be
// interpolated into a query.
func periodColumn(period models.RankingPeriod) string {
	switch period {
	case models.PeriodWeekly:
		return "weekly"
	case models.PeriodMonthly:
		return "monthly"
	case models.PeriodYearly:
		return "yearly"
	default:
		return "total"
	}
}

// rankedQuery is the single definition of the leaderboard ordering contract:
// points for the period descending, ties broken by ascending user id, ranks
// numbered contiguously over the filtered population. Both the paginated list
// and the single-user lookup are built on it.
func (r *pointRepository) rankedQuery(db *gorm.DB, period models.RankingPeriod, companyID *uint) *gorm.DB {
	col := periodColumn(period)
	q := db.Table("point_summaries").
		Select(fmt.Sprintf(
			"users.id AS user_id, users.full_name AS full_name, users.email AS email, "+
				"COALESCE(companies.name, '') AS company_name, point_summaries.%s AS points, "+
				"ROW_NUMBER() OVER (ORDER BY point_summaries.%s DESC, users.id ASC) AS rank",
			col, col)).
		Joins("JOIN users ON users.id = point_summaries.user_id AND users.deleted_at IS NULL").
		Joins("LEFT JOIN companies ON companies.id = users.company_id").
		Where(fmt.Sprintf("point_summaries.%s > 0", col))

	if companyID != nil {
		q = q.Where("users.company_id = ?", *companyID)
	}
	return q
}

func (r *pointRepository) Ranking(
	ctx context.Context,
	period models.RankingPeriod,
	companyID *uint,
	limit, offset int,
) ([]*models.RankingRow, error) {
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "Ranking", "point_summaries")
	defer span.End()

	rows := make([]*models.RankingRow, 0, limit)
	err := r.rankedQuery(readDB(r.db).WithContext(ctx), period, companyID).
		Order("points DESC, user_id ASC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	return rows, err
}

func (r *pointRepository) CountRanked(
	ctx context.Context,
	period models.RankingPeriod,
	companyID *uint,
) (int64, error) {
	var count int64
	err := r.rankedQuery(readDB(r.db).WithContext(ctx), period, companyID).
		Count(&count).Error
	return count, err
}

// UserRank computes the same ranking as Ranking and slices out a single user.
// A (nil, nil) return means the user holds no points for the period.
func (r *pointRepository) UserRank(
	ctx context.Context,
	userID uint,
	period models.RankingPeriod,
	companyID *uint,
) (*models.RankingRow, error) {
	var rows []*models.RankingRow
	sub := r.rankedQuery(readDB(r.db).WithContext(ctx), period, companyID)
	err := readDB(r.db).WithContext(ctx).
		Table("(?) AS ranked", sub).
		Where("ranked.user_id = ?", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// AwardPoint grants one point to userID for commentID unless the ledger
// already holds that pair. The existence check makes retries idempotent; the
// ON CONFLICT backstop turns a concurrent duplicate insert into a no-op
// instead of a silent double-award. Returns whether a point was granted.
func AwardPoint(tx *gorm.DB, userID, commentID uint) (bool, error) {
	var count int64
	if err := tx.Model(&models.UserPoint{}).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	point := &models.UserPoint{UserID: userID, CommentID: &commentID, Point: 1}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(point)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race to a concurrent award inside another transaction.
		return false, nil
	}

	return true, applySummaryDelta(tx, userID, 1)
}

// RevokePoint removes the ledger entry for (userID, commentID) if present and
// rolls the summary counters back. Returns whether an entry was removed.
func RevokePoint(tx *gorm.DB, userID, commentID uint) (bool, error) {
	res := tx.Where("user_id = ? AND comment_id = ?", userID, commentID).
		Delete(&models.UserPoint{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	return true, applySummaryDelta(tx, userID, -1)
}

func applySummaryDelta(tx *gorm.DB, userID uint, delta int) error {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.PointSummary{UserID: userID}).Error; err != nil {
		return err
	}
	return tx.Model(&models.PointSummary{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"total":   gorm.Expr("total + ?", delta),
			"weekly":  gorm.Expr("weekly + ?", delta),
			"monthly": gorm.Expr("monthly + ?", delta),
			"yearly":  gorm.Expr("yearly + ?", delta),
		}).Error
}
