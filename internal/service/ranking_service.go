package service

import (
	"context"

	"quorum/internal/models"
	"quorum/internal/observability"
	"quorum/internal/repository"
)

const (
	defaultRankingLimit = 20
	maxRankingLimit     = 100
)

// RankingService produces ordered, paginated leaderboards over the point
// summary. It holds no state and never mutates anything; scoping rules are
// enforced here, identically for the list and the single-user lookup.
type RankingService struct {
	pointRepo   repository.PointRepository
	companyRepo repository.CompanyRepository
	userRepo    repository.UserRepository
}

type RankingQuery struct {
	Period    models.RankingPeriod
	Page      int
	Limit     int
	CompanyID *uint
}

// RankingPage is one page of the leaderboard plus pagination totals.
type RankingPage struct {
	Data  []*models.RankingRow `json:"data"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
	Total int64                `json:"total"`
}

func NewRankingService(
	pointRepo repository.PointRepository,
	companyRepo repository.CompanyRepository,
	userRepo repository.UserRepository,
) *RankingService {
	return &RankingService{
		pointRepo:   pointRepo,
		companyRepo: companyRepo,
		userRepo:    userRepo,
	}
}

// resolveScope applies the access asymmetry: a company account is always
// pinned to its own company, an admin may query any scope, and a regular
// user sees the global board only.
func resolveScope(actor models.Actor, requested *uint) (*uint, error) {
	if actor.IsCompanyScoped() {
		if requested != nil && *requested != *actor.CompanyID {
			return nil, models.NewUnauthorizedError("You can only view your own company's ranking")
		}
		return actor.CompanyID, nil
	}
	if actor.IsAdmin() {
		return requested, nil
	}
	if requested != nil {
		return nil, models.NewUnauthorizedError("Only admins can scope rankings to a company")
	}
	return nil, nil
}

// List returns one leaderboard page for the requested period and scope.
// An empty page is a valid result, not an error.
func (s *RankingService) List(ctx context.Context, actor models.Actor, q RankingQuery) (*RankingPage, error) {
	ctx, span := observability.GetTraceLayer().TraceServiceCall(ctx, "RankingService", "List")
	defer span.End()

	if !q.Period.Valid() {
		return nil, models.NewValidationError("Unknown ranking period")
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultRankingLimit
	}
	if q.Limit > maxRankingLimit {
		q.Limit = maxRankingLimit
	}

	scope, err := resolveScope(actor, q.CompanyID)
	if err != nil {
		return nil, err
	}
	if scope != nil {
		ok, err := s.companyRepo.Exists(ctx, *scope)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, models.NewValidationError("Unknown company")
		}
	}

	offset := (q.Page - 1) * q.Limit
	rows, err := s.pointRepo.Ranking(ctx, q.Period, scope, q.Limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.pointRepo.CountRanked(ctx, q.Period, scope)
	if err != nil {
		return nil, err
	}

	return &RankingPage{
		Data:  rows,
		Page:  q.Page,
		Limit: q.Limit,
		Total: total,
	}, nil
}

// MyRank returns the requester's row in the same ranking List would produce
// for them. A user with no points for the period gets a sentinel row with a
// nil rank and zero points; "not yet ranked" is not an error.
func (s *RankingService) MyRank(ctx context.Context, actor models.Actor, period models.RankingPeriod) (*models.RankingRow, error) {
	if !period.Valid() {
		return nil, models.NewValidationError("Unknown ranking period")
	}

	var scope *uint
	if actor.IsCompanyScoped() {
		scope = actor.CompanyID
	}

	row, err := s.pointRepo.UserRank(ctx, actor.UserID, period, scope)
	if err != nil {
		return nil, err
	}
	if row != nil {
		return row, nil
	}

	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, asNotFound(err, "User", actor.UserID)
	}
	sentinel := &models.RankingRow{
		UserID:   user.ID,
		FullName: user.FullName,
		Email:    user.Email,
	}
	if user.Company != nil {
		sentinel.CompanyName = user.Company.Name
	}
	return sentinel, nil
}
