// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"quorum/internal/models"
	"quorum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetRanking handles GET /api/rankings?period=&page=&limit=&company_id=
// Company accounts are always scoped to their own company; admins may pass
// any company_id; regular users get the global board.
func (s *Server) GetRanking(c *fiber.Ctx) error {
	ctx := c.UserContext()

	actor, err := s.actorFromCtx(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	period := models.RankingPeriod(c.Query("period", string(models.PeriodTotal)))

	var companyID *uint
	if raw := c.QueryInt("company_id", 0); raw > 0 {
		id := uint(raw)
		companyID = &id
	}

	page, err := s.rankingService.List(ctx, actor, service.RankingQuery{
		Period:    period,
		Page:      c.QueryInt("page", 1),
		Limit:     c.QueryInt("limit", 0),
		CompanyID: companyID,
	})
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	return c.JSON(page)
}

// GetMyRank handles GET /api/rankings/me?period=
func (s *Server) GetMyRank(c *fiber.Ctx) error {
	ctx := c.UserContext()

	actor, err := s.actorFromCtx(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	period := models.RankingPeriod(c.Query("period", string(models.PeriodTotal)))

	row, err := s.rankingService.MyRank(ctx, actor, period)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}

	return c.JSON(row)
}
