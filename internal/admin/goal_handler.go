package admin

import (
	"telecom-erp-backend/internal/audit"
	"telecom-erp-backend/internal/auth"
	"telecom-erp-backend/internal/database"
	"telecom-erp-backend/internal/httpx"
	"telecom-erp-backend/internal/models"
	"telecom-erp-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type UpsertGoalRequest struct {
	StoreID          uint            `json:"store_id" validate:"required"`
	Year             int             `json:"year" validate:"required,min=2000,max=2100"`
	Month            int             `json:"month" validate:"required,min=1,max=12"`
	SalesTarget      decimal.Decimal `json:"sales_target"`
	ActivationTarget int             `json:"activation_target" validate:"min=0"`
}

type GoalResponse struct {
	StoreID          uint            `json:"store_id"`
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	SalesTarget      decimal.Decimal `json:"sales_target"`
	ActivationTarget int             `json:"activation_target"`
}

func goalResponse(g *models.SalesGoal) GoalResponse {
	return GoalResponse{
		StoreID:          g.StoreID,
		Year:             g.Year,
		Month:            g.Month,
		SalesTarget:      g.SalesTarget,
		ActivationTarget: g.ActivationTarget,
	}
}

// UpsertGoalHandler sets the monthly goal of one store, replacing any
// previous goal for the same month.
func UpsertGoalHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpsertGoalRequest
		if err := httpx.Parse(c, &body); err != nil {
			return err
		}
		if body.SalesTarget.IsNegative() {
			return &httpx.ValidationError{Field: "sales_target", Message: "must not be negative"}
		}
		if _, err := scopedStore(c, body.StoreID); err != nil {
			return err
		}

		goal := models.SalesGoal{
			StoreID:          body.StoreID,
			Year:             body.Year,
			Month:            body.Month,
			SalesTarget:      body.SalesTarget,
			ActivationTarget: body.ActivationTarget,
		}
		if err := repository.NewGoalRepository(database.DB).Upsert(c.UserContext(), &goal); err != nil {
			return err
		}

		record(c, audit.LogOptions{
			StoreID:     &goal.StoreID,
			EntityType:  audit.EntitySalesGoal,
			EntityID:    goal.ID,
			Action:      models.AuditActionUpdate,
			Description: "sales goal set",
			After:       goalResponse(&goal),
		})
		return httpx.OK(c, goalResponse(&goal))
	}
}

// GET /api/goals?year=&month=
func ListGoalsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.CurrentScope(c)
		if err != nil {
			return err
		}
		year, month := c.QueryInt("year"), c.QueryInt("month")
		if year <= 0 || month < 1 || month > 12 {
			return fiber.NewError(fiber.StatusBadRequest, "year and month are required")
		}

		var goals []models.SalesGoal
		if err := database.DB.WithContext(c.UserContext()).
			Scopes(s.Apply("store_id")).
			Where("year = ? AND month = ?", year, month).
			Order("store_id ASC").
			Find(&goals).Error; err != nil {
			return err
		}
		res := make([]GoalResponse, 0, len(goals))
		for i := range goals {
			res = append(res, goalResponse(&goals[i]))
		}
		return httpx.OK(c, res)
	}
}
