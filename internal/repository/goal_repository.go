package repository

import (
	"context"

	"telecom-erp-backend/internal/models"
	"telecom-erp-backend/internal/scope"
	"telecom-erp-backend/internal/statistics"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GoalRepository struct {
	db *gorm.DB
}

func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// Sum adds up the monthly goals of every store in s. found is false when
// no store in s has a goal for the month.
func (r *GoalRepository) Sum(ctx context.Context, s scope.AccessibleScope, year, month int) (goals statistics.Goals, found bool, err error) {
	var rows []models.SalesGoal
	err = r.db.WithContext(ctx).
		Scopes(s.Apply("store_id")).
		Where("year = ? AND month = ?", year, month).
		Find(&rows).Error
	if err != nil {
		return statistics.Goals{}, false, err
	}

	goals.SalesTarget = decimal.Zero
	for _, g := range rows {
		goals.SalesTarget = goals.SalesTarget.Add(g.SalesTarget)
		goals.ActivationTarget += g.ActivationTarget
	}
	return goals, len(rows) > 0, nil
}

// Upsert creates or replaces the goal of a store for a month.
func (r *GoalRepository) Upsert(ctx context.Context, goal *models.SalesGoal) error {
	return r.db.WithContext(ctx).
		Omit("Store").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}, {Name: "year"}, {Name: "month"}},
			DoUpdates: clause.AssignmentColumns([]string{"sales_target", "activation_target", "updated_at"}),
		}).
		Create(goal).Error
}
