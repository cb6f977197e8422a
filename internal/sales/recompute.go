package sales

import (
	"context"
	"fmt"
	"time"

	"telecom-erp-backend/internal/audit"
	"telecom-erp-backend/internal/auth"
	"telecom-erp-backend/internal/database"
	"telecom-erp-backend/internal/httpx"
	"telecom-erp-backend/internal/models"
	"telecom-erp-backend/internal/repository"
	"telecom-erp-backend/internal/settlement"
	"telecom-erp-backend/internal/statistics"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type RecomputeResult struct {
	Period    string                     `json:"period"`
	Updated   []uint                     `json:"updated"`
	Unchanged int                        `json:"unchanged"`
	Skipped   []statistics.SkippedRecord `json:"skipped"`
}

// Recompute derives every record again from its raw columns. Records whose
// stored values already match are left alone, so running it twice updates
// nothing the second time. Records the calculator rejects keep whatever
// they had and are reported.
func Recompute(ctx context.Context, tx *gorm.DB, calc *settlement.Calculator, rows []models.SaleRecord, at time.Time) (RecomputeResult, error) {
	res := RecomputeResult{Updated: []uint{}, Skipped: []statistics.SkippedRecord{}}
	repo := repository.NewSaleRepository(tx)

	for i := range rows {
		rec := &rows[i]
		computed, err := calc.Compute(statistics.RawFromModel(rec))
		if err != nil {
			res.Skipped = append(res.Skipped, statistics.SkippedRecord{ID: rec.ID, StoreID: rec.StoreID, Reason: err.Error()})
			continue
		}
		if stored := statistics.FromModel(rec).Computed; stored != nil && stored.Equal(computed) {
			res.Unchanged++
			continue
		}
		statistics.ApplyComputed(rec, computed, at)
		if err := repo.SaveComputed(ctx, rec); err != nil {
			return RecomputeResult{}, err
		}
		res.Updated = append(res.Updated, rec.ID)
	}
	return res, nil
}

// POST /api/sales/recompute?year=2024&month=3
func RecomputeHandler(calc *settlement.Calculator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.CurrentScope(c)
		if err != nil {
			return err
		}
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		period, err := statistics.ParsePeriod("monthly", "", c.QueryInt("year"), c.QueryInt("month"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		from, to := period.Bounds()

		var res RecomputeResult
		err = database.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			rows, err := repository.NewSaleRepository(tx).ListInRange(c.UserContext(), s, from, to)
			if err != nil {
				return err
			}
			res, err = Recompute(c.UserContext(), tx, calc, rows, time.Now())
			if err != nil {
				return err
			}
			res.Period = period.String()
			return audit.WriteLogTx(tx, audit.LogOptions{
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  audit.EntitySaleRecord,
				Action:      models.AuditActionRecompute,
				Description: fmt.Sprintf("recomputed %s: %d updated, %d skipped", res.Period, len(res.Updated), len(res.Skipped)),
				After:       res,
			})
		})
		if err != nil {
			return err
		}
		return httpx.OK(c, res)
	}
}
