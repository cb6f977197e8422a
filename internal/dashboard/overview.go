package dashboard

import (
	"strconv"
	"strings"

	"telecom-erp-backend/internal/auth"
	"telecom-erp-backend/internal/database"
	"telecom-erp-backend/internal/httpx"
	"telecom-erp-backend/internal/repository"
	"telecom-erp-backend/internal/scope"
	"telecom-erp-backend/internal/statistics"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type TodayStats struct {
	Sales            int             `json:"sales"`
	SettlementAmount decimal.Decimal `json:"settlement_amount"`
}

type MonthStats struct {
	Sales            int             `json:"sales"`
	SettlementAmount decimal.Decimal `json:"settlement_amount"`
	VATIncludedSales decimal.Decimal `json:"vat_included_sales"`
	GrowthRate       float64         `json:"growth_rate"`
}

type StoreCounts struct {
	Total     int `json:"total"`
	WithSales int `json:"with_sales"`
}

type BranchCounts struct {
	Total int `json:"total"`
}

type OverviewResponse struct {
	Today           TodayStats   `json:"today"`
	Month           MonthStats   `json:"month"`
	Stores          StoreCounts  `json:"stores"`
	Branches        BranchCounts `json:"branches"`
	AchievementRate *float64     `json:"achievement_rate"`
	SkippedCount    int          `json:"skipped_count"`
}

// narrow applies ?store_ids=1,2,3. The result never holds a store s does
// not.
func narrow(c *fiber.Ctx, s scope.AccessibleScope) (scope.AccessibleScope, error) {
	raw := strings.TrimSpace(c.Query("store_ids"))
	if raw == "" {
		return s, nil
	}
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil || id == 0 {
			return scope.AccessibleScope{}, fiber.NewError(fiber.StatusBadRequest, "store_ids must be a comma separated list of ids")
		}
		ids = append(ids, uint(id))
	}
	return s.Intersect(ids), nil
}

// growthRate compares the activation counts of two months. A month
// following an empty month reports 0.
func growthRate(current, previous int) float64 {
	rate := statistics.Rate(decimal.NewFromInt(int64(current-previous)), decimal.NewFromInt(int64(previous)))
	if rate == nil {
		return 0
	}
	return *rate
}

// GET /api/dashboard/overview?store_ids=1,2
func OverviewHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.CurrentScope(c)
		if err != nil {
			return err
		}
		if s, err = narrow(c, s); err != nil {
			return err
		}
		ctx := c.UserContext()

		now := d.now()
		today := statistics.Daily(now)
		month := statistics.Monthly(now.Year(), now.Month())
		prev := month.Previous()

		records, err := load(ctx, s, prev, month)
		if err != nil {
			return err
		}
		goals, err := monthGoals(ctx, s, month)
		if err != nil {
			return err
		}

		opts := d.options()
		daySum := statistics.Aggregate(records, today, s, opts)
		prevSum := statistics.Aggregate(records, prev, s, opts)
		opts.Goals = goals
		monthSum := statistics.Aggregate(records, month, s, opts)

		index, err := d.Stores.Index(ctx)
		if err != nil {
			return err
		}
		branches := index.BranchCount(s)
		if s.IsAll() {
			n, err := repository.NewStoreRepository(database.DB).CountBranches(ctx)
			if err != nil {
				return err
			}
			branches = int(n)
		}

		resp := OverviewResponse{
			Today: TodayStats{
				Sales:            daySum.TotalSales,
				SettlementAmount: daySum.TotalSettlementAmount,
			},
			Month: MonthStats{
				Sales:            monthSum.TotalSales,
				SettlementAmount: monthSum.TotalSettlementAmount,
				VATIncludedSales: monthSum.TotalVATIncluded,
				GrowthRate:       growthRate(monthSum.TotalSales, prevSum.TotalSales),
			},
			Stores: StoreCounts{
				Total:     len(index.Visible(s)),
				WithSales: monthSum.StoresWithSales,
			},
			Branches:     BranchCounts{Total: branches},
			SkippedCount: monthSum.SkippedCount,
		}
		if monthSum.GoalAchievement != nil {
			resp.AchievementRate = monthSum.GoalAchievement.SalesAchievementRate
		}
		return httpx.OK(c, resp)
	}
}
