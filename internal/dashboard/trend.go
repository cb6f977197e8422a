package dashboard

import (
	"sort"

	"telecom-erp-backend/internal/auth"
	"telecom-erp-backend/internal/httpx"
	"telecom-erp-backend/internal/statistics"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const (
	defaultTrendDays = 7
	maxTrendDays     = 90
)

type TrendPoint struct {
	Date             string          `json:"date"`
	DayLabel         string          `json:"day_label"`
	Sales            int             `json:"sales"`
	SettlementAmount decimal.Decimal `json:"settlement_amount"`
}

// GET /api/dashboard/sales-trend?days=7
//
// One point per calendar day ending today, empty days included.
func SalesTrendHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.CurrentScope(c)
		if err != nil {
			return err
		}
		if s, err = narrow(c, s); err != nil {
			return err
		}
		days := c.QueryInt("days", defaultTrendDays)
		if days < 1 || days > maxTrendDays {
			return fiber.NewError(fiber.StatusBadRequest, "days must be between 1 and 90")
		}

		today := statistics.Daily(d.now())
		first := statistics.Daily(today.From.AddDate(0, 0, -(days - 1)))
		records, err := load(c.UserContext(), s, first, today)
		if err != nil {
			return err
		}

		// bucket by stored date so each day folds only its own records
		byDay := make(map[string][]statistics.Record, days)
		for _, r := range records {
			byDay[r.Raw.SaleDate] = append(byDay[r.Raw.SaleDate], r)
		}

		opts := d.options()
		opts.PageSize = 1
		points := make([]TrendPoint, 0, days)
		for i := 0; i < days; i++ {
			day := statistics.Daily(first.From.AddDate(0, 0, i))
			date, _ := day.Bounds()
			sum := statistics.Aggregate(byDay[date], day, s, opts)
			points = append(points, TrendPoint{
				Date:             date,
				DayLabel:         day.From.Format("01/02"),
				Sales:            sum.TotalSales,
				SettlementAmount: sum.TotalSettlementAmount,
			})
		}
		return httpx.OK(c, fiber.Map{"trend_data": points})
	}
}

type CarrierShare struct {
	Carrier    string  `json:"carrier"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type StorePerformance struct {
	StoreID          uint            `json:"store_id"`
	Name             string          `json:"name"`
	Sales            int             `json:"sales"`
	SettlementAmount decimal.Decimal `json:"settlement_amount"`
}

// GET /api/dashboard/dealer-performance?store_ids=
//
// Carrier breakdown and per-store ranking for the current month.
func DealerPerformanceHandler(d Deps) fiber.Handler {
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
		month := statistics.Monthly(now.Year(), now.Month())
		records, err := load(ctx, s, month, month)
		if err != nil {
			return err
		}
		index, err := d.Stores.Index(ctx)
		if err != nil {
			return err
		}

		opts := d.options()
		opts.PageSize = 1
		sum := statistics.Aggregate(records, month, s, opts)

		breakdown := make([]CarrierShare, 0, len(sum.CarrierDistribution))
		for _, share := range sum.CarrierDistribution {
			breakdown = append(breakdown, CarrierShare{Carrier: share.Key, Count: share.Count, Percentage: share.Percentage})
		}

		byStore := make(map[uint][]statistics.Record)
		for _, r := range records {
			byStore[r.StoreID] = append(byStore[r.StoreID], r)
		}
		stores := make([]StorePerformance, 0, len(byStore))
		for _, entry := range index.Visible(s) {
			one := statistics.Aggregate(byStore[entry.ID], month, s.Intersect([]uint{entry.ID}), opts)
			stores = append(stores, StorePerformance{
				StoreID:          entry.ID,
				Name:             entry.Name,
				Sales:            one.TotalSales,
				SettlementAmount: one.TotalSettlementAmount,
			})
		}
		sort.SliceStable(stores, func(i, j int) bool {
			if order := stores[i].SettlementAmount.Cmp(stores[j].SettlementAmount); order != 0 {
				return order > 0
			}
			return stores[i].StoreID < stores[j].StoreID
		})

		return httpx.OK(c, fiber.Map{
			"period":            periodView(month),
			"carrier_breakdown": breakdown,
			"stores":            stores,
		})
	}
}
