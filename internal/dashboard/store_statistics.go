package dashboard

import (
	"time"

	"telecom-erp-backend/internal/auth"
	"telecom-erp-backend/internal/httpx"
	"telecom-erp-backend/internal/scope"
	"telecom-erp-backend/internal/statistics"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type PeriodView struct {
	Granularity statistics.Granularity `json:"granularity"`
	From        string                 `json:"from"`
	To          string                 `json:"to"`
}

type SummaryView struct {
	TotalSales               int             `json:"total_sales"`
	TotalRebate              decimal.Decimal `json:"total_rebate"`
	TotalSettlementAmount    decimal.Decimal `json:"total_settlement_amount"`
	TotalVAT                 decimal.Decimal `json:"total_vat"`
	TotalPostTaxMargin       decimal.Decimal `json:"total_post_tax_margin"`
	TotalVATIncluded         decimal.Decimal `json:"total_vat_included"`
	AverageSettlementPerSale decimal.Decimal `json:"average_settlement_per_sale"`
}

type StoreStatisticsResponse struct {
	Store                      scope.StoreEntry            `json:"store"`
	Period                     PeriodView                  `json:"period"`
	Summary                    SummaryView                 `json:"summary"`
	GoalAchievement            *statistics.GoalAchievement `json:"goal_achievement"`
	CarrierDistribution        []statistics.Share          `json:"carrier_distribution"`
	ActivationTypeDistribution []statistics.Share          `json:"activation_type_distribution"`
	SalesList                  []statistics.Sale           `json:"sales_list"`
	SalesListTotal             int                         `json:"sales_list_total"`
	Page                       int                         `json:"page"`
	PageSize                   int                         `json:"page_size"`
	SkippedCount               int                         `json:"skipped_count"`
	Skipped                    []statistics.SkippedRecord  `json:"skipped"`
}

func periodView(p statistics.Period) PeriodView {
	from, to := p.Bounds()
	return PeriodView{Granularity: p.Granularity, From: from, To: to}
}

func summaryView(s statistics.Summary) SummaryView {
	return SummaryView{
		TotalSales:               s.TotalSales,
		TotalRebate:              s.TotalRebate,
		TotalSettlementAmount:    s.TotalSettlementAmount,
		TotalVAT:                 s.TotalVAT,
		TotalPostTaxMargin:       s.TotalPostTaxMargin,
		TotalVATIncluded:         s.TotalVATIncluded,
		AverageSettlementPerSale: s.AverageSettlementPerSale,
	}
}

// requestedPeriod reads period, date, year and month. The period defaults
// to monthly and missing parts to the current date.
func requestedPeriod(c *fiber.Ctx, now time.Time) (statistics.Period, error) {
	p, err := statistics.ParsePeriod(
		c.Query("period", string(statistics.GranularityMonthly)),
		c.Query("date", now.Format("2006-01-02")),
		c.QueryInt("year", now.Year()),
		c.QueryInt("month", int(now.Month())),
	)
	if err != nil {
		return statistics.Period{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return p, nil
}

// storeStatistics resolves the store, checks it against the caller's scope
// and aggregates its records for the requested period.
func storeStatistics(c *fiber.Ctx, d Deps, pageSize int) (scope.StoreEntry, statistics.Summary, error) {
	s, err := auth.CurrentScope(c)
	if err != nil {
		return scope.StoreEntry{}, statistics.Summary{}, err
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return scope.StoreEntry{}, statistics.Summary{}, fiber.NewError(fiber.StatusBadRequest, "invalid store id")
	}
	if !s.Contains(uint(id)) {
		return scope.StoreEntry{}, statistics.Summary{}, fiber.NewError(fiber.StatusForbidden, "store is outside your scope")
	}

	ctx := c.UserContext()
	index, err := d.Stores.Index(ctx)
	if err != nil {
		return scope.StoreEntry{}, statistics.Summary{}, err
	}
	store, ok := index.Lookup(uint(id))
	if !ok {
		return scope.StoreEntry{}, statistics.Summary{}, fiber.NewError(fiber.StatusNotFound, "store not found")
	}

	period, err := requestedPeriod(c, d.now())
	if err != nil {
		return scope.StoreEntry{}, statistics.Summary{}, err
	}
	storeScope := s.Intersect([]uint{store.ID})

	records, err := load(ctx, storeScope, period, period)
	if err != nil {
		return scope.StoreEntry{}, statistics.Summary{}, err
	}

	opts := d.options()
	opts.Page = c.QueryInt("page", 1)
	opts.PageSize = pageSize
	if period.Granularity == statistics.GranularityMonthly {
		if opts.Goals, err = monthGoals(ctx, storeScope, period); err != nil {
			return scope.StoreEntry{}, statistics.Summary{}, err
		}
	}
	return store, statistics.Aggregate(records, period, storeScope, opts), nil
}

// GET /api/stores/:id/statistics?period=daily|monthly|yearly&date=&year=&month=&page=&page_size=
func StoreStatisticsHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		size := c.QueryInt("page_size", d.Config.StatsPageSize)
		if size < 1 || size > d.Config.StatsMaxPageSize {
			size = d.Config.StatsMaxPageSize
		}

		store, sum, err := storeStatistics(c, d, size)
		if err != nil {
			return err
		}
		return httpx.OK(c, StoreStatisticsResponse{
			Store:                      store,
			Period:                     periodView(sum.Period),
			Summary:                    summaryView(sum),
			GoalAchievement:            sum.GoalAchievement,
			CarrierDistribution:        sum.CarrierDistribution,
			ActivationTypeDistribution: sum.ActivationTypeDistribution,
			SalesList:                  sum.SalesList,
			SalesListTotal:             sum.SalesListTotal,
			Page:                       sum.Page,
			PageSize:                   sum.PageSize,
			SkippedCount:               sum.SkippedCount,
			Skipped:                    sum.Skipped,
		})
	}
}
