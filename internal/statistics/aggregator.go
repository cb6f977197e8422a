// Package statistics folds sale records into period summaries.
//
// Aggregate filters by scope first, then by period, derives settlement
// breakdowns where records carry none, and folds the result. Records that
// fail derivation are excluded from every total and reported as skipped.
// The fold is associative, so large inputs are split into shards folded
// concurrently and merged in shard order.
package statistics

import (
	"sort"
	"time"

	"telecom-erp-backend/internal/scope"
	"telecom-erp-backend/internal/settlement"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPageSize       = 50
	DefaultShardThreshold = 5000
)

// Sale is one entry of the sales list.
type Sale struct {
	ID                uint                      `json:"id"`
	StoreID           uint                      `json:"store_id"`
	SaleDate          string                    `json:"sale_date"`
	CarrierRaw        string                    `json:"carrier_raw"`
	CarrierNormalized string                    `json:"carrier"`
	ActivationType    settlement.ActivationType `json:"activation_type"`
	RebateTotal       decimal.Decimal           `json:"rebate_total"`
	SettlementAmount  decimal.Decimal           `json:"settlement_amount"`
	VAT               decimal.Decimal           `json:"vat"`
	PostTaxMargin     decimal.Decimal           `json:"post_tax_margin"`
}

// SkippedRecord is an in-scope record that could not be derived.
type SkippedRecord struct {
	ID      uint   `json:"id"`
	StoreID uint   `json:"store_id"`
	Reason  string `json:"reason"`
}

type Summary struct {
	Period Period `json:"-"`

	TotalSales               int             `json:"total_sales"`
	TotalRebate              decimal.Decimal `json:"total_rebate"`
	TotalSettlementAmount    decimal.Decimal `json:"total_settlement_amount"`
	TotalVAT                 decimal.Decimal `json:"total_vat"`
	TotalPostTaxMargin       decimal.Decimal `json:"total_post_tax_margin"`
	TotalVATIncluded         decimal.Decimal `json:"total_vat_included"`
	AverageSettlementPerSale decimal.Decimal `json:"average_settlement_per_sale"`
	StoresWithSales          int             `json:"stores_with_sales"`

	CarrierDistribution        []Share          `json:"carrier_distribution"`
	ActivationTypeDistribution []Share          `json:"activation_type_distribution"`
	GoalAchievement            *GoalAchievement `json:"goal_achievement"`

	SkippedCount int             `json:"skipped_count"`
	Skipped      []SkippedRecord `json:"skipped"`

	SalesList      []Sale `json:"sales_list"`
	SalesListTotal int    `json:"sales_list_total"`
	Page           int    `json:"page"`
	PageSize       int    `json:"page_size"`
}

type Options struct {
	// Calculator derives records without stored values. Nil uses the
	// default calculator.
	Calculator *settlement.Calculator
	// Goals enables goal achievement when set.
	Goals *Goals
	// Page is 1-based. PageSize 0 means DefaultPageSize, negative means
	// the whole list.
	Page     int
	PageSize int
	// Workers above 1 enables the sharded fold for inputs of at least
	// ShardThreshold retained records.
	Workers        int
	ShardThreshold int
}

// Aggregate summarises the records of s inside period. It never fails;
// per-record problems end up in Skipped.
func Aggregate(records []Record, period Period, s scope.AccessibleScope, opts Options) Summary {
	calc := opts.Calculator
	if calc == nil {
		calc = settlement.New()
	}

	retained := make([]Record, 0, len(records))
	var early []SkippedRecord
	for _, r := range records {
		if !s.Contains(r.StoreID) {
			continue
		}
		date, err := saleDate(r)
		if err != nil {
			if period.containsText(r.Raw.SaleDate) {
				early = append(early, SkippedRecord{ID: r.ID, StoreID: r.StoreID, Reason: err.Error()})
			}
			continue
		}
		if !period.Contains(date) {
			continue
		}
		retained = append(retained, r)
	}

	acc := fold(retained, calc, opts.Workers, opts.ShardThreshold)
	acc.skipped = append(acc.skipped, early...)
	return acc.summary(period, opts)
}

func saleDate(r Record) (time.Time, error) {
	if r.Computed != nil {
		return r.Computed.SaleDate, nil
	}
	return settlement.ParseSaleDate(r.Raw.SaleDate)
}

func fold(records []Record, calc *settlement.Calculator, workers, threshold int) *partial {
	if threshold <= 0 {
		threshold = DefaultShardThreshold
	}
	if workers <= 1 || len(records) < threshold {
		p := newPartial()
		p.foldRange(records, calc)
		return p
	}

	size := (len(records) + workers - 1) / workers
	parts := make([]*partial, 0, workers)
	var g errgroup.Group
	for start := 0; start < len(records); start += size {
		chunk := records[start:min(start+size, len(records))]
		p := newPartial()
		parts = append(parts, p)
		g.Go(func() error {
			p.foldRange(chunk, calc)
			return nil
		})
	}
	_ = g.Wait()

	out := newPartial()
	for _, p := range parts {
		out.merge(p)
	}
	return out
}

// partial is the fold state of one shard.
type partial struct {
	sales       int
	rebate      decimal.Decimal
	settlement  decimal.Decimal
	vat         decimal.Decimal
	margin      decimal.Decimal
	carriers    map[string]int
	activations map[string]int
	stores      map[uint]struct{}
	list        []Sale
	skipped     []SkippedRecord
}

func newPartial() *partial {
	return &partial{
		rebate:      decimal.Zero,
		settlement:  decimal.Zero,
		vat:         decimal.Zero,
		margin:      decimal.Zero,
		carriers:    make(map[string]int),
		activations: make(map[string]int),
		stores:      make(map[uint]struct{}),
	}
}

func (p *partial) foldRange(records []Record, calc *settlement.Calculator) {
	for _, r := range records {
		c := r.Computed
		if c == nil {
			computed, err := calc.Compute(r.Raw)
			if err != nil {
				p.skipped = append(p.skipped, SkippedRecord{ID: r.ID, StoreID: r.StoreID, Reason: err.Error()})
				continue
			}
			c = &computed
		}
		p.add(r, c)
	}
}

func (p *partial) add(r Record, c *settlement.Computed) {
	p.sales++
	p.rebate = p.rebate.Add(c.RebateTotal)
	p.settlement = p.settlement.Add(c.SettlementAmount)
	p.vat = p.vat.Add(c.VAT)
	p.margin = p.margin.Add(c.PostTaxMargin)
	p.carriers[c.CarrierNormalized]++
	p.activations[string(c.ActivationType)]++
	p.stores[r.StoreID] = struct{}{}
	p.list = append(p.list, Sale{
		ID:                r.ID,
		StoreID:           r.StoreID,
		SaleDate:          c.SaleDate.Format(settlement.DateLayout),
		CarrierRaw:        c.CarrierRaw,
		CarrierNormalized: c.CarrierNormalized,
		ActivationType:    c.ActivationType,
		RebateTotal:       c.RebateTotal,
		SettlementAmount:  c.SettlementAmount,
		VAT:               c.VAT,
		PostTaxMargin:     c.PostTaxMargin,
	})
}

func (p *partial) merge(o *partial) {
	p.sales += o.sales
	p.rebate = p.rebate.Add(o.rebate)
	p.settlement = p.settlement.Add(o.settlement)
	p.vat = p.vat.Add(o.vat)
	p.margin = p.margin.Add(o.margin)
	for k, n := range o.carriers {
		p.carriers[k] += n
	}
	for k, n := range o.activations {
		p.activations[k] += n
	}
	for id := range o.stores {
		p.stores[id] = struct{}{}
	}
	p.list = append(p.list, o.list...)
	p.skipped = append(p.skipped, o.skipped...)
}

func (p *partial) summary(period Period, opts Options) Summary {
	sum := Summary{
		Period:                     period,
		TotalSales:                 p.sales,
		TotalRebate:                p.rebate,
		TotalSettlementAmount:      p.settlement,
		TotalVAT:                   p.vat,
		TotalPostTaxMargin:         p.margin,
		TotalVATIncluded:           p.settlement.Add(p.vat),
		AverageSettlementPerSale:   decimal.Zero,
		StoresWithSales:            len(p.stores),
		CarrierDistribution:        distribution(p.carriers),
		ActivationTypeDistribution: distribution(p.activations),
		SkippedCount:               len(p.skipped),
		Skipped:                    p.skipped,
	}
	if p.sales > 0 {
		sum.AverageSettlementPerSale = p.settlement.Div(decimal.NewFromInt(int64(p.sales))).Round(2)
	}
	if opts.Goals != nil {
		sum.GoalAchievement = achievement(*opts.Goals, p.settlement, p.sales)
	}
	if sum.Skipped == nil {
		sum.Skipped = []SkippedRecord{}
	}
	sort.SliceStable(sum.Skipped, func(i, j int) bool { return sum.Skipped[i].ID < sum.Skipped[j].ID })

	sort.Slice(p.list, func(i, j int) bool {
		if p.list[i].SaleDate != p.list[j].SaleDate {
			return p.list[i].SaleDate < p.list[j].SaleDate
		}
		return p.list[i].ID < p.list[j].ID
	})
	if p.list == nil {
		p.list = []Sale{}
	}
	sum.SalesListTotal = len(p.list)
	sum.SalesList, sum.Page, sum.PageSize = paginate(p.list, opts.Page, opts.PageSize)
	return sum
}

func paginate(list []Sale, page, size int) ([]Sale, int, int) {
	if page < 1 {
		page = 1
	}
	if size == 0 {
		size = DefaultPageSize
	}
	if size < 0 {
		return list, 1, len(list)
	}
	// compare page counts so huge page numbers cannot overflow the offset
	if len(list) == 0 || page-1 > (len(list)-1)/size {
		return []Sale{}, page, size
	}
	start := (page - 1) * size
	return list[start:min(start+size, len(list))], page, size
}
