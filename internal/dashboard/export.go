package dashboard

import (
	"fmt"

	"telecom-erp-backend/internal/scope"
	"telecom-erp-backend/internal/statistics"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	salesSheet   = "Sales"
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var salesHeader = []any{
	"ID", "Date", "Carrier (entered)", "Carrier", "Activation",
	"Rebate total", "Settlement", "VAT", "Post-tax margin",
}

// BuildWorkbook renders a store summary and its full sales list.
func BuildWorkbook(store scope.StoreEntry, sum statistics.Summary) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(salesSheet); err != nil {
		f.Close()
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	from, to := sum.Period.Bounds()
	rows := [][]any{
		{"Store", store.Name},
		{"Store ID", store.ID},
		{"Period", fmt.Sprintf("%s %s .. %s", sum.Period.Granularity, from, to)},
		{},
		{"Total sales", sum.TotalSales},
		{"Total rebate", sum.TotalRebate.InexactFloat64()},
		{"Total settlement", sum.TotalSettlementAmount.InexactFloat64()},
		{"Total VAT", sum.TotalVAT.InexactFloat64()},
		{"Total VAT included", sum.TotalVATIncluded.InexactFloat64()},
		{"Total post-tax margin", sum.TotalPostTaxMargin.InexactFloat64()},
		{"Average settlement per sale", sum.AverageSettlementPerSale.InexactFloat64()},
		{"Skipped records", sum.SkippedCount},
	}
	if g := sum.GoalAchievement; g != nil {
		rows = append(rows, []any{"Sales target", g.SalesTarget.InexactFloat64()})
		if g.SalesAchievementRate != nil {
			rows = append(rows, []any{"Sales achievement (%)", *g.SalesAchievementRate})
		}
	}
	rows = append(rows, []any{})
	rows = append(rows, []any{"Carrier", "Count", "Share (%)"})
	for _, share := range sum.CarrierDistribution {
		rows = append(rows, []any{share.Key, share.Count, share.Percentage})
	}
	if err := writeRows(f, summarySheet, rows); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(rows)), bold); err != nil {
		f.Close()
		return nil, err
	}

	sales := make([][]any, 0, len(sum.SalesList)+1)
	sales = append(sales, salesHeader)
	for _, s := range sum.SalesList {
		sales = append(sales, []any{
			s.ID, s.SaleDate, s.CarrierRaw, s.CarrierNormalized, string(s.ActivationType),
			s.RebateTotal.InexactFloat64(), s.SettlementAmount.InexactFloat64(),
			s.VAT.InexactFloat64(), s.PostTaxMargin.InexactFloat64(),
		})
	}
	if err := writeRows(f, salesSheet, sales); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetCellStyle(salesSheet, "A1", "I1", bold); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, r := range rows {
		if len(r) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}
	return nil
}

// GET /api/stores/:id/statistics/export?period=&date=&year=&month=
func ExportStoreStatisticsHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		store, sum, err := storeStatistics(c, d, -1)
		if err != nil {
			return err
		}
		f, err := BuildWorkbook(store, sum)
		if err != nil {
			return err
		}
		defer f.Close()

		buf, err := f.WriteToBuffer()
		if err != nil {
			return err
		}
		from, to := sum.Period.Bounds()
		c.Set(fiber.HeaderContentType, xlsxMIME)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="store-%d-%s-%s.xlsx"`, store.ID, from, to))
		return c.Send(buf.Bytes())
	}
}
