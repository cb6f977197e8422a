package sales

import (
	"fmt"
	"io"
	"strings"
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
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// SheetColumns is the column order of an import sheet.
var SheetColumns = []string{
	"sale_date", "carrier", "activation_type",
	"face_value", "verbal1", "verbal2", "grade_addon", "additional_amount",
	"paper_cash", "sim_fee", "discount_new_or_mnp", "cash_received", "payback",
	"tax_rate",
}

// SheetRow is one data row of an import sheet; Row is 1-based as shown
// by spreadsheet programs.
type SheetRow struct {
	Row int
	Raw settlement.Raw
}

type RejectedRow struct {
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Imported []uint        `json:"imported"`
	Rejected []RejectedRow `json:"rejected"`
}

// ParseSheet reads the first sheet of an xlsx workbook. A first row whose
// first cell names a date column is treated as a header. Blank rows are
// ignored.
func ParseSheet(r io.Reader) ([]SheetRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}

	start := 0
	if len(rows) > 0 && len(rows[0]) > 0 {
		first := strings.ToLower(strings.TrimSpace(rows[0][0]))
		if strings.Contains(first, "date") {
			start = 1
		}
	}

	out := make([]SheetRow, 0, len(rows))
	for i := start; i < len(rows); i++ {
		cells := rows[i]
		if blank(cells) {
			continue
		}
		out = append(out, SheetRow{Row: i + 1, Raw: rawFromCells(cells)})
	}
	return out, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func rawFromCells(cells []string) settlement.Raw {
	cell := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}
	field := func(i int) settlement.Field { return settlement.Field(cell(i)) }
	return settlement.Raw{
		SaleDate:         cell(0),
		Carrier:          cell(1),
		ActivationType:   cell(2),
		FaceValue:        field(3),
		Verbal1:          field(4),
		Verbal2:          field(5),
		GradeAddon:       field(6),
		AdditionalAmount: field(7),
		PaperCash:        field(8),
		SimFee:           field(9),
		DiscountNewOrMnp: field(10),
		CashReceived:     field(11),
		Payback:          field(12),
		TaxRate:          field(13),
	}
}

func rejection(row int, err error) RejectedRow {
	if ve, ok := entryError(err).(*httpx.ValidationError); ok {
		return RejectedRow{Row: row, Field: ve.Field, Reason: ve.Message}
	}
	return RejectedRow{Row: row, Reason: err.Error()}
}

// POST /api/sales/import (multipart: file, store_id)
//
// Valid rows are stored with their breakdown; rows the calculator rejects
// are reported and not stored.
func ImportSalesHandler(calc *settlement.Calculator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var requested *uint
		if v := c.FormValue("store_id"); v != "" {
			var id uint
			if _, err := fmt.Sscan(v, &id); err != nil || id == 0 {
				return &httpx.ValidationError{Field: "store_id", Message: "must be a store id"}
			}
			requested = &id
		}
		storeID, err := targetStore(c, user, requested)
		if err != nil {
			return err
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file is required")
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "only .xlsx files are accepted")
		}
		file, err := fileHeader.Open()
		if err != nil {
			return err
		}
		defer file.Close()

		rows, err := ParseSheet(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "sheet has no rows")
		}

		res := ImportResult{Imported: []uint{}, Rejected: []RejectedRow{}}
		now := time.Now()
		err = database.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			repo := repository.NewSaleRepository(tx)
			for _, row := range rows {
				computed, err := calc.Compute(row.Raw)
				if err != nil {
					res.Rejected = append(res.Rejected, rejection(row.Row, err))
					continue
				}
				rec := newRecord(storeID, row.Raw, computed)
				rec.CreatedBy = user.ID
				statistics.ApplyComputed(&rec, computed, now)
				if err := repo.Create(c.UserContext(), &rec); err != nil {
					return err
				}
				res.Imported = append(res.Imported, rec.ID)
			}
			return audit.WriteLogTx(tx, audit.LogOptions{
				StoreID:     &storeID,
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  audit.EntitySaleRecord,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("imported %d sales from %s, %d rows rejected", len(res.Imported), fileHeader.Filename, len(res.Rejected)),
			})
		})
		if err != nil {
			return err
		}
		return httpx.OK(c, res)
	}
}
