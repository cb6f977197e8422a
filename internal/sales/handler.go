// Package sales records activations and keeps their derived settlement
// columns in step with the calculator.
package sales

import (
	"errors"
	"fmt"
	"time"

	"telecom-erp-backend/internal/audit"
	"telecom-erp-backend/internal/auth"
	"telecom-erp-backend/internal/config"
	"telecom-erp-backend/internal/database"
	"telecom-erp-backend/internal/httpx"
	"telecom-erp-backend/internal/models"
	"telecom-erp-backend/internal/repository"
	"telecom-erp-backend/internal/settlement"
	"telecom-erp-backend/internal/statistics"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateSaleRequest is a raw entry plus the store it belongs to. Store
// users may omit store_id.
type CreateSaleRequest struct {
	StoreID *uint `json:"store_id"`
	settlement.Raw
}

// entryError turns a calculator failure into a 422 naming the field.
func entryError(err error) error {
	var fe *settlement.InvalidFieldError
	switch {
	case errors.As(err, &fe):
		return &httpx.ValidationError{Field: fe.Field, Message: fe.Reason}
	case errors.Is(err, settlement.ErrInvalidDate):
		return &httpx.ValidationError{Field: "sale_date", Message: "must be a date in YYYY-MM-DD form"}
	case errors.Is(err, settlement.ErrInvalidTaxRate):
		return &httpx.ValidationError{Field: "tax_rate", Message: "must be a fraction between 0 and 1"}
	}
	return err
}

// targetStore decides which store a new sale is booked to.
func targetStore(c *fiber.Ctx, user *models.User, requested *uint) (uint, error) {
	s, err := auth.CurrentScope(c)
	if err != nil {
		return 0, err
	}

	var id uint
	switch {
	case requested != nil:
		id = *requested
	case user.Role == models.RoleStore && user.StoreID != nil:
		id = *user.StoreID
	default:
		return 0, &httpx.ValidationError{Field: "store_id", Message: "is required"}
	}
	if !s.Contains(id) {
		return 0, fiber.NewError(fiber.StatusForbidden, "store is outside your scope")
	}

	store, err := repository.NewStoreRepository(database.DB).FindByID(c.UserContext(), s, id)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, fiber.NewError(fiber.StatusNotFound, "store not found")
	}
	if err != nil {
		return 0, err
	}
	if store.Status != models.StoreStatusActive {
		return 0, fiber.NewError(fiber.StatusConflict, "store is inactive")
	}
	return store.ID, nil
}

// CreateSaleHandler runs the entry through the calculator and stores the
// raw and derived values together. Entries the calculator rejects are
// never persisted.
func CreateSaleHandler(calc *settlement.Calculator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var body CreateSaleRequest
		if err := httpx.Parse(c, &body); err != nil {
			return err
		}

		storeID, err := targetStore(c, user, body.StoreID)
		if err != nil {
			return err
		}
		computed, err := calc.Compute(body.Raw)
		if err != nil {
			return entryError(err)
		}

		rec := newRecord(storeID, body.Raw, computed)
		rec.CreatedBy = user.ID
		statistics.ApplyComputed(&rec, computed, time.Now())

		err = database.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if err := repository.NewSaleRepository(tx).Create(c.UserContext(), &rec); err != nil {
				return err
			}
			return audit.WriteLogTx(tx, audit.LogOptions{
				StoreID:     &rec.StoreID,
				UserID:      user.ID,
				UserName:    user.Name,
				EntityType:  audit.EntitySaleRecord,
				EntityID:    rec.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("sale recorded for %s", rec.SaleDate),
				After:       saleResponse(&rec),
			})
		})
		if err != nil {
			return err
		}
		return httpx.Created(c, saleResponse(&rec))
	}
}

// newRecord keeps the validated inputs. The tax rate is stored only when
// the entry named one, so a null column keeps meaning "default rate".
func newRecord(storeID uint, raw settlement.Raw, computed settlement.Computed) models.SaleRecord {
	in := computed.Inputs
	rec := models.SaleRecord{
		StoreID:          storeID,
		SaleDate:         computed.SaleDate.Format(settlement.DateLayout),
		CarrierRaw:       computed.CarrierRaw,
		FaceValue:        in.FaceValue,
		Verbal1:          in.Verbal1,
		Verbal2:          in.Verbal2,
		GradeAddon:       in.GradeAddon,
		AdditionalAmount: in.AdditionalAmount,
		PaperCash:        in.PaperCash,
		SimFee:           in.SimFee,
		DiscountNewOrMnp: in.DiscountNewOrMnp,
		CashReceived:     in.CashReceived,
		Payback:          in.Payback,
	}
	if !raw.TaxRate.IsMissing() {
		rec.TaxRate = decimal.NewNullDecimal(in.TaxRate)
	}
	return rec
}

// GET /api/sales?from=&to=&store_id=&page=&page_size=
//
// from and to default to the current month.
func ListSalesHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.CurrentScope(c)
		if err != nil {
			return err
		}

		now := time.Now()
		defFrom, defTo := statistics.Monthly(now.Year(), now.Month()).Bounds()
		from, to := c.Query("from", defFrom), c.Query("to", defTo)
		if _, err := settlement.ParseSaleDate(from); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "from must be YYYY-MM-DD")
		}
		if _, err := settlement.ParseSaleDate(to); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "to must be YYYY-MM-DD")
		}
		if sid := c.QueryInt("store_id"); sid > 0 {
			s = s.Intersect([]uint{uint(sid)})
		}

		page := c.QueryInt("page", 1)
		size := c.QueryInt("page_size", cfg.StatsPageSize)
		if size < 1 || size > cfg.StatsMaxPageSize {
			size = cfg.StatsMaxPageSize
		}

		res, err := repository.NewSaleRepository(database.DB).ListPage(c.UserContext(), s, from, to, page, size)
		if err != nil {
			return err
		}
		items := make([]SaleResponse, 0, len(res.Items))
		for i := range res.Items {
			items = append(items, saleResponse(&res.Items[i]))
		}
		return httpx.OK(c, fiber.Map{
			"items":     items,
			"total":     res.Total,
			"page":      max(page, 1),
			"page_size": size,
		})
	}
}

func GetSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.CurrentScope(c)
		if err != nil {
			return err
		}
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid id")
		}
		rec, err := repository.NewSaleRepository(database.DB).FindByID(c.UserContext(), s, uint(id))
		if errors.Is(err, repository.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "sale not found")
		}
		if err != nil {
			return err
		}
		return httpx.OK(c, saleResponse(rec))
	}
}
