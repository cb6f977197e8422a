package repository

import (
	"context"

	"telecom-erp-backend/internal/models"
	"telecom-erp-backend/internal/scope"

	"gorm.io/gorm"
)

type SaleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// ListInRange returns the records of s with from <= sale_date <= to, both
// YYYY-MM-DD, ordered by date then id. Rows with malformed dates are never
// inside a range.
func (r *SaleRepository) ListInRange(ctx context.Context, s scope.AccessibleScope, from, to string) ([]models.SaleRecord, error) {
	var rows []models.SaleRecord
	err := r.db.WithContext(ctx).
		Scopes(s.Apply("store_id")).
		Where("sale_date >= ? AND sale_date <= ?", from, to).
		Order("sale_date ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// Page is one page of a scoped listing.
type Page struct {
	Items []models.SaleRecord
	Total int64
}

func (r *SaleRepository) ListPage(ctx context.Context, s scope.AccessibleScope, from, to string, page, size int) (Page, error) {
	if page < 1 {
		page = 1
	}
	query := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.SaleRecord{}).
			Scopes(s.Apply("store_id")).
			Where("sale_date >= ? AND sale_date <= ?", from, to)
	}

	var out Page
	if err := query().Count(&out.Total).Error; err != nil {
		return Page{}, err
	}
	// past the last page; also keeps the offset below from overflowing
	if size > 0 && int64(page-1) > max(out.Total-1, 0)/int64(size) {
		out.Items = []models.SaleRecord{}
		return out, nil
	}
	err := query().Order("sale_date ASC, id ASC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&out.Items).Error
	return out, err
}

// FindByID reports ErrNotFound for records outside s.
func (r *SaleRepository) FindByID(ctx context.Context, s scope.AccessibleScope, id uint) (*models.SaleRecord, error) {
	var rec models.SaleRecord
	err := r.db.WithContext(ctx).Scopes(s.Apply("store_id")).First(&rec, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (r *SaleRepository) Create(ctx context.Context, rec *models.SaleRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// SaveComputed writes only the derived columns of rec.
func (r *SaleRepository) SaveComputed(ctx context.Context, rec *models.SaleRecord) error {
	return r.db.WithContext(ctx).Model(rec).
		Select("carrier_normalized", "activation_type", "rebate_total", "settlement_amount", "vat", "post_tax_margin", "computed_at").
		Updates(rec).Error
}
