package repository

import (
	"context"

	"telecom-erp-backend/internal/models"
	"telecom-erp-backend/internal/scope"

	"gorm.io/gorm"
)

type StoreRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

// All loads every store regardless of scope. It feeds the store index the
// resolver works from and must not be returned to callers directly.
func (r *StoreRepository) All(ctx context.Context) ([]models.Store, error) {
	var stores []models.Store
	err := r.db.WithContext(ctx).Order("id ASC").Find(&stores).Error
	return stores, err
}

func (r *StoreRepository) List(ctx context.Context, s scope.AccessibleScope) ([]models.Store, error) {
	var stores []models.Store
	err := r.db.WithContext(ctx).
		Scopes(s.Apply("stores.id")).
		Preload("Branch").
		Order("stores.id ASC").
		Find(&stores).Error
	return stores, err
}

func (r *StoreRepository) FindByID(ctx context.Context, s scope.AccessibleScope, id uint) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).Scopes(s.Apply("stores.id")).Preload("Branch").First(&store, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &store, nil
}

func (r *StoreRepository) Create(ctx context.Context, store *models.Store) error {
	return r.db.WithContext(ctx).Create(store).Error
}

func (r *StoreRepository) Save(ctx context.Context, store *models.Store) error {
	return r.db.WithContext(ctx).Omit("Branch").Save(store).Error
}

// CountBranches counts every branch, including those with no store yet.
func (r *StoreRepository) CountBranches(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Branch{}).Count(&n).Error
	return n, err
}
