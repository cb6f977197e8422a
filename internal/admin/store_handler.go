package admin

import (
	"errors"
	"strings"

	"telecom-erp-backend/internal/audit"
	"telecom-erp-backend/internal/auth"
	"telecom-erp-backend/internal/database"
	"telecom-erp-backend/internal/httpx"
	"telecom-erp-backend/internal/models"
	"telecom-erp-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type StoreResponse struct {
	ID         uint               `json:"id"`
	BranchID   uint               `json:"branch_id"`
	BranchName string             `json:"branch_name"`
	Name       string             `json:"name"`
	Code       string             `json:"code"`
	Status     models.StoreStatus `json:"status"`
	OwnerName  string             `json:"owner_name"`
	Phone      string             `json:"phone"`
	Address    string             `json:"address"`
	CreatedAt  string             `json:"created_at"`
}

type CreateStoreRequest struct {
	BranchID  uint   `json:"branch_id" validate:"required"`
	Name      string `json:"name" validate:"required,max=100"`
	Code      string `json:"code" validate:"required,max=30"`
	OwnerName string `json:"owner_name" validate:"max=100"`
	Phone     string `json:"phone" validate:"max=50"`
	Address   string `json:"address" validate:"max=255"`
}

type UpdateStoreRequest struct {
	BranchID  *uint               `json:"branch_id" validate:"omitempty,min=1"`
	Name      *string             `json:"name" validate:"omitempty,min=1,max=100"`
	Code      *string             `json:"code"`
	Status    *models.StoreStatus `json:"status" validate:"omitempty,oneof=active inactive"`
	OwnerName *string             `json:"owner_name" validate:"omitempty,max=100"`
	Phone     *string             `json:"phone" validate:"omitempty,max=50"`
	Address   *string             `json:"address" validate:"omitempty,max=255"`
}

func storeResponse(s *models.Store) StoreResponse {
	return StoreResponse{
		ID:         s.ID,
		BranchID:   s.BranchID,
		BranchName: s.Branch.Name,
		Name:       s.Name,
		Code:       s.Code,
		Status:     s.Status,
		OwnerName:  s.OwnerName,
		Phone:      s.Phone,
		Address:    s.Address,
		CreatedAt:  s.CreatedAt.Format(timeLayout),
	}
}

// ----------------------------------------
// STORE CRUD
// ----------------------------------------

func CreateStoreHandler(index IndexInvalidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateStoreRequest
		if err := httpx.Parse(c, &body); err != nil {
			return err
		}
		body.Code = strings.ToUpper(strings.TrimSpace(body.Code))

		branch, err := loadBranch(body.BranchID)
		if err != nil {
			return err
		}
		var exist models.Store
		if err := database.DB.Where("code = ?", body.Code).First(&exist).Error; err == nil {
			return fiber.NewError(fiber.StatusConflict, "store code already in use")
		}

		store := models.Store{
			BranchID:  branch.ID,
			Name:      strings.TrimSpace(body.Name),
			Code:      body.Code,
			Status:    models.StoreStatusActive,
			OwnerName: strings.TrimSpace(body.OwnerName),
			Phone:     strings.TrimSpace(body.Phone),
			Address:   body.Address,
		}
		repo := repository.NewStoreRepository(database.DB)
		if err := repo.Create(c.UserContext(), &store); err != nil {
			return err
		}
		index.Invalidate(c.UserContext())
		store.Branch = *branch

		record(c, audit.LogOptions{
			StoreID:     &store.ID,
			EntityType:  audit.EntityStore,
			EntityID:    store.ID,
			Action:      models.AuditActionCreate,
			Description: "store created: " + store.Code,
			After:       storeResponse(&store),
		})
		return httpx.Created(c, storeResponse(&store))
	}
}

// ListStoresHandler lists the stores in the caller's scope.
func ListStoresHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.CurrentScope(c)
		if err != nil {
			return err
		}
		stores, err := repository.NewStoreRepository(database.DB).List(c.UserContext(), s)
		if err != nil {
			return err
		}
		res := make([]StoreResponse, 0, len(stores))
		for i := range stores {
			res = append(res, storeResponse(&stores[i]))
		}
		return httpx.OK(c, res)
	}
}

// scopedStore loads a store the caller may see; anything else is 403.
func scopedStore(c *fiber.Ctx, id uint) (*models.Store, error) {
	s, err := auth.CurrentScope(c)
	if err != nil {
		return nil, err
	}
	if !s.Contains(id) {
		return nil, fiber.NewError(fiber.StatusForbidden, "store is outside your scope")
	}
	store, err := repository.NewStoreRepository(database.DB).FindByID(c.UserContext(), s, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "store not found")
	}
	return store, err
}

func GetStoreHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		store, err := scopedStore(c, id)
		if err != nil {
			return err
		}
		return httpx.OK(c, storeResponse(store))
	}
}

// UpdateStoreHandler edits a store. Stores are deactivated through status,
// never deleted; the code is fixed once assigned.
func UpdateStoreHandler(index IndexInvalidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		store, err := scopedStore(c, id)
		if err != nil {
			return err
		}

		var body UpdateStoreRequest
		if err := httpx.Parse(c, &body); err != nil {
			return err
		}
		if body.Code != nil && !strings.EqualFold(strings.TrimSpace(*body.Code), store.Code) {
			return &httpx.ValidationError{Field: "code", Message: "cannot be changed"}
		}

		before := storeResponse(store)
		if body.BranchID != nil && *body.BranchID != store.BranchID {
			branch, err := loadBranch(*body.BranchID)
			if err != nil {
				return err
			}
			store.BranchID = branch.ID
			store.Branch = *branch
		}
		if body.Name != nil {
			store.Name = strings.TrimSpace(*body.Name)
		}
		if body.Status != nil {
			store.Status = *body.Status
		}
		if body.OwnerName != nil {
			store.OwnerName = strings.TrimSpace(*body.OwnerName)
		}
		if body.Phone != nil {
			store.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Address != nil {
			store.Address = *body.Address
		}

		if err := repository.NewStoreRepository(database.DB).Save(c.UserContext(), store); err != nil {
			return err
		}
		index.Invalidate(c.UserContext())

		record(c, audit.LogOptions{
			StoreID:     &store.ID,
			EntityType:  audit.EntityStore,
			EntityID:    store.ID,
			Action:      models.AuditActionUpdate,
			Description: "store updated: " + store.Code,
			Before:      before,
			After:       storeResponse(store),
		})
		return httpx.OK(c, storeResponse(store))
	}
}
