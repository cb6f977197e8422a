package admin

import (
	"errors"
	"strings"

	"telecom-erp-backend/internal/audit"
	"telecom-erp-backend/internal/database"
	"telecom-erp-backend/internal/httpx"
	"telecom-erp-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type BranchResponse struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Code       string `json:"code"`
	StoreCount int64  `json:"store_count"`
	CreatedAt  string `json:"created_at"`
}

type CreateBranchRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Code string `json:"code" validate:"required,max=30"`
}

type UpdateBranchRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=100"`
	Code *string `json:"code"`
}

func branchResponse(b *models.Branch, stores int64) BranchResponse {
	return BranchResponse{
		ID:         b.ID,
		Name:       b.Name,
		Code:       b.Code,
		StoreCount: stores,
		CreatedAt:  b.CreatedAt.Format(timeLayout),
	}
}

// ----------------------------------------
// BRANCH CRUD
// ----------------------------------------

func CreateBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBranchRequest
		if err := httpx.Parse(c, &body); err != nil {
			return err
		}
		body.Name = strings.TrimSpace(body.Name)
		body.Code = strings.ToUpper(strings.TrimSpace(body.Code))

		var exist models.Branch
		if err := database.DB.Where("code = ?", body.Code).First(&exist).Error; err == nil {
			return fiber.NewError(fiber.StatusConflict, "branch code already in use")
		}

		branch := models.Branch{Name: body.Name, Code: body.Code}
		if err := database.DB.Create(&branch).Error; err != nil {
			return err
		}

		record(c, audit.LogOptions{
			EntityType:  audit.EntityBranch,
			EntityID:    branch.ID,
			Action:      models.AuditActionCreate,
			Description: "branch created: " + branch.Code,
			After:       branchResponse(&branch, 0),
		})
		return httpx.Created(c, branchResponse(&branch, 0))
	}
}

func ListBranchesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var branches []models.Branch
		if err := database.DB.Order("id ASC").Find(&branches).Error; err != nil {
			return err
		}

		type countRow struct {
			BranchID uint
			N        int64
		}
		var counts []countRow
		if err := database.DB.Model(&models.Store{}).
			Select("branch_id, COUNT(*) AS n").
			Group("branch_id").
			Scan(&counts).Error; err != nil {
			return err
		}
		perBranch := make(map[uint]int64, len(counts))
		for _, r := range counts {
			perBranch[r.BranchID] = r.N
		}

		res := make([]BranchResponse, 0, len(branches))
		for i := range branches {
			res = append(res, branchResponse(&branches[i], perBranch[branches[i].ID]))
		}
		return httpx.OK(c, res)
	}
}

func loadBranch(id uint) (*models.Branch, error) {
	var branch models.Branch
	if err := database.DB.First(&branch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "branch not found")
		}
		return nil, err
	}
	return &branch, nil
}

func GetBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		branch, err := loadBranch(id)
		if err != nil {
			return err
		}
		var stores int64
		if err := database.DB.Model(&models.Store{}).Where("branch_id = ?", id).Count(&stores).Error; err != nil {
			return err
		}
		return httpx.OK(c, branchResponse(branch, stores))
	}
}

// UpdateBranchHandler renames a branch. The code is assigned once; sending
// a different one is rejected.
func UpdateBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		branch, err := loadBranch(id)
		if err != nil {
			return err
		}

		var body UpdateBranchRequest
		if err := httpx.Parse(c, &body); err != nil {
			return err
		}
		if body.Code != nil && !strings.EqualFold(strings.TrimSpace(*body.Code), branch.Code) {
			return &httpx.ValidationError{Field: "code", Message: "cannot be changed"}
		}

		before := branchResponse(branch, 0)
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return &httpx.ValidationError{Field: "name", Message: "is required"}
			}
			branch.Name = name
		}
		if err := database.DB.Omit("Stores").Save(branch).Error; err != nil {
			return err
		}

		record(c, audit.LogOptions{
			EntityType:  audit.EntityBranch,
			EntityID:    branch.ID,
			Action:      models.AuditActionUpdate,
			Description: "branch updated: " + branch.Code,
			Before:      before,
			After:       branchResponse(branch, 0),
		})
		return httpx.OK(c, branchResponse(branch, 0))
	}
}
