package admin

import (
	"strings"

	"telecom-erp-backend/internal/audit"
	"telecom-erp-backend/internal/auth"
	"telecom-erp-backend/internal/database"
	"telecom-erp-backend/internal/httpx"
	"telecom-erp-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateUserRequest struct {
	Name     string          `json:"name" validate:"required,max=100"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=8"`
	Role     models.UserRole `json:"role" validate:"required,oneof=headquarters developer branch store"`
	BranchID *uint           `json:"branch_id"`
	StoreID  *uint           `json:"store_id"`
}

type UserResponse struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	BranchID  *uint           `json:"branch_id"`
	StoreID   *uint           `json:"store_id"`
	CreatedAt string          `json:"created_at"`
}

func userResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		BranchID:  u.BranchID,
		StoreID:   u.StoreID,
		CreatedAt: u.CreatedAt.Format(timeLayout),
	}
}

// ----------------------------------------
// USER ACCOUNTS
// ----------------------------------------

// CreateUserHandler creates an account and links it to the organization.
// Branch users need a branch; store users need a store and inherit its
// branch. Headquarters and developer accounts carry no link.
func CreateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := httpx.Parse(c, &body); err != nil {
			return err
		}
		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		body.Name = strings.TrimSpace(body.Name)

		user := models.User{
			Name:  body.Name,
			Email: body.Email,
			Role:  body.Role,
		}
		switch body.Role {
		case models.RoleBranch:
			if body.BranchID == nil {
				return &httpx.ValidationError{Field: "branch_id", Message: "is required for branch users"}
			}
			branch, err := loadBranch(*body.BranchID)
			if err != nil {
				return err
			}
			user.BranchID = &branch.ID
		case models.RoleStore:
			if body.StoreID == nil {
				return &httpx.ValidationError{Field: "store_id", Message: "is required for store users"}
			}
			var store models.Store
			if err := database.DB.First(&store, *body.StoreID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "store not found")
			}
			user.StoreID = &store.ID
			user.BranchID = &store.BranchID
		}

		var exist models.User
		if err := database.DB.Where("email = ?", body.Email).First(&exist).Error; err == nil {
			return fiber.NewError(fiber.StatusConflict, "email already registered")
		}

		hash, err := auth.HashPassword(body.Password)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		if err := database.DB.Create(&user).Error; err != nil {
			return err
		}

		record(c, audit.LogOptions{
			StoreID:     user.StoreID,
			EntityType:  audit.EntityUser,
			EntityID:    user.ID,
			Action:      models.AuditActionCreate,
			Description: "user created: " + user.Email,
			After:       userResponse(&user),
		})
		return httpx.Created(c, userResponse(&user))
	}
}

// GET /api/admin/users?branch_id=&role=
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.User{})
		if bid := c.QueryInt("branch_id"); bid > 0 {
			dbq = dbq.Where("branch_id = ?", bid)
		}
		if role := c.Query("role"); role != "" {
			dbq = dbq.Where("role = ?", role)
		}

		var users []models.User
		if err := dbq.Order("id ASC").Find(&users).Error; err != nil {
			return err
		}
		res := make([]UserResponse, 0, len(users))
		for i := range users {
			res = append(res, userResponse(&users[i]))
		}
		return httpx.OK(c, res)
	}
}
