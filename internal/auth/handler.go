package auth

import (
	"strings"

	"telecom-erp-backend/internal/config"
	"telecom-erp-backend/internal/database"
	"telecom-erp-backend/internal/httpx"
	"telecom-erp-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type RegisterHeadquartersRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HashPassword bcrypts a plain password.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// RegisterHeadquartersHandler creates the first headquarters account. Once
// one exists, further accounts are created through the admin API.
func RegisterHeadquartersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterHeadquartersRequest
		if err := httpx.Parse(c, &body); err != nil {
			return err
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var count int64
		if err := database.DB.Model(&models.User{}).
			Where("role = ?", models.RoleHeadquarters).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "a headquarters account already exists")
		}

		hash, err := HashPassword(body.Password)
		if err != nil {
			return err
		}
		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: hash,
			Role:         models.RoleHeadquarters,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "could not create user")
		}

		return httpx.Created(c, fiber.Map{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
		})
	}
}

func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := httpx.Parse(c, &body); err != nil {
			return err
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return err
		}

		return httpx.OK(c, fiber.Map{
			"token": token,
			"user":  userView(&user),
		})
	}
}

// MeHandler returns the reloaded user together with its branch and store.
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := CurrentUser(c)
		if err != nil {
			return err
		}

		resp := userView(user)
		if user.BranchID != nil {
			var branch models.Branch
			if err := database.DB.First(&branch, *user.BranchID).Error; err == nil {
				resp["branch"] = fiber.Map{"id": branch.ID, "name": branch.Name, "code": branch.Code}
			}
		}
		if user.StoreID != nil {
			var store models.Store
			if err := database.DB.First(&store, *user.StoreID).Error; err == nil {
				resp["store"] = fiber.Map{"id": store.ID, "name": store.Name, "code": store.Code, "status": store.Status}
			}
		}
		return httpx.OK(c, resp)
	}
}

func userView(u *models.User) fiber.Map {
	return fiber.Map{
		"id":        u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"role":      u.Role,
		"branch_id": u.BranchID,
		"store_id":  u.StoreID,
	}
}
