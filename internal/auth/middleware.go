package auth

import (
	"context"
	"errors"
	"strings"

	"telecom-erp-backend/internal/config"
	"telecom-erp-backend/internal/database"
	"telecom-erp-backend/internal/logger"
	"telecom-erp-backend/internal/models"
	"telecom-erp-backend/internal/scope"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserRoleKey = "user_role"
	CtxBranchIDKey = "branch_id"
	CtxStoreIDKey  = "store_id"
	CtxUserKey     = "user"
	CtxScopeKey    = "scope"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization must be 'Bearer <token>'")
		}

		claims, err := ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		return c.Next()
	}
}

// IndexProvider serves the current store index.
type IndexProvider interface {
	Index(ctx context.Context) (scope.StoreIndex, error)
}

// ScopeMiddleware reloads the authenticated user and resolves the stores
// they may see. Any inconsistency ends the request with 403 and no data;
// there is no fallback scope.
func ScopeMiddleware(stores IndexProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(CtxUserIDKey).(uint)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "no authenticated user")
		}

		var user models.User
		if err := database.DB.WithContext(c.UserContext()).First(&user, userID).Error; err != nil {
			return fiber.NewError(fiber.StatusForbidden, "user no longer exists")
		}

		index, err := stores.Index(c.UserContext())
		if err != nil {
			return err
		}
		s, err := scope.ResolveUser(&user, index)
		if err != nil {
			logger.FromCtx(c).Warn("scope resolution failed",
				zap.Uint("user_id", user.ID),
				zap.String("role", string(user.Role)),
				zap.Error(err),
			)
			switch {
			case errors.Is(err, scope.ErrUnknownRole):
				return fiber.NewError(fiber.StatusForbidden, "unknown role")
			default:
				return fiber.NewError(fiber.StatusForbidden, "account is not linked to a branch or store")
			}
		}

		c.Locals(CtxUserKey, &user)
		c.Locals(CtxUserRoleKey, user.Role)
		c.Locals(CtxBranchIDKey, user.BranchID)
		c.Locals(CtxStoreIDKey, user.StoreID)
		c.Locals(CtxScopeKey, s)
		return c.Next()
	}
}

// CurrentUser returns the user loaded by ScopeMiddleware.
func CurrentUser(c *fiber.Ctx) (*models.User, error) {
	u, ok := c.Locals(CtxUserKey).(*models.User)
	if !ok || u == nil {
		return nil, fiber.NewError(fiber.StatusForbidden, "no authenticated user")
	}
	return u, nil
}

// CurrentScope returns the scope resolved by ScopeMiddleware. Without one
// the request is denied rather than served unscoped.
func CurrentScope(c *fiber.Ctx) (scope.AccessibleScope, error) {
	s, ok := c.Locals(CtxScopeKey).(scope.AccessibleScope)
	if !ok {
		return scope.AccessibleScope{}, fiber.NewError(fiber.StatusForbidden, "access scope not resolved")
	}
	return s, nil
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "role unavailable")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "you are not allowed to do this")
	}
}
