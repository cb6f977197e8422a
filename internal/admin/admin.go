// Package admin manages the organization tree: branches, stores, user
// accounts and monthly sales goals.
package admin

import (
	"context"

	"telecom-erp-backend/internal/audit"
	"telecom-erp-backend/internal/auth"
	"telecom-erp-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const timeLayout = "2006-01-02 15:04:05"

// IndexInvalidator drops the cached store index after the store table
// changed.
type IndexInvalidator interface {
	Invalidate(ctx context.Context)
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

// record writes an audit entry for the current user. A failed write is
// logged and does not fail the request.
func record(c *fiber.Ctx, opts audit.LogOptions) {
	if u, err := auth.CurrentUser(c); err == nil {
		opts.UserID = u.ID
		opts.UserName = u.Name
	}
	if err := audit.WriteLog(opts); err != nil {
		logger.FromCtx(c).Warn("audit log write failed",
			zap.String("entity_type", opts.EntityType),
			zap.Uint("entity_id", opts.EntityID),
			zap.Error(err),
		)
	}
}
