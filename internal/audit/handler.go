package audit

import (
	"telecom-erp-backend/internal/auth"
	"telecom-erp-backend/internal/database"
	"telecom-erp-backend/internal/httpx"
	"telecom-erp-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const maxListSize = 200

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	StoreID     *uint              `json:"store_id"`
	UserID      uint               `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
}

// GET /api/audit-logs?entity_type=sale_record&entity_id=1&user_id=3&limit=50
//
// Entries are limited to the caller's stores. Organization-level entries
// (no store) are only visible to an unrestricted scope.
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := auth.CurrentScope(c)
		if err != nil {
			return err
		}

		dbq := database.DB.WithContext(c.UserContext()).
			Model(&models.AuditLog{}).
			Scopes(s.Apply("store_id"))

		if entityType := c.Query("entity_type"); entityType != "" {
			dbq = dbq.Where("entity_type = ?", entityType)
		}
		if eid := c.QueryInt("entity_id"); eid > 0 {
			dbq = dbq.Where("entity_id = ?", eid)
		}
		if uid := c.QueryInt("user_id"); uid > 0 {
			dbq = dbq.Where("user_id = ?", uid)
		}

		limit := c.QueryInt("limit", 50)
		if limit < 1 || limit > maxListSize {
			limit = maxListSize
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
			return err
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, AuditLogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
				StoreID:     l.StoreID,
				UserID:      l.UserID,
				UserName:    l.UserName,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				Action:      l.Action,
				Description: l.Description,
			})
		}
		return httpx.OK(c, resp)
	}
}
