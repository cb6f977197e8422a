package audit

import (
	"encoding/json"
	"fmt"

	"telecom-erp-backend/internal/database"
	"telecom-erp-backend/internal/models"

	"gorm.io/gorm"
)

// Entity types written to the log.
const (
	EntitySaleRecord = "sale_record"
	EntityStore      = "store"
	EntityBranch     = "branch"
	EntityUser       = "user"
	EntitySalesGoal  = "sales_goal"
)

type LogOptions struct {
	StoreID     *uint
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// WriteLog records an entry on the global connection.
func WriteLog(opts LogOptions) error {
	return WriteLogTx(database.DB, opts)
}

// WriteLogTx records an entry inside tx so it commits with the change it
// describes.
func WriteLogTx(tx *gorm.DB, opts LogOptions) error {
	entry := models.AuditLog{
		StoreID:     opts.StoreID,
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}

	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	return nil
}

// snapshot renders v as JSON text; "null" when there is nothing to record.
func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
