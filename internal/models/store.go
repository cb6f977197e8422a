package models

import "time"

type StoreStatus string

const (
	StoreStatusActive   StoreStatus = "active"
	StoreStatusInactive StoreStatus = "inactive"
)

// Store is never hard-deleted once sales reference it; deactivate via Status.
type Store struct {
	ID        uint   `gorm:"primaryKey"`
	BranchID  uint   `gorm:"index;not null"`
	Branch    Branch
	Name      string      `gorm:"size:100;not null"`
	Code      string      `gorm:"size:30;not null;uniqueIndex"`
	Status    StoreStatus `gorm:"size:20;not null;default:active"`
	OwnerName string      `gorm:"size:100"`
	Phone     string      `gorm:"size:50"`
	Address   string      `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
