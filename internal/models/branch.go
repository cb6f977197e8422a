package models

import "time"

type Branch struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null"`
	Code      string `gorm:"size:30;not null;uniqueIndex"` // assigned once, never changed
	CreatedAt time.Time
	UpdatedAt time.Time

	Stores []Store
}
