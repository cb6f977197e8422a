// Package repository reads and writes the persisted models. Every read
// that returns store-owned rows takes the caller's AccessibleScope and
// applies it in SQL.
package repository

import (
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
