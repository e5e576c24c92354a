package models

import (
	"strings"
	"time"
)

// BaseModel is embedded in every table.
type BaseModel struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"type:timestamptz"`
	UpdatedAt time.Time `gorm:"type:timestamptz"`
}

// optional turns a blank form value into NULL.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns "" for a nil pointer. Views use it for nullable columns.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
