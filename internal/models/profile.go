package models

import "time"

// Profile is a finished profile produced by the guided profile flow.
// Re-running the flow for the same user replaces the row wholesale; the
// flow never edits a stored profile field by field.
type Profile struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"size:128;not null;uniqueIndex"` // platform user identifier
	Name      string `gorm:"size:64;not null"`
	Age       int    `gorm:"not null"`
	Area      string `gorm:"size:64;not null"`
	Bio       string `gorm:"size:512"`
	Fields    string `gorm:"type:text"` // JSON of field name → value, in prompt order
	CreatedAt time.Time
	UpdatedAt time.Time
}
