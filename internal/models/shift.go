package models

import "time"

// Shift is a single schedule row: one staffed time range at a location.
// Crewcall only reads shifts when answering queries or announcing; rows
// are created by the operator CLI or seeded at migration time.
type Shift struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	StartsAt  time.Time `gorm:"not null;index"`
	EndsAt    time.Time `gorm:"not null;index"`
	Location  string    `gorm:"size:128;not null"`
	Status    string    `gorm:"size:16;default:scheduled;index"` // scheduled, confirmed, cancelled
	Note      string    `gorm:"size:256"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
