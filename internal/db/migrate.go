package db

import (
	"fmt"
	"time"

	"github.com/zulandar/crewcall/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Shift{},
		&models.Profile{},
		&models.ConversationTurn{},
		&models.Announcement{},
	}
}

// AutoMigrate creates or updates all Crewcall tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedShifts inserts demo shifts for the next few days when the shifts
// table is empty. Used by `cc db migrate --seed` for local setups.
func SeedShifts(db *gorm.DB, now time.Time) (int, error) {
	var count int64
	if err := db.Model(&models.Shift{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("db: count shifts: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	day := now.Truncate(24 * time.Hour)
	shifts := []models.Shift{
		{StartsAt: day.Add(34 * time.Hour), EndsAt: day.Add(42 * time.Hour), Location: "downtown", Status: "scheduled"},
		{StartsAt: day.Add(58 * time.Hour), EndsAt: day.Add(66 * time.Hour), Location: "station", Status: "scheduled"},
		{StartsAt: day.Add(82 * time.Hour), EndsAt: day.Add(90 * time.Hour), Location: "downtown", Status: "scheduled"},
	}
	if err := db.Create(&shifts).Error; err != nil {
		return 0, fmt.Errorf("db: seed shifts: %w", err)
	}
	return len(shifts), nil
}
