package dashboard

import (
	"time"

	"github.com/zulandar/crewcall/internal/models"
	"gorm.io/gorm"
)

// ShiftRow holds shift data for display.
type ShiftRow struct {
	ID       uint      `json:"id"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Location string    `json:"location"`
	Status   string    `json:"status"`
}

// UpcomingShifts returns non-cancelled shifts ending at or after ref,
// ascending by start time.
func UpcomingShifts(db *gorm.DB, ref time.Time) ([]ShiftRow, error) {
	var shifts []models.Shift
	if err := db.Where("ends_at >= ? AND status <> ?", ref, "cancelled").
		Order("starts_at ASC").Find(&shifts).Error; err != nil {
		return nil, err
	}

	rows := make([]ShiftRow, len(shifts))
	for i, s := range shifts {
		rows[i] = ShiftRow{
			ID:       s.ID,
			StartsAt: s.StartsAt,
			EndsAt:   s.EndsAt,
			Location: s.Location,
			Status:   s.Status,
		}
	}
	return rows, nil
}

// StatsSummary holds headline counters for the status API.
type StatsSummary struct {
	Profiles       int64 `json:"profiles"`
	UpcomingShifts int64 `json:"upcoming_shifts"`
	Announcements  int64 `json:"announcements"`
	TurnsToday     int64 `json:"turns_today"`
}

// Stats computes the headline counters.
func Stats(db *gorm.DB, ref time.Time) (*StatsSummary, error) {
	var s StatsSummary
	if err := db.Model(&models.Profile{}).Count(&s.Profiles).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Shift{}).
		Where("ends_at >= ? AND status <> ?", ref, "cancelled").
		Count(&s.UpcomingShifts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Announcement{}).Count(&s.Announcements).Error; err != nil {
		return nil, err
	}
	dayStart := ref.Truncate(24 * time.Hour)
	if err := db.Model(&models.ConversationTurn{}).
		Where("created_at >= ?", dayStart).
		Count(&s.TurnsToday).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// AnnouncementRow holds announcement data for display.
type AnnouncementRow struct {
	ID        uint      `json:"id"`
	ShiftID   uint      `json:"shift_id"`
	Trigger   string    `json:"trigger"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// RecentAnnouncements returns the latest published announcements.
func RecentAnnouncements(db *gorm.DB, limit int) ([]AnnouncementRow, error) {
	if limit <= 0 {
		limit = 20
	}
	var anns []models.Announcement
	if err := db.Order("created_at DESC").Limit(limit).Find(&anns).Error; err != nil {
		return nil, err
	}

	rows := make([]AnnouncementRow, len(anns))
	for i, a := range anns {
		rows[i] = AnnouncementRow{
			ID:        a.ID,
			ShiftID:   a.ShiftID,
			Trigger:   a.Trigger,
			Body:      a.Body,
			CreatedAt: a.CreatedAt,
		}
	}
	return rows, nil
}
