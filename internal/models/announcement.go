package models

import "time"

// Announcement records a shift announcement that was published to the
// chat channel, either by the operator command or the cron schedule.
type Announcement struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	ShiftID   uint   `gorm:"not null;index"`
	ChannelID string `gorm:"size:128;not null"`
	Trigger   string `gorm:"size:16;not null"` // "command" or "cron"
	Body      string `gorm:"type:text;not null"`
	CreatedAt time.Time
}
