package bot

import (
	"fmt"
	"time"

	"github.com/zulandar/crewcall/internal/models"
	"gorm.io/gorm"
)

// DefaultScheduleLimit caps the number of shifts returned for a query.
const DefaultScheduleLimit = 10

// ScheduleQuery is a read-only projection over the shift store. It never
// mutates shift rows.
type ScheduleQuery struct {
	db    *gorm.DB
	limit int
}

// NewScheduleQuery creates a ScheduleQuery. limit <= 0 uses the default.
func NewScheduleQuery(db *gorm.DB, limit int) (*ScheduleQuery, error) {
	if db == nil {
		return nil, fmt.Errorf("bot: schedule query: db is required")
	}
	if limit <= 0 {
		limit = DefaultScheduleLimit
	}
	return &ScheduleQuery{db: db, limit: limit}, nil
}

// Upcoming returns shifts whose end time is at or after ref, ascending by
// start time. Cancelled shifts are excluded. An empty schedule yields an
// empty slice, not an error.
func (q *ScheduleQuery) Upcoming(ref time.Time) ([]models.Shift, error) {
	var shifts []models.Shift
	err := q.db.
		Where("ends_at >= ? AND status <> ?", ref, "cancelled").
		Order("starts_at ASC").
		Limit(q.limit).
		Find(&shifts).Error
	if err != nil {
		return nil, &CollaboratorError{Op: "query schedule", Err: err}
	}
	return shifts, nil
}

// Next returns the first upcoming shift, or nil when nothing is upcoming.
func (q *ScheduleQuery) Next(ref time.Time) (*models.Shift, error) {
	shifts, err := q.Upcoming(ref)
	if err != nil {
		return nil, err
	}
	if len(shifts) == 0 {
		return nil, nil
	}
	return &shifts[0], nil
}
