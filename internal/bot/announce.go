package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/zulandar/crewcall/internal/models"
	"gorm.io/gorm"
)

// Announcement triggers.
const (
	TriggerCommand = "command"
	TriggerCron    = "cron"
)

// AnnouncementPayload is the finalized announcement handed to a Publisher.
// It is ephemeral; the publisher decides what, if anything, to record.
type AnnouncementPayload struct {
	Shift     models.Shift
	ChannelID string
	Trigger   string // TriggerCommand or TriggerCron
	Body      string
}

// Publisher accepts a finalized announcement and delivers it.
type Publisher interface {
	Publish(ctx context.Context, p AnnouncementPayload) error
}

// ChannelPublisher posts announcements to the configured chat channel via
// the adapter and records each publication.
type ChannelPublisher struct {
	adapter Adapter
	db      *gorm.DB
}

// NewChannelPublisher creates a ChannelPublisher.
func NewChannelPublisher(adapter Adapter, db *gorm.DB) (*ChannelPublisher, error) {
	if adapter == nil {
		return nil, fmt.Errorf("bot: channel publisher: adapter is required")
	}
	if db == nil {
		return nil, fmt.Errorf("bot: channel publisher: db is required")
	}
	return &ChannelPublisher{adapter: adapter, db: db}, nil
}

// Publish sends the announcement to the channel, then records it. A send
// failure is returned as a CollaboratorError and nothing is recorded.
func (cp *ChannelPublisher) Publish(ctx context.Context, p AnnouncementPayload) error {
	err := cp.adapter.Send(ctx, OutboundMessage{
		ChannelID:   p.ChannelID,
		Text:        p.Body,
		Attachments: []Attachment{announcementAttachment(&p.Shift)},
	})
	if err != nil {
		return &CollaboratorError{Op: "publish announcement", Err: err}
	}

	record := models.Announcement{
		ShiftID:   p.Shift.ID,
		ChannelID: p.ChannelID,
		Trigger:   p.Trigger,
		Body:      p.Body,
	}
	if err := cp.db.WithContext(ctx).Create(&record).Error; err != nil {
		// The announcement went out; a failed audit row shouldn't surface
		// as a user-visible failure.
		log.Printf("bot: record announcement for shift %d: %v", p.Shift.ID, err)
	}
	return nil
}

// Announcer builds announcement payloads from the schedule and hands them
// to the publisher. It serves both the operator command and the cron
// schedule.
type Announcer struct {
	schedule  *ScheduleQuery
	publisher Publisher
	channelID string
}

// NewAnnouncer creates an Announcer.
func NewAnnouncer(schedule *ScheduleQuery, publisher Publisher, channelID string) (*Announcer, error) {
	if schedule == nil {
		return nil, fmt.Errorf("bot: announcer: schedule query is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("bot: announcer: publisher is required")
	}
	if channelID == "" {
		return nil, fmt.Errorf("bot: announcer: channel is required")
	}
	return &Announcer{schedule: schedule, publisher: publisher, channelID: channelID}, nil
}

// AnnounceNext publishes the next upcoming shift. Returns
// ErrNothingToAnnounce when the schedule has nothing upcoming; in that
// case the publisher is not called.
func (a *Announcer) AnnounceNext(ctx context.Context, ref time.Time, trigger string) (*AnnouncementPayload, error) {
	shift, err := a.schedule.Next(ref)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, ErrNothingToAnnounce
	}

	payload := AnnouncementPayload{
		Shift:     *shift,
		ChannelID: a.channelID,
		Trigger:   trigger,
		Body:      announcementBody(shift),
	}
	if err := a.publisher.Publish(ctx, payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
