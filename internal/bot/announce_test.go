package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zulandar/crewcall/internal/models"
)

// fakePublisher records published payloads and can be made to fail.
type fakePublisher struct {
	mu       sync.Mutex
	payloads []AnnouncementPayload
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, p AnnouncementPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, p)
	return nil
}

func (f *fakePublisher) published() []AnnouncementPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]AnnouncementPayload(nil), f.payloads...)
}

func TestAnnouncer_AnnounceNext(t *testing.T) {
	db := openTestDB(t)
	ref := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	shift := models.Shift{
		StartsAt: ref.Add(2 * time.Hour),
		EndsAt:   ref.Add(8 * time.Hour),
		Location: "downtown",
		Status:   "scheduled",
	}
	if err := db.Create(&shift).Error; err != nil {
		t.Fatalf("seed shift: %v", err)
	}

	schedule, err := NewScheduleQuery(db, 0)
	if err != nil {
		t.Fatalf("new schedule query: %v", err)
	}
	pub := &fakePublisher{}
	a, err := NewAnnouncer(schedule, pub, "C123")
	if err != nil {
		t.Fatalf("new announcer: %v", err)
	}

	payload, err := a.AnnounceNext(context.Background(), ref, TriggerCommand)
	if err != nil {
		t.Fatalf("announce next: %v", err)
	}

	if payload.Shift.ID != shift.ID {
		t.Errorf("payload shift = %d, want %d", payload.Shift.ID, shift.ID)
	}
	if payload.ChannelID != "C123" || payload.Trigger != TriggerCommand {
		t.Errorf("payload = %+v", payload)
	}
	if !strings.Contains(payload.Body, "downtown") {
		t.Errorf("body = %q, want the location", payload.Body)
	}

	got := pub.published()
	if len(got) != 1 {
		t.Fatalf("published = %d payloads, want 1", len(got))
	}
}

func TestAnnouncer_NothingUpcoming(t *testing.T) {
	db := openTestDB(t)
	schedule, err := NewScheduleQuery(db, 0)
	if err != nil {
		t.Fatalf("new schedule query: %v", err)
	}
	pub := &fakePublisher{}
	a, err := NewAnnouncer(schedule, pub, "C123")
	if err != nil {
		t.Fatalf("new announcer: %v", err)
	}

	_, err = a.AnnounceNext(context.Background(), time.Now(), TriggerCron)
	if !errors.Is(err, ErrNothingToAnnounce) {
		t.Fatalf("error = %v, want ErrNothingToAnnounce", err)
	}
	if len(pub.published()) != 0 {
		t.Error("publisher was called with nothing to announce")
	}
}

func TestAnnouncer_PublisherFailure(t *testing.T) {
	db := openTestDB(t)
	ref := time.Now()
	if err := db.Create(&models.Shift{
		StartsAt: ref.Add(time.Hour),
		EndsAt:   ref.Add(2 * time.Hour),
		Location: "station",
		Status:   "scheduled",
	}).Error; err != nil {
		t.Fatalf("seed shift: %v", err)
	}

	schedule, err := NewScheduleQuery(db, 0)
	if err != nil {
		t.Fatalf("new schedule query: %v", err)
	}
	pub := &fakePublisher{err: fmt.Errorf("boom")}
	a, err := NewAnnouncer(schedule, pub, "C123")
	if err != nil {
		t.Fatalf("new announcer: %v", err)
	}

	if _, err := a.AnnounceNext(context.Background(), ref, TriggerCommand); err == nil {
		t.Fatal("expected publish error to surface")
	}
}

func TestChannelPublisher_SendsAndRecords(t *testing.T) {
	db := openTestDB(t)
	mock := NewMockAdapter()
	if err := mock.Connect(context.Background()); err != nil {
		t.Fatalf("connect mock: %v", err)
	}

	cp, err := NewChannelPublisher(mock, db)
	if err != nil {
		t.Fatalf("new channel publisher: %v", err)
	}

	shift := models.Shift{
		ID:       7,
		StartsAt: time.Date(2026, 8, 29, 17, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 8, 29, 23, 0, 0, 0, time.UTC),
		Location: "north",
		Status:   "confirmed",
	}
	payload := AnnouncementPayload{
		Shift:     shift,
		ChannelID: "C123",
		Trigger:   TriggerCron,
		Body:      announcementBody(&shift),
	}
	if err := cp.Publish(context.Background(), payload); err != nil {
		t.Fatalf("publish: %v", err)
	}

	last := mock.LastSent()
	if last == nil {
		t.Fatal("nothing was sent")
	}
	if last.ChannelID != "C123" || !strings.Contains(last.Text, "north") {
		t.Errorf("sent = %+v", last)
	}
	if len(last.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(last.Attachments))
	}
	if last.Attachments[0].Title != "Upcoming shift" {
		t.Errorf("attachment title = %q", last.Attachments[0].Title)
	}

	var rec models.Announcement
	if err := db.First(&rec).Error; err != nil {
		t.Fatalf("load announcement record: %v", err)
	}
	if rec.ShiftID != 7 || rec.Trigger != TriggerCron {
		t.Errorf("record = %+v", rec)
	}
}

func TestChannelPublisher_SendFailureRecordsNothing(t *testing.T) {
	db := openTestDB(t)
	mock := NewMockAdapter()
	if err := mock.Connect(context.Background()); err != nil {
		t.Fatalf("connect mock: %v", err)
	}
	mock.SetSendError(fmt.Errorf("rate limited"))

	cp, err := NewChannelPublisher(mock, db)
	if err != nil {
		t.Fatalf("new channel publisher: %v", err)
	}

	shift := models.Shift{ID: 1, Location: "south"}
	err = cp.Publish(context.Background(), AnnouncementPayload{
		Shift: shift, ChannelID: "C123", Trigger: TriggerCommand, Body: "x",
	})
	var ce *CollaboratorError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want CollaboratorError", err)
	}

	var count int64
	db.Model(&models.Announcement{}).Count(&count)
	if count != 0 {
		t.Errorf("recorded %d announcements after failed send", count)
	}
}
