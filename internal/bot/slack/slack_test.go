package slack

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"github.com/zulandar/crewcall/internal/bot"
)

// --- Mock Slack client ---

type mockSlackClient struct {
	mu       sync.Mutex
	authResp *slackapi.AuthTestResponse
	authErr  error
	posted   []postedMessage
	postErr  error
}

type postedMessage struct {
	channelID string
	options   []slackapi.MsgOption
}

func newMockSlackClient() *mockSlackClient {
	return &mockSlackClient{
		authResp: &slackapi.AuthTestResponse{UserID: "U_BOT_123"},
	}
}

func (m *mockSlackClient) AuthTest() (*slackapi.AuthTestResponse, error) {
	return m.authResp, m.authErr
}

func (m *mockSlackClient) PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postErr != nil {
		return "", "", m.postErr
	}
	m.posted = append(m.posted, postedMessage{channelID: channelID, options: options})
	return channelID, "1234567890.123456", nil
}

func (m *mockSlackClient) postedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posted)
}

func (m *mockSlackClient) lastPosted() postedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.posted[len(m.posted)-1]
}

// --- Mock Socket Mode client ---

type mockSocketClient struct {
	events chan socketmode.Event
	mu     sync.Mutex
	acked  []socketmode.Request
}

func newMockSocketClient() *mockSocketClient {
	return &mockSocketClient{
		events: make(chan socketmode.Event, 100),
	}
}

func (m *mockSocketClient) RunContext(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockSocketClient) EventsChan() chan socketmode.Event {
	return m.events
}

func (m *mockSocketClient) Ack(req socketmode.Request, payload ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, req)
}

func (m *mockSocketClient) ackedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.acked)
}

// --- Helpers ---

func newTestAdapter(t *testing.T) (*Adapter, *mockSlackClient, *mockSocketClient) {
	t.Helper()
	client := newMockSlackClient()
	socket := newMockSocketClient()

	a, err := New(AdapterOpts{Client: client, Socket: socket})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	return a, client, socket
}

func messageEvent(user, channel, text, botID string) socketmode.Event {
	return socketmode.Event{
		Type: socketmode.EventTypeEventsAPI,
		Data: slackevents.EventsAPIEvent{
			Type: slackevents.CallbackEvent,
			InnerEvent: slackevents.EventsAPIInnerEvent{
				Data: &slackevents.MessageEvent{
					User:      user,
					BotID:     botID,
					Channel:   channel,
					Text:      text,
					TimeStamp: "1700000000.000001",
				},
			},
		},
		Request: &socketmode.Request{EnvelopeID: "env-1"},
	}
}

// --- New tests ---

func TestNew_RequiresBotToken(t *testing.T) {
	_, err := New(AdapterOpts{AppToken: "xapp-test"})
	if err == nil {
		t.Fatal("expected error for missing bot token")
	}
}

func TestNew_RequiresAppToken(t *testing.T) {
	_, err := New(AdapterOpts{BotToken: "xoxb-test"})
	if err == nil {
		t.Fatal("expected error for missing app token")
	}
}

// --- Connect tests ---

func TestConnect_SetsBotUserID(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	if a.BotUserID() != "U_BOT_123" {
		t.Errorf("bot user ID = %q, want U_BOT_123", a.BotUserID())
	}
}

func TestConnect_AuthError(t *testing.T) {
	client := newMockSlackClient()
	client.authErr = fmt.Errorf("invalid token")

	a, _ := New(AdapterOpts{Client: client, Socket: newMockSocketClient()})
	if err := a.Connect(context.Background()); err == nil {
		t.Fatal("expected auth error")
	}
}

func TestConnect_AlreadyClosed(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	a.Close()
	if err := a.Connect(context.Background()); err == nil {
		t.Fatal("expected error for closed adapter")
	}
}

func TestConnect_Idempotent(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("second connect should not error: %v", err)
	}
}

// --- Listen tests ---

func TestListen_NotConnected(t *testing.T) {
	a, _ := New(AdapterOpts{Client: newMockSlackClient(), Socket: newMockSocketClient()})
	if _, err := a.Listen(context.Background()); err == nil {
		t.Fatal("expected error for not connected")
	}
}

func TestListen_ReceivesMessages(t *testing.T) {
	a, _, socket := newTestAdapter(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := a.Listen(ctx)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	socket.events <- messageEvent("U_ALICE", "C1", "start-profile", "")

	select {
	case msg := <-ch:
		if msg.Platform != "slack" {
			t.Errorf("platform = %q, want slack", msg.Platform)
		}
		if msg.ChannelID != "C1" || msg.UserID != "U_ALICE" {
			t.Errorf("msg = %+v", msg)
		}
		if msg.Text != "start-profile" {
			t.Errorf("text = %q", msg.Text)
		}
		if msg.Timestamp.IsZero() {
			t.Error("timestamp was not parsed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for inbound message")
	}
}

func TestListen_FiltersSelfMessages(t *testing.T) {
	a, _, socket := newTestAdapter(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, _ := a.Listen(ctx)

	socket.events <- messageEvent("U_BOT_123", "C1", "bot message", "")
	socket.events <- messageEvent("U_ALICE", "C1", "real message", "")

	select {
	case msg := <-ch:
		if msg.Text != "real message" {
			t.Errorf("expected real message, got %q", msg.Text)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestListen_FiltersBotMessages(t *testing.T) {
	a, _, socket := newTestAdapter(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, _ := a.Listen(ctx)

	socket.events <- messageEvent("U_OTHER_BOT", "C1", "other bot message", "B123")
	socket.events <- messageEvent("U_BOB", "C1", "from bob", "")

	select {
	case msg := <-ch:
		if msg.Text != "from bob" {
			t.Errorf("expected real message, got %q", msg.Text)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestListen_AcksEventsAPIEvents(t *testing.T) {
	a, _, socket := newTestAdapter(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.Listen(ctx)

	socket.events <- messageEvent("U_ALICE", "C1", "hello", "")

	time.Sleep(100 * time.Millisecond)
	if socket.ackedCount() != 1 {
		t.Errorf("expected 1 ack, got %d", socket.ackedCount())
	}
}

// --- Send tests ---

func TestSend_SimpleText(t *testing.T) {
	a, client, _ := newTestAdapter(t)

	err := a.Send(context.Background(), bot.OutboundMessage{
		ChannelID: "C1",
		Text:      "hello world",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.postedCount() != 1 {
		t.Fatalf("expected 1 posted message, got %d", client.postedCount())
	}
	if last := client.lastPosted(); last.channelID != "C1" {
		t.Errorf("channel = %q, want C1", last.channelID)
	}
}

func TestSend_WithAttachments(t *testing.T) {
	a, client, _ := newTestAdapter(t)

	err := a.Send(context.Background(), bot.OutboundMessage{
		ChannelID: "C1",
		Text:      "shift announcement",
		Attachments: []bot.Attachment{
			{
				Title:    "Upcoming shift",
				Body:     "downtown, tomorrow 17:00",
				Color:    "#2196f3",
				Severity: "info",
				Fields: []bot.Field{
					{Name: "Location", Value: "downtown", Short: true},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.postedCount() != 1 {
		t.Fatal("expected 1 posted message")
	}
	// Text plus attachments option.
	if len(client.lastPosted().options) != 2 {
		t.Errorf("options = %d, want 2", len(client.lastPosted().options))
	}
}

func TestSend_NoChannel(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	err := a.Send(context.Background(), bot.OutboundMessage{Text: "no channel"})
	if err == nil {
		t.Fatal("expected error for no channel")
	}
}

func TestSend_NotConnected(t *testing.T) {
	a, _ := New(AdapterOpts{Client: newMockSlackClient(), Socket: newMockSocketClient()})
	err := a.Send(context.Background(), bot.OutboundMessage{ChannelID: "C1", Text: "hello"})
	if err == nil {
		t.Fatal("expected error for not connected")
	}
}

func TestSend_PostError(t *testing.T) {
	a, client, _ := newTestAdapter(t)
	client.postErr = fmt.Errorf("channel_not_found")

	err := a.Send(context.Background(), bot.OutboundMessage{ChannelID: "C1", Text: "hello"})
	if err == nil {
		t.Fatal("expected post error")
	}
}

// --- Close tests ---

func TestClose_Idempotent(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestClose_ClosesInboundChannel(t *testing.T) {
	a, _, _ := newTestAdapter(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := a.Listen(ctx)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	a.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
}

// --- Timestamp parsing ---

func TestParseSlackTimestamp(t *testing.T) {
	ts := parseSlackTimestamp("1700000000.000001")
	if ts.Unix() != 1700000000 {
		t.Errorf("ts = %v", ts)
	}
	if !parseSlackTimestamp("garbage").IsZero() {
		t.Error("garbage timestamp should parse to zero time")
	}
}

// --- Rate limit retry ---

func TestRetryOnRateLimit_NonRateLimitError(t *testing.T) {
	calls := 0
	err := retryOnRateLimit(context.Background(), func() error {
		calls++
		return fmt.Errorf("permanent failure")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on non-rate-limit errors)", calls)
	}
}

func TestRetryOnRateLimit_RetriesThenSucceeds(t *testing.T) {
	calls := 0
	err := retryOnRateLimit(context.Background(), func() error {
		calls++
		if calls == 1 {
			return &slackapi.RateLimitedError{RetryAfter: time.Millisecond}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRetryOnRateLimit_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retryOnRateLimit(ctx, func() error {
		return &slackapi.RateLimitedError{RetryAfter: time.Hour}
	})
	if err != context.Canceled {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
