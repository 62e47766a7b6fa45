package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/zulandar/crewcall/internal/models"
	"gorm.io/gorm"
)

// Command tokens recognized while the session is idle. Tokens are matched
// case-insensitively on the first word of the message.
const (
	cmdStartProfile = "start-profile"
	cmdProfile      = "profile" // alias for start-profile
	cmdSchedule     = "schedule"
	cmdAnnounce     = "announce"
	cmdCancel       = "cancel" // reserved: aborts an in-progress flow
)

// confirmTokens accept the summary while the session is Confirming.
var confirmTokens = map[string]bool{
	"yes": true, "y": true, "ok": true, "confirm": true,
}

// Router classifies inbound chat messages and dispatches them: in-flow
// input to the ProfileBuilder, idle commands to the matching handler.
// Handle performs one atomic read-modify-write of the user's session, so
// callers must serialize events per user (the Daemon does).
type Router struct {
	store     *SessionStore
	builder   *ProfileBuilder
	schedule  *ScheduleQuery
	announcer *Announcer
	profiles  ProfileStore
	adapter   Adapter
	db        *gorm.DB // conversation turn log; optional
	isOp      func(userID string) bool
	botUserID string
	out       io.Writer
	now       func() time.Time
}

// RouterOpts holds parameters for creating a Router.
type RouterOpts struct {
	Store      *SessionStore
	Builder    *ProfileBuilder
	Schedule   *ScheduleQuery
	Announcer  *Announcer
	Profiles   ProfileStore
	Adapter    Adapter
	DB         *gorm.DB                // optional; enables the turn log
	IsOperator func(userID string) bool
	BotUserID  string    // bot's user ID for self-message filtering
	Out        io.Writer // defaults to os.Stdout
	Now        func() time.Time // defaults to time.Now
}

// NewRouter creates a Router.
func NewRouter(opts RouterOpts) (*Router, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("bot: router: session store is required")
	}
	if opts.Builder == nil {
		return nil, fmt.Errorf("bot: router: profile builder is required")
	}
	if opts.Schedule == nil {
		return nil, fmt.Errorf("bot: router: schedule query is required")
	}
	if opts.Announcer == nil {
		return nil, fmt.Errorf("bot: router: announcer is required")
	}
	if opts.Profiles == nil {
		return nil, fmt.Errorf("bot: router: profile store is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("bot: router: adapter is required")
	}
	isOp := opts.IsOperator
	if isOp == nil {
		isOp = func(string) bool { return false }
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Router{
		store:     opts.Store,
		builder:   opts.Builder,
		schedule:  opts.Schedule,
		announcer: opts.Announcer,
		profiles:  opts.Profiles,
		adapter:   opts.Adapter,
		db:        opts.DB,
		isOp:      isOp,
		botUserID: opts.BotUserID,
		out:       out,
		now:       now,
	}, nil
}

// Handle classifies and routes a single inbound message. Routing paths:
//  1. Bot self-message → ignore
//  2. Active flow + cancel token → ProfileBuilder.Cancel
//  3. Active flow (AwaitingField) → ProfileBuilder.Submit
//  4. Active flow (Confirming) → confirm / re-summary
//  5. Idle command token → start-profile | schedule | announce | help
func (r *Router) Handle(ctx context.Context, msg InboundMessage) {
	if r.isSelfMessage(msg) {
		return
	}

	text := strings.TrimSpace(msg.Text)
	fmt.Fprintf(r.out, "bot: router: recv [user=%s] %q\n", msg.UserID, truncate(text, 80))

	sess := r.store.Get(msg.UserID)
	r.logTurn(msg, "in", string(sess.Step), text)

	var reply string
	if sess.Active() {
		reply = r.handleFlow(ctx, &sess, text)
	} else {
		reply = r.handleCommand(ctx, &sess, msg.UserID, text)
	}

	if reply == "" {
		return
	}
	if err := r.adapter.Send(ctx, OutboundMessage{ChannelID: msg.ChannelID, Text: reply}); err != nil {
		log.Printf("bot: router: send reply to %s: %v", msg.UserID, err)
	}
	r.logTurn(msg, "out", string(r.store.Get(msg.UserID).Step), reply)
}

// handleFlow routes input while a profile flow is in progress.
func (r *Router) handleFlow(ctx context.Context, sess *Session, text string) string {
	token := commandToken(text)

	if token == cmdCancel {
		if err := r.builder.Cancel(sess); err != nil {
			return noActiveFlowText()
		}
		r.store.Put(*sess)
		fmt.Fprintf(r.out, "bot: router: → cancel [user=%s]\n", sess.UserID)
		return cancelledText()
	}

	if sess.Step == StepConfirming {
		return r.handleConfirming(ctx, sess, token)
	}

	// AwaitingField: the raw text is the field's input.
	reply, err := r.builder.Submit(sess, text)
	if err != nil {
		// Dispatch guaranteed an active flow; this is router misuse.
		log.Printf("bot: router: submit for %s: %v", sess.UserID, err)
		return transientFailureText("process that")
	}
	r.store.Put(*sess)
	return reply
}

// handleConfirming resolves input while the summary awaits confirmation.
// On confirm the draft is persisted; a store failure leaves the session
// Confirming so the user can retry without losing collected fields.
func (r *Router) handleConfirming(ctx context.Context, sess *Session, token string) string {
	if !confirmTokens[token] {
		summary, err := r.builder.Summary(sess)
		if err != nil {
			return noActiveFlowText()
		}
		return summary
	}

	draft, err := r.builder.Confirm(sess)
	if err != nil {
		return noActiveFlowText()
	}

	if err := r.profiles.Save(ctx, draft); err != nil {
		// Not putting the Completed step back: the stored session is still
		// Confirming, so the same confirm can be retried.
		log.Printf("bot: router: save profile for %s: %v", sess.UserID, err)
		return transientFailureText("save your profile")
	}

	r.store.Reset(sess.UserID)
	fmt.Fprintf(r.out, "bot: router: → profile completed [user=%s]\n", sess.UserID)

	name, _ := draft.Value("name")
	return profileSavedText(name)
}

// handleCommand dispatches an idle-session command token.
func (r *Router) handleCommand(ctx context.Context, sess *Session, userID, text string) string {
	switch commandToken(text) {
	case cmdStartProfile, cmdProfile:
		reply, err := r.builder.Start(sess)
		if err != nil {
			return transientFailureText("start the profile flow")
		}
		r.store.Put(*sess)
		fmt.Fprintf(r.out, "bot: router: → start profile [user=%s]\n", userID)
		return reply

	case cmdSchedule:
		shifts, err := r.schedule.Upcoming(r.now())
		if err != nil {
			log.Printf("bot: router: schedule query: %v", err)
			return transientFailureText("read the schedule")
		}
		return scheduleText(shifts, r.now())

	case cmdAnnounce:
		return r.handleAnnounce(ctx, userID)

	case cmdCancel:
		return noActiveFlowText()

	default:
		return helpText()
	}
}

// handleAnnounce resolves the operator-only announce command to a reply.
func (r *Router) handleAnnounce(ctx context.Context, userID string) string {
	payload, err := r.announceFor(ctx, userID)
	switch {
	case errors.Is(err, ErrForbidden):
		fmt.Fprintf(r.out, "bot: router: → announce forbidden [user=%s]\n", userID)
		return forbiddenText()
	case errors.Is(err, ErrNothingToAnnounce):
		return "No upcoming shift to announce."
	case err != nil:
		log.Printf("bot: router: announce: %v", err)
		return transientFailureText("publish the announcement")
	}
	return fmt.Sprintf("Announcement posted for the %s shift.", payload.Shift.StartsAt.Format("Mon Jan 2"))
}

// announceFor checks operator identity before touching the announcer, so
// an unauthorized attempt never reaches the publisher.
func (r *Router) announceFor(ctx context.Context, userID string) (*AnnouncementPayload, error) {
	if !r.isOp(userID) {
		return nil, ErrForbidden
	}
	return r.announcer.AnnounceNext(ctx, r.now(), TriggerCommand)
}

// logTurn records a conversation turn, best-effort.
func (r *Router) logTurn(msg InboundMessage, direction, step, content string) {
	if r.db == nil || content == "" {
		return
	}
	turn := models.ConversationTurn{
		UserID:    msg.UserID,
		UserName:  msg.UserName,
		Direction: direction,
		Step:      step,
		Content:   content,
	}
	if err := r.db.Create(&turn).Error; err != nil {
		log.Printf("bot: router: log turn for %s: %v", msg.UserID, err)
	}
}

// isSelfMessage returns true if the message is from the bot itself.
func (r *Router) isSelfMessage(msg InboundMessage) bool {
	return r.botUserID != "" && msg.UserID == r.botUserID
}

// commandToken extracts the lowercased first word of the text; empty
// input yields the empty token.
func commandToken(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// truncate returns s truncated to maxLen with "..." appended if needed.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
