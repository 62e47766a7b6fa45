package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/crewcall/internal/config"
	"gorm.io/gorm"
)

// userQueueBuffer is the per-user inbound buffer. When one user floods
// faster than their worker drains, the pump blocks - ordering is preserved
// at the cost of backpressure on the adapter channel.
const userQueueBuffer = 16

// Daemon is the main bot process. It connects to a chat platform via an
// Adapter, dispatches inbound messages through the Router on per-user
// serialized queues, and runs the cron jobs (session sweep, scheduled
// announcements).
type Daemon struct {
	db      *gorm.DB
	cfg     *config.Config
	adapter Adapter
	out     io.Writer

	mu     sync.Mutex
	queues map[string]chan InboundMessage
	wg     sync.WaitGroup
}

// DaemonOpts holds parameters for creating a new Daemon.
type DaemonOpts struct {
	DB      *gorm.DB
	Config  *config.Config
	Adapter Adapter
	Out     io.Writer // defaults to os.Stdout
}

// NewDaemon creates a Daemon with the given options.
func NewDaemon(opts DaemonOpts) (*Daemon, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("bot: daemon: db is required")
	}
	if opts.Config == nil {
		return nil, fmt.Errorf("bot: daemon: config is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("bot: daemon: adapter is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Daemon{
		db:      opts.DB,
		cfg:     opts.Config,
		adapter: opts.Adapter,
		out:     out,
		queues:  make(map[string]chan InboundMessage),
	}, nil
}

// Run starts the daemon. It connects the adapter, builds the conversation
// engine, starts the cron jobs, and blocks pumping inbound messages until
// the context is cancelled. On shutdown it drains the per-user workers and
// closes the adapter.
func (d *Daemon) Run(ctx context.Context) error {
	fmt.Fprintf(d.out, "Crewcall connecting...\n")
	if err := d.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("bot: connect: %w", err)
	}

	var botUserID string
	if bui, ok := d.adapter.(BotUserIDer); ok {
		botUserID = bui.BotUserID()
	}

	store := NewSessionStore()
	router, announcer, err := d.buildEngine(store, botUserID)
	if err != nil {
		d.adapter.Close()
		return err
	}

	c, err := d.startCron(ctx, store, announcer)
	if err != nil {
		d.adapter.Close()
		return err
	}
	defer c.Stop()

	inbound, err := d.adapter.Listen(ctx)
	if err != nil {
		d.adapter.Close()
		return fmt.Errorf("bot: listen: %w", err)
	}

	fmt.Fprintf(d.out, "Crewcall connected [platform=%s channel=%s]\n", d.cfg.Platform, d.cfg.Channel)

	for {
		select {
		case <-ctx.Done():
			d.shutdown()
			return nil
		case msg, ok := <-inbound:
			if !ok {
				d.shutdown()
				return nil
			}
			d.dispatch(ctx, router, msg)
		}
	}
}

// buildEngine wires the conversation engine components.
func (d *Daemon) buildEngine(store *SessionStore, botUserID string) (*Router, *Announcer, error) {
	builder, err := NewProfileBuilder(ProfileFields(d.cfg.Flow.Areas), d.cfg.Flow.MaxRetries)
	if err != nil {
		return nil, nil, err
	}
	schedule, err := NewScheduleQuery(d.db, 0)
	if err != nil {
		return nil, nil, err
	}
	publisher, err := NewChannelPublisher(d.adapter, d.db)
	if err != nil {
		return nil, nil, err
	}
	announcer, err := NewAnnouncer(schedule, publisher, d.cfg.Channel)
	if err != nil {
		return nil, nil, err
	}
	profiles, err := NewGormProfileStore(d.db)
	if err != nil {
		return nil, nil, err
	}
	router, err := NewRouter(RouterOpts{
		Store:      store,
		Builder:    builder,
		Schedule:   schedule,
		Announcer:  announcer,
		Profiles:   profiles,
		Adapter:    d.adapter,
		DB:         d.db,
		IsOperator: d.cfg.IsOperator,
		BotUserID:  botUserID,
		Out:        d.out,
	})
	if err != nil {
		return nil, nil, err
	}
	return router, announcer, nil
}

// startCron schedules the session-staleness sweep and, when configured,
// the automatic shift announcement.
func (d *Daemon) startCron(ctx context.Context, store *SessionStore, announcer *Announcer) (*cron.Cron, error) {
	c := cron.New()

	maxAge := time.Duration(d.cfg.Flow.SessionMaxAgeSec) * time.Second
	sweepEvery := time.Duration(d.cfg.Flow.SweepIntervalSec) * time.Second
	_, err := c.AddFunc(fmt.Sprintf("@every %s", sweepEvery), func() {
		if n := store.EvictStale(maxAge); n > 0 {
			log.Printf("bot: sweep: evicted %d stale session(s)", n)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("bot: schedule sweep: %w", err)
	}

	if expr := d.cfg.Announce.Cron; expr != "" {
		_, err := c.AddFunc(expr, func() {
			_, err := announcer.AnnounceNext(ctx, time.Now(), TriggerCron)
			switch {
			case err == ErrNothingToAnnounce:
				log.Printf("bot: cron announce: nothing upcoming")
			case err != nil:
				log.Printf("bot: cron announce: %v", err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("bot: schedule announce %q: %w", expr, err)
		}
	}

	c.Start()
	return c, nil
}

// dispatch enqueues the message on the sender's serialized queue, creating
// the queue and its worker on first use. Events for one user are handled
// in arrival order; different users proceed concurrently.
func (d *Daemon) dispatch(ctx context.Context, router *Router, msg InboundMessage) {
	d.mu.Lock()
	q, ok := d.queues[msg.UserID]
	if !ok {
		q = make(chan InboundMessage, userQueueBuffer)
		d.queues[msg.UserID] = q
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for m := range q {
				router.Handle(ctx, m)
			}
		}()
	}
	d.mu.Unlock()

	q <- msg
}

// shutdown closes all per-user queues, waits for the workers to drain,
// and closes the adapter.
func (d *Daemon) shutdown() {
	d.mu.Lock()
	for _, q := range d.queues {
		close(q)
	}
	d.queues = make(map[string]chan InboundMessage)
	d.mu.Unlock()

	d.wg.Wait()
	if err := d.adapter.Close(); err != nil {
		log.Printf("bot: close adapter: %v", err)
	}
	fmt.Fprintf(d.out, "Crewcall stopped\n")
}
