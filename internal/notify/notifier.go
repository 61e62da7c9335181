// Package notify runs the background reminder and digest loop.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/enzomtp/edtbot/internal/model"
)

// Fetcher retrieves schedules for a schedule-system username.
type Fetcher interface {
	FetchDay(ctx context.Context, username string, date time.Time) ([]model.Course, error)
	FetchWeek(ctx context.Context, username string, date time.Time) ([]model.Course, error)
}

// Attachment is a file delivered alongside a message.
type Attachment struct {
	Name string
	Data []byte
}

// Sender delivers reminders either to a broadcast channel or straight
// to a user.
type Sender interface {
	Broadcast(channelID, content string, files ...Attachment) error
	DirectMessage(userID, content string, files ...Attachment) error
}

// Ledger is the persisted dedupe record of sent notifications.
type Ledger interface {
	WasSent(userID, date, startTime string) (bool, error)
	RecordSent(userID, date, startTime string) error
	Prune(before string) (int64, error)
}

// UserSource lists opted-in users.
type UserSource interface {
	ListWithPreference(pref string) ([]model.User, error)
}

// ImageRenderer produces the digest images.
type ImageRenderer interface {
	RenderDay(courses []model.Course) ([]byte, error)
	RenderWeek(courses []model.Course) ([]byte, error)
}

// Ledger keys for the digest jobs; they share the reminder table with
// a tag in place of a start time.
const (
	digestDailyKey  = "digest-daily"
	digestWeeklyKey = "digest-weekly"
)

const (
	defaultInterval   = 60 * time.Second
	defaultLead       = 10 * time.Minute
	defaultDigestHour = 7
	ledgerRetention   = 7 * 24 * time.Hour
	pruneHour         = 3
)

// Config tunes the notifier. Zero values fall back to defaults.
type Config struct {
	Interval   time.Duration
	Lead       time.Duration
	DigestHour int           // local hour at which digests go out
	ChannelID  string        // broadcast destination; empty means DM only
	Location   *time.Location
	Now        func() time.Time // clock override for tests
	Alive      func() bool      // host connection liveness
}

// Notifier periodically checks opted-in users' schedules and sends
// course reminders and daily/weekly digests. One cycle runs serially
// over all users; cycles never overlap.
type Notifier struct {
	mu       sync.RWMutex
	users    UserSource
	ledger   Ledger
	fetcher  Fetcher
	sender   Sender
	renderer ImageRenderer
	cfg      Config
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a notifier. renderer may be nil to disable digests.
func New(users UserSource, ledger Ledger, fetcher Fetcher, sender Sender, renderer ImageRenderer, cfg Config) *Notifier {
	if cfg.Interval == 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Lead == 0 {
		cfg.Lead = defaultLead
	}
	if cfg.DigestHour == 0 {
		cfg.DigestHour = defaultDigestHour
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Notifier{
		users:    users,
		ledger:   ledger,
		fetcher:  fetcher,
		sender:   sender,
		renderer: renderer,
		cfg:      cfg,
	}
}

// Start begins the notifier loop.
func (n *Notifier) Start(ctx context.Context) {
	n.mu.Lock()
	ctx, n.cancel = context.WithCancel(ctx)
	n.done = make(chan struct{})
	n.mu.Unlock()

	go func() {
		defer close(n.done)
		ticker := time.NewTicker(n.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n.cfg.Alive != nil && !n.cfg.Alive() {
					slog.Info("notifier: host connection closed, stopping")
					return
				}
				n.RunCycle(ctx, n.cfg.Now().In(n.cfg.Location))
			}
		}
	}()
}

// Stop gracefully stops the notifier loop.
func (n *Notifier) Stop() {
	n.mu.RLock()
	cancel := n.cancel
	done := n.done
	n.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// RunCycle executes one check cycle at the given instant. Exported so
// tests can drive the notifier with a fixed clock.
func (n *Notifier) RunCycle(ctx context.Context, now time.Time) {
	n.checkReminders(ctx, now)
	if n.renderer != nil {
		n.checkDailyDigest(ctx, now)
		n.checkWeeklyDigest(ctx, now)
	}
	n.maybePrune(now)
}

func (n *Notifier) checkReminders(ctx context.Context, now time.Time) {
	users, err := n.users.ListWithPreference(model.PrefDaily)
	if err != nil {
		slog.Error("notifier: list users", "error", err)
		return
	}

	for _, u := range users {
		if err := n.checkUserReminders(ctx, u, now); err != nil {
			// One user's failure never aborts the cycle.
			slog.Error("notifier: check user", "user", u.ID, "error", err)
		}
	}
}

func (n *Notifier) checkUserReminders(ctx context.Context, u model.User, now time.Time) error {
	courses, err := n.fetcher.FetchDay(ctx, u.Username, now)
	if err != nil {
		return fmt.Errorf("fetch day schedule: %w", err)
	}

	for _, c := range courses {
		if !c.Named() {
			continue
		}
		startAt, err := c.StartAt(n.cfg.Location)
		if err != nil {
			continue
		}
		notifyAt := startAt.Add(-n.cfg.Lead)

		ny, nm, nd := notifyAt.Date()
		ty, tm, td := now.Date()
		if ny != ty || nm != tm || nd != td {
			continue
		}
		if now.Before(notifyAt) || !now.Before(notifyAt.Add(n.cfg.Interval)) {
			continue
		}

		sent, err := n.ledger.WasSent(u.ID, c.Date, c.StartTime)
		if err != nil {
			slog.Error("notifier: ledger check", "user", u.ID, "error", err)
			continue
		}
		if sent {
			continue
		}

		content := fmt.Sprintf("Rappel : <@%s> votre cours commence dans %d minutes : **%s**\n%s\n%s\n%s",
			u.ID, int(n.cfg.Lead.Minutes()), c.Name, c.TimeRange(), c.RoomLabel(), c.TeacherLabel())

		if err := n.deliver(u.ID, content); err != nil {
			// The ledger entry is written only after a successful
			// delivery. The fire window is one cycle wide, so a failed
			// send is dropped rather than retried forever.
			slog.Error("notifier: send reminder", "user", u.ID, "course", c.Name, "error", err)
			continue
		}
		if err := n.ledger.RecordSent(u.ID, c.Date, c.StartTime); err != nil {
			slog.Error("notifier: record sent", "user", u.ID, "error", err)
		}
		slog.Info("notifier: reminder sent", "user", u.ID, "course", c.Name, "start", c.StartTime)
	}
	return nil
}

// deliver sends to the broadcast channel when one is configured and
// falls back to a direct message.
func (n *Notifier) deliver(userID, content string, files ...Attachment) error {
	if n.cfg.ChannelID != "" {
		if err := n.sender.Broadcast(n.cfg.ChannelID, content, files...); err == nil {
			return nil
		} else {
			slog.Warn("notifier: broadcast failed, falling back to DM", "channel", n.cfg.ChannelID, "error", err)
		}
	}
	return n.sender.DirectMessage(userID, content, files...)
}

// maybePrune trims ledger entries older than the retention window,
// once per day in the quiet hours.
func (n *Notifier) maybePrune(now time.Time) {
	if now.Hour() != pruneHour || now.Minute() != 0 {
		return
	}
	before := now.Add(-ledgerRetention).Format("2006-01-02")
	pruned, err := n.ledger.Prune(before)
	if err != nil {
		slog.Error("notifier: prune ledger", "error", err)
		return
	}
	if pruned > 0 {
		slog.Info("notifier: pruned ledger", "rows", pruned, "before", before)
	}
}
