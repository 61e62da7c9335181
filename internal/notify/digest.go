package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/enzomtp/edtbot/internal/model"
	"github.com/enzomtp/edtbot/internal/render"
)

// checkDailyDigest DMs each daily-enabled user their day schedule as
// an image, once per day at the configured hour.
func (n *Notifier) checkDailyDigest(ctx context.Context, now time.Time) {
	if now.Hour() != n.cfg.DigestHour || now.Minute() != 0 {
		return
	}

	users, err := n.users.ListWithPreference(model.PrefDaily)
	if err != nil {
		slog.Error("digest: list daily users", "error", err)
		return
	}

	today := now.Format("2006-01-02")
	for _, u := range users {
		n.sendDigest(ctx, u, now, today, digestDailyKey)
	}
}

// checkWeeklyDigest DMs each weekly-enabled user the week schedule,
// on Mondays at the configured hour.
func (n *Notifier) checkWeeklyDigest(ctx context.Context, now time.Time) {
	if now.Weekday() != time.Monday || now.Hour() != n.cfg.DigestHour || now.Minute() != 0 {
		return
	}

	users, err := n.users.ListWithPreference(model.PrefWeekly)
	if err != nil {
		slog.Error("digest: list weekly users", "error", err)
		return
	}

	today := now.Format("2006-01-02")
	for _, u := range users {
		n.sendDigest(ctx, u, now, today, digestWeeklyKey)
	}
}

func (n *Notifier) sendDigest(ctx context.Context, u model.User, now time.Time, today, kind string) {
	sent, err := n.ledger.WasSent(u.ID, today, kind)
	if err != nil {
		slog.Error("digest: ledger check", "user", u.ID, "error", err)
		return
	}
	if sent {
		return
	}

	var (
		courses []model.Course
		image   []byte
		content string
		name    string
	)
	if kind == digestWeeklyKey {
		courses, err = n.fetcher.FetchWeek(ctx, u.Username, now)
		content = "Voici l'emploi du temps de la semaine"
		name = fmt.Sprintf("emploi_semaine_%s.png", u.ID)
	} else {
		courses, err = n.fetcher.FetchDay(ctx, u.Username, now)
		content = "Voici l'emploi du temps du jour"
		name = fmt.Sprintf("emploi_du_temps_%s.png", u.ID)
	}
	if err != nil {
		slog.Error("digest: fetch schedule", "user", u.ID, "kind", kind, "error", err)
		return
	}

	if kind == digestWeeklyKey {
		image, err = n.renderer.RenderWeek(courses)
	} else {
		image, err = n.renderer.RenderDay(courses)
	}
	if errors.Is(err, render.ErrNoData) {
		// Nothing scheduled; mark done so the check stays quiet today.
		if err := n.ledger.RecordSent(u.ID, today, kind); err != nil {
			slog.Error("digest: record sent", "user", u.ID, "error", err)
		}
		return
	}
	if err != nil {
		slog.Error("digest: render schedule", "user", u.ID, "kind", kind, "error", err)
		return
	}

	if err := n.sender.DirectMessage(u.ID, content, Attachment{Name: name, Data: image}); err != nil {
		slog.Error("digest: send", "user", u.ID, "kind", kind, "error", err)
		return
	}
	if err := n.ledger.RecordSent(u.ID, today, kind); err != nil {
		slog.Error("digest: record sent", "user", u.ID, "error", err)
	}
	slog.Info("digest: sent", "user", u.ID, "kind", kind)
}
