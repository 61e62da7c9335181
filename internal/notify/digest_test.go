package notify

import (
	"context"
	"testing"
	"time"

	"github.com/enzomtp/edtbot/internal/model"
	"github.com/enzomtp/edtbot/internal/render"
)

// digestNow is a Monday at exactly the default digest hour.
var digestNow = time.Date(2025, time.March, 10, 7, 0, 0, 0, time.UTC)

func digestNotifier(t *testing.T, users *fakeUsers, fetcher *fakeFetcher, sender *fakeSender, ledger Ledger) *Notifier {
	t.Helper()
	r, err := render.NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return New(users, ledger, fetcher, sender, r, Config{
		Location: time.UTC,
		Now:      func() time.Time { return digestNow },
	})
}

func TestDailyDigestSendsImageOnce(t *testing.T) {
	users := &fakeUsers{users: []model.User{{ID: "1", Username: "alice", Daily: true}}}
	fetcher := &fakeFetcher{day: map[string][]model.Course{
		"alice": {{Date: "2025-03-10", StartTime: "09:00", EndTime: "12:00", Name: "Algèbre"}},
	}}
	sender := &fakeSender{}
	n := digestNotifier(t, users, fetcher, sender, newMemLedger())

	n.RunCycle(context.Background(), digestNow)

	if len(sender.dms) != 1 {
		t.Fatalf("dms = %d, want 1", len(sender.dms))
	}
	if sender.dms[0].files != 1 {
		t.Errorf("digest dm carried %d files, want 1", sender.dms[0].files)
	}

	n.RunCycle(context.Background(), digestNow.Add(60*time.Second))
	// 07:01 is outside the digest minute anyway, but the ledger also
	// guards a restart landing back on 07:00.
	n.RunCycle(context.Background(), digestNow)
	if len(sender.dms) != 1 {
		t.Fatalf("dms after repeat cycles = %d, want still 1", len(sender.dms))
	}
}

func TestWeeklyDigestOnlyForWeeklyUsers(t *testing.T) {
	users := &fakeUsers{users: []model.User{
		{ID: "1", Username: "alice", Weekly: true},
		{ID: "2", Username: "bob", Daily: true},
	}}
	fetcher := &fakeFetcher{
		week: map[string][]model.Course{
			"alice": {{Date: "2025-03-10", StartTime: "09:00", EndTime: "12:00", Name: "Algèbre"}},
		},
		day: map[string][]model.Course{
			"bob": {{Date: "2025-03-10", StartTime: "14:00", EndTime: "16:00", Name: "Réseaux"}},
		},
	}
	sender := &fakeSender{}
	n := digestNotifier(t, users, fetcher, sender, newMemLedger())

	n.RunCycle(context.Background(), digestNow)

	var weekly, daily int
	for _, dm := range sender.dms {
		switch dm.content {
		case "Voici l'emploi du temps de la semaine":
			weekly++
			if dm.target != "1" {
				t.Errorf("weekly digest went to %q, want user 1", dm.target)
			}
		case "Voici l'emploi du temps du jour":
			daily++
			if dm.target != "2" {
				t.Errorf("daily digest went to %q, want user 2", dm.target)
			}
		}
	}
	if weekly != 1 || daily != 1 {
		t.Fatalf("weekly = %d, daily = %d; want 1 and 1", weekly, daily)
	}
}

func TestDigestQuietWhenNoCourses(t *testing.T) {
	users := &fakeUsers{users: []model.User{{ID: "1", Username: "alice", Daily: true}}}
	fetcher := &fakeFetcher{day: map[string][]model.Course{"alice": nil}}
	sender := &fakeSender{}
	ledger := newMemLedger()
	n := digestNotifier(t, users, fetcher, sender, ledger)

	n.RunCycle(context.Background(), digestNow)

	if len(sender.dms) != 0 {
		t.Fatalf("dms = %d, want 0 when nothing is scheduled", len(sender.dms))
	}
	// The empty day is still marked so the check stays quiet.
	if sent, _ := ledger.WasSent("1", "2025-03-10", "digest-daily"); !sent {
		t.Error("empty digest day not recorded")
	}
}

func TestDigestSkippedOutsideDigestMinute(t *testing.T) {
	users := &fakeUsers{users: []model.User{{ID: "1", Username: "alice", Daily: true}}}
	fetcher := &fakeFetcher{day: map[string][]model.Course{
		"alice": {{Date: "2025-03-10", StartTime: "09:00", EndTime: "12:00", Name: "Algèbre"}},
	}}
	sender := &fakeSender{}
	n := digestNotifier(t, users, fetcher, sender, newMemLedger())

	n.RunCycle(context.Background(), digestNow.Add(5*time.Minute))

	if len(sender.dms) != 0 {
		t.Fatalf("dms = %d, want 0 outside the digest minute", len(sender.dms))
	}
}
