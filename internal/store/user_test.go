package store

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/enzomtp/edtbot/internal/database"
	"github.com/enzomtp/edtbot/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUserUpsertAndGet(t *testing.T) {
	us := NewUserStore(setupTestDB(t))

	if err := us.Upsert("123", "alice"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	u, err := us.Get("123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Username != "alice" {
		t.Errorf("username = %q, want %q", u.Username, "alice")
	}
	if u.Daily || u.Weekly {
		t.Errorf("new user preferences = daily:%v weekly:%v, want both false", u.Daily, u.Weekly)
	}
}

func TestUserUpsertPreservesPreferences(t *testing.T) {
	us := NewUserStore(setupTestDB(t))

	if err := us.Upsert("123", "alice"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := us.SetPreference("123", model.PrefDaily, true); err != nil {
		t.Fatalf("set preference: %v", err)
	}
	if err := us.Upsert("123", "alice2"); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	u, err := us.Get("123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Username != "alice2" {
		t.Errorf("username = %q, want %q", u.Username, "alice2")
	}
	if !u.Daily {
		t.Error("daily preference lost after username update")
	}
}

func TestUserGetNotFound(t *testing.T) {
	us := NewUserStore(setupTestDB(t))

	_, err := us.Get("999")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("get unknown user: err = %v, want ErrNotFound", err)
	}
}

func TestUserPreferenceRoundTrip(t *testing.T) {
	us := NewUserStore(setupTestDB(t))

	if err := us.Upsert("42", "bob"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := us.SetPreference("42", model.PrefDaily, true); err != nil {
		t.Fatalf("set preference: %v", err)
	}

	got, err := us.GetPreference("42", model.PrefDaily)
	if err != nil {
		t.Fatalf("get preference: %v", err)
	}
	if !got {
		t.Error("daily = false, want true")
	}

	got, err = us.GetPreference("42", model.PrefWeekly)
	if err != nil {
		t.Fatalf("get weekly preference: %v", err)
	}
	if got {
		t.Error("weekly = true, want false")
	}
}

func TestUserSetPreferenceUnknownUser(t *testing.T) {
	us := NewUserStore(setupTestDB(t))

	err := us.SetPreference("999", model.PrefDaily, true)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("set preference for unknown user: err = %v, want ErrNotFound", err)
	}
}

func TestUserSetPreferenceRejectsUnknownName(t *testing.T) {
	us := NewUserStore(setupTestDB(t))

	if err := us.Upsert("42", "bob"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := us.SetPreference("42", "monthly", true); err == nil {
		t.Fatal("expected error for unknown preference name, got nil")
	}
}

func TestUserDelete(t *testing.T) {
	us := NewUserStore(setupTestDB(t))

	if err := us.Upsert("7", "carol"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := us.Delete("7"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err := us.Get("7")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: err = %v, want ErrNotFound", err)
	}

	if err := us.Delete("7"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestUserListWithPreference(t *testing.T) {
	us := NewUserStore(setupTestDB(t))

	for _, id := range []string{"1", "2", "3"} {
		if err := us.Upsert(id, "user"+id); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}
	if err := us.SetPreference("1", model.PrefDaily, true); err != nil {
		t.Fatalf("set preference: %v", err)
	}
	if err := us.SetPreference("3", model.PrefDaily, true); err != nil {
		t.Fatalf("set preference: %v", err)
	}
	if err := us.SetPreference("2", model.PrefWeekly, true); err != nil {
		t.Fatalf("set preference: %v", err)
	}

	daily, err := us.ListWithPreference(model.PrefDaily)
	if err != nil {
		t.Fatalf("list daily: %v", err)
	}
	if len(daily) != 2 {
		t.Fatalf("len(daily) = %d, want 2", len(daily))
	}
	if daily[0].ID != "1" || daily[1].ID != "3" {
		t.Errorf("daily ids = %s, %s; want 1, 3", daily[0].ID, daily[1].ID)
	}

	weekly, err := us.ListWithPreference(model.PrefWeekly)
	if err != nil {
		t.Fatalf("list weekly: %v", err)
	}
	if len(weekly) != 1 || weekly[0].ID != "2" {
		t.Fatalf("weekly = %v, want single user 2", weekly)
	}
}
