package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/enzomtp/edtbot/internal/model"
)

// ErrNotFound is returned when no row exists for the requested user.
var ErrNotFound = errors.New("user not found")

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// Get returns the user registered under the given Discord id.
func (s *UserStore) Get(id string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(
		`SELECT id, username, daily, weekly, created_at, updated_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &u.Daily, &u.Weekly, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}

// Upsert registers a user or updates the username of an existing
// registration. Preferences are preserved on update.
func (s *UserStore) Upsert(id, username string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO users (id, username, daily, weekly, created_at, updated_at) VALUES (?, ?, 0, 0, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET username = excluded.username, updated_at = excluded.updated_at`,
		id, username, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", id, err)
	}
	return nil
}

// SetPreference sets the daily or weekly flag for a registered user.
func (s *UserStore) SetPreference(id, pref string, value bool) error {
	col, err := prefColumn(pref)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(
		`UPDATE users SET `+col+` = ?, updated_at = ? WHERE id = ?`,
		value, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set preference %s for user %s: %w", pref, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set preference %s for user %s: %w", pref, id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetPreference returns the daily or weekly flag for a registered user.
func (s *UserStore) GetPreference(id, pref string) (bool, error) {
	col, err := prefColumn(pref)
	if err != nil {
		return false, err
	}
	var value bool
	err = s.db.QueryRow(`SELECT `+col+` FROM users WHERE id = ?`, id).Scan(&value)
	if err == sql.ErrNoRows {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("get preference %s for user %s: %w", pref, id, err)
	}
	return value, nil
}

// Delete removes a registration. Deleting an unknown id returns ErrNotFound.
func (s *UserStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListWithPreference returns every user with the given preference enabled.
func (s *UserStore) ListWithPreference(pref string) ([]model.User, error) {
	col, err := prefColumn(pref)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT id, username, daily, weekly, created_at, updated_at FROM users WHERE ` + col + ` = 1 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list users with %s: %w", pref, err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Daily, &u.Weekly, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// prefColumn maps a preference name to its column, rejecting anything
// else so preference names can never reach SQL unchecked.
func prefColumn(pref string) (string, error) {
	switch pref {
	case model.PrefDaily:
		return "daily", nil
	case model.PrefWeekly:
		return "weekly", nil
	}
	return "", fmt.Errorf("unknown preference %q", pref)
}
