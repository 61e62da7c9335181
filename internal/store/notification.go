package store

import (
	"database/sql"
	"fmt"
	"time"
)

// NotificationStore is the dedupe ledger for sent reminders. A key
// (user_id, date, start_time) present in the table means that
// occurrence has already been delivered and must not fire again.
type NotificationStore struct {
	db *sql.DB
}

func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// WasSent reports whether a reminder was already recorded for the key.
func (s *NotificationStore) WasSent(userID, date, startTime string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM notification_log WHERE user_id = ? AND date = ? AND start_time = ?`,
		userID, date, startTime,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check notification sent: %w", err)
	}
	return n > 0, nil
}

// RecordSent marks the key as delivered. Recording an existing key is
// a no-op rather than an error.
func (s *NotificationStore) RecordSent(userID, date, startTime string) error {
	_, err := s.db.Exec(
		`INSERT INTO notification_log (user_id, date, start_time, sent_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, date, start_time) DO NOTHING`,
		userID, date, startTime, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record notification sent: %w", err)
	}
	return nil
}

// Prune deletes ledger entries for dates strictly before the given
// date (YYYY-MM-DD). Purely a storage-growth measure; retained keys
// keep their dedupe guarantee.
func (s *NotificationStore) Prune(before string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM notification_log WHERE date < ?`, before)
	if err != nil {
		return 0, fmt.Errorf("prune notification log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune notification log: %w", err)
	}
	return n, nil
}
