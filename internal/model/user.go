package model

import "time"

// User binds a Discord user to a schedule-system username along with
// their reminder preferences. Exactly one row per Discord user id.
type User struct {
	ID        string    `json:"id"` // Discord snowflake
	Username  string    `json:"username"`
	Daily     bool      `json:"daily"`
	Weekly    bool      `json:"weekly"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Preference names accepted by the user store.
const (
	PrefDaily  = "daily"
	PrefWeekly = "weekly"
)
