package bot

import (
	"errors"
	"fmt"
	"time"
)

// ErrBadDate marks a user-supplied date that does not parse as
// DD/MM/YYYY. It is a validation error, answered with a re-prompt.
var ErrBadDate = errors.New("invalid date format")

// ParseUserDate parses a date typed by a user, DD/MM/YYYY. A nil
// location means local time.
func ParseUserDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("02/01/2006", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
	}
	return t, nil
}
