package model

import "time"

// Course is one scheduled class occurrence as returned by the schedule API.
// An empty Name marks a "no class" placeholder row; placeholders are
// filtered out before rendering or counting.
type Course struct {
	Date      string `json:"date"`       // YYYY-MM-DD
	StartTime string `json:"start_time"` // HH:MM
	EndTime   string `json:"end_time"`   // HH:MM
	Name      string `json:"name"`
	Room      string `json:"room"`
	Teacher   string `json:"teacher"`
}

// StartAt combines Date and StartTime into a wall-clock time in loc.
func (c Course) StartAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", c.Date+" "+c.StartTime, loc)
}

// TimeRange returns the "HH:MM - HH:MM" display form.
func (c Course) TimeRange() string {
	return c.StartTime + " - " + c.EndTime
}

// Named reports whether the record is a real course rather than a
// "no class" placeholder.
func (c Course) Named() bool {
	return c.Name != ""
}

// RoomLabel is the display line for the room, in French like the rest
// of the user-facing text.
func (c Course) RoomLabel() string {
	if c.Room == "" {
		return "Aucune salle spécifiée"
	}
	return "Salle : " + c.Room
}

// TeacherLabel is the display line for the teacher.
func (c Course) TeacherLabel() string {
	if c.Teacher == "" {
		return "Aucun professeur spécifié"
	}
	return "Professeur : " + c.Teacher
}
