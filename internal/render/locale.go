package render

import (
	"fmt"
	"time"
)

var frenchDays = map[time.Weekday]string{
	time.Monday:    "Lundi",
	time.Tuesday:   "Mardi",
	time.Wednesday: "Mercredi",
	time.Thursday:  "Jeudi",
	time.Friday:    "Vendredi",
	time.Saturday:  "Samedi",
	time.Sunday:    "Dimanche",
}

var frenchMonths = map[time.Month]string{
	time.January:   "Janvier",
	time.February:  "Février",
	time.March:     "Mars",
	time.April:     "Avril",
	time.May:       "Mai",
	time.June:      "Juin",
	time.July:      "Juillet",
	time.August:    "Août",
	time.September: "Septembre",
	time.October:   "Octobre",
	time.November:  "Novembre",
	time.December:  "Décembre",
}

// LongDate formats a date the way the embeds show it, e.g.
// "Lundi 10 Mars 2025".
func LongDate(t time.Time) string {
	return fmt.Sprintf("%s %d %s %d", frenchDays[t.Weekday()], t.Day(), frenchMonths[t.Month()], t.Year())
}

// HeaderDate formats a date for a week-view column header, e.g.
// "Lundi 10/03".
func HeaderDate(t time.Time) string {
	return fmt.Sprintf("%s %02d/%02d", frenchDays[t.Weekday()], t.Day(), int(t.Month()))
}
