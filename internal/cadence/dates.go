package cadence

import "time"

// dateLayout is the format of a local date key.
const dateLayout = "2006-01-02"

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

// DateKey returns the calendar day of t in loc as YYYY-MM-DD.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(location(loc)).Format(dateLayout)
}

// WeekStartKey returns the date key of the Monday starting t's week in loc.
func WeekStartKey(t time.Time, loc *time.Location) string {
	lt := t.In(location(loc))
	back := (int(lt.Weekday()) + 6) % 7
	monday := time.Date(lt.Year(), lt.Month(), lt.Day()-back, 0, 0, 0, 0, time.UTC)
	return monday.Format(dateLayout)
}

// DaysBetween returns the number of calendar days from one date key to
// another. ok is false if either key does not parse.
func DaysBetween(from, to string) (days int, ok bool) {
	a, err := time.Parse(dateLayout, from)
	if err != nil {
		return 0, false
	}
	b, err := time.Parse(dateLayout, to)
	if err != nil {
		return 0, false
	}
	// Both parse as UTC midnight, so the difference is a whole number of days.
	return int(b.Sub(a).Hours() / 24), true
}

// LocalHour returns the hour of day of t in loc.
func LocalHour(t time.Time, loc *time.Location) int {
	return t.In(location(loc)).Hour()
}
