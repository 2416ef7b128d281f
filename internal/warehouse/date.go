package warehouse

import "time"

// DateAttributes holds the derived calendar attributes of a date
// dimension row. All fields are pure functions of the date itself.
type DateAttributes struct {
	Day       int
	Month     int
	Year      int
	Quarter   int
	DayOfWeek string
	IsWeekend bool
}

// DeriveDate computes the calendar attributes for a date.
func DeriveDate(t time.Time) DateAttributes {
	wd := t.Weekday()
	return DateAttributes{
		Day:       t.Day(),
		Month:     int(t.Month()),
		Year:      t.Year(),
		Quarter:   (int(t.Month())-1)/3 + 1,
		DayOfWeek: wd.String(),
		IsWeekend: wd == time.Saturday || wd == time.Sunday,
	}
}
