package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire and storage form of calendar dates.
const DateLayout = "2006-01-02"

// PeriodLayout identifies a calendar month.
const PeriodLayout = "2006-01"

// Date is a calendar date. The wrapped time is midnight UTC of that day and
// carries no zone meaning.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q must be YYYY-MM-DD", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthStart returns the first day of d's month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), d.Month(), 1)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: expected string", ErrInvalidDate)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MonthWindow is the current-month range [Start, Today], both inclusive.
type MonthWindow struct {
	Start Date
	Today Date
	// Since is local midnight of Start, the lower bound for notification
	// timestamps.
	Since time.Time
}

// CurrentMonth computes the window for now in now's location.
func CurrentMonth(now time.Time) MonthWindow {
	today := DateOf(now)
	start := today.MonthStart()
	return MonthWindow{
		Start: start,
		Today: today,
		Since: time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, now.Location()),
	}
}

// Period returns the YYYY-MM month key of t in t's location.
func Period(t time.Time) string {
	return t.Format(PeriodLayout)
}
