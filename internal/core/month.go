package core

import (
	"fmt"
	"time"
)

// Month identifies a calendar month used for aggregation and calendar views.
type Month struct {
	Year  int
	Month int // 1-12
}

func NewMonth(year, month int) (Month, error) {
	m := Month{Year: year, Month: month}
	if err := m.Validate(); err != nil {
		return Month{}, err
	}
	return m, nil
}

// MonthOf returns the month containing d.
func MonthOf(d Date) Month {
	return Month{Year: d.Year(), Month: d.Month()}
}

func CurrentMonth() Month {
	return MonthOf(Today())
}

func (m Month) Validate() error {
	if m.Month < 1 || m.Month > 12 {
		return ErrInvalidMonth
	}
	if m.Year < 1 || m.Year > 9999 {
		return fmt.Errorf("invalid year %d", m.Year)
	}
	return nil
}

// Contains reports whether d falls inside the month.
func (m Month) Contains(d Date) bool {
	return d.Year() == m.Year && d.Month() == m.Month
}

// Add moves the month by step months (negative steps go backwards).
func (m Month) Add(step int) Month {
	t := time.Date(m.Year, time.Month(m.Month)+time.Month(step), 1, 0, 0, 0, 0, time.UTC)
	return Month{Year: t.Year(), Month: int(t.Month())}
}

// First returns the first day of the month.
func (m Month) First() Date {
	return NewDate(m.Year, m.Month, 1)
}

// DaysIn returns the number of days in the month.
func (m Month) DaysIn() int {
	return time.Date(m.Year, time.Month(m.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekday is the weekday of day 1; Sunday is 0.
func (m Month) FirstWeekday() time.Weekday {
	return m.First().Weekday()
}

// DayKey builds the YYYY-MM-DD key of the given day in this month.
func (m Month) DayKey(day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", m.Year, m.Month, day)
}

// Day returns the date of the given day-of-month.
func (m Month) Day(day int) (Date, error) {
	if day < 1 || day > m.DaysIn() {
		return Date{}, ErrInvalidDay
	}
	return NewDate(m.Year, m.Month, day), nil
}

// Key is the "year-month" cache key.
func (m Month) Key() string {
	return fmt.Sprintf("%d-%d", m.Year, m.Month)
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}
