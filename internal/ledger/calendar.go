package ledger

import (
	"time"

	"motoinvest/internal/core"
)

// DayStatus is the bill state of one calendar day.
type DayStatus string

const (
	StatusNone DayStatus = ""
	StatusDue  DayStatus = "due"
	StatusPaid DayStatus = "paid"
)

// ResolveDay returns the status of day-of-month day in m: due if any bill due
// that day is unpaid, paid if every such bill is paid, none if there are none.
func ResolveDay(m core.Month, day int, bills []core.Bill) DayStatus {
	key := m.DayKey(day)
	matched := false
	for _, b := range bills {
		if b.DueDate.String() != key {
			continue
		}
		if !b.IsPaid {
			return StatusDue
		}
		matched = true
	}
	if matched {
		return StatusPaid
	}
	return StatusNone
}

// CalendarDay is one rendered cell.
type CalendarDay struct {
	Day    int       `json:"day"`
	Date   core.Date `json:"date"`
	Status DayStatus `json:"status,omitempty"`
	Today  bool      `json:"today,omitempty"`
}

// Calendar is the month grid: LeadingBlanks empty cells precede day 1 when
// weeks start on Sunday.
type Calendar struct {
	Year          int           `json:"year"`
	Month         int           `json:"month"`
	LeadingBlanks int           `json:"leading_blanks"`
	Days          []CalendarDay `json:"days"`
}

// BuildCalendar resolves every day of m against bills. today marks the
// current day when it falls inside m.
func BuildCalendar(m core.Month, bills []core.Bill, today core.Date) Calendar {
	n := m.DaysIn()
	cal := Calendar{
		Year:          m.Year,
		Month:         m.Month,
		LeadingBlanks: int(m.FirstWeekday() - time.Sunday),
		Days:          make([]CalendarDay, 0, n),
	}
	for d := 1; d <= n; d++ {
		date := core.NewDate(m.Year, m.Month, d)
		cal.Days = append(cal.Days, CalendarDay{
			Day:    d,
			Date:   date,
			Status: ResolveDay(m, d, bills),
			Today:  date.Equal(today.Time),
		})
	}
	return cal
}
