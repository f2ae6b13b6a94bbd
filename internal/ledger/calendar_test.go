package ledger

import (
	"testing"

	"motoinvest/internal/core"
)

func TestResolveDay(t *testing.T) {
	may := core.Month{Year: 2024, Month: 5}
	d5 := core.NewDate(2024, 5, 5)
	cases := []struct {
		name  string
		bills []core.Bill
		want  DayStatus
	}{
		{"no bills", nil, StatusNone},
		{"one unpaid", []core.Bill{{DueDate: d5}}, StatusDue},
		{"paid and unpaid", []core.Bill{{DueDate: d5, IsPaid: true}, {DueDate: d5}}, StatusDue},
		{"all paid", []core.Bill{{DueDate: d5, IsPaid: true}}, StatusPaid},
		{"other day", []core.Bill{{DueDate: core.NewDate(2024, 5, 6)}}, StatusNone},
		{"same day other month", []core.Bill{{DueDate: core.NewDate(2024, 6, 5)}}, StatusNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveDay(may, 5, tc.bills); got != tc.want {
				t.Errorf("ResolveDay = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildCalendar(t *testing.T) {
	may := core.Month{Year: 2024, Month: 5}
	bills := []core.Bill{
		{DueDate: core.NewDate(2024, 5, 10)},
		{DueDate: core.NewDate(2024, 5, 20), IsPaid: true},
	}
	cal := BuildCalendar(may, bills, core.NewDate(2024, 5, 15))

	if len(cal.Days) != 31 {
		t.Fatalf("expected 31 days, got %d", len(cal.Days))
	}
	// 2024-05-01 is a Wednesday.
	if cal.LeadingBlanks != 3 {
		t.Errorf("LeadingBlanks = %d, want 3", cal.LeadingBlanks)
	}
	if cal.Days[9].Status != StatusDue || cal.Days[19].Status != StatusPaid || cal.Days[0].Status != StatusNone {
		t.Errorf("unexpected statuses: %v %v %v", cal.Days[9].Status, cal.Days[19].Status, cal.Days[0].Status)
	}
	for _, d := range cal.Days {
		if d.Today != (d.Day == 15) {
			t.Errorf("day %d Today = %v", d.Day, d.Today)
		}
	}
}
