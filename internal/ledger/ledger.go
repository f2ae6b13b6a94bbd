// Package ledger derives month totals, bill due state and goal progress from
// a user's earnings, expenses and bills. Everything here is pure.
package ledger

import (
	"sort"

	"motoinvest/internal/core"
)

// MonthSummary is the aggregation of one viewed month.
type MonthSummary struct {
	Month            core.Month
	TotalEarned      core.Money
	TotalSpent       core.Money
	NetProfit        core.Money
	Bills            []core.Bill // due in Month, ascending by due date
	UnpaidBillsTotal core.Money
}

// Summarize aggregates the collections over the calendar month m. Records
// dated outside m are ignored. Inputs are not modified.
func Summarize(m core.Month, earnings []core.Earning, expenses []core.Expense, bills []core.Bill) MonthSummary {
	s := MonthSummary{Month: m, Bills: []core.Bill{}}
	for _, e := range earnings {
		if m.Contains(e.Date) {
			s.TotalEarned = s.TotalEarned.Add(e.Value)
		}
	}
	for _, e := range expenses {
		if m.Contains(e.Date) {
			s.TotalSpent = s.TotalSpent.Add(e.Value)
		}
	}
	s.NetProfit = s.TotalEarned.Sub(s.TotalSpent)

	s.Bills = BillsIn(m, bills)
	for _, b := range s.Bills {
		if !b.IsPaid {
			s.UnpaidBillsTotal = s.UnpaidBillsTotal.Add(b.Amount)
		}
	}
	return s
}

// BillsIn returns the bills due in m sorted ascending by due-date string.
// Bills sharing a date keep their input order.
func BillsIn(m core.Month, bills []core.Bill) []core.Bill {
	out := make([]core.Bill, 0, len(bills))
	for _, b := range bills {
		if m.Contains(b.DueDate) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.String() < out[j].DueDate.String()
	})
	return out
}

// GoalProgress is the net profit expressed as a share of the savings goal.
type GoalProgress struct {
	GoalName string
	Goal     core.Money
	Percent  float64 // unclamped, may be negative or above 100
	BarWidth float64 // Percent clamped to [0,100]
}

// Progress computes the goal progress for the month's net profit. A missing
// goal counts as R$ 1.
func Progress(net core.Money, goalName string, goal core.Money) GoalProgress {
	denom := goal.Cents
	if denom <= 0 {
		denom = 100
	}
	pct := float64(net.Cents) / float64(denom) * 100
	width := pct
	if width < 0 {
		width = 0
	}
	if width > 100 {
		width = 100
	}
	return GoalProgress{GoalName: goalName, Goal: goal, Percent: pct, BarWidth: width}
}
