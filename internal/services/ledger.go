package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"motoinvest/internal/core"
	"motoinvest/internal/ledger"
	"motoinvest/internal/log"
	"motoinvest/internal/store"
)

// SummaryView is the month aggregation plus progress toward the goal.
type SummaryView struct {
	Summary  ledger.MonthSummary
	Progress ledger.GoalProgress
}

func (a *App) Summary(s *Session, m core.Month) (SummaryView, error) {
	if err := requireReady(s); err != nil {
		return SummaryView{}, err
	}
	if err := m.Validate(); err != nil {
		return SummaryView{}, err
	}
	earnings, expenses, bills, profile := s.collections()
	sum := ledger.Summarize(m, earnings, expenses, bills)

	var goalName string
	var goal core.Money
	if profile != nil {
		goalName, goal = profile.GoalName, profile.FinancialGoal
	}
	return SummaryView{Summary: sum, Progress: ledger.Progress(sum.NetProfit, goalName, goal)}, nil
}

func (a *App) Calendar(s *Session, m core.Month) (ledger.Calendar, error) {
	if err := requireReady(s); err != nil {
		return ledger.Calendar{}, err
	}
	if err := m.Validate(); err != nil {
		return ledger.Calendar{}, err
	}
	_, _, bills, _ := s.collections()
	return ledger.BuildCalendar(m, bills, a.today()), nil
}

// Bills lists the bills due in m, ascending by due date.
func (a *App) Bills(s *Session, m core.Month) ([]core.Bill, error) {
	if err := requireReady(s); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	_, _, bills, _ := s.collections()
	return ledger.BillsIn(m, bills), nil
}

// CloseDayResult reports what closing the day stored and how the mentor
// answered. Chat is nil when the mentor turn was skipped because another
// turn was in flight.
type CloseDayResult struct {
	Earning *core.Earning
	Expense *core.Expense
	Chat    *ChatResult
}

// CloseDay records today's earning and expense (either may be blank or zero,
// not both) and then asks the mentor how to split the profit.
func (a *App) CloseDay(ctx context.Context, s *Session, earning, expense string) (CloseDayResult, error) {
	if err := requireReady(s); err != nil {
		return CloseDayResult{}, err
	}
	earnCents, err := core.ParseOptionalCents(earning)
	if err != nil {
		return CloseDayResult{}, fmt.Errorf("earning: %w", err)
	}
	expCents, err := core.ParseOptionalCents(expense)
	if err != nil {
		return CloseDayResult{}, fmt.Errorf("expense: %w", err)
	}
	if earnCents == 0 && expCents == 0 {
		return CloseDayResult{}, ErrNothingToClose
	}

	userID := s.Identity.UserID
	today := a.today()
	structured := log.NewStructuredLogger(a.logger)
	var res CloseDayResult

	if earnCents > 0 {
		e, err := a.store.AddEarning(ctx, core.Earning{UserID: userID, Value: core.Money{Cents: earnCents}, Date: today})
		if err != nil {
			return res, writeFailed("earning", err)
		}
		s.mu.Lock()
		s.earnings = append([]core.Earning{e}, s.earnings...)
		s.mu.Unlock()
		res.Earning = &e
		structured.LogLedgerWrite(ctx, log.OpCreate, userID, "Earning", e.Value.Cents, e.Date.String())
	}
	if expCents > 0 {
		e, err := a.store.AddExpense(ctx, core.Expense{UserID: userID, Value: core.Money{Cents: expCents}, Date: today})
		if err != nil {
			return res, writeFailed("expense", err)
		}
		s.mu.Lock()
		s.expenses = append([]core.Expense{e}, s.expenses...)
		s.mu.Unlock()
		res.Expense = &e
		structured.LogLedgerWrite(ctx, log.OpCreate, userID, "Expense", e.Value.Cents, e.Date.String())
	}

	prompt := CloseDayPrompt(core.Money{Cents: earnCents}, core.Money{Cents: expCents})
	chat, err := a.Chat(ctx, s, ChatInput{Text: prompt})
	switch {
	case err == nil:
		res.Chat = &chat
	case errors.Is(err, ErrChatBusy):
		a.logger.WithComponent(log.ComponentMentor).InfoContext(ctx, "Close-day prompt skipped, chat busy", log.FieldUserID, userID)
	default:
		return res, err
	}
	return res, nil
}

// CloseDayPrompt is the mentor prompt sent after a day is closed. Values are
// printed in plain reais, as typed.
func CloseDayPrompt(earned, spent core.Money) string {
	return fmt.Sprintf("Fiz R$ %s brutos e gastei R$ %s. Me ajuda a dividir esse lucro?", plainReais(earned), plainReais(spent))
}

func plainReais(m core.Money) string {
	return strconv.FormatFloat(m.Reais(), 'f', -1, 64)
}

// NewBill is a bill added by hand on a day of the viewed month.
type NewBill struct {
	Name   string
	Amount string
	Month  core.Month
	Day    int
}

func (a *App) AddBill(ctx context.Context, s *Session, in NewBill) (core.Bill, error) {
	if err := requireReady(s); err != nil {
		return core.Bill{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return core.Bill{}, core.ErrEmptyName
	}
	cents, err := core.ParseDecimalToCents(in.Amount)
	if err != nil {
		return core.Bill{}, fmt.Errorf("amount: %w", err)
	}
	due, err := in.Month.Day(in.Day)
	if err != nil {
		return core.Bill{}, err
	}
	return a.addBill(ctx, s, name, core.Money{Cents: cents}, due)
}

// addBill inserts an unpaid bill and caches it once stored.
func (a *App) addBill(ctx context.Context, s *Session, name string, amount core.Money, due core.Date) (core.Bill, error) {
	b := core.Bill{UserID: s.Identity.UserID, Name: name, Amount: amount, DueDate: due, IsPaid: false}
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	saved, err := a.store.AddBill(ctx, b)
	if err != nil {
		return core.Bill{}, writeFailed("bill", err)
	}
	s.putBill(saved)
	log.NewStructuredLogger(a.logger).LogLedgerWrite(ctx, log.OpCreate, s.Identity.UserID, "Bill", saved.Amount.Cents, saved.DueDate.String())
	return saved, nil
}

// ToggleBill flips the paid flag of a cached bill.
func (a *App) ToggleBill(ctx context.Context, s *Session, billID string) (core.Bill, error) {
	if err := requireReady(s); err != nil {
		return core.Bill{}, err
	}
	current, ok := s.findBill(billID)
	if !ok {
		return core.Bill{}, fmt.Errorf("bill %s: %w", billID, store.ErrNotFound)
	}
	updated, err := a.store.SetBillPaid(ctx, s.Identity.UserID, billID, !current.IsPaid)
	if err != nil {
		if errorsIsNotFound(err) {
			return core.Bill{}, err
		}
		return core.Bill{}, writeFailed("bill", err)
	}
	s.putBill(updated)
	a.logger.WithComponent(log.ComponentLedger).InfoContext(ctx, "Bill toggled",
		log.FieldUserID, s.Identity.UserID, log.FieldBillID, billID, "is_paid", updated.IsPaid)
	return updated, nil
}

func (a *App) DeleteBill(ctx context.Context, s *Session, billID string) error {
	if err := requireReady(s); err != nil {
		return err
	}
	if _, ok := s.findBill(billID); !ok {
		return fmt.Errorf("bill %s: %w", billID, store.ErrNotFound)
	}
	if err := a.store.DeleteBill(ctx, s.Identity.UserID, billID); err != nil {
		if errorsIsNotFound(err) {
			return err
		}
		return writeFailed("bill", err)
	}
	s.removeBill(billID)
	a.logger.WithComponent(log.ComponentLedger).InfoContext(ctx, "Bill deleted",
		log.FieldUserID, s.Identity.UserID, log.FieldBillID, billID)
	return nil
}
