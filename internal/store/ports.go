// Package store declares the persistence ports the services depend on.
// Every read is filtered by owner and returned in a fixed order.
package store

import (
	"context"
	"errors"

	"motoinvest/internal/core"
)

var ErrNotFound = errors.New("not found")

// ProfileUpdate carries the editable profile fields; nil fields are left
// untouched.
type ProfileUpdate struct {
	GoalName      *string
	FinancialGoal *core.Money
}

func (u ProfileUpdate) Empty() bool {
	return u.GoalName == nil && u.FinancialGoal == nil
}

// Apply returns p with the update applied.
func (u ProfileUpdate) Apply(p core.Profile) core.Profile {
	if u.GoalName != nil {
		p.GoalName = *u.GoalName
	}
	if u.FinancialGoal != nil {
		p.FinancialGoal = *u.FinancialGoal
	}
	return p
}

// Ports for outbound adapters.
type (
	ProfileStore interface {
		// GetProfile returns ErrNotFound when the user has not onboarded.
		GetProfile(ctx context.Context, userID string) (core.Profile, error)
		CreateProfile(ctx context.Context, p core.Profile) (core.Profile, error)
		UpdateProfile(ctx context.Context, userID string, u ProfileUpdate) (core.Profile, error)
	}

	EarningStore interface {
		// ListEarnings returns the user's earnings, newest date first.
		ListEarnings(ctx context.Context, userID string) ([]core.Earning, error)
		AddEarning(ctx context.Context, e core.Earning) (core.Earning, error)
	}

	ExpenseStore interface {
		// ListExpenses returns the user's expenses, newest date first.
		ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)
		AddExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	}

	BillStore interface {
		// ListBills returns the user's bills by ascending due date.
		ListBills(ctx context.Context, userID string) ([]core.Bill, error)
		AddBill(ctx context.Context, b core.Bill) (core.Bill, error)
		SetBillPaid(ctx context.Context, userID, billID string, paid bool) (core.Bill, error)
		DeleteBill(ctx context.Context, userID, billID string) error
	}

	MessageStore interface {
		// ListMessages returns the transcript oldest first.
		ListMessages(ctx context.Context, userID string) ([]core.Message, error)
		AddMessage(ctx context.Context, m core.Message) (core.Message, error)
	}

	AuthorizationStore interface {
		// GetAuthorization returns ErrNotFound for unknown emails.
		GetAuthorization(ctx context.Context, email string) (core.AuthorizationRecord, error)
		UpsertAuthorization(ctx context.Context, rec core.AuthorizationRecord) error
	}

	PreferenceStore interface {
		GetPreferences(ctx context.Context, userID string) (core.Preferences, error)
		SetPreference(ctx context.Context, userID, key string, value bool) error
	}

	// Store is the full persistence surface of one backend.
	Store interface {
		ProfileStore
		EarningStore
		ExpenseStore
		BillStore
		MessageStore
		AuthorizationStore
		PreferenceStore
	}
)
