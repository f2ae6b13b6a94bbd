// Package storetest holds behaviour checks shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"motoinvest/internal/core"
	"motoinvest/internal/store"
)

// Run exercises s against the store.Store contract. newStore must return an
// empty store for each call.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("profile", func(t *testing.T) { testProfile(t, newStore(t)) })
	t.Run("earnings and expenses", func(t *testing.T) { testEntries(t, newStore(t)) })
	t.Run("bills", func(t *testing.T) { testBills(t, newStore(t)) })
	t.Run("messages", func(t *testing.T) { testMessages(t, newStore(t)) })
	t.Run("authorization", func(t *testing.T) { testAuthorization(t, newStore(t)) })
	t.Run("preferences", func(t *testing.T) { testPreferences(t, newStore(t)) })
}

func testProfile(t *testing.T, s store.Store) {
	ctx := context.Background()
	if _, err := s.GetProfile(ctx, "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	in := core.Profile{
		UserID:        "u1",
		Name:          "Joao",
		Age:           29,
		Tool:          "moto",
		DaysWeek:      6,
		HoursDay:      10,
		Platforms:     []string{"iFood", "Rappi"},
		Accident:      true,
		Challenge:     "guardar dinheiro",
		FinancialGoal: core.Money{Cents: 500000},
		GoalName:      "Reserva de Emergência",
	}
	if _, err := s.CreateProfile(ctx, in); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	got, err := s.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if got.GoalName != in.GoalName || got.FinancialGoal != in.FinancialGoal || len(got.Platforms) != 2 || !got.Accident || got.DaysWeek != 6 {
		t.Fatalf("unexpected profile: %+v", got)
	}

	name := "Moto nova"
	goal := core.Money{Cents: 1200000}
	upd, err := s.UpdateProfile(ctx, "u1", store.ProfileUpdate{GoalName: &name, FinancialGoal: &goal})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if upd.GoalName != name || upd.FinancialGoal != goal || upd.Age != 29 {
		t.Fatalf("unexpected updated profile: %+v", upd)
	}
	if _, err := s.UpdateProfile(ctx, "nobody", store.ProfileUpdate{GoalName: &name}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func testEntries(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, d := range []int{1, 15, 7} {
		if _, err := s.AddEarning(ctx, core.Earning{UserID: "u1", Value: core.Money{Cents: int64(d) * 100}, Date: core.NewDate(2024, 5, d)}); err != nil {
			t.Fatalf("add earning: %v", err)
		}
	}
	if _, err := s.AddEarning(ctx, core.Earning{UserID: "u2", Value: core.Money{Cents: 1}, Date: core.NewDate(2024, 5, 1)}); err != nil {
		t.Fatalf("add earning: %v", err)
	}
	es, err := s.ListEarnings(ctx, "u1")
	if err != nil {
		t.Fatalf("list earnings: %v", err)
	}
	if len(es) != 3 || es[0].Date.Day() != 15 || es[2].Date.Day() != 1 {
		t.Fatalf("expected 3 earnings newest first, got %+v", es)
	}
	if es[0].ID == "" {
		t.Fatal("expected generated id")
	}
	if _, err := s.AddEarning(ctx, core.Earning{UserID: "u1", Date: core.NewDate(2024, 5, 1)}); err == nil {
		t.Fatal("expected error for zero earning")
	}

	x, err := s.AddExpense(ctx, core.Expense{UserID: "u1", Value: core.Money{Cents: 3000}, Date: core.NewDate(2024, 5, 2), Description: "gasolina"})
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}
	xs, err := s.ListExpenses(ctx, "u1")
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(xs) != 1 || xs[0].ID != x.ID || xs[0].Description != "gasolina" || xs[0].Date.String() != "2024-05-02" {
		t.Fatalf("unexpected expenses: %+v", xs)
	}
	if other, _ := s.ListExpenses(ctx, "u2"); len(other) != 0 {
		t.Fatalf("expected no expenses for u2, got %+v", other)
	}
}

func testBills(t *testing.T, s store.Store) {
	ctx := context.Background()
	late, err := s.AddBill(ctx, core.Bill{UserID: "u1", Name: "Internet", Amount: core.Money{Cents: 10000}, DueDate: core.NewDate(2024, 5, 20)})
	if err != nil {
		t.Fatalf("add bill: %v", err)
	}
	early, err := s.AddBill(ctx, core.Bill{UserID: "u1", Name: "Aluguel", Amount: core.Money{Cents: 60000}, DueDate: core.NewDate(2024, 5, 10)})
	if err != nil {
		t.Fatalf("add bill: %v", err)
	}
	bills, err := s.ListBills(ctx, "u1")
	if err != nil {
		t.Fatalf("list bills: %v", err)
	}
	if len(bills) != 2 || bills[0].ID != early.ID || bills[1].ID != late.ID {
		t.Fatalf("expected bills by due date, got %+v", bills)
	}

	paid, err := s.SetBillPaid(ctx, "u1", early.ID, true)
	if err != nil || !paid.IsPaid {
		t.Fatalf("set paid: %+v %v", paid, err)
	}
	if _, err := s.SetBillPaid(ctx, "u2", early.ID, false); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other owner, got %v", err)
	}
	if err := s.DeleteBill(ctx, "u1", late.ID); err != nil {
		t.Fatalf("delete bill: %v", err)
	}
	if err := s.DeleteBill(ctx, "u1", late.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	bills, _ = s.ListBills(ctx, "u1")
	if len(bills) != 1 || !bills[0].IsPaid || bills[0].Name != "Aluguel" {
		t.Fatalf("unexpected bills after delete: %+v", bills)
	}
}

func testMessages(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	if _, err := s.AddMessage(ctx, core.Message{UserID: "u1", Role: core.RoleModel, Text: "second", Timestamp: base.Add(time.Minute)}); err != nil {
		t.Fatalf("add message: %v", err)
	}
	if _, err := s.AddMessage(ctx, core.Message{UserID: "u1", Role: core.RoleUser, Text: "first", Timestamp: base}); err != nil {
		t.Fatalf("add message: %v", err)
	}
	if _, err := s.AddMessage(ctx, core.Message{UserID: "u1", Role: "system", Text: "x"}); err == nil {
		t.Fatal("expected invalid role error")
	}
	msgs, err := s.ListMessages(ctx, "u1")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Text != "first" || msgs[1].Role != core.RoleModel {
		t.Fatalf("expected messages oldest first, got %+v", msgs)
	}
	if !msgs[0].Timestamp.Equal(base) {
		t.Fatalf("timestamp mismatch: %v", msgs[0].Timestamp)
	}
}

func testAuthorization(t *testing.T, s store.Store) {
	ctx := context.Background()
	if _, err := s.GetAuthorization(ctx, "a@b.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := s.UpsertAuthorization(ctx, core.AuthorizationRecord{Email: "A@B.com", ExpiresAt: exp}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	rec, err := s.GetAuthorization(ctx, "a@b.com")
	if err != nil || !rec.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected record %+v err=%v", rec, err)
	}
	later := exp.AddDate(1, 0, 0)
	if err := s.UpsertAuthorization(ctx, core.AuthorizationRecord{Email: "a@b.com", ExpiresAt: later}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	rec, _ = s.GetAuthorization(ctx, "a@b.com")
	if !rec.ExpiresAt.Equal(later) {
		t.Fatalf("expected extended expiry, got %v", rec.ExpiresAt)
	}
}

func testPreferences(t *testing.T, s store.Store) {
	ctx := context.Background()
	p, err := s.GetPreferences(ctx, "u1")
	if err != nil || p.NotificationsMuted || p.TutorialSeen {
		t.Fatalf("expected zero preferences, got %+v err=%v", p, err)
	}
	if err := s.SetPreference(ctx, "u1", core.PrefTutorialSeen, true); err != nil {
		t.Fatalf("set preference: %v", err)
	}
	if err := s.SetPreference(ctx, "u1", core.PrefNotificationsMuted, true); err != nil {
		t.Fatalf("set preference: %v", err)
	}
	if err := s.SetPreference(ctx, "u1", core.PrefNotificationsMuted, false); err != nil {
		t.Fatalf("set preference: %v", err)
	}
	p, _ = s.GetPreferences(ctx, "u1")
	if !p.TutorialSeen || p.NotificationsMuted {
		t.Fatalf("unexpected preferences: %+v", p)
	}
	if other, _ := s.GetPreferences(ctx, "u2"); other.TutorialSeen {
		t.Fatal("preferences leaked across users")
	}
}
