package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-05-10", "2024-05-10", true},
		{" 2024-05-10 ", "2024-05-10", true},
		{"2024-05-10T12:00:00Z", "2024-05-10", true},
		{"2024-02-30", "", false},
		{"10/05/2024", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if !tc.ok {
			if !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q unexpected error: %v", tc.in, err)
		}
		if d.String() != tc.want {
			t.Errorf("%q got %s want %s", tc.in, d.String(), tc.want)
		}
		if d.Location() != time.UTC {
			t.Errorf("%q expected UTC location", tc.in)
		}
	}
}

func TestDateOfNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	// 22:30 local on the 9th is already the 10th in UTC.
	d := DateOf(time.Date(2024, 5, 9, 22, 30, 0, 0, loc))
	if d.String() != "2024-05-10" {
		t.Fatalf("got %s", d.String())
	}
}

func TestDateJSON(t *testing.T) {
	type wrap struct {
		Due Date `json:"due"`
	}
	b, err := json.Marshal(wrap{Due: NewDate(2024, 5, 10)})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"due":"2024-05-10"}` {
		t.Fatalf("marshal got %s", b)
	}
	var w wrap
	if err := json.Unmarshal([]byte(`{"due":"2024-06-01"}`), &w); err != nil {
		t.Fatal(err)
	}
	if w.Due.Year() != 2024 || w.Due.Month() != 6 || w.Due.Day() != 1 {
		t.Fatalf("unmarshal got %v", w.Due)
	}
	if err := json.Unmarshal([]byte(`{"due":"nope"}`), &w); err == nil {
		t.Fatal("expected error for bad date")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestBillValidate(t *testing.T) {
	good := Bill{UserID: "u1", Name: "Aluguel", Amount: Money{Cents: 60000}, DueDate: NewDate(2024, 5, 10)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Bill{
		{UserID: "", Name: "a", Amount: Money{Cents: 1}, DueDate: NewDate(2024, 5, 10)},
		{UserID: "u1", Name: "  ", Amount: Money{Cents: 1}, DueDate: NewDate(2024, 5, 10)},
		{UserID: "u1", Name: "a", Amount: Money{Cents: 0}, DueDate: NewDate(2024, 5, 10)},
		{UserID: "u1", Name: "a", Amount: Money{Cents: 1}},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestLengthLimitsCountCharacters(t *testing.T) {
	due := NewDate(2024, 5, 10)
	accented := strings.Repeat("ã", 120) // 240 bytes
	if err := (Bill{UserID: "u1", Name: accented, Amount: Money{Cents: 1}, DueDate: due}).Validate(); err != nil {
		t.Fatalf("120 accented characters should be accepted: %v", err)
	}
	if err := (Bill{UserID: "u1", Name: accented + "é", Amount: Money{Cents: 1}, DueDate: due}).Validate(); !errors.Is(err, ErrNameTooLong) {
		t.Fatalf("121 characters: got %v, want ErrNameTooLong", err)
	}

	desc := strings.Repeat("manutenção ", 18) // 198 characters
	if err := (Expense{UserID: "u1", Value: Money{Cents: 1}, Date: due, Description: desc}).Validate(); err != nil {
		t.Fatalf("198 characters should be accepted: %v", err)
	}
	if err := (Expense{UserID: "u1", Value: Money{Cents: 1}, Date: due, Description: desc + "óleo"}).Validate(); !errors.Is(err, ErrDescTooLong) {
		t.Fatalf("202 characters: got %v, want ErrDescTooLong", err)
	}
}

func TestProfileValidate(t *testing.T) {
	p := Profile{UserID: "u1", GoalName: "Reserva de Emergência", FinancialGoal: Money{Cents: 500000}, DaysWeek: 6, HoursDay: 10}
	if err := p.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	p.DaysWeek = 8
	if err := p.Validate(); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
	p.DaysWeek = 6
	p.GoalName = ""
	if err := p.Validate(); !errors.Is(err, ErrEmptyGoalName) {
		t.Fatalf("expected ErrEmptyGoalName, got %v", err)
	}
}

func TestAuthorizationRecordActive(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		rec  AuthorizationRecord
		want bool
	}{
		{"future", AuthorizationRecord{Email: "a@b.c", ExpiresAt: now.Add(time.Hour)}, true},
		{"past", AuthorizationRecord{Email: "a@b.c", ExpiresAt: now.Add(-time.Hour)}, false},
		{"exact", AuthorizationRecord{Email: "a@b.c", ExpiresAt: now}, false},
		{"zero", AuthorizationRecord{Email: "a@b.c"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rec.Active(now); got != tc.want {
				t.Errorf("Active() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMonth(t *testing.T) {
	m := Month{Year: 2024, Month: 5}
	if !m.Contains(NewDate(2024, 5, 31)) || m.Contains(NewDate(2024, 6, 1)) || m.Contains(NewDate(2023, 5, 1)) {
		t.Fatal("Contains mismatch")
	}
	if got := m.Add(1); got != (Month{2024, 6}) {
		t.Errorf("Add(1) = %v", got)
	}
	if got := (Month{2024, 1}).Add(-1); got != (Month{2023, 12}) {
		t.Errorf("Add(-1) = %v", got)
	}
	if got := (Month{2024, 12}).Add(1); got != (Month{2025, 1}) {
		t.Errorf("Add(1) over year = %v", got)
	}
	if m.DaysIn() != 31 || (Month{2024, 2}).DaysIn() != 29 || (Month{2023, 2}).DaysIn() != 28 {
		t.Error("DaysIn mismatch")
	}
	if m.FirstWeekday() != time.Wednesday {
		t.Errorf("FirstWeekday = %v", m.FirstWeekday())
	}
	if m.DayKey(5) != "2024-05-05" {
		t.Errorf("DayKey = %s", m.DayKey(5))
	}
	if _, err := m.Day(32); !errors.Is(err, ErrInvalidDay) {
		t.Errorf("Day(32) expected ErrInvalidDay, got %v", err)
	}
	if _, err := NewMonth(2024, 13); !errors.Is(err, ErrInvalidMonth) {
		t.Errorf("NewMonth(2024,13) expected ErrInvalidMonth, got %v", err)
	}
}
