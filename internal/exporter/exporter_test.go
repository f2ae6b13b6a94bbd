package exporter

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"motoinvest/internal/amqp"
	"motoinvest/internal/log"
)

type fakeAppender struct {
	rows      [][]any
	err       error
	headerErr error
	headers   int
}

func (f *fakeAppender) AppendRows(_ context.Context, rows [][]any) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.rows = append(f.rows, rows...)
	return "Ledger!A2:I2", nil
}

func (f *fakeAppender) EnsureHeader(context.Context) error {
	f.headers++
	return f.headerErr
}

func quietLogger() *log.Logger { return log.New(log.Config{Output: &bytes.Buffer{}}) }

func event(kind amqp.EventKind) *amqp.LedgerEvent {
	return &amqp.LedgerEvent{
		ID:          "ev1",
		Kind:        kind,
		UserID:      "u1",
		EntityID:    "b1",
		Date:        "2024-05-20",
		AmountCents: 9050,
		Label:       "Luz",
		IsPaid:      true,
		Timestamp:   time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestRow(t *testing.T) {
	tests := []struct {
		kind   amqp.EventKind
		amount string
	}{
		{amqp.EarningRecorded, "90.50"},
		{amqp.ExpenseRecorded, "90.50"},
		{amqp.BillCreated, "90.50"},
		{amqp.BillToggled, "90.50"},
		{amqp.BillDeleted, ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			row := Row(event(tt.kind))
			if len(row) != 9 {
				t.Fatalf("row has %d columns", len(row))
			}
			if row[1] != string(tt.kind) || row[5] != tt.amount {
				t.Errorf("row = %+v", row)
			}
			if row[8] != "2024-05-15T12:00:00Z" || row[7] != true || row[6] != "Luz" {
				t.Errorf("row = %+v", row)
			}
		})
	}
}

func TestHandleLedgerEvent(t *testing.T) {
	target := &fakeAppender{}
	e := New(target, quietLogger())

	if err := e.HandleLedgerEvent(context.Background(), event(amqp.BillCreated)); err != nil {
		t.Fatalf("HandleLedgerEvent: %v", err)
	}
	if len(target.rows) != 1 || target.rows[0][0] != "ev1" {
		t.Fatalf("rows = %+v", target.rows)
	}
	if err := e.HandleLedgerEvent(context.Background(), nil); !errors.Is(err, ErrNilEvent) {
		t.Fatalf("nil event: %v", err)
	}
}

func TestHandleLedgerEvent_AppendFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	e := New(&fakeAppender{err: boom}, quietLogger())
	err := e.HandleLedgerEvent(context.Background(), event(amqp.EarningRecorded))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped append error, got %v", err)
	}
}

func TestPrepare(t *testing.T) {
	target := &fakeAppender{}
	if err := New(target, quietLogger()).Prepare(context.Background()); err != nil || target.headers != 1 {
		t.Fatalf("Prepare: %v headers=%d", err, target.headers)
	}

	target = &fakeAppender{headerErr: errors.New("denied")}
	if err := New(target, quietLogger()).Prepare(context.Background()); err == nil {
		t.Fatal("expected header error")
	}
}
