package backend

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"motoinvest/internal/amqp"
	"motoinvest/internal/core"
	"motoinvest/internal/log"
	"motoinvest/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (r *recordingPublisher) PublishLedgerEvent(_ context.Context, ev *amqp.LedgerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func TestWithEvents_NilPublisher(t *testing.T) {
	mem := memory.New()
	if got := WithEvents(mem, nil, nil); got != mem {
		t.Fatal("nil publisher should return the store unchanged")
	}
}

func TestPublishingStore_PublishesAckedWrites(t *testing.T) {
	pub := &recordingPublisher{}
	s := WithEvents(memory.New(), pub, log.New(log.Config{Output: &bytes.Buffer{}}))
	ctx := context.Background()
	day := core.DateOf(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))

	if _, err := s.AddEarning(ctx, core.Earning{UserID: "u1", Value: core.Money{Cents: 15000}, Date: day}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddExpense(ctx, core.Expense{UserID: "u1", Value: core.Money{Cents: 2000}, Date: day, Description: "gasolina"}); err != nil {
		t.Fatal(err)
	}
	b, err := s.AddBill(ctx, core.Bill{UserID: "u1", Name: "Aluguel", Amount: core.Money{Cents: 60000}, DueDate: day})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetBillPaid(ctx, "u1", b.ID, true); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteBill(ctx, "u1", b.ID); err != nil {
		t.Fatal(err)
	}
	// Rejected writes publish nothing.
	if _, err := s.AddEarning(ctx, core.Earning{UserID: "u1", Date: day}); err == nil {
		t.Fatal("zero earning should be rejected")
	}
	// Reads and non-ledger writes are not published.
	_, _ = s.AddMessage(ctx, core.Message{UserID: "u1", Role: core.RoleUser, Text: "oi"})

	want := []amqp.EventKind{amqp.EarningRecorded, amqp.ExpenseRecorded, amqp.BillCreated, amqp.BillToggled, amqp.BillDeleted}
	if len(pub.events) != len(want) {
		t.Fatalf("published %d events, want %d", len(pub.events), len(want))
	}
	for i, k := range want {
		if pub.events[i].Kind != k {
			t.Errorf("event %d kind = %s, want %s", i, pub.events[i].Kind, k)
		}
	}
	if e := pub.events[1]; e.AmountCents != 2000 || e.Label != "gasolina" || e.Date != "2024-05-10" {
		t.Errorf("expense event = %+v", e)
	}
	if e := pub.events[3]; !e.IsPaid || e.EntityID != b.ID || e.Label != "Aluguel" {
		t.Errorf("toggle event = %+v", e)
	}
}

func TestPublishingStore_PublishFailureKeepsWrite(t *testing.T) {
	var buf bytes.Buffer
	pub := &recordingPublisher{err: errors.New("circuit open")}
	mem := memory.New()
	s := WithEvents(mem, pub, log.New(log.Config{Output: &buf}))

	_, err := s.AddBill(context.Background(), core.Bill{UserID: "u1", Name: "Luz", Amount: core.Money{Cents: 9000}, DueDate: core.NewDate(2024, 5, 20)})
	if err != nil {
		t.Fatalf("AddBill() error = %v, publish failures must not fail the write", err)
	}
	bills, _ := mem.ListBills(context.Background(), "u1")
	if len(bills) != 1 {
		t.Fatalf("bills = %d", len(bills))
	}
	if !bytes.Contains(buf.Bytes(), []byte("Ledger event not published")) {
		t.Fatalf("expected a warning, got: %s", buf.String())
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	f := NewFactory(log.New(log.Config{Output: &bytes.Buffer{}}))
	res, err := f.CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: t.TempDir()})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if res.Store == nil || res.Ping(context.Background()) != nil || res.Close() != nil {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without dsn", Config{Type: PostgresBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
