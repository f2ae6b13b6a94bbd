package backend

import (
	"context"

	"motoinvest/internal/amqp"
	"motoinvest/internal/core"
	"motoinvest/internal/log"
	"motoinvest/internal/store"
)

// Publisher sends ledger events to the broker.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// PublishingStore publishes a LedgerEvent after every acknowledged ledger
// write. Publish failures are logged and never fail the write.
type PublishingStore struct {
	store.Store
	publisher Publisher
	logger    *log.Logger
}

// WithEvents wraps s so ledger writes are published. A nil publisher returns
// s unchanged.
func WithEvents(s store.Store, publisher Publisher, logger *log.Logger) store.Store {
	if publisher == nil {
		return s
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &PublishingStore{Store: s, publisher: publisher, logger: logger.WithComponent(log.ComponentAMQP)}
}

// Ping forwards to the wrapped store.
func (p *PublishingStore) Ping(ctx context.Context) error {
	if pg, ok := p.Store.(Pinger); ok {
		return pg.Ping(ctx)
	}
	return nil
}

func (p *PublishingStore) AddEarning(ctx context.Context, e core.Earning) (core.Earning, error) {
	saved, err := p.Store.AddEarning(ctx, e)
	if err != nil {
		return saved, err
	}
	ev := amqp.NewLedgerEvent(amqp.EarningRecorded, saved.UserID, saved.ID)
	ev.Date = saved.Date.String()
	ev.AmountCents = saved.Value.Cents
	p.publish(ctx, ev)
	return saved, nil
}

func (p *PublishingStore) AddExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	saved, err := p.Store.AddExpense(ctx, e)
	if err != nil {
		return saved, err
	}
	ev := amqp.NewLedgerEvent(amqp.ExpenseRecorded, saved.UserID, saved.ID)
	ev.Date = saved.Date.String()
	ev.AmountCents = saved.Value.Cents
	ev.Label = saved.Description
	p.publish(ctx, ev)
	return saved, nil
}

func (p *PublishingStore) AddBill(ctx context.Context, b core.Bill) (core.Bill, error) {
	saved, err := p.Store.AddBill(ctx, b)
	if err != nil {
		return saved, err
	}
	p.publish(ctx, billEvent(amqp.BillCreated, saved))
	return saved, nil
}

func (p *PublishingStore) SetBillPaid(ctx context.Context, userID, billID string, paid bool) (core.Bill, error) {
	saved, err := p.Store.SetBillPaid(ctx, userID, billID, paid)
	if err != nil {
		return saved, err
	}
	p.publish(ctx, billEvent(amqp.BillToggled, saved))
	return saved, nil
}

func (p *PublishingStore) DeleteBill(ctx context.Context, userID, billID string) error {
	if err := p.Store.DeleteBill(ctx, userID, billID); err != nil {
		return err
	}
	p.publish(ctx, amqp.NewLedgerEvent(amqp.BillDeleted, userID, billID))
	return nil
}

func billEvent(kind amqp.EventKind, b core.Bill) *amqp.LedgerEvent {
	ev := amqp.NewLedgerEvent(kind, b.UserID, b.ID)
	ev.Date = b.DueDate.String()
	ev.AmountCents = b.Amount.Cents
	ev.Label = b.Name
	ev.IsPaid = b.IsPaid
	return ev
}

func (p *PublishingStore) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if err := p.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		p.logger.WarnContext(ctx, "Ledger event not published",
			log.FieldEventKind, ev.Kind,
			log.FieldUserID, ev.UserID,
			log.FieldError, err)
	}
}
