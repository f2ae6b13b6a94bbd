// Package exporter copies ledger events into a spreadsheet, one row per event.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"motoinvest/internal/amqp"
	"motoinvest/internal/core"
	"motoinvest/internal/log"
)

// Appender stores rows in the export target.
type Appender interface {
	AppendRows(ctx context.Context, rows [][]any) (string, error)
}

// HeaderWriter is implemented by targets that keep a header row.
type HeaderWriter interface {
	EnsureHeader(ctx context.Context) error
}

var ErrNilEvent = errors.New("nil ledger event")

// Exporter turns ledger events into rows for an Appender
type Exporter struct {
	target Appender
	logger *log.Logger
}

func New(target Appender, logger *log.Logger) *Exporter {
	return &Exporter{target: target, logger: logger.WithComponent(log.ComponentExporter)}
}

// Prepare writes the header row when the target supports one.
func (e *Exporter) Prepare(ctx context.Context) error {
	hw, ok := e.target.(HeaderWriter)
	if !ok {
		return nil
	}
	if err := hw.EnsureHeader(ctx); err != nil {
		return fmt.Errorf("prepare export target: %w", err)
	}
	return nil
}

// HandleLedgerEvent appends one row for ev. A returned error requeues the
// event at the broker.
func (e *Exporter) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	if ev == nil {
		return ErrNilEvent
	}
	e.logger.InfoContext(ctx, "Exporting ledger event",
		"event_id", ev.ID,
		"kind", ev.Kind,
		log.FieldUserID, ev.UserID)

	ref, err := e.target.AppendRows(ctx, [][]any{Row(ev)})
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to export ledger event", "event_id", ev.ID, "error", err)
		return fmt.Errorf("export %s %s: %w", ev.Kind, ev.EntityID, err)
	}

	e.logger.InfoContext(ctx, "Ledger event exported",
		"event_id", ev.ID,
		"entity_id", ev.EntityID,
		"range", ref)
	return nil
}

// Row lays out ev in the column order of the sheet header. Amounts are
// reais with a dot separator; deletions carry no amount.
func Row(ev *amqp.LedgerEvent) []any {
	amount := ""
	if ev.Kind != amqp.BillDeleted {
		amount = strconv.FormatFloat(core.Money{Cents: ev.AmountCents}.Reais(), 'f', 2, 64)
	}
	return []any{
		ev.ID,
		string(ev.Kind),
		ev.UserID,
		ev.EntityID,
		ev.Date,
		amount,
		ev.Label,
		ev.IsPaid,
		ev.Timestamp.UTC().Format(time.RFC3339),
	}
}
