package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventKind names an acknowledged ledger write.
type EventKind string

const (
	EarningRecorded EventKind = "earning.recorded"
	ExpenseRecorded EventKind = "expense.recorded"
	BillCreated     EventKind = "bill.created"
	BillToggled     EventKind = "bill.toggled"
	BillDeleted     EventKind = "bill.deleted"
)

func (k EventKind) Valid() bool {
	switch k {
	case EarningRecorded, ExpenseRecorded, BillCreated, BillToggled, BillDeleted:
		return true
	}
	return false
}

// LedgerEvent is published after the store acknowledges a write. It carries
// the full row so consumers never read back from the store.
type LedgerEvent struct {
	ID          string    `json:"id"`
	Kind        EventKind `json:"kind"`
	UserID      string    `json:"user_id"`
	EntityID    string    `json:"entity_id"`
	Date        string    `json:"date,omitempty"` // YYYY-MM-DD
	AmountCents int64     `json:"amount_cents,omitempty"`
	Label       string    `json:"label,omitempty"` // bill name or expense description
	IsPaid      bool      `json:"is_paid,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewLedgerEvent stamps a fresh event id and time.
func NewLedgerEvent(kind EventKind, userID, entityID string) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		UserID:    userID,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and validates a message body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Kind.Valid() {
		return nil, fmt.Errorf("unknown event kind %q", msg.Kind)
	}
	if msg.UserID == "" || msg.EntityID == "" {
		return nil, fmt.Errorf("event %s missing user or entity id", msg.ID)
	}
	return &msg, nil
}
