package events

import (
	"encoding/json"
	"time"
)

// TransactionEvent is a lightweight notification that a ledger row was
// appended. It carries only the row id; consumers fetch the full row
// from the store so the ledger stays the single source of truth.
type TransactionEvent struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionEvent creates an event for the given row id.
func NewTransactionEvent(id int64) *TransactionEvent {
	return &TransactionEvent{
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON creates an event from JSON bytes
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
