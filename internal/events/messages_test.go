package events

import (
	"testing"
	"time"
)

func TestTransactionEventRoundTrip(t *testing.T) {
	evt := NewTransactionEvent(42)
	if evt.ID != 42 {
		t.Errorf("ID = %d, want 42", evt.ID)
	}
	if evt.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}

	body, err := evt.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}

	decoded, err := TransactionEventFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	if decoded.ID != 42 {
		t.Errorf("decoded ID = %d, want 42", decoded.ID)
	}
	if !decoded.Timestamp.Truncate(time.Second).Equal(evt.Timestamp.Truncate(time.Second)) {
		t.Errorf("timestamp drifted: %v vs %v", decoded.Timestamp, evt.Timestamp)
	}
}

func TestTransactionEventFromJSONInvalid(t *testing.T) {
	if _, err := TransactionEventFromJSON([]byte("not json")); err == nil {
		t.Error("invalid JSON should fail")
	}
}
