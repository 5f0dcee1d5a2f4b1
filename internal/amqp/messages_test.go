package amqp

import (
	"testing"
	"time"
)

func TestBudgetSyncedMessageRoundTrip(t *testing.T) {
	updated := time.Date(2025, 8, 28, 12, 0, 0, 0, time.UTC)
	msg := NewBudgetSyncedMessage("user-1", "2025-08", updated)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := BudgetSyncedMessageFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Owner != "user-1" || got.Period != "2025-08" {
		t.Fatalf("key mismatch: %+v", got)
	}
	if !got.UpdatedAt.Equal(updated) {
		t.Fatalf("updatedAt = %v, want %v", got.UpdatedAt, updated)
	}
	if got.Timestamp.IsZero() {
		t.Fatal("timestamp should be set")
	}
}

func TestBudgetSyncedMessageFromJSONInvalid(t *testing.T) {
	if _, err := BudgetSyncedMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
