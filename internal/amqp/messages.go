package amqp

import (
	"encoding/json"
	"time"
)

// BudgetSyncedMessage announces that the remote store accepted a push for
// an (owner, period) key. Consumers interested in the record content fetch
// it from the sync API; the event stays small.
type BudgetSyncedMessage struct {
	Owner     string    `json:"owner"`
	Period    string    `json:"period"`
	UpdatedAt time.Time `json:"updatedAt"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBudgetSyncedMessage(owner, period string, updatedAt time.Time) *BudgetSyncedMessage {
	return &BudgetSyncedMessage{
		Owner:     owner,
		Period:    period,
		UpdatedAt: updatedAt,
		Timestamp: time.Now(),
	}
}

func (m *BudgetSyncedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetSyncedMessageFromJSON(data []byte) (*BudgetSyncedMessage, error) {
	var msg BudgetSyncedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
