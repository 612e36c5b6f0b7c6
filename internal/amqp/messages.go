package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// LedgerEventMessage notifies the export worker that a transaction
// changed. It carries only the id and action; the worker fetches the
// current row from storage.
type LedgerEventMessage struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEventMessage creates an event for a transaction id.
func NewLedgerEventMessage(id int64, action string) *LedgerEventMessage {
	return &LedgerEventMessage{
		ID:        id,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// Validate rejects events with unknown actions or missing ids.
func (m *LedgerEventMessage) Validate() error {
	switch m.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return fmt.Errorf("unknown ledger event action %q", m.Action)
	}
	if m.ID <= 0 {
		return fmt.Errorf("invalid ledger event id %d", m.ID)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and validates a message from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
