package amqp

import (
	"encoding/json"
	"time"
)

// LedgerChangedMessage announces that an owner's partition was
// rewritten. It carries only the owner key; the snapshot worker loads
// the current partition from the database.
type LedgerChangedMessage struct {
	Owner     string    `json:"owner"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(owner string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Owner:     owner,
		Timestamp: time.Now(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
