package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// LedgerSavedMessage announces that one or more tables were written to the
// primary store. It carries only what a consumer needs to decide what to
// copy; the rows are read back from the store itself.
type LedgerSavedMessage struct {
	Tables       []string  `json:"tables"`
	Accounts     int       `json:"accounts"`
	Categories   int       `json:"categories"`
	Transactions int       `json:"transactions"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewLedgerSavedMessage stamps a message with the current time.
func NewLedgerSavedMessage(tables []string, accounts, categories, transactions int) *LedgerSavedMessage {
	return &LedgerSavedMessage{
		Tables:       append([]string(nil), tables...),
		Accounts:     accounts,
		Categories:   categories,
		Transactions: transactions,
		Timestamp:    time.Now(),
	}
}

func (m *LedgerSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerSavedMessageFromJSON(data []byte) (*LedgerSavedMessage, error) {
	var msg LedgerSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if len(msg.Tables) == 0 {
		return nil, fmt.Errorf("ledger saved message names no tables")
	}
	return &msg, nil
}
