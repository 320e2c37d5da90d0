package amqp

import (
	"encoding/json"
	"time"
)

// DueReminderMessage tells the reminder worker that a scheduled
// transaction is due or overdue. It carries enough to render a
// notification without another lookup; the worker still re-reads the
// transaction before recording anything.
type DueReminderMessage struct {
	TransactionID int64     `json:"transaction_id"`
	Title         string    `json:"title"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	DueDate       time.Time `json:"due_date"`
	Overdue       bool      `json:"overdue"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewDueReminderMessage(id int64, title string, amount float64, currencyCode string, dueDate time.Time, overdue bool) *DueReminderMessage {
	return &DueReminderMessage{
		TransactionID: id,
		Title:         title,
		Amount:        amount,
		Currency:      currencyCode,
		DueDate:       dueDate,
		Overdue:       overdue,
		Timestamp:     time.Now(),
	}
}

func (m *DueReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DueReminderMessageFromJSON(data []byte) (*DueReminderMessage, error) {
	var msg DueReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
