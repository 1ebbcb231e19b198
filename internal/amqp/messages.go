package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExpenseGeneratedEvent announces a ledger entry created from a recurring
// template. Downstream consumers (notifier, document renderer) fetch any
// further detail from the API.
type ExpenseGeneratedEvent struct {
	MessageID   string    `json:"messageId"`
	TemplateID  int64     `json:"templateId"`
	ExpenseID   int64     `json:"expenseId"`
	Date        string    `json:"date"` // YYYY-MM-DD
	AmountCents int64     `json:"amountCents"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewExpenseGeneratedEvent creates an event with a fresh message id.
func NewExpenseGeneratedEvent(templateID, expenseID int64, date string, amountCents int64) *ExpenseGeneratedEvent {
	return &ExpenseGeneratedEvent{
		MessageID:   uuid.NewString(),
		TemplateID:  templateID,
		ExpenseID:   expenseID,
		Date:        date,
		AmountCents: amountCents,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *ExpenseGeneratedEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseGeneratedEventFromJSON creates an event from JSON bytes
func ExpenseGeneratedEventFromJSON(data []byte) (*ExpenseGeneratedEvent, error) {
	var ev ExpenseGeneratedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
