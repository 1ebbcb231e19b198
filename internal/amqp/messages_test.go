package amqp

import "testing"

func TestExpenseGeneratedEventJSON(t *testing.T) {
	ev := NewExpenseGeneratedEvent(7, 42, "2025-08-15", 5500)
	if ev.MessageID == "" {
		t.Fatal("expected a message id")
	}

	body, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	got, err := ExpenseGeneratedEventFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if got.TemplateID != 7 || got.ExpenseID != 42 || got.Date != "2025-08-15" || got.AmountCents != 5500 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.MessageID != ev.MessageID {
		t.Errorf("message id changed: %s != %s", got.MessageID, ev.MessageID)
	}
}

func TestExpenseGeneratedEventFromJSON_Invalid(t *testing.T) {
	if _, err := ExpenseGeneratedEventFromJSON([]byte("not json")); err == nil {
		t.Error("expected error for invalid payload")
	}
}
