package domain

import "time"

// Event types
const (
	EventTypePaymentRecorded = "payment.recorded"
	EventTypeCreditSeeded    = "credit.seeded"
)

// Aggregate types
const (
	AggregateTypeTransaction   = "transaction"
	AggregateTypeCreditAccount = "credit_account"
)

// OutboxEvent represents an event written in the same database transaction
// as the state change it describes, to be published asynchronously.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// PaymentRecordedEvent payload
type PaymentRecordedEvent struct {
	TransactionID string `json:"transaction_id"`
	UnitID        string `json:"unit_id"`
	Amount        int64  `json:"amount"`
	BillsAffected int    `json:"bills_affected"`
	CreditUsed    int64  `json:"credit_used"`
	CreditAdded   int64  `json:"credit_added"`
	PaymentDate   string `json:"payment_date"`
}

// CreditSeededEvent payload
type CreditSeededEvent struct {
	UnitID  string `json:"unit_id"`
	Amount  int64  `json:"amount"`
	EntryID string `json:"entry_id"`
}
