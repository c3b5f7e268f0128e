package comm

import (
	"time"
)

// Subjects the wallet services exchange events on.
const (
	SubjectCustomerUpdated = "wallet.customer.updated"
)

// CustomerUpdated is published by walletsvc whenever a customer's balance
// or profile changes. notifysvc reacts by bumping the registration ledger
// and dispatching silent pushes so devices re-fetch their passes.
type CustomerUpdated struct {
	CustomerID string    `json:"customer_id"`
	Balance    string    `json:"balance"`
	Reason     string    `json:"reason"` // credit, debit, profile
	OccurredAt time.Time `json:"occurred_at"`
}

type ServiceHeartbeat struct {
	ID        string    `json:"id"` // service id
	Timestamp time.Time `json:"timestamp"`
}

type ServiceShutdown struct {
	ID string `json:"id"` // service id
}
