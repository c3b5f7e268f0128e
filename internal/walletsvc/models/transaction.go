package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction is one ledger entry against a customer balance. Amounts are
// decimal strings; balanceBefore/balanceAfter capture the arithmetic for
// audit.
type Transaction struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerID    primitive.ObjectID `bson:"customer_id" json:"customerId"`
	Type          string             `bson:"type" json:"type"` // credit, debit
	Amount        string             `bson:"amount" json:"amount"`
	BalanceBefore string             `bson:"balance_before" json:"balanceBefore"`
	BalanceAfter  string             `bson:"balance_after" json:"balanceAfter"`
	Description   string             `bson:"description" json:"description"`
	Source        string             `bson:"source" json:"source"` // pos, admin, bonus, refund, purchase
	Status        string             `bson:"status" json:"status"` // completed, failed
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
}
