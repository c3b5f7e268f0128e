package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AppleCard records the wallet pass instance issued to a customer. The
// serial number is minted on first issuance and reused on every
// regeneration.
type AppleCard struct {
	PassTypeID   string    `bson:"pass_type_id" json:"passTypeId"`
	SerialNumber string    `bson:"serial_number" json:"serialNumber"`
	LastUpdated  time.Time `bson:"last_updated" json:"lastUpdated"`
}

type GoogleCard struct {
	ObjectID    string    `bson:"object_id" json:"objectId"`
	LastUpdated time.Time `bson:"last_updated" json:"lastUpdated"`
}

type WalletCards struct {
	Apple  *AppleCard  `bson:"apple,omitempty" json:"appleWallet,omitempty"`
	Google *GoogleCard `bson:"google,omitempty" json:"googleWallet,omitempty"`
}

type CustomerMetadata struct {
	RegistrationSource string    `bson:"registration_source" json:"registrationSource"` // web, pos, admin
	LastActivity       time.Time `bson:"last_activity" json:"lastActivity"`
	TotalTransactions  int64     `bson:"total_transactions" json:"totalTransactions"`
	TotalSpent         string    `bson:"total_spent" json:"totalSpent"`
}

// Customer represents the customers collection.
type Customer struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Balance    string             `bson:"balance" json:"balance"` // decimal string, arithmetic via shopspring/decimal
	CardNumber string             `bson:"card_number" json:"cardNumber"`
	IsActive   bool               `bson:"is_active" json:"isActive"`
	Wallet     WalletCards        `bson:"wallet_cards" json:"walletCards"`
	Metadata   CustomerMetadata   `bson:"metadata" json:"metadata"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}
