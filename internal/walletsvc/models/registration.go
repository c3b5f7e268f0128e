package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WalletRegistration is one row of the device registration ledger: a
// (device, pass) pairing subscribed to push updates. Unregistering flips
// IsActive instead of deleting, so history is retained. The triple
// (deviceLibraryIdentifier, serialNumber, passTypeIdentifier) is unique.
type WalletRegistration struct {
	ID                      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerID              primitive.ObjectID `bson:"customer_id" json:"customerId"`
	SerialNumber            string             `bson:"serial_number" json:"serialNumber"`
	DeviceLibraryIdentifier string             `bson:"device_library_identifier" json:"deviceLibraryIdentifier"`
	PushToken               string             `bson:"push_token" json:"pushToken"`
	PassTypeIdentifier      string             `bson:"pass_type_identifier" json:"passTypeIdentifier"`
	RegisteredAt            time.Time          `bson:"registered_at" json:"registeredAt"`
	LastUpdated             time.Time          `bson:"last_updated" json:"lastUpdated"`
	IsActive                bool               `bson:"is_active" json:"isActive"`
}
