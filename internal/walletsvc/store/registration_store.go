package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/loyclub/loyalty-services/internal/walletsvc/models"
)

type RegistrationStore struct {
	col *mongo.Collection
}

func NewRegistrationStore(db *mongo.Database) *RegistrationStore {
	return &RegistrationStore{col: db.Collection("wallet_devices")}
}

// Upsert registers a device for a pass. An existing registration for the
// same (device, serial, passType) key gets its push token rotated and is
// reactivated; otherwise a new active row is inserted. Atomic, so retries
// are idempotent.
func (s *RegistrationStore) Upsert(ctx context.Context, reg *models.WalletRegistration) (*models.WalletRegistration, error) {
	now := time.Now().UTC()

	filter := bson.M{
		"device_library_identifier": reg.DeviceLibraryIdentifier,
		"serial_number":             reg.SerialNumber,
		"pass_type_identifier":      reg.PassTypeIdentifier,
	}
	update := bson.M{
		"$set": bson.M{
			"push_token":   reg.PushToken,
			"is_active":    true,
			"last_updated": now,
		},
		"$setOnInsert": bson.M{
			"customer_id":               reg.CustomerID,
			"device_library_identifier": reg.DeviceLibraryIdentifier,
			"serial_number":             reg.SerialNumber,
			"pass_type_identifier":      reg.PassTypeIdentifier,
			"registered_at":             now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	out := &models.WalletRegistration{}
	if err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveByDevice returns every active registration for a device and
// pass type. Since-filtering happens in the service layer.
func (s *RegistrationStore) ListActiveByDevice(ctx context.Context, deviceLibraryID, passTypeID string) ([]*models.WalletRegistration, error) {
	cur, err := s.col.Find(ctx, bson.M{
		"device_library_identifier": deviceLibraryID,
		"pass_type_identifier":      passTypeID,
		"is_active":                 true,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var regs []*models.WalletRegistration
	if err := cur.All(ctx, &regs); err != nil {
		return nil, err
	}
	return regs, nil
}

// FindActiveBySerial looks up the active registration for a pass instance.
func (s *RegistrationStore) FindActiveBySerial(ctx context.Context, serialNumber, passTypeID string) (*models.WalletRegistration, error) {
	reg := &models.WalletRegistration{}
	err := s.col.FindOne(ctx, bson.M{
		"serial_number":        serialNumber,
		"pass_type_identifier": passTypeID,
		"is_active":            true,
	}).Decode(reg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Deactivate soft-deletes matching active registrations and reports
// whether anything was modified.
func (s *RegistrationStore) Deactivate(ctx context.Context, deviceLibraryID, serialNumber, passTypeID string) (bool, error) {
	res, err := s.col.UpdateMany(ctx,
		bson.M{
			"device_library_identifier": deviceLibraryID,
			"serial_number":             serialNumber,
			"pass_type_identifier":      passTypeID,
			"is_active":                 true,
		},
		bson.M{"$set": bson.M{
			"is_active":    false,
			"last_updated": time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// MarkUpdated bumps last_updated on every active registration of a
// customer, flagging all their passes as needing refresh.
func (s *RegistrationStore) MarkUpdated(ctx context.Context, customerID primitive.ObjectID) error {
	_, err := s.col.UpdateMany(ctx,
		bson.M{"customer_id": customerID, "is_active": true},
		bson.M{"$set": bson.M{"last_updated": time.Now().UTC()}},
	)
	return err
}

// PushTokens returns the push tokens of a customer's active devices.
func (s *RegistrationStore) PushTokens(ctx context.Context, customerID primitive.ObjectID) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"push_token": 1})

	cur, err := s.col.Find(ctx, bson.M{"customer_id": customerID, "is_active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var regs []*models.WalletRegistration
	if err := cur.All(ctx, &regs); err != nil {
		return nil, err
	}

	tokens := make([]string, 0, len(regs))
	for _, reg := range regs {
		tokens = append(tokens, reg.PushToken)
	}
	return tokens, nil
}
