package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loyclub/loyalty-services/internal/walletsvc/models"
	"github.com/loyclub/loyalty-services/internal/walletsvc/store"
)

// RegistrationService is the device registration ledger: which devices
// are subscribed to push updates for which pass serials.
type RegistrationService struct {
	registrations RegistrationStore
}

func NewRegistrationService(registrations RegistrationStore) *RegistrationService {
	return &RegistrationService{registrations: registrations}
}

// UpdatablePasses is the payload of the incremental-poll endpoint.
type UpdatablePasses struct {
	SerialNumbers []string `json:"serialNumbers"`
	LastUpdated   string   `json:"lastUpdated"`
}

// Register upserts a (device, serial, passType) registration. Re-register
// with a new push token rotates the token on the existing row; retries
// are idempotent.
func (s *RegistrationService) Register(ctx context.Context, customerID primitive.ObjectID, serialNumber, deviceLibraryID, pushToken, passTypeID string) (*models.WalletRegistration, error) {
	reg, err := s.registrations.Upsert(ctx, &models.WalletRegistration{
		CustomerID:              customerID,
		SerialNumber:            serialNumber,
		DeviceLibraryIdentifier: deviceLibraryID,
		PushToken:               pushToken,
		PassTypeIdentifier:      passTypeID,
	})
	if err != nil {
		return nil, err
	}

	log.Infof("device %.8s... registered for serial %s", deviceLibraryID, serialNumber)
	return reg, nil
}

// FindUpdatable lists the serials of active registrations whose
// lastUpdated exceeds since (all of them when since is zero). An empty
// result is the no-content outcome, not an error.
func (s *RegistrationService) FindUpdatable(ctx context.Context, deviceLibraryID, passTypeID string, since time.Time) (*UpdatablePasses, error) {
	regs, err := s.registrations.ListActiveByDevice(ctx, deviceLibraryID, passTypeID)
	if err != nil {
		return nil, err
	}

	out := &UpdatablePasses{SerialNumbers: []string{}}
	var latest time.Time
	for _, reg := range regs {
		if !since.IsZero() && !reg.LastUpdated.After(since) {
			continue
		}
		out.SerialNumbers = append(out.SerialNumbers, reg.SerialNumber)
		if reg.LastUpdated.After(latest) {
			latest = reg.LastUpdated
		}
	}

	if !latest.IsZero() {
		out.LastUpdated = formatSince(latest)
	}
	return out, nil
}

// Unregister soft-deletes a registration; ErrDeviceNotRegistered when
// nothing matched.
func (s *RegistrationService) Unregister(ctx context.Context, deviceLibraryID, serialNumber, passTypeID string) error {
	modified, err := s.registrations.Deactivate(ctx, deviceLibraryID, serialNumber, passTypeID)
	if err != nil {
		return err
	}
	if !modified {
		return ErrDeviceNotRegistered
	}

	log.Infof("device %.8s... unregistered from serial %s", deviceLibraryID, serialNumber)
	return nil
}

// FindBySerial resolves the active registration backing a pass fetch.
func (s *RegistrationService) FindBySerial(ctx context.Context, serialNumber, passTypeID string) (*models.WalletRegistration, error) {
	reg, err := s.registrations.FindActiveBySerial(ctx, serialNumber, passTypeID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrDeviceNotRegistered
	}
	return reg, err
}

// MarkUpdated flags every active registration of a customer as changed.
// Called whenever the customer's balance or level changes.
func (s *RegistrationService) MarkUpdated(ctx context.Context, customerID primitive.ObjectID) error {
	return s.registrations.MarkUpdated(ctx, customerID)
}

// PushTokens feeds the dispatcher.
func (s *RegistrationService) PushTokens(ctx context.Context, customerID primitive.ObjectID) ([]string, error) {
	return s.registrations.PushTokens(ctx, customerID)
}

// ParseSince converts the passesUpdatedSince query value (unix
// milliseconds) into a time; zero when absent or malformed.
func ParseSince(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func formatSince(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
