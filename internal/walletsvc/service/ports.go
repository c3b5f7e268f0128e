package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loyclub/loyalty-services/internal/comm"
	"github.com/loyclub/loyalty-services/internal/walletsvc/models"
)

// The services depend on these ports instead of the concrete mongo stores
// so tests can stand in memory-backed fakes.

type CustomerStore interface {
	Create(ctx context.Context, c *models.Customer) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error)
	FindByPhone(ctx context.Context, phone string) (*models.Customer, error)
	FindByCardNumber(ctx context.Context, cardNumber string) (*models.Customer, error)
	List(ctx context.Context, limit, offset int64) ([]*models.Customer, error)
	UpdateBalance(ctx context.Context, id primitive.ObjectID, balance string) error
	SetAppleCard(ctx context.Context, id primitive.ObjectID, card models.AppleCard) error
}

type TransactionStore interface {
	Insert(ctx context.Context, t *models.Transaction) (primitive.ObjectID, error)
	ListByCustomer(ctx context.Context, customerID primitive.ObjectID, limit int64) ([]*models.Transaction, error)
}

type RegistrationStore interface {
	Upsert(ctx context.Context, reg *models.WalletRegistration) (*models.WalletRegistration, error)
	ListActiveByDevice(ctx context.Context, deviceLibraryID, passTypeID string) ([]*models.WalletRegistration, error)
	FindActiveBySerial(ctx context.Context, serialNumber, passTypeID string) (*models.WalletRegistration, error)
	Deactivate(ctx context.Context, deviceLibraryID, serialNumber, passTypeID string) (bool, error)
	MarkUpdated(ctx context.Context, customerID primitive.ObjectID) error
	PushTokens(ctx context.Context, customerID primitive.ObjectID) ([]string, error)
}

// EventPublisher pushes customer-updated events onto the bus. Publishing
// is best-effort; a failed publish never fails the balance mutation.
type EventPublisher interface {
	PublishCustomerUpdated(ev comm.CustomerUpdated) error
}
