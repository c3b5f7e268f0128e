package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loyclub/loyalty-services/internal/comm"
	"github.com/loyclub/loyalty-services/internal/walletsvc/models"
	"github.com/loyclub/loyalty-services/internal/walletsvc/store"
)

// memRegistrationStore honors the RegistrationStore contract in memory:
// atomic upsert keyed on (device, serial, passType), soft deletes.
type memRegistrationStore struct {
	regs []*models.WalletRegistration
}

func (m *memRegistrationStore) Upsert(ctx context.Context, reg *models.WalletRegistration) (*models.WalletRegistration, error) {
	now := time.Now().UTC()
	for _, r := range m.regs {
		if r.DeviceLibraryIdentifier == reg.DeviceLibraryIdentifier &&
			r.SerialNumber == reg.SerialNumber &&
			r.PassTypeIdentifier == reg.PassTypeIdentifier {
			r.PushToken = reg.PushToken
			r.IsActive = true
			r.LastUpdated = now
			out := *r
			return &out, nil
		}
	}

	stored := *reg
	stored.ID = primitive.NewObjectID()
	stored.RegisteredAt = now
	stored.LastUpdated = now
	stored.IsActive = true
	m.regs = append(m.regs, &stored)
	out := stored
	return &out, nil
}

func (m *memRegistrationStore) ListActiveByDevice(ctx context.Context, deviceLibraryID, passTypeID string) ([]*models.WalletRegistration, error) {
	var out []*models.WalletRegistration
	for _, r := range m.regs {
		if r.IsActive && r.DeviceLibraryIdentifier == deviceLibraryID && r.PassTypeIdentifier == passTypeID {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memRegistrationStore) FindActiveBySerial(ctx context.Context, serialNumber, passTypeID string) (*models.WalletRegistration, error) {
	for _, r := range m.regs {
		if r.IsActive && r.SerialNumber == serialNumber && r.PassTypeIdentifier == passTypeID {
			c := *r
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memRegistrationStore) Deactivate(ctx context.Context, deviceLibraryID, serialNumber, passTypeID string) (bool, error) {
	modified := false
	for _, r := range m.regs {
		if r.IsActive && r.DeviceLibraryIdentifier == deviceLibraryID &&
			r.SerialNumber == serialNumber && r.PassTypeIdentifier == passTypeID {
			r.IsActive = false
			r.LastUpdated = time.Now().UTC()
			modified = true
		}
	}
	return modified, nil
}

func (m *memRegistrationStore) MarkUpdated(ctx context.Context, customerID primitive.ObjectID) error {
	now := time.Now().UTC()
	for _, r := range m.regs {
		if r.IsActive && r.CustomerID == customerID {
			r.LastUpdated = now
		}
	}
	return nil
}

func (m *memRegistrationStore) PushTokens(ctx context.Context, customerID primitive.ObjectID) ([]string, error) {
	var tokens []string
	for _, r := range m.regs {
		if r.IsActive && r.CustomerID == customerID {
			tokens = append(tokens, r.PushToken)
		}
	}
	return tokens, nil
}

// memCustomerStore keeps customers in a map.
type memCustomerStore struct {
	customers map[primitive.ObjectID]*models.Customer
}

func newMemCustomerStore() *memCustomerStore {
	return &memCustomerStore{customers: make(map[primitive.ObjectID]*models.Customer)}
}

func (m *memCustomerStore) Create(ctx context.Context, c *models.Customer) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	stored := *c
	stored.ID = id
	m.customers[id] = &stored
	return id, nil
}

func (m *memCustomerStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (m *memCustomerStore) FindByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	for _, c := range m.customers {
		if c.Phone == phone {
			out := *c
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memCustomerStore) FindByCardNumber(ctx context.Context, cardNumber string) (*models.Customer, error) {
	for _, c := range m.customers {
		if c.CardNumber == cardNumber {
			out := *c
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memCustomerStore) List(ctx context.Context, limit, offset int64) ([]*models.Customer, error) {
	var out []*models.Customer
	for _, c := range m.customers {
		cc := *c
		out = append(out, &cc)
	}
	return out, nil
}

func (m *memCustomerStore) UpdateBalance(ctx context.Context, id primitive.ObjectID, balance string) error {
	c, ok := m.customers[id]
	if !ok {
		return store.ErrNotFound
	}
	c.Balance = balance
	return nil
}

func (m *memCustomerStore) SetAppleCard(ctx context.Context, id primitive.ObjectID, card models.AppleCard) error {
	c, ok := m.customers[id]
	if !ok {
		return store.ErrNotFound
	}
	c.Wallet.Apple = &card
	return nil
}

// memTransactionStore appends ledger entries to a slice.
type memTransactionStore struct {
	txns []*models.Transaction
}

func (m *memTransactionStore) Insert(ctx context.Context, t *models.Transaction) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	stored := *t
	stored.ID = id
	m.txns = append(m.txns, &stored)
	return id, nil
}

func (m *memTransactionStore) ListByCustomer(ctx context.Context, customerID primitive.ObjectID, limit int64) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for _, t := range m.txns {
		if t.CustomerID == customerID {
			tt := *t
			out = append(out, &tt)
		}
	}
	return out, nil
}

// capturePublisher records published events.
type capturePublisher struct {
	events []comm.CustomerUpdated
}

func (p *capturePublisher) PublishCustomerUpdated(ev comm.CustomerUpdated) error {
	p.events = append(p.events, ev)
	return nil
}
