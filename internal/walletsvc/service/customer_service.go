package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loyclub/loyalty-services/internal/comm"
	"github.com/loyclub/loyalty-services/internal/walletsvc/models"
	"github.com/loyclub/loyalty-services/internal/walletsvc/store"
)

type CustomerService struct {
	customers    CustomerStore
	transactions TransactionStore
	events       EventPublisher
}

func NewCustomerService(customers CustomerStore, transactions TransactionStore, events EventPublisher) *CustomerService {
	return &CustomerService{
		customers:    customers,
		transactions: transactions,
		events:       events,
	}
}

// Create registers a new customer with a zero balance and a freshly
// minted 12-digit card number.
func (s *CustomerService) Create(ctx context.Context, name, phone, source string) (*models.Customer, error) {
	if phone != "" {
		existing, err := s.customers.FindByPhone(ctx, phone)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, ErrDuplicatePhone
		}
	}

	if source == "" {
		source = "web"
	}

	cardNumber, err := s.mintCardNumber(ctx)
	if err != nil {
		return nil, err
	}

	customer := &models.Customer{
		Name:       name,
		Phone:      phone,
		Balance:    "0",
		CardNumber: cardNumber,
		IsActive:   true,
		Metadata: models.CustomerMetadata{
			RegistrationSource: source,
			LastActivity:       time.Now().UTC(),
			TotalSpent:         "0",
		},
	}

	id, err := s.customers.Create(ctx, customer)
	if err != nil {
		return nil, err
	}
	customer.ID = id

	log.Infof("customer created %s card %s source %s", id.Hex(), cardNumber, source)
	return customer, nil
}

func (s *CustomerService) Get(ctx context.Context, id string) (*models.Customer, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrCustomerNotFound
	}

	customer, err := s.customers.GetByID(ctx, oid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrCustomerNotFound
	}
	return customer, err
}

func (s *CustomerService) List(ctx context.Context, limit, offset int64) ([]*models.Customer, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.customers.List(ctx, limit, offset)
}

func (s *CustomerService) Transactions(ctx context.Context, customerID string, limit int64) ([]*models.Transaction, error) {
	oid, err := primitive.ObjectIDFromHex(customerID)
	if err != nil {
		return nil, ErrCustomerNotFound
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.transactions.ListByCustomer(ctx, oid, limit)
}

// Credit adds to a customer balance and records the ledger entry.
func (s *CustomerService) Credit(ctx context.Context, customerID string, amount decimal.Decimal, description, source string) (*models.Customer, *models.Transaction, error) {
	return s.applyBalance(ctx, customerID, amount, "credit", description, source)
}

// Debit subtracts from a customer balance, rejecting overdrafts.
func (s *CustomerService) Debit(ctx context.Context, customerID string, amount decimal.Decimal, description, source string) (*models.Customer, *models.Transaction, error) {
	return s.applyBalance(ctx, customerID, amount, "debit", description, source)
}

func (s *CustomerService) applyBalance(ctx context.Context, customerID string, amount decimal.Decimal, op, description, source string) (*models.Customer, *models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, nil, ErrInvalidAmount
	}

	customer, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, nil, err
	}

	before, err := decimal.NewFromString(customer.Balance)
	if err != nil {
		return nil, nil, fmt.Errorf("corrupt balance for customer %s: %w", customerID, err)
	}

	var after decimal.Decimal
	if op == "credit" {
		after = before.Add(amount)
	} else {
		after = before.Sub(amount)
		if after.IsNegative() {
			return nil, nil, ErrInsufficientBalance
		}
	}

	if err := s.customers.UpdateBalance(ctx, customer.ID, after.StringFixed(2)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrCustomerNotFound
		}
		return nil, nil, err
	}
	customer.Balance = after.StringFixed(2)

	txn := &models.Transaction{
		CustomerID:    customer.ID,
		Type:          op,
		Amount:        amount.StringFixed(2),
		BalanceBefore: before.StringFixed(2),
		BalanceAfter:  after.StringFixed(2),
		Description:   description,
		Source:        source,
		Status:        "completed",
	}
	if txn.ID, err = s.transactions.Insert(ctx, txn); err != nil {
		return nil, nil, err
	}

	s.publishUpdated(customer, op)

	log.Infof("%s of %s applied to customer %s, balance %s -> %s",
		op, amount.StringFixed(2), customerID, txn.BalanceBefore, txn.BalanceAfter)
	return customer, txn, nil
}

// publishUpdated is best-effort; a down event bus must never fail the
// balance mutation that triggered it.
func (s *CustomerService) publishUpdated(customer *models.Customer, reason string) {
	if s.events == nil {
		return
	}

	err := s.events.PublishCustomerUpdated(comm.CustomerUpdated{
		CustomerID: customer.ID.Hex(),
		Balance:    customer.Balance,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		log.Errorf("unable to publish customer updated event for %s: %v", customer.ID.Hex(), err)
	}
}

func (s *CustomerService) mintCardNumber(ctx context.Context) (string, error) {
	for i := 0; i < 10; i++ {
		cardNumber := fmt.Sprintf("%012d", rand.Int63n(1_000_000_000_000))
		_, err := s.customers.FindByCardNumber(ctx, cardNumber)
		if errors.Is(err, store.ErrNotFound) {
			return cardNumber, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("unable to mint a unique card number")
}
