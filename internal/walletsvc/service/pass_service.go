package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/loyclub/loyalty-services/internal/passkit"
	"github.com/loyclub/loyalty-services/internal/walletsvc/models"
)

// ArchiveGenerator is the passkit pipeline surface the service needs.
type ArchiveGenerator interface {
	Generate(ctx context.Context, snap passkit.Snapshot) ([]byte, error)
	Builder() *passkit.Builder
}

// PassService turns customer records into signed .pkpass archives.
type PassService struct {
	generator  ArchiveGenerator
	customers  CustomerStore
	passTypeID string
}

func NewPassService(generator ArchiveGenerator, customers CustomerStore, passTypeID string) *PassService {
	return &PassService{
		generator:  generator,
		customers:  customers,
		passTypeID: passTypeID,
	}
}

// IssueApple generates the current archive for a customer. The serial
// number is minted once, on first issuance, and persisted on the customer
// record so every regeneration reuses it.
func (s *PassService) IssueApple(ctx context.Context, customer *models.Customer) ([]byte, string, error) {
	serial, err := s.resolveSerial(ctx, customer)
	if err != nil {
		return nil, "", err
	}

	balance, err := decimal.NewFromString(customer.Balance)
	if err != nil {
		balance = decimal.Zero
		log.Warnf("corrupt balance %q for customer %s, rendering zero", customer.Balance, customer.ID.Hex())
	}

	archive, err := s.generator.Generate(ctx, passkit.Snapshot{
		CustomerID:   customer.ID.Hex(),
		Name:         customer.Name,
		Balance:      balance,
		SerialNumber: serial,
	})
	if err != nil {
		return nil, "", err
	}

	return archive, serial, nil
}

func (s *PassService) resolveSerial(ctx context.Context, customer *models.Customer) (string, error) {
	if card := customer.Wallet.Apple; card != nil && card.SerialNumber != "" {
		return card.SerialNumber, nil
	}

	serial := s.generator.Builder().MintSerial(customer.ID.Hex())
	card := models.AppleCard{
		PassTypeID:   s.passTypeID,
		SerialNumber: serial,
		LastUpdated:  time.Now().UTC(),
	}
	if err := s.customers.SetAppleCard(ctx, customer.ID, card); err != nil {
		return "", err
	}
	customer.Wallet.Apple = &card

	log.Infof("minted pass serial %s for customer %s", serial, customer.ID.Hex())
	return serial, nil
}
