package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/loyclub/loyalty-services/internal/walletsvc/models"
)

// ErrNotFound is returned when a lookup matched nothing. Callers map it to
// their own domain error.
var ErrNotFound = errors.New("document not found")

type CustomerStore struct {
	col *mongo.Collection
}

func NewCustomerStore(db *mongo.Database) *CustomerStore {
	return &CustomerStore{col: db.Collection("customers")}
}

func (s *CustomerStore) Create(ctx context.Context, c *models.Customer) (primitive.ObjectID, error) {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	res, err := s.col.InsertOne(ctx, c)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("could not create customer: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id, nil
}

func (s *CustomerStore) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	c := &models.Customer{}
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CustomerStore) FindByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	c := &models.Customer{}
	err := s.col.FindOne(ctx, bson.M{"phone": phone}).Decode(c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CustomerStore) FindByCardNumber(ctx context.Context, cardNumber string) (*models.Customer, error) {
	c := &models.Customer{}
	err := s.col.FindOne(ctx, bson.M{"card_number": cardNumber}).Decode(c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CustomerStore) List(ctx context.Context, limit, offset int64) ([]*models.Customer, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var customers []*models.Customer
	if err := cur.All(ctx, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// UpdateBalance sets the new balance and refreshes activity metadata.
func (s *CustomerStore) UpdateBalance(ctx context.Context, id primitive.ObjectID, balance string) error {
	now := time.Now().UTC()
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{
				"balance":                balance,
				"updated_at":             now,
				"metadata.last_activity": now,
			},
			"$inc": bson.M{"metadata.total_transactions": 1},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAppleCard persists the pass instance minted on first issuance so
// regenerations reuse the same serial number.
func (s *CustomerStore) SetAppleCard(ctx context.Context, id primitive.ObjectID, card models.AppleCard) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"wallet_cards.apple": card,
			"updated_at":         time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
