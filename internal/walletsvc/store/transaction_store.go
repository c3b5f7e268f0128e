package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/loyclub/loyalty-services/internal/walletsvc/models"
)

type TransactionStore struct {
	col *mongo.Collection
}

func NewTransactionStore(db *mongo.Database) *TransactionStore {
	return &TransactionStore{col: db.Collection("transactions")}
}

func (s *TransactionStore) Insert(ctx context.Context, t *models.Transaction) (primitive.ObjectID, error) {
	t.CreatedAt = time.Now().UTC()

	res, err := s.col.InsertOne(ctx, t)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("could not insert transaction: %w", err)
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id, nil
}

func (s *TransactionStore) ListByCustomer(ctx context.Context, customerID primitive.ObjectID, limit int64) ([]*models.Transaction, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cur, err := s.col.Find(ctx, bson.M{"customer_id": customerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var transactions []*models.Transaction
	if err := cur.All(ctx, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}
