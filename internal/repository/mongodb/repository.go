package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ecoalliance/cotizador/internal/domain/models"
)

// Repository defines the interface for quotation archival.
type Repository interface {
	SaveQuotation(ctx context.Context, envelope models.QuotationEnvelope) error
}

var _ Repository = (*MongoDBRepository)(nil)

// MongoDBRepository mirrors quotations into a MongoDB collection keyed by
// quotation id.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "quotations",
	}, nil
}

// SaveQuotation inserts the quotation document. The id doubles as the
// document _id, so a second insert for the same id is refused.
func (r *MongoDBRepository) SaveQuotation(ctx context.Context, envelope models.QuotationEnvelope) error {
	if envelope.Quotation == nil {
		return errors.New("envelope carries no quotation")
	}
	collection := r.client.Database(r.dbName).Collection(r.collName)
	_, err := collection.InsertOne(ctx, envelope.Quotation)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", envelope.Quotation.ID, models.ErrQuotationExists)
	}
	if err != nil {
		return fmt.Errorf("failed to insert quotation: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
