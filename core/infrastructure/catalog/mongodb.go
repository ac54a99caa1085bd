package catalog

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	mongoOptions "go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/hyperterse/querycheck/core/domain/fieldtypes"
	"github.com/hyperterse/querycheck/core/domain/search"
	"github.com/hyperterse/querycheck/core/infrastructure/logging"
	apperrors "github.com/hyperterse/querycheck/core/shared/errors"
)

// indexFieldTypes is one document of the index field types collection. It
// lists the fields mapped in one index and the streams and period the index covers.
type indexFieldTypes struct {
	IndexName  string       `bson:"index_name"`
	StreamIDs  []string     `bson:"stream_ids"`
	RangeStart time.Time    `bson:"range_start"`
	RangeEnd   time.Time    `bson:"range_end"`
	Fields     []indexField `bson:"fields"`
}

type indexField struct {
	FieldName    string `bson:"field_name"`
	PhysicalType string `bson:"physical_type"`
}

// MongoResolver reads field types from per-index documents
type MongoResolver struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoResolver connects to MongoDB and checks the connection with a ping
func NewMongoResolver(ctx context.Context, connectionString, database, collection string) (*MongoResolver, error) {
	log := logging.New("catalog:mongodb")
	log.Debugf("Opening MongoDB connection")

	client, err := mongo.Connect(mongoOptions.Client().ApplyURI(connectionString))
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrCodeConnectionFailed, "failed to connect to mongodb", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	log.Debugf("Testing connection with ping")
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(pingCtx)
		return nil, apperrors.WrapError(apperrors.ErrCodeConnectionFailed, "failed to ping mongodb", err)
	}

	log.Debugf("MongoDB connection opened successfully")
	return &MongoResolver{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (m *MongoResolver) Name() string {
	return "mongodb"
}

func (m *MongoResolver) FieldTypesByStreamIDs(ctx context.Context, streamIDs []string, tr search.TimeRange) (fieldtypes.FieldTypes, error) {
	from, to, err := timeBounds(tr)
	if err != nil {
		return fieldtypes.FieldTypes{}, err
	}

	opts := mongoOptions.Find().SetProjection(bson.D{
		{Key: "stream_ids", Value: 1},
		{Key: "fields", Value: 1},
	})
	cursor, err := m.collection.Find(ctx, mongoFilter(streamIDs, from, to), opts)
	if err != nil {
		return fieldtypes.FieldTypes{}, fmt.Errorf("mongodb find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []fieldRow
	for cursor.Next(ctx) {
		var doc indexFieldTypes
		if err := cursor.Decode(&doc); err != nil {
			return fieldtypes.FieldTypes{}, fmt.Errorf("mongodb decode failed: %w", err)
		}
		for _, field := range doc.Fields {
			rows = append(rows, fieldRow{Name: field.FieldName, Physical: field.PhysicalType})
		}
	}
	if err := cursor.Err(); err != nil {
		return fieldtypes.FieldTypes{}, fmt.Errorf("mongodb cursor error: %w", err)
	}
	return fieldTypesFromRows(rows), nil
}

// mongoFilter selects indices that overlap the period and hold any of the streams
func mongoFilter(streamIDs []string, from, to time.Time) bson.D {
	filter := bson.D{
		{Key: "range_end", Value: bson.D{{Key: "$gte", Value: from}}},
		{Key: "range_start", Value: bson.D{{Key: "$lte", Value: to}}},
	}
	if len(streamIDs) > 0 {
		filter = append(bson.D{{Key: "stream_ids", Value: bson.D{{Key: "$in", Value: streamIDs}}}}, filter...)
	}
	return filter
}

// Close disconnects the client
func (m *MongoResolver) Close() error {
	if m.client == nil {
		return nil
	}
	log := logging.New("catalog:mongodb")
	log.Debugf("Closing MongoDB connection")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.client.Disconnect(ctx); err != nil {
		log.Warnf("Error closing MongoDB connection: %v", err)
		return err
	}
	return nil
}
