package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AI2HU/askdb/internal/models"
)

const collQuestions = "questions"

// MongoDB keeps one document per question so the cache survives restarts
// and can be shared between server instances
type MongoDB struct {
	client     *mongo.Client
	collection *mongo.Collection
	uri        string
	database   string
}

// NewMongoDB creates a MongoDB cache; call Connect before use
func NewMongoDB(uri, database string) *MongoDB {
	return &MongoDB{uri: uri, database: database}
}

// Connect establishes connection to MongoDB
func (m *MongoDB) Connect(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.uri))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	m.client = client
	m.collection = client.Database(m.database).Collection(collQuestions)

	if err := m.createIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// createIndexes backs history listing and eviction
func (m *MongoDB) createIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "updated_at", Value: 1}}},
	}
	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// GenerateID returns a random UUID
func (m *MongoDB) GenerateID(question string) string {
	return uuid.NewString()
}

// Set stores one field of an entry, upserting the document
func (m *MongoDB) Set(ctx context.Context, id, field string, value any) error {
	// reuse the typed assignment so both backends accept the same values
	var probe models.Entry
	if err := setField(&probe, field, value); err != nil {
		return err
	}

	now := time.Now().UTC()
	update := bson.M{
		"$set":         bson.M{field: probe.Value(field), "updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", field, err)
	}
	return nil
}

// Get returns an entry
func (m *MongoDB) Get(ctx context.Context, id string) (*models.Entry, error) {
	var entry models.Entry
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	normalizeEntry(&entry)
	return &entry, nil
}

// GetAll returns the requested fields of every entry in insertion order
func (m *MongoDB) GetAll(ctx context.Context, fields []string) ([]map[string]any, error) {
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	projection := bson.M{"_id": 1}
	for _, f := range fields {
		projection[f] = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetProjection(projection)

	cursor, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer cursor.Close(ctx)

	items := []map[string]any{}
	for cursor.Next(ctx) {
		var entry models.Entry
		if err := cursor.Decode(&entry); err != nil {
			return nil, fmt.Errorf("failed to decode entry: %w", err)
		}
		normalizeEntry(&entry)
		items = append(items, project(&entry, fields))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return items, nil
}

// Delete removes an entry
func (m *MongoDB) Delete(ctx context.Context, id string) error {
	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// EvictOlderThan removes entries not updated since t
func (m *MongoDB) EvictOlderThan(ctx context.Context, t time.Time) (int, error) {
	res, err := m.collection.DeleteMany(ctx, bson.M{"updated_at": bson.M{"$lt": t}})
	if err != nil {
		return 0, fmt.Errorf("failed to evict entries: %w", err)
	}
	return int(res.DeletedCount), nil
}

// Close closes the MongoDB connection
func (m *MongoDB) Close(ctx context.Context) error {
	if m.client != nil {
		return m.client.Disconnect(ctx)
	}
	return nil
}

// Ping checks the connection
func (m *MongoDB) Ping(ctx context.Context) error {
	if m.client == nil {
		return fmt.Errorf("not connected to database")
	}
	return m.client.Ping(ctx, nil)
}

// normalizeEntry converts BSON specific values in result rows back to the
// Go types the SQL runners produce
func normalizeEntry(entry *models.Entry) {
	if entry.DataFrame == nil {
		return
	}
	for _, row := range entry.DataFrame.Rows {
		for i, v := range row {
			switch t := v.(type) {
			case primitive.DateTime:
				row[i] = t.Time().UTC()
			case primitive.Decimal128:
				row[i] = t.String()
			default:
				row[i] = models.NormalizeValue(v)
			}
		}
	}
}
