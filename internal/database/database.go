package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"telegram-babylog-bot/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DB wraps MongoDB operations
type DB struct {
	client        *mongo.Client
	records       *mongo.Collection
	children      *mongo.Collection
	subscriptions *mongo.Collection
}

// New creates a new database connection
func New(ctx context.Context, uri, dbName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err = client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(dbName)

	log.Println("Successfully connected to MongoDB")
	return &DB{
		client:        client,
		records:       database.Collection("intake_records"),
		children:      database.Collection("children"),
		subscriptions: database.Collection("subscriptions"),
	}, nil
}

// Close closes the database connection
func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

// InsertRecord inserts a new intake record
func (db *DB) InsertRecord(ctx context.Context, rec *models.IntakeRecord) error {
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().Unix()
	}
	_, err := db.records.InsertOne(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// FindRecord finds a record by ID
func (db *DB) FindRecord(ctx context.Context, id string) (*models.IntakeRecord, error) {
	var rec models.IntakeRecord
	err := db.records.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find record: %w", err)
	}
	return &rec, nil
}

// UpdateRecord updates a record
func (db *DB) UpdateRecord(ctx context.Context, id string, update bson.M) error {
	filter := bson.M{"_id": id}
	_, err := db.records.UpdateOne(ctx, filter, bson.M{"$set": update})
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return nil
}

// DeleteRecord deletes a record by ID
func (db *DB) DeleteRecord(ctx context.Context, id string) error {
	_, err := db.records.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// GetHistory returns an identity's recent records, newest first. An empty
// category matches all categories; limit 0 means no limit.
func (db *DB) GetHistory(ctx context.Context, identity string, category models.Category, limit int) ([]models.IntakeRecord, error) {
	filter := bson.M{"identity": identity}
	if category != "" {
		filter["category"] = category
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cursor, err := db.records.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.IntakeRecord
	for cursor.Next(ctx) {
		var rec models.IntakeRecord
		if err := cursor.Decode(&rec); err == nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

// GetRecordsInRange returns an identity's categorized records with
// createdAt in [from, to], oldest first. Records still waiting for a
// category confirmation are excluded.
func (db *DB) GetRecordsInRange(ctx context.Context, identity string, from, to int64) ([]models.IntakeRecord, error) {
	filter := bson.M{
		"identity":  identity,
		"createdAt": bson.M{"$gte": from, "$lte": to},
		"category":  bson.M{"$in": models.Categories},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := db.records.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records in range: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.IntakeRecord
	for cursor.Next(ctx) {
		var rec models.IntakeRecord
		if err := cursor.Decode(&rec); err == nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

// ListIdentities returns every identity that has logged at least one record
func (db *DB) ListIdentities(ctx context.Context) ([]string, error) {
	values, err := db.records.Distinct(ctx, "identity", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}

	var identities []string
	for _, v := range values {
		if s, ok := v.(string); ok {
			identities = append(identities, s)
		}
	}
	return identities, nil
}

// GetChildProfile returns the child profile for an identity, or nil if none
func (db *DB) GetChildProfile(ctx context.Context, identity string) (*models.ChildProfile, error) {
	var profile models.ChildProfile
	err := db.children.FindOne(ctx, bson.M{"_id": identity}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find child profile: %w", err)
	}
	return &profile, nil
}

// UpsertChildProfile creates or replaces the child profile for an identity
func (db *DB) UpsertChildProfile(ctx context.Context, profile *models.ChildProfile) error {
	if profile.CreatedAt == 0 {
		profile.CreatedAt = time.Now().Unix()
	}
	opts := options.Replace().SetUpsert(true)
	_, err := db.children.ReplaceOne(ctx, bson.M{"_id": profile.Identity}, profile, opts)
	if err != nil {
		return fmt.Errorf("failed to save child profile: %w", err)
	}
	return nil
}

// GetSubscription returns the subscription for an identity, or nil if none
func (db *DB) GetSubscription(ctx context.Context, identity string) (*models.Subscription, error) {
	var sub models.Subscription
	err := db.subscriptions.FindOne(ctx, bson.M{"_id": identity}).Decode(&sub)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	return &sub, nil
}

// CreateSubscription creates or renews a subscription (upsert to handle renewals)
func (db *DB) CreateSubscription(ctx context.Context, identity, tier string, durationDays int, paymentReference string) error {
	now := time.Now()
	sub := &models.Subscription{
		Identity:         identity,
		Tier:             tier,
		Start:            now.Unix(),
		End:              now.AddDate(0, 0, durationDays).Unix(),
		PaymentReference: paymentReference,
		UpdatedAt:        now.Unix(),
	}

	opts := options.Replace().SetUpsert(true)
	_, err := db.subscriptions.ReplaceOne(ctx, bson.M{"_id": identity}, sub, opts)
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

// ExpireSubscriptions downgrades premium subscriptions whose end date has
// passed and returns how many were downgraded
func (db *DB) ExpireSubscriptions(ctx context.Context) (int64, error) {
	filter := bson.M{
		"tier": models.TierPremium,
		"end":  bson.M{"$lt": time.Now().Unix()},
	}
	update := bson.M{"$set": bson.M{
		"tier":      models.TierFree,
		"updatedAt": time.Now().Unix(),
	}}

	result, err := db.subscriptions.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to expire subscriptions: %w", err)
	}
	return result.ModifiedCount, nil
}
