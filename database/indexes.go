package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func softDeleteIndexes(fields ...string) []mongo.IndexModel {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "is_deleted", Value: 1}}},
		{Keys: bson.D{{Key: "organization_id", Value: 1}, {Key: "is_deleted", Value: 1}}},
	}
	for _, f := range fields {
		models = append(models, mongo.IndexModel{Keys: bson.D{{Key: f, Value: 1}, {Key: "is_deleted", Value: 1}}})
	}
	return models
}

// Indexes lists the indexes each collection needs.
func Indexes() map[string][]mongo.IndexModel {
	contactEmail := mongo.IndexModel{
		Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "email", Value: 1}},
		Options: options.Index().SetSparse(true),
	}

	return map[string][]mongo.IndexModel{
		COLLECTION_LEADS: append(softDeleteIndexes("lead_stage", "contact_id", "old_id"), contactEmail),
		COLLECTION_CONTACTS: append(softDeleteIndexes("lead_id"), contactEmail),
		COLLECTION_DEALS: softDeleteIndexes("stage", "contact_id", "lead_id", "account_id", "owner", "close_date"),
		COLLECTION_ACCOUNTS: append(softDeleteIndexes("contact_id", "deal_id", "status", "renewal_date", "service_type"),
			mongo.IndexModel{
				Keys:    bson.D{{Key: "account_number", Value: 1}},
				Options: options.Index().SetUnique(true),
			}),
		COLLECTION_DEAL_STAGES: {
			{Keys: bson.D{{Key: "organization_id", Value: 1}, {Key: "order", Value: 1}}},
		},
		COLLECTION_LEAD_HISTORY: {
			{Keys: bson.D{{Key: "organization_id", Value: 1}, {Key: "lead_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		COLLECTION_CRM_SETTINGS: {
			{Keys: bson.D{{Key: "organization_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		COLLECTION_USERS: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "organization_id", Value: 1}}},
		},
	}
}

// EnsureIndexes creates the indexes of every collection. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, MONGO_TIMEOUT)
	defer cancel()

	for name, models := range Indexes() {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
