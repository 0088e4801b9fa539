package database

import (
	"context"
	"fmt"
	"time"

	"crm/config"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	MONGO_TIMEOUT = 20 * time.Second

	COLLECTION_LEADS         = "leads"
	COLLECTION_CONTACTS      = "contacts"
	COLLECTION_DEALS         = "deals"
	COLLECTION_ACCOUNTS      = "accounts"
	COLLECTION_DEAL_STAGES   = "deal_stages"
	COLLECTION_LEAD_HISTORY  = "lead_history"
	COLLECTION_CRM_SETTINGS  = "crm_settings"
	COLLECTION_USERS         = "users"
	COLLECTION_ORGANIZATIONS = "organizations"
)

// GetDB returns the database name for the running environment.
func GetDB(env string) string {
	switch env {
	case config.ENV_RELEASE:
		return "production"
	case config.ENV_HOMOLOG:
		return "homolog"
	case config.ENV_DEVELOPMENT:
		return "development"
	}
	panic("[MongoDB] Invalid DB name")
}

// Connect opens a client and verifies the primary is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, MONGO_TIMEOUT)
	defer cancel()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, nil
}
