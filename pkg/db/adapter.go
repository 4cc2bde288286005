package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/scalarorg/lending-bridge/config"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// DatabaseAdapter persists bridge state, the event log and inbound history
// in postgres, and optionally archives events to MongoDB.
type DatabaseAdapter struct {
	PostgresClient *gorm.DB
	MongoClient    *mongo.Client
	MongoDatabase  *mongo.Database
}

func NewDatabaseAdapter(cfg *config.Config) (*DatabaseAdapter, error) {
	postgresClient, err := NewPostgresClient(cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	adapter := &DatabaseAdapter{PostgresClient: postgresClient}
	if cfg.Database.MongoURI != "" {
		adapter.MongoClient, adapter.MongoDatabase, err = NewMongoClient(cfg.Database.MongoURI, cfg.Database.MongoDatabase)
		if err != nil {
			return nil, err
		}
	}
	return adapter, nil
}

func NewDatabaseAdapterWithClient(postgresClient *gorm.DB) (*DatabaseAdapter, error) {
	if err := Migrate(postgresClient); err != nil {
		return nil, err
	}
	return &DatabaseAdapter{PostgresClient: postgresClient}, nil
}

func (db *DatabaseAdapter) Close(ctx context.Context) error {
	if db.MongoClient != nil {
		if err := db.MongoClient.Disconnect(ctx); err != nil {
			log.Warn().Err(err).Msg("[DatabaseAdapter] [Close] failed to disconnect MongoDB")
		}
	}
	sqlDB, err := db.PostgresClient.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db: %w", err)
	}
	return sqlDB.Close()
}
