package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/scalarorg/lending-bridge/pkg/db/models"
	"github.com/scalarorg/lending-bridge/pkg/types"
	"gorm.io/gorm/clause"
)

// EventLog writes every bus envelope into the event_logs table.
type EventLog struct {
	db *DatabaseAdapter
}

func (db *DatabaseAdapter) EventLog() *EventLog {
	return &EventLog{db: db}
}

func (s *EventLog) Name() string {
	return "postgres-event-log"
}

func (s *EventLog) Handle(ctx context.Context, envelope *types.EventEnvelope) error {
	payload, err := json.Marshal(envelope.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", envelope.Name, err)
	}
	record := models.EventLog{
		EventID:   envelope.ID.String(),
		Name:      envelope.Name,
		Component: envelope.Component,
		Payload:   string(payload),
		EmittedAt: envelope.EmittedAt,
	}
	err = s.db.PostgresClient.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to store event %s: %w", envelope.ID, err)
	}
	return nil
}

func (db *DatabaseAdapter) FindEvents(ctx context.Context, name string, limit int) ([]models.EventLog, error) {
	var logs []models.EventLog
	query := db.PostgresClient.WithContext(ctx).Order("emitted_at asc")
	if name != "" {
		query = query.Where("name = ?", name)
	}
	if err := query.Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to find events: %w", err)
	}
	return logs, nil
}
