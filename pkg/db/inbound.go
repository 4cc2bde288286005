package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/scalarorg/lending-bridge/pkg/db/models"
	"github.com/scalarorg/lending-bridge/pkg/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func (db *DatabaseAdapter) AppendInbound(ctx context.Context, entry types.InboundEntry) error {
	record := models.InboundLog{
		Sequence:   entry.Sequence,
		Sender:     entry.Sender.Hex(),
		Amount:     decimal.NewFromUint64(entry.Amount),
		Message:    entry.Message,
		ReceivedAt: entry.ReceivedAt,
	}
	if err := db.PostgresClient.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to append inbound entry %d: %w", entry.Sequence, err)
	}
	return nil
}

func (db *DatabaseAdapter) LastInbound(ctx context.Context) (*types.InboundEntry, error) {
	var record models.InboundLog
	err := db.PostgresClient.WithContext(ctx).Order("sequence desc").First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last inbound entry: %w", err)
	}
	entry := toInboundEntry(record)
	return &entry, nil
}

// ListInbound returns history entries with sequence greater than after, oldest first.
func (db *DatabaseAdapter) ListInbound(ctx context.Context, after uint64, limit int) ([]types.InboundEntry, error) {
	var records []models.InboundLog
	err := db.PostgresClient.WithContext(ctx).
		Where("sequence > ?", after).
		Order("sequence asc").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list inbound entries: %w", err)
	}
	entries := make([]types.InboundEntry, len(records))
	for i, record := range records {
		entries[i] = toInboundEntry(record)
	}
	return entries, nil
}

func toInboundEntry(record models.InboundLog) types.InboundEntry {
	return types.InboundEntry{
		Sequence:   record.Sequence,
		Sender:     common.HexToAddress(record.Sender),
		Amount:     record.Amount.BigInt().Uint64(),
		Message:    record.Message,
		ReceivedAt: record.ReceivedAt,
	}
}
