package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/scalarorg/lending-bridge/pkg/db/models"
	"github.com/scalarorg/lending-bridge/pkg/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (db *DatabaseAdapter) SaveConfig(ctx context.Context, config types.BridgeConfig) error {
	state := models.BridgeState{
		Singleton:             1,
		Authority:             config.Authority.String(),
		RemoteProtocolAddress: config.RemoteProtocolAddress.Hex(),
		RemoteChainID:         config.RemoteChainID,
		IsPaused:              config.IsPaused,
		Initialized:           config.Initialized,
	}
	err := db.PostgresClient.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "singleton"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"authority", "remote_protocol_address", "remote_chain_id", "is_paused", "initialized", "updated_at",
			}),
		}).Create(&state).Error
	})
	if err != nil {
		log.Error().Err(err).Msg("[DatabaseAdapter] [SaveConfig] failed to save bridge state")
		return fmt.Errorf("failed to save bridge state: %w", err)
	}
	return nil
}

func (db *DatabaseAdapter) LoadConfig(ctx context.Context) (*types.BridgeConfig, error) {
	var state models.BridgeState
	err := db.PostgresClient.WithContext(ctx).Where("singleton = ?", 1).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load bridge state: %w", err)
	}
	authority, err := types.ParseIdentity(state.Authority)
	if err != nil {
		return nil, fmt.Errorf("stored authority is invalid: %w", err)
	}
	return &types.BridgeConfig{
		Authority:             authority,
		RemoteProtocolAddress: common.HexToAddress(state.RemoteProtocolAddress),
		RemoteChainID:         state.RemoteChainID,
		IsPaused:              state.IsPaused,
		Initialized:           state.Initialized,
	}, nil
}

func (db *DatabaseAdapter) SaveAsset(ctx context.Context, entry types.AssetEntry) error {
	asset := models.Asset{
		AssetID:     entry.AssetID.String(),
		Decimals:    entry.Decimals,
		IsNative:    entry.IsNative,
		IsSupported: entry.IsSupported,
	}
	err := db.PostgresClient.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "asset_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"decimals", "is_native", "is_supported", "updated_at"}),
		}).Create(&asset).Error
	})
	if err != nil {
		log.Error().Err(err).Str("asset", asset.AssetID).Msg("[DatabaseAdapter] [SaveAsset] failed to save asset")
		return fmt.Errorf("failed to save asset %s: %w", asset.AssetID, err)
	}
	return nil
}

func (db *DatabaseAdapter) LoadAssets(ctx context.Context) ([]types.AssetEntry, error) {
	var assets []models.Asset
	if err := db.PostgresClient.WithContext(ctx).Order("id asc").Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("failed to load assets: %w", err)
	}
	entries := make([]types.AssetEntry, 0, len(assets))
	for _, asset := range assets {
		id, err := types.ParseIdentity(asset.AssetID)
		if err != nil {
			log.Warn().Str("asset", asset.AssetID).Msg("[DatabaseAdapter] [LoadAssets] skipping invalid asset id")
			continue
		}
		entries = append(entries, types.AssetEntry{
			AssetID:     id,
			Decimals:    asset.Decimals,
			IsNative:    asset.IsNative,
			IsSupported: asset.IsSupported,
		})
	}
	return entries, nil
}
