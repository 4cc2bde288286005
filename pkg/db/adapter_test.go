package db_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/scalarorg/lending-bridge/pkg/db"
	"github.com/scalarorg/lending-bridge/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresDriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *db.DatabaseAdapter {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	dbName := "test_db"
	dbUser := "test_user"
	dbPassword := "test_password"

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = postgresContainer.Terminate(ctx)
	})

	host, err := postgresContainer.Host(ctx)
	require.NoError(t, err)
	port, err := postgresContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		host, dbUser, dbPassword, dbName, port.Int())
	postgresDb, err := gorm.Open(postgresDriver.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	adapter, err := db.NewDatabaseAdapterWithClient(postgresDb)
	require.NoError(t, err)
	return adapter
}

func TestBridgeStatePersistence(t *testing.T) {
	adapter := setupTestDB(t)
	ctx := context.Background()

	loaded, err := adapter.LoadConfig(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	config := types.BridgeConfig{
		Authority:             types.IdentityFromEvmAddress(common.HexToAddress("0xaa")),
		RemoteProtocolAddress: common.HexToAddress("0x1111111111111111111111111111111111111111"),
		RemoteChainID:         7001,
		Initialized:           true,
	}
	require.NoError(t, adapter.SaveConfig(ctx, config))

	config.IsPaused = true
	require.NoError(t, adapter.SaveConfig(ctx, config))

	loaded, err = adapter.LoadConfig(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, config, *loaded)
}

func TestAssetPersistence(t *testing.T) {
	adapter := setupTestDB(t)
	ctx := context.Background()

	native := types.AssetEntry{AssetID: types.NativeAsset, Decimals: 9, IsNative: true, IsSupported: true}
	token := types.AssetEntry{
		AssetID:     types.IdentityFromEvmAddress(common.HexToAddress("0x2222222222222222222222222222222222222222")),
		Decimals:    6,
		IsSupported: true,
	}
	require.NoError(t, adapter.SaveAsset(ctx, native))
	require.NoError(t, adapter.SaveAsset(ctx, token))

	token.IsSupported = false
	require.NoError(t, adapter.SaveAsset(ctx, token))

	assets, err := adapter.LoadAssets(ctx)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, native, assets[0])
	assert.Equal(t, token, assets[1])
}

func TestInboundHistory(t *testing.T) {
	adapter := setupTestDB(t)
	ctx := context.Background()

	last, err := adapter.LastInbound(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	sender := common.HexToAddress("0x3333333333333333333333333333333333333333")
	for i := uint64(1); i <= 3; i++ {
		require.NoError(t, adapter.AppendInbound(ctx, types.InboundEntry{
			Sequence:   i,
			Sender:     sender,
			Amount:     i * 1_000_000_000,
			Message:    fmt.Sprintf("message %d", i),
			ReceivedAt: time.Now().UTC(),
		}))
	}
	// sequence is unique
	require.Error(t, adapter.AppendInbound(ctx, types.InboundEntry{Sequence: 3, Sender: sender}))

	last, err = adapter.LastInbound(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, uint64(3), last.Sequence)
	assert.Equal(t, uint64(3_000_000_000), last.Amount)
	assert.Equal(t, sender, last.Sender)

	entries, err := adapter.ListInbound(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "message 2", entries[0].Message)
}

func TestEventLogSink(t *testing.T) {
	adapter := setupTestDB(t)
	ctx := context.Background()
	sink := adapter.EventLog()

	envelope := types.NewEventEnvelope("Bridge", &types.PauseStateChanged{IsPaused: true})
	require.NoError(t, sink.Handle(ctx, envelope))
	// replays are ignored
	require.NoError(t, sink.Handle(ctx, envelope))

	logs, err := adapter.FindEvents(ctx, types.EVENT_PAUSE_STATE_CHANGED, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, envelope.ID.String(), logs[0].EventID)
	assert.JSONEq(t, `{"is_paused":true}`, logs[0].Payload)
}

func TestEventArchiveDisabledWithoutMongo(t *testing.T) {
	adapter := &db.DatabaseAdapter{}
	assert.Nil(t, adapter.EventArchive())
}
