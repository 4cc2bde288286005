package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Single row holding the bridge configuration
type BridgeState struct {
	gorm.Model
	Singleton             int    `gorm:"uniqueIndex;default:1"`
	Authority             string `gorm:"type:varchar(64)"`
	RemoteProtocolAddress string `gorm:"type:varchar(42)"`
	RemoteChainID         uint64 `gorm:"type:bigint"`
	IsPaused              bool
	Initialized           bool
}

type Asset struct {
	gorm.Model
	AssetID     string `gorm:"uniqueIndex;type:varchar(64)"`
	Decimals    uint8
	IsNative    bool
	IsSupported bool
}

type EventLog struct {
	gorm.Model
	EventID   string `gorm:"uniqueIndex;type:varchar(36)"`
	Name      string `gorm:"index;type:varchar(64)"`
	Component string `gorm:"type:varchar(32)"`
	Payload   string `gorm:"type:jsonb"`
	EmittedAt time.Time
}

type InboundLog struct {
	gorm.Model
	Sequence   uint64          `gorm:"uniqueIndex;type:bigint"`
	Sender     string          `gorm:"type:varchar(42)"`
	Amount     decimal.Decimal `gorm:"type:numeric(20,0)"`
	Message    string          `gorm:"type:text"`
	ReceivedAt time.Time
}
