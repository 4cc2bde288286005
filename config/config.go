package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/scalarorg/lending-bridge/pkg/gateway"
	"github.com/scalarorg/lending-bridge/pkg/types"
	"github.com/spf13/viper"
)

const (
	APP_NAME   = "lending-bridge"
	ENV_PREFIX = "BRIDGE"
)

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=console json"`
}

type BridgeConfig struct {
	Authority             string   `mapstructure:"authority" validate:"required"`
	RemoteProtocolAddress string   `mapstructure:"remote_protocol_address" validate:"required,eth_addr"`
	RemoteChainID         uint64   `mapstructure:"remote_chain_id" validate:"required"`
	AllowedRemoteChains   []uint64 `mapstructure:"allowed_remote_chains"`
	AllowedDestChains     []uint64 `mapstructure:"allowed_dest_chains"`
	DepositFee            uint64   `mapstructure:"deposit_fee"`
	GasLimit              uint64   `mapstructure:"gas_limit"`
	CodecMode             string   `mapstructure:"codec_mode" validate:"omitempty,oneof=legacy abi typed"`
	RevertAddress         string   `mapstructure:"revert_address" validate:"omitempty,eth_addr"`
	AbortAddress          string   `mapstructure:"abort_address" validate:"omitempty,eth_addr"`
	CallOnRevert          bool     `mapstructure:"call_on_revert"`
	// Initialize from this section on start when nothing is persisted.
	AutoInitialize bool `mapstructure:"auto_initialize"`
}

type GatewayConfig struct {
	Mode                     string        `mapstructure:"mode" validate:"oneof=evm memory"`
	BreakerFailures          uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout           time.Duration `mapstructure:"breaker_timeout"`
	gateway.EvmGatewayConfig `mapstructure:",squash"`
}

type InboundConfig struct {
	GatewayID    string `mapstructure:"gateway_id" validate:"required"`
	TSSAuthority string `mapstructure:"tss_authority" validate:"required_if=Secure true"`
	Secure       bool   `mapstructure:"secure"`
	ChainID      uint64 `mapstructure:"chain_id"`
	KeepHistory  bool   `mapstructure:"keep_history"`
}

type DatabaseConfig struct {
	URL           string `mapstructure:"url"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

type RabbitMQConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Host       string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Exchange   string `mapstructure:"exchange"`
	RoutingKey string `mapstructure:"routing_key"`
}

type ApiConfig struct {
	Listen          string        `mapstructure:"listen"`
	DevMode         bool          `mapstructure:"dev_mode"`
	SignatureWindow time.Duration `mapstructure:"signature_window"`
}

type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure    bool   `mapstructure:"insecure"`
	ServiceName string `mapstructure:"service_name"`
}

type EventBusConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

type Config struct {
	ConfigPath string          `mapstructure:"config_path"`
	Log        LogConfig       `mapstructure:"log"`
	Bridge     BridgeConfig    `mapstructure:"bridge"`
	Gateway    GatewayConfig   `mapstructure:"gateway"`
	Inbound    InboundConfig   `mapstructure:"inbound"`
	Database   DatabaseConfig  `mapstructure:"database"`
	RabbitMQ   RabbitMQConfig  `mapstructure:"rabbitmq"`
	Api        ApiConfig       `mapstructure:"api"`
	Telemetry  TelemetryConfig `mapstructure:"telemetry"`
	EventBus   EventBusConfig  `mapstructure:"event_bus"`
}

var GlobalConfig *Config

// LoadEnv reads .env into the process environment if the file exists.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("bridge.deposit_fee", types.DepositFee)
	v.SetDefault("bridge.gas_limit", types.GasLimit)
	v.SetDefault("bridge.codec_mode", "legacy")
	v.SetDefault("bridge.call_on_revert", true)
	v.SetDefault("gateway.mode", "memory")
	v.SetDefault("gateway.breaker_failures", 5)
	v.SetDefault("gateway.breaker_timeout", 30*time.Second)
	v.SetDefault("gateway.tx_timeout", 2*time.Minute)
	v.SetDefault("inbound.secure", true)
	v.SetDefault("inbound.keep_history", true)
	v.SetDefault("database.mongo_database", APP_NAME)
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.exchange", "lending-bridge.events")
	v.SetDefault("api.listen", ":8080")
	v.SetDefault("api.signature_window", "5m")
	v.SetDefault("telemetry.service_name", APP_NAME)
	v.SetDefault("event_bus.buffer_size", 256)
	// known env-only keys
	v.SetDefault("database.url", "")
	v.SetDefault("database.mongo_uri", "")
	v.SetDefault("gateway.private_key", "")
	v.SetDefault("rabbitmq.password", "")
}

// Load reads <configPath>/config.json, overlays BRIDGE_* environment
// variables and validates the result.
func Load(configPath string) error {
	cfg, err := Read(viper.GetViper(), configPath)
	if err != nil {
		return err
	}
	GlobalConfig = cfg
	return nil
}

func Read(v *viper.Viper, configPath string) (*Config, error) {
	if err := LoadEnv(); err != nil {
		return nil, err
	}
	setDefaults(v)
	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(fmt.Sprintf("%s/config.json", strings.TrimRight(configPath, "/")))
		v.SetConfigType("json")
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.ConfigPath = configPath
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := types.ParseIdentity(c.Bridge.Authority); err != nil {
		return fmt.Errorf("invalid bridge.authority: %w", err)
	}
	if _, err := types.ParseIdentity(c.Inbound.GatewayID); err != nil {
		return fmt.Errorf("invalid inbound.gateway_id: %w", err)
	}
	if c.Inbound.Secure {
		if _, err := types.ParseIdentity(c.Inbound.TSSAuthority); err != nil {
			return fmt.Errorf("invalid inbound.tss_authority: %w", err)
		}
	}
	if c.Gateway.Mode == "evm" {
		if !common.IsHexAddress(c.Gateway.Gateway) {
			return fmt.Errorf("invalid gateway.gateway address %q", c.Gateway.Gateway)
		}
		if c.Gateway.RPCUrl == "" || c.Gateway.PrivateKey == "" {
			return fmt.Errorf("gateway.rpc_url and gateway.private_key are required in evm mode")
		}
	}
	return nil
}

func (c *BridgeConfig) AuthorityIdentity() types.Identity {
	return types.MustParseIdentity(c.Authority)
}

func (c *InboundConfig) GatewayIdentity() types.Identity {
	return types.MustParseIdentity(c.GatewayID)
}

// TSSIdentity returns the zero identity when no TSS authority is configured.
func (c *InboundConfig) TSSIdentity() types.Identity {
	if c.TSSAuthority == "" {
		return types.Identity{}
	}
	return types.MustParseIdentity(c.TSSAuthority)
}
