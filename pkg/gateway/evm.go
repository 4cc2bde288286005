package gateway

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"
	"github.com/scalarorg/lending-bridge/pkg/types"
)

type EvmGatewayConfig struct {
	ChainID    uint64        `mapstructure:"chain_id"`
	RPCUrl     string        `mapstructure:"rpc_url"`
	Gateway    string        `mapstructure:"gateway"`
	PrivateKey string        `mapstructure:"private_key"`
	GasLimit   uint64        `mapstructure:"gas_limit"`
	TxTimeout  time.Duration `mapstructure:"tx_timeout"`
}

// RevertOptions mirrors the GatewayEVM RevertOptions tuple.
type RevertOptions struct {
	RevertAddress    common.Address
	CallOnRevert     bool
	AbortAddress     common.Address
	RevertMessage    []byte
	OnRevertGasLimit *big.Int
}

func NewRevertOptions(policy types.RevertPolicy) RevertOptions {
	return RevertOptions{
		RevertAddress:    policy.RevertAddress,
		CallOnRevert:     policy.CallOnRevert,
		AbortAddress:     policy.AbortAddress,
		RevertMessage:    policy.RevertMessage,
		OnRevertGasLimit: new(big.Int).SetUint64(policy.GasLimit),
	}
}

type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// EvmGateway submits calls to a GatewayEVM contract and waits for each
// transaction to be mined with a successful status.
type EvmGateway struct {
	config         *EvmGatewayConfig
	backend        Backend
	gatewayAddress common.Address
	gateway        *bind.BoundContract
	erc20ABI       abi.ABI
	auth           *bind.TransactOpts
}

func DialEvmGateway(ctx context.Context, config *EvmGatewayConfig) (*EvmGateway, error) {
	log.Info().Uint64("chainId", config.ChainID).Str("gateway", config.Gateway).
		Msg("[EvmGateway] [DialEvmGateway] connecting to EVM network")
	client, err := ethclient.DialContext(ctx, config.RPCUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to EVM network %d: %w", config.ChainID, err)
	}
	return NewEvmGateway(config, client)
}

func NewEvmGateway(config *EvmGatewayConfig, backend Backend) (*EvmGateway, error) {
	if config.Gateway == "" || !common.IsHexAddress(config.Gateway) {
		return nil, fmt.Errorf("invalid gateway address %q for chain %d", config.Gateway, config.ChainID)
	}
	gatewayABI, err := ParseGatewayABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse gateway abi: %w", err)
	}
	erc20ABI, err := ParseERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 abi: %w", err)
	}
	auth, err := CreateTransactOpts(config)
	if err != nil {
		return nil, err
	}
	if config.TxTimeout == 0 {
		config.TxTimeout = 2 * time.Minute
	}
	gatewayAddress := common.HexToAddress(config.Gateway)
	return &EvmGateway{
		config:         config,
		backend:        backend,
		gatewayAddress: gatewayAddress,
		gateway:        bind.NewBoundContract(gatewayAddress, gatewayABI, backend, backend, backend),
		erc20ABI:       erc20ABI,
		auth:           auth,
	}, nil
}

func CreateTransactOpts(config *EvmGatewayConfig) (*bind.TransactOpts, error) {
	if config.PrivateKey == "" {
		return nil, fmt.Errorf("private key is not set for chain %d", config.ChainID)
	}
	privateKey, err := crypto.HexToECDSA(trimHexPrefix(config.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key for chain %d: %w", config.ChainID, err)
	}
	auth, err := bind.NewKeyedTransactorWithChainID(privateKey, new(big.Int).SetUint64(config.ChainID))
	if err != nil {
		return nil, fmt.Errorf("failed to create auth for chain %d: %w", config.ChainID, err)
	}
	auth.GasLimit = config.GasLimit
	return auth, nil
}

func (g *EvmGateway) Submit(ctx context.Context, submission *Submission) error {
	ctx, cancel := context.WithTimeout(ctx, g.config.TxTimeout)
	defer cancel()
	revert := NewRevertOptions(submission.Revert)

	var tx *ethtypes.Transaction
	var err error
	switch submission.Kind() {
	case KindDepositNative:
		opts := g.transactOpts(ctx, new(big.Int).SetUint64(*submission.Amount))
		tx, err = g.gateway.Transact(opts, MethodDepositNative, submission.Destination, submission.Payload, revert)
	case KindDepositToken:
		amount := new(big.Int).SetUint64(*submission.Amount)
		if err = g.approve(ctx, *submission.Asset, amount); err != nil {
			return err
		}
		tx, err = g.gateway.Transact(g.transactOpts(ctx, nil), MethodDepositToken,
			submission.Destination, amount, *submission.Asset, submission.Payload, revert)
	default:
		tx, err = g.gateway.Transact(g.transactOpts(ctx, nil), MethodCall, submission.Destination, submission.Payload, revert)
	}
	if err != nil {
		return fmt.Errorf("failed to send %s transaction: %w", submission.Kind(), err)
	}
	log.Debug().Str("call", submission.ID.String()).Str("txHash", tx.Hash().Hex()).
		Msg("[EvmGateway] [Submit] transaction sent")
	return g.waitSuccess(ctx, tx)
}

func (g *EvmGateway) approve(ctx context.Context, token common.Address, amount *big.Int) error {
	erc20 := bind.NewBoundContract(token, g.erc20ABI, g.backend, g.backend, g.backend)
	tx, err := erc20.Transact(g.transactOpts(ctx, nil), MethodApprove, g.gatewayAddress, amount)
	if err != nil {
		return fmt.Errorf("failed to approve %s: %w", token.Hex(), err)
	}
	return g.waitSuccess(ctx, tx)
}

func (g *EvmGateway) waitSuccess(ctx context.Context, tx *ethtypes.Transaction) error {
	receipt, err := bind.WaitMined(ctx, g.backend, tx)
	if err != nil {
		return fmt.Errorf("failed to wait for transaction receipt: %w", err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted", tx.Hash().Hex())
	}
	return nil
}

func (g *EvmGateway) transactOpts(ctx context.Context, value *big.Int) *bind.TransactOpts {
	opts := *g.auth
	opts.Context = ctx
	opts.Value = value
	return &opts
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}
