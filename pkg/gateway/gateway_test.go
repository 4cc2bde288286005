package gateway_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/scalarorg/lending-bridge/pkg/gateway"
	"github.com/scalarorg/lending-bridge/pkg/types"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
)

var (
	protocol = common.HexToAddress("0x9A676e781A523b5d0C0e43731313A708CB607508")
	revertTo = common.HexToAddress("0x0000000000000000000000000000000000000bad")
	usdc     = common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238")
)

func amount(v uint64) *uint64 { return &v }

func TestSubmissionKind(t *testing.T) {
	require.Equal(t, gateway.KindCall, (&gateway.Submission{}).Kind())
	require.Equal(t, gateway.KindDepositNative, (&gateway.Submission{Amount: amount(1)}).Kind())
	require.Equal(t, gateway.KindDepositToken, (&gateway.Submission{Amount: amount(1), Asset: &usdc}).Kind())
}

func TestAdapterRevertPolicy(t *testing.T) {
	adapter := gateway.NewAdapter(gateway.NewMemoryGateway(), gateway.AdapterConfig{
		RevertAddress: revertTo,
		AbortAddress:  revertTo,
		CallOnRevert:  true,
	})
	policy := adapter.RevertPolicy("native deposit failed")
	require.Equal(t, revertTo, policy.RevertAddress)
	require.Equal(t, revertTo, policy.AbortAddress)
	require.True(t, policy.CallOnRevert)
	require.Equal(t, []byte("native deposit failed"), policy.RevertMessage)
	require.Equal(t, types.GasLimit, policy.GasLimit)
}

func TestAdapterSubmitsOnce(t *testing.T) {
	memory := gateway.NewMemoryGateway()
	adapter := gateway.NewAdapter(memory, gateway.AdapterConfig{})
	submission := &gateway.Submission{
		Amount:      amount(10_000_000),
		Destination: protocol,
		Payload:     []byte{0x01, 0x02},
		Revert:      adapter.RevertPolicy("native deposit failed"),
	}
	require.NoError(t, adapter.Submit(context.Background(), submission))
	require.NotEqual(t, uuid.Nil, submission.ID)

	calls := memory.Submissions()
	require.Len(t, calls, 1)
	require.Equal(t, submission.ID, calls[0].ID)
	require.Equal(t, uint64(10_000_000), *calls[0].Amount)
	require.Equal(t, protocol, calls[0].Destination)
}

func TestAdapterWrapsFailure(t *testing.T) {
	memory := gateway.NewMemoryGateway()
	memory.Fail(gateway.ErrGatewayUnavailable)
	adapter := gateway.NewAdapter(memory, gateway.AdapterConfig{})

	err := adapter.Submit(context.Background(), &gateway.Submission{Destination: protocol})
	require.ErrorIs(t, err, types.ErrGatewayCall)
	require.ErrorIs(t, err, gateway.ErrGatewayUnavailable)
	require.Empty(t, memory.Submissions())
}

func TestAdapterBreakerOpens(t *testing.T) {
	memory := gateway.NewMemoryGateway()
	memory.Fail(errors.New("rpc timeout"))
	adapter := gateway.NewAdapter(memory, gateway.AdapterConfig{
		BreakerFailures: 2,
		BreakerTimeout:  time.Hour,
	})
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		require.Error(t, adapter.Submit(ctx, &gateway.Submission{Destination: protocol}))
	}
	memory.Fail(nil)
	err := adapter.Submit(ctx, &gateway.Submission{Destination: protocol})
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	require.ErrorIs(t, err, types.ErrGatewayCall)
	require.Empty(t, memory.Submissions())
}

func TestGatewayABISelectors(t *testing.T) {
	parsed, err := gateway.ParseGatewayABI()
	require.NoError(t, err)

	tuple := "(address,bool,address,bytes,uint256)"
	expect := map[string]string{
		gateway.MethodDepositNative: "depositAndCall(address,bytes," + tuple + ")",
		gateway.MethodDepositToken:  "depositAndCall(address,uint256,address,bytes," + tuple + ")",
		gateway.MethodCall:          "call(address,bytes," + tuple + ")",
	}
	for name, signature := range expect {
		method, ok := parsed.Methods[name]
		require.True(t, ok, name)
		require.Equal(t, crypto.Keccak256([]byte(signature))[:4], method.ID, name)
	}
	require.True(t, parsed.Methods[gateway.MethodDepositNative].IsPayable())
}

func TestGatewayABIPacksRevertOptions(t *testing.T) {
	parsed, err := gateway.ParseGatewayABI()
	require.NoError(t, err)
	revert := gateway.NewRevertOptions(types.RevertPolicy{
		RevertAddress: revertTo,
		CallOnRevert:  true,
		AbortAddress:  revertTo,
		RevertMessage: []byte("token deposit failed"),
		GasLimit:      types.GasLimit,
	})
	require.Equal(t, big.NewInt(5_000_000), revert.OnRevertGasLimit)

	data, err := parsed.Pack(gateway.MethodDepositToken, protocol, big.NewInt(42), usdc, []byte("payload"), revert)
	require.NoError(t, err)
	require.Equal(t, parsed.Methods[gateway.MethodDepositToken].ID, data[:4])
}

func TestCreateTransactOpts(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	auth, err := gateway.CreateTransactOpts(&gateway.EvmGatewayConfig{
		ChainID:    11155111,
		PrivateKey: "0x" + common.Bytes2Hex(crypto.FromECDSA(key)),
		GasLimit:   500_000,
	})
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey), auth.From)
	require.Equal(t, uint64(500_000), auth.GasLimit)

	_, err = gateway.CreateTransactOpts(&gateway.EvmGatewayConfig{ChainID: 1})
	require.Error(t, err)
}
