package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/scalarorg/lending-bridge/pkg/codec"
	"github.com/scalarorg/lending-bridge/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const beneficiary = "0x2222222222222222222222222222222222222222"

func TestEncodeLegacySupply(t *testing.T) {
	payload, err := encodeMessage(encodeFlags{mode: "legacy", action: "supply", beneficiary: beneficiary, amount: 10})
	require.NoError(t, err)
	assert.Len(t, payload, codec.LegacyMessageLength)

	msg, err := decodeMessage("legacy", payload)
	require.NoError(t, err)
	assert.Equal(t, types.ActionSupply, msg.Action)
	require.NotNil(t, msg.Beneficiary)
	assert.Equal(t, common.HexToAddress(beneficiary), *msg.Beneficiary)
}

func TestEncodeTypedBorrowRoundTrip(t *testing.T) {
	user := types.Identity{7}
	payload, err := encodeMessage(encodeFlags{
		mode:      "typed",
		action:    "borrowCrossChain",
		user:      user.String(),
		asset:     "0x3333333333333333333333333333333333333333",
		amount:    5000,
		destChain: 421614,
		recipient: beneficiary,
		timestamp: 1_700_000_000,
	})
	require.NoError(t, err)

	msg, err := decodeMessage("typed", payload)
	require.NoError(t, err)
	assert.Equal(t, types.ActionBorrowCrossChain, msg.Action)
	assert.Equal(t, uint64(5000), msg.Amount)
	assert.Equal(t, uint64(421614), msg.DestChain)
	require.NotNil(t, msg.User)
	assert.Equal(t, user, *msg.User)
	require.NotNil(t, msg.Timestamp)
	assert.Equal(t, int64(1_700_000_000), msg.Timestamp.Unix())
}

func TestEncodeRejectsUnknownAction(t *testing.T) {
	_, err := encodeMessage(encodeFlags{mode: "abi", action: "liquidate"})
	require.ErrorIs(t, err, types.ErrUnknownAction)

	_, err = encodeMessage(encodeFlags{mode: "protobuf", action: "supply"})
	require.Error(t, err)
}

func TestDecodeCommand(t *testing.T) {
	payload, err := encodeMessage(encodeFlags{mode: "abi", action: "repay", beneficiary: beneficiary})
	require.NoError(t, err)

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"decode", "--mode", "abi", hexutil.Encode(payload)})
	require.NoError(t, rootCmd.Execute())

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "repay", decoded["action"])
	assert.Equal(t, beneficiary, decoded["beneficiary"])
}
