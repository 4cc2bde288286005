package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/scalarorg/lending-bridge/pkg/codec"
	"github.com/scalarorg/lending-bridge/pkg/types"
	"github.com/spf13/cobra"
)

type encodeFlags struct {
	mode        string
	action      string
	beneficiary string
	amount      uint64
	user        string
	asset       string
	destChain   uint64
	recipient   string
	timestamp   int64
}

var (
	encodeOpts encodeFlags
	decodeMode string
	encodeCmd  = &cobra.Command{
		Use:   "encode",
		Short: "Encode an outbound message and print it as hex",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := encodeMessage(encodeOpts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(payload))
			return nil
		},
	}
	decodeCmd = &cobra.Command{
		Use:   "decode <hex payload>",
		Short: "Decode an outbound message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := hexutil.Decode(args[0])
			if err != nil {
				return fmt.Errorf("%w: %w", types.ErrInvalidDataFormat, err)
			}
			out, err := decodeMessage(decodeMode, payload)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
)

type decodedMessage struct {
	Action      types.Action    `json:"action"`
	Beneficiary *common.Address `json:"beneficiary,omitempty"`
	User        *types.Identity `json:"user,omitempty"`
	Asset       *common.Address `json:"asset,omitempty"`
	Amount      uint64          `json:"amount"`
	DestChain   uint64          `json:"dest_chain,omitempty"`
	Recipient   *common.Address `json:"recipient,omitempty"`
	Timestamp   *time.Time      `json:"timestamp,omitempty"`
}

func encodeMessage(opts encodeFlags) ([]byte, error) {
	mode, err := codec.ParseMode(opts.mode)
	if err != nil {
		return nil, err
	}
	var clock func() time.Time
	if opts.timestamp > 0 {
		clock = func() time.Time { return time.Unix(opts.timestamp, 0) }
	}
	c, err := codec.New(mode, clock)
	if err != nil {
		return nil, err
	}
	switch types.Action(opts.action) {
	case types.ActionSupply:
		return c.EncodeSupply(types.Supply{Beneficiary: common.HexToAddress(opts.beneficiary), Amount: opts.amount})
	case types.ActionRepay:
		return c.EncodeRepay(types.Repay{Beneficiary: common.HexToAddress(opts.beneficiary), Amount: opts.amount})
	case types.ActionBorrowCrossChain, types.ActionWithdrawCrossChain:
		req := types.CrossChainRequest{
			Asset:     common.HexToAddress(opts.asset),
			Amount:    opts.amount,
			DestChain: opts.destChain,
			Recipient: common.HexToAddress(opts.recipient),
		}
		if opts.user != "" {
			if req.User, err = types.ParseIdentity(opts.user); err != nil {
				return nil, err
			}
		}
		if types.Action(opts.action) == types.ActionBorrowCrossChain {
			return c.EncodeBorrow(types.BorrowCrossChain(req))
		}
		return c.EncodeWithdraw(types.WithdrawCrossChain(req))
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownAction, opts.action)
	}
}

func decodeMessage(mode string, payload []byte) (*decodedMessage, error) {
	m, err := codec.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	c, err := codec.New(m, nil)
	if err != nil {
		return nil, err
	}
	msg, err := c.Decode(payload)
	if err != nil {
		return nil, err
	}
	out := &decodedMessage{Action: msg.Action, Amount: msg.Amount, DestChain: msg.DestChain}
	switch msg.Action {
	case types.ActionSupply, types.ActionRepay:
		out.Beneficiary = &msg.Beneficiary
	default:
		out.User = &msg.User
		out.Asset = &msg.Asset
		out.Recipient = &msg.Recipient
	}
	if !msg.Timestamp.IsZero() {
		out.Timestamp = &msg.Timestamp
	}
	return out, nil
}

func init() {
	flags := encodeCmd.Flags()
	flags.StringVar(&encodeOpts.mode, "mode", "legacy", "Codec: legacy, abi or typed")
	flags.StringVar(&encodeOpts.action, "action", string(types.ActionSupply), "supply, repay, borrowCrossChain or withdrawCrossChain")
	flags.StringVar(&encodeOpts.beneficiary, "beneficiary", "", "Beneficiary address for supply and repay")
	flags.Uint64Var(&encodeOpts.amount, "amount", 0, "Amount in base units")
	flags.StringVar(&encodeOpts.user, "user", "", "Requesting identity (base58) for cross-chain actions")
	flags.StringVar(&encodeOpts.asset, "asset", "", "ZRC-20 asset address for cross-chain actions")
	flags.Uint64Var(&encodeOpts.destChain, "dest-chain", 0, "Destination chain id for cross-chain actions")
	flags.StringVar(&encodeOpts.recipient, "recipient", "", "Recipient address for cross-chain actions")
	flags.Int64Var(&encodeOpts.timestamp, "timestamp", 0, "Unix timestamp for typed messages, defaults to now")

	decodeCmd.Flags().StringVar(&decodeMode, "mode", "legacy", "Codec: legacy, abi or typed")
}
