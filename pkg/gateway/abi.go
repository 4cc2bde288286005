package gateway

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const revertOptionsComponents = `[
	{"name":"revertAddress","type":"address"},
	{"name":"callOnRevert","type":"bool"},
	{"name":"abortAddress","type":"address"},
	{"name":"revertMessage","type":"bytes"},
	{"name":"onRevertGasLimit","type":"uint256"}
]`

// GatewayEVMABI covers the ZetaChain GatewayEVM entry points the bridge uses.
// The token overload of depositAndCall binds as "depositAndCall0".
const GatewayEVMABI = `[
	{"type":"function","name":"depositAndCall","stateMutability":"payable","inputs":[
		{"name":"receiver","type":"address"},
		{"name":"payload","type":"bytes"},
		{"name":"revertOptions","type":"tuple","components":` + revertOptionsComponents + `}
	],"outputs":[]},
	{"type":"function","name":"depositAndCall","stateMutability":"nonpayable","inputs":[
		{"name":"receiver","type":"address"},
		{"name":"amount","type":"uint256"},
		{"name":"asset","type":"address"},
		{"name":"payload","type":"bytes"},
		{"name":"revertOptions","type":"tuple","components":` + revertOptionsComponents + `}
	],"outputs":[]},
	{"type":"function","name":"call","stateMutability":"nonpayable","inputs":[
		{"name":"receiver","type":"address"},
		{"name":"payload","type":"bytes"},
		{"name":"revertOptions","type":"tuple","components":` + revertOptionsComponents + `}
	],"outputs":[]}
]`

const ERC20ApproveABI = `[
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[
		{"name":"spender","type":"address"},
		{"name":"amount","type":"uint256"}
	],"outputs":[{"name":"","type":"bool"}]}
]`

const (
	MethodDepositNative = "depositAndCall"
	MethodDepositToken  = "depositAndCall0"
	MethodCall          = "call"
	MethodApprove       = "approve"
)

func ParseGatewayABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(GatewayEVMABI))
}

func ParseERC20ABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(ERC20ApproveABI))
}
