package codec

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
)

func getStringType() abi.Type {
	t, _ := abi.NewType("string", "", nil)
	return t
}

func getAddressType() abi.Type {
	t, _ := abi.NewType("address", "", nil)
	return t
}

func getUint256Type() abi.Type {
	t, _ := abi.NewType("uint256", "", nil)
	return t
}

func getBytes32Type() abi.Type {
	t, _ := abi.NewType("bytes32", "", nil)
	return t
}

// (string action, address beneficiary)
var actionArguments = abi.Arguments{
	{Type: getStringType()},
	{Type: getAddressType()},
}

// (string action, bytes32 user, address asset, uint256 amount, uint256 destChain, address recipient)
var crossChainArguments = abi.Arguments{
	{Type: getStringType()},
	{Type: getBytes32Type()},
	{Type: getAddressType()},
	{Type: getUint256Type()},
	{Type: getUint256Type()},
	{Type: getAddressType()},
}
