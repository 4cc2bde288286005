package types

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
)

const IdentityLength = 32

// Identity is a 32-byte account key on the bridge's host chain. Authorities,
// callers, the gateway program and the TSS signer are all identities.
type Identity [IdentityLength]byte

// AssetID identifies a registered asset: a mint/contract identity, or
// NativeAsset for the host chain's native coin.
type AssetID = Identity

// NativeAsset is the sentinel asset id of the native coin.
var NativeAsset = AssetID{}

func ParseIdentity(s string) (Identity, error) {
	var id Identity
	raw, err := base58.Decode(s)
	if err != nil {
		return id, fmt.Errorf("invalid base58 identity %q: %w", s, err)
	}
	if len(raw) != IdentityLength {
		return id, fmt.Errorf("invalid identity length %d, expected %d", len(raw), IdentityLength)
	}
	copy(id[:], raw)
	return id, nil
}

func MustParseIdentity(s string) Identity {
	id, err := ParseIdentity(s)
	if err != nil {
		panic(err)
	}
	return id
}

func IdentityFromBytes(b []byte) (Identity, error) {
	var id Identity
	if len(b) != IdentityLength {
		return id, fmt.Errorf("invalid identity length %d, expected %d", len(b), IdentityLength)
	}
	copy(id[:], b)
	return id, nil
}

func (id Identity) String() string {
	return base58.Encode(id[:])
}

func (id Identity) Hex() string {
	return hex.EncodeToString(id[:])
}

func (id Identity) IsZero() bool {
	return id == Identity{}
}

func (id Identity) Bytes() []byte {
	return id[:]
}

func (id Identity) Compare(other Identity) int {
	return bytes.Compare(id[:], other[:])
}

// EvmAddress returns the low 20 bytes, the layout used when an asset id wraps
// an ERC-20 contract address.
func (id Identity) EvmAddress() common.Address {
	return common.BytesToAddress(id[IdentityLength-common.AddressLength:])
}

func IdentityFromEvmAddress(addr common.Address) Identity {
	var id Identity
	copy(id[IdentityLength-common.AddressLength:], addr.Bytes())
	return id
}

func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
