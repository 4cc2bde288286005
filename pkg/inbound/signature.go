package inbound

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hdevalence/ed25519consensus"
	"github.com/scalarorg/lending-bridge/pkg/types"
)

// DomainTag separates inbound delivery signatures from any other message
// the TSS key signs.
const DomainTag = "lending-bridge/inbound/v2"

// SigningDigest is the 32-byte message the TSS authority signs for a
// delivery:
//
//	keccak256(DomainTag || chainID u64 BE || sequence u64 BE || sender[20] || amount u64 BE || keccak256(payload))
//
// sequence is the mailbox sequence the delivery will occupy, so a signed
// delivery is valid exactly once.
func SigningDigest(chainID, sequence uint64, sender common.Address, amount uint64, payload []byte) []byte {
	buf := make([]byte, 0, len(DomainTag)+8+8+common.AddressLength+8+32)
	buf = append(buf, DomainTag...)
	buf = binary.BigEndian.AppendUint64(buf, chainID)
	buf = binary.BigEndian.AppendUint64(buf, sequence)
	buf = append(buf, sender.Bytes()...)
	buf = binary.BigEndian.AppendUint64(buf, amount)
	buf = append(buf, crypto.Keccak256(payload)...)
	return crypto.Keccak256(buf)
}

// Sign produces a delivery signature. The bridge never signs; this is
// for relays, tooling and tests holding the TSS key.
func Sign(key ed25519.PrivateKey, chainID, sequence uint64, sender common.Address, amount uint64, payload []byte) []byte {
	return ed25519.Sign(key, SigningDigest(chainID, sequence, sender, amount, payload))
}

func verify(authority types.Identity, digest, signature []byte) bool {
	return ed25519consensus.Verify(ed25519.PublicKey(authority[:]), digest, signature)
}
