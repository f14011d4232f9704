package hdkey

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/czh0526/hd-keychain/internal/zero"
	"github.com/czh0526/hd-keychain/netparams"
)

// PublicKey is the public mirror of a tree node: the same position
// (depth, parent fingerprint, child index, chain code) without the
// private scalar. It is handed to address-generation layers that must
// never see secret material.
type PublicKey struct {
	net        *netparams.Params
	depth      uint8
	parentFP   []byte
	childIndex uint32
	chainCode  []byte
	pubKey     []byte

	fingerprint []byte
	encoded     string
}

func newPublicKey(net *netparams.Params, depth uint8, parentFP []byte,
	childIndex uint32, chainCode, pubKey []byte) *PublicKey {

	parentFPCopy := make([]byte, len(parentFP))
	copy(parentFPCopy, parentFP)
	chainCopy := make([]byte, len(chainCode))
	copy(chainCopy, chainCode)
	pubKeyCopy := make([]byte, len(pubKey))
	copy(pubKeyCopy, pubKey)

	return &PublicKey{
		net:        net,
		depth:      depth,
		parentFP:   parentFPCopy,
		childIndex: childIndex,
		chainCode:  chainCopy,
		pubKey:     pubKeyCopy,
	}
}

// NewPublicKey builds a mirror node from its parts, validating the
// buffer lengths and the public key encoding.
func NewPublicKey(net *netparams.Params, depth uint8, parentFP []byte,
	childIndex uint32, chainCode, pubKey []byte) (*PublicKey, error) {

	if len(parentFP) != fingerprintLen {
		str := fmt.Sprintf("parent fingerprint must be %d bytes", fingerprintLen)
		return nil, keyError(ErrMalformedKey, str, nil)
	}
	if len(chainCode) != chainCodeLen {
		str := fmt.Sprintf("chain code must be %d bytes", chainCodeLen)
		return nil, keyError(ErrMalformedKey, str, nil)
	}
	if len(pubKey) != pubKeyLen {
		str := fmt.Sprintf("public key must be %d bytes", pubKeyLen)
		return nil, keyError(ErrMalformedKey, str, nil)
	}
	if _, err := btcec.ParsePubKey(pubKey); err != nil {
		return nil, keyError(ErrMalformedKey,
			"invalid compressed public key", err)
	}

	return newPublicKey(net, depth, parentFP, childIndex, chainCode, pubKey), nil
}

// Net returns the parameter table the key encodes with.
func (k *PublicKey) Net() *netparams.Params {
	return k.net
}

// Depth returns the number of derivation steps from the root.
func (k *PublicKey) Depth() uint8 {
	return k.depth
}

// ChildIndex returns the index this node was derived at.
func (k *PublicKey) ChildIndex() uint32 {
	return k.childIndex
}

// ParentFingerprint returns a copy of the 4-byte parent fingerprint.
func (k *PublicKey) ParentFingerprint() []byte {
	fp := make([]byte, len(k.parentFP))
	copy(fp, k.parentFP)
	return fp
}

// ChainCode returns a copy of the 32-byte chain code.
func (k *PublicKey) ChainCode() []byte {
	cc := make([]byte, len(k.chainCode))
	copy(cc, k.chainCode)
	return cc
}

// PubKeyBytes returns a copy of the 33-byte compressed public key.
func (k *PublicKey) PubKeyBytes() []byte {
	b := make([]byte, len(k.pubKey))
	copy(b, k.pubKey)
	return b
}

// ECPubKey converts the node to a btcec public key.
func (k *PublicKey) ECPubKey() (*btcec.PublicKey, error) {
	if k.IsZeroed() {
		return nil, keyError(ErrZeroedKey, "key has been destroyed", nil)
	}
	return btcec.ParsePubKey(k.pubKey)
}

// Fingerprint returns the first 4 bytes of hash160 of the public key,
// computed once and cached.
func (k *PublicKey) Fingerprint() []byte {
	if k.fingerprint == nil {
		k.fingerprint = btcutil.Hash160(k.pubKey)[:fingerprintLen]
	}

	fp := make([]byte, fingerprintLen)
	copy(fp, k.fingerprint)
	return fp
}

// Serialize encodes the mirror into the 82-byte raw form under the
// network's public version prefix. A nil net means the node's own
// network.
func (k *PublicKey) Serialize(net *netparams.Params) ([]byte, error) {
	if k.IsZeroed() {
		return nil, keyError(ErrZeroedKey,
			"cannot serialize a destroyed key", nil)
	}
	if net == nil {
		net = k.net
	}

	var childIndex [4]byte
	binary.BigEndian.PutUint32(childIndex[:], k.childIndex)

	buf := make([]byte, 0, serializedCheckedKeyLen)
	buf = append(buf, net.HDPublicKeyID[:]...)
	buf = append(buf, k.depth)
	buf = append(buf, k.parentFP...)
	buf = append(buf, childIndex[:]...)
	buf = append(buf, k.chainCode...)
	buf = append(buf, k.pubKey...)

	checksum := chainhash.DoubleHashB(buf)[:4]
	return append(buf, checksum...), nil
}

// String returns the base58 text form (the xpub format on mainnet),
// computed once and cached.
func (k *PublicKey) String() string {
	if k.IsZeroed() {
		return "zeroed extended key"
	}
	if k.encoded == "" {
		serialized, _ := k.Serialize(nil)
		k.encoded = base58.Encode(serialized)
	}
	return k.encoded
}

// Equal reports structural equality of two mirror nodes.
func (k *PublicKey) Equal(other *PublicKey) bool {
	if other == nil {
		return false
	}

	return k.net.HDPublicKeyID == other.net.HDPublicKeyID &&
		k.depth == other.depth &&
		bytes.Equal(k.parentFP, other.parentFP) &&
		k.childIndex == other.childIndex &&
		bytes.Equal(k.chainCode, other.chainCode) &&
		bytes.Equal(k.pubKey, other.pubKey)
}

// IsZeroed reports whether the node has been destroyed.
func (k *PublicKey) IsZeroed() bool {
	return len(k.pubKey) == 0
}

// Zero wipes every buffer and resets the node.
func (k *PublicKey) Zero() {
	zero.Bytes(k.pubKey)
	zero.Bytes(k.chainCode)
	zero.Bytes(k.parentFP)
	zero.Bytes(k.fingerprint)
	k.pubKey = nil
	k.chainCode = nil
	k.parentFP = nil
	k.fingerprint = nil

	k.depth = 0
	k.childIndex = 0
	k.encoded = ""
}
