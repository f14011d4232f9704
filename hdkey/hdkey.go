// Package hdkey implements BIP32 hierarchical deterministic private key
// derivation: master key construction, hardened and normal child key
// derivation with memoization, path derivation, the extended key binary
// and base58 serializations, and secure destruction of secret material.
package hdkey

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/czh0526/hd-keychain/internal/zero"
	"github.com/czh0526/hd-keychain/mnemonic"
	"github.com/czh0526/hd-keychain/netparams"
)

const (
	// MinSeedBytes / MaxSeedBytes bound the master seed entropy window
	// (128 to 512 bits per BIP32).
	MinSeedBytes = 16
	MaxSeedBytes = 64

	// RecommendedSeedLen is the seed length GenerateSeed defaults to.
	RecommendedSeedLen = 32

	// HardenedKeyStart is the first hardened child index. Any index at
	// or above it requires the parent private key to derive.
	HardenedKeyStart uint32 = 0x80000000

	// maxDepth is the deepest node the tree can hold; deriving from a
	// key at this depth fails.
	maxDepth = 255

	keyLen         = 32
	chainCodeLen   = 32
	pubKeyLen      = 33
	fingerprintLen = 4
)

// masterHMACKey is the HMAC-SHA512 key fixed by BIP32 for turning a seed
// into the master key material.
var masterHMACKey = []byte("Bitcoin seed")

var zeroFingerprint = []byte{0x00, 0x00, 0x00, 0x00}

// curveOrder is the order of the secp256k1 group; private scalars must
// be nonzero values below it.
var curveOrder = btcec.S256().N

// PrivateKey is a node of the BIP32 tree: a private scalar plus the
// chain code and provenance metadata needed to derive and serialize it.
// The compressed public key is always the image of the private scalar
// and is never set independently. The fingerprint, base58 string and
// public mirror are computed once on demand and cached on the node.
type PrivateKey struct {
	net        *netparams.Params
	depth      uint8
	parentFP   []byte
	childIndex uint32
	chainCode  []byte
	key        []byte
	pubKey     []byte

	fingerprint []byte
	encoded     string
	pubMirror   *PublicKey
	mnemonic    *mnemonic.Mnemonic
	cache       *DerivationCache
}

func newPrivateKey(net *netparams.Params, depth uint8, parentFP []byte,
	childIndex uint32, chainCode, key []byte) *PrivateKey {

	priv, _ := btcec.PrivKeyFromBytes(key)

	return &PrivateKey{
		net:        net,
		depth:      depth,
		parentFP:   parentFP,
		childIndex: childIndex,
		chainCode:  chainCode,
		key:        key,
		pubKey:     priv.PubKey().SerializeCompressed(),
	}
}

// NewMaster builds the depth-0 key of a tree from a seed:
// I = HMAC-SHA512(key="Bitcoin seed", data=seed), left half private key,
// right half chain code.
func NewMaster(seed []byte, net *netparams.Params) (*PrivateKey, error) {
	if len(seed) < MinSeedBytes || len(seed) > MaxSeedBytes {
		str := fmt.Sprintf("seed must be between %d and %d bits",
			MinSeedBytes*8, MaxSeedBytes*8)
		return nil, keyError(ErrInvalidSeedLen, str, nil)
	}

	hmac512 := hmac.New(sha512.New, masterHMACKey)
	hmac512.Write(seed)
	lr := hmac512.Sum(nil)

	// IL 是候选私钥, IR 是链码
	il := lr[:keyLen]
	ir := lr[keyLen:]

	if !scalarIsValid(il) {
		str := "the seed hashes to an unusable master key"
		return nil, keyError(ErrUnusableSeed, str, nil)
	}

	return newPrivateKey(net, 0, make([]byte, fingerprintLen), 0, ir, il), nil
}

// NewMasterFromMnemonic stretches the mnemonic into a seed, delegates to
// NewMaster, and keeps a reference to the mnemonic so that the extended
// serialization can carry the recovery phrase.
func NewMasterFromMnemonic(m *mnemonic.Mnemonic, passphrase string,
	net *netparams.Params) (*PrivateKey, error) {

	seed := m.Seed(passphrase)
	defer zero.Bytes(seed)

	key, err := NewMaster(seed, net)
	if err != nil {
		return nil, err
	}
	key.mnemonic = m

	return key, nil
}

// NewFromBytes builds a root shaped key directly from a 32-byte scalar
// and 32 bytes of entropy taken verbatim as the chain code. No HMAC step
// is applied.
func NewFromBytes(key, chainCode []byte, net *netparams.Params) (*PrivateKey, error) {
	if len(key) != keyLen {
		str := fmt.Sprintf("private key must be %d bytes", keyLen)
		return nil, keyError(ErrMalformedKey, str, nil)
	}
	if len(chainCode) != chainCodeLen {
		str := fmt.Sprintf("chain code must be %d bytes", chainCodeLen)
		return nil, keyError(ErrMalformedKey, str, nil)
	}
	if !scalarIsValid(key) {
		str := "private key is not a valid secp256k1 scalar"
		return nil, keyError(ErrMalformedKey, str, nil)
	}

	keyCopy := make([]byte, keyLen)
	copy(keyCopy, key)
	chainCopy := make([]byte, chainCodeLen)
	copy(chainCopy, chainCode)

	return newPrivateKey(net, 0, make([]byte, fingerprintLen), 0, chainCopy, keyCopy), nil
}

// Generate produces a fresh random key with random chain code entropy.
func Generate(net *netparams.Params) (*PrivateKey, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, keyError(ErrUnusableSeed,
			"failed to generate a random private key", err)
	}

	chainCode := make([]byte, chainCodeLen)
	if _, err := rand.Read(chainCode); err != nil {
		return nil, keyError(ErrUnusableSeed,
			"failed to read random chain code entropy", err)
	}

	keyBytes := priv.Serialize()
	defer priv.Zero()

	return NewFromBytes(keyBytes, chainCode, net)
}

// GenerateSeed returns length bytes of cryptographically secure entropy
// suitable for NewMaster.
func GenerateSeed(length uint8) ([]byte, error) {
	if length < MinSeedBytes || length > MaxSeedBytes {
		str := fmt.Sprintf("seed must be between %d and %d bits",
			MinSeedBytes*8, MaxSeedBytes*8)
		return nil, keyError(ErrInvalidSeedLen, str, nil)
	}

	seed := make([]byte, length)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}

	return seed, nil
}

// scalarIsValid reports whether b is a nonzero value below the curve
// order.
func scalarIsValid(b []byte) bool {
	n := new(big.Int).SetBytes(b)
	valid := n.Sign() != 0 && n.Cmp(curveOrder) < 0
	zero.BigInt(n)
	return valid
}

// Net returns the parameter table the key encodes with.
func (k *PrivateKey) Net() *netparams.Params {
	return k.net
}

// Depth returns the number of derivation steps from the root.
func (k *PrivateKey) Depth() uint8 {
	return k.depth
}

// ChildIndex returns the index this key was derived at; the top bit is
// set for hardened children. It is zero for the root.
func (k *PrivateKey) ChildIndex() uint32 {
	return k.childIndex
}

// ParentFingerprint returns a copy of the 4-byte parent fingerprint.
func (k *PrivateKey) ParentFingerprint() []byte {
	fp := make([]byte, len(k.parentFP))
	copy(fp, k.parentFP)
	return fp
}

// ChainCode returns a copy of the 32-byte chain code.
func (k *PrivateKey) ChainCode() []byte {
	cc := make([]byte, len(k.chainCode))
	copy(cc, k.chainCode)
	return cc
}

// KeyBytes returns a copy of the raw 32-byte private scalar.
func (k *PrivateKey) KeyBytes() []byte {
	b := make([]byte, len(k.key))
	copy(b, k.key)
	return b
}

// PubKeyBytes returns a copy of the 33-byte compressed public key.
func (k *PrivateKey) PubKeyBytes() []byte {
	b := make([]byte, len(k.pubKey))
	copy(b, k.pubKey)
	return b
}

// ECPrivKey converts the node to a btcec private key.
func (k *PrivateKey) ECPrivKey() (*btcec.PrivateKey, error) {
	if k.IsZeroed() {
		return nil, keyError(ErrZeroedKey, "key has been destroyed", nil)
	}
	priv, _ := btcec.PrivKeyFromBytes(k.key)
	return priv, nil
}

// ECPubKey converts the node's public projection to a btcec public key.
func (k *PrivateKey) ECPubKey() (*btcec.PublicKey, error) {
	if k.IsZeroed() {
		return nil, keyError(ErrZeroedKey, "key has been destroyed", nil)
	}
	return btcec.ParsePubKey(k.pubKey)
}

// Mnemonic returns the seed phrase this key was built from, or nil.
func (k *PrivateKey) Mnemonic() *mnemonic.Mnemonic {
	return k.mnemonic
}

// Fingerprint returns the first 4 bytes of hash160 of the public key.
// The value is computed once and cached; children copy it as their
// parent fingerprint.
func (k *PrivateKey) Fingerprint() []byte {
	if k.fingerprint == nil {
		k.fingerprint = btcutil.Hash160(k.pubKey)[:fingerprintLen]
	}

	fp := make([]byte, fingerprintLen)
	copy(fp, k.fingerprint)
	return fp
}

// PublicKey returns the public mirror of this node: same tree position,
// no private scalar. The mirror is built once and cached until the key
// is zeroed.
func (k *PrivateKey) PublicKey() *PublicKey {
	if k.IsZeroed() {
		return nil
	}
	if k.pubMirror == nil {
		k.pubMirror = newPublicKey(k.net, k.depth, k.parentFP,
			k.childIndex, k.chainCode, k.pubKey)
	}
	return k.pubMirror
}

// SetCache points the key (and every child subsequently derived from
// it) at an explicit derivation cache instead of the shared one.
func (k *PrivateKey) SetCache(c *DerivationCache) {
	k.cache = c
}

func (k *PrivateKey) cacheOrShared() *DerivationCache {
	if k.cache != nil {
		return k.cache
	}
	return SharedCache()
}

// IsZeroed reports whether the key has been destroyed.
func (k *PrivateKey) IsZeroed() bool {
	return len(k.key) == 0
}

// Zero destroys the key: every byte buffer is wiped, the scalar fields
// are reset, cached serializations are dropped, and the linked mnemonic
// is recursively destroyed. A previously materialized public mirror is
// detached; it is wiped too when zeroPublic is set. The key rejects all
// further derivation and serialization.
func (k *PrivateKey) Zero(zeroPublic bool) {
	zero.Bytes(k.key)
	zero.Bytes(k.chainCode)
	zero.Bytes(k.pubKey)
	zero.Bytes(k.parentFP)
	zero.Bytes(k.fingerprint)
	k.key = nil
	k.chainCode = nil
	k.pubKey = nil
	k.parentFP = nil
	k.fingerprint = nil

	k.depth = 0
	k.childIndex = 0
	k.encoded = ""

	if k.mnemonic != nil {
		k.mnemonic.Zero()
		k.mnemonic = nil
	}

	if k.pubMirror != nil {
		if zeroPublic {
			k.pubMirror.Zero()
		}
		k.pubMirror = nil
	}
}

// Equal reports structural equality: same network, depth, parent
// fingerprint, child index, chain code and private key, byte exact.
func (k *PrivateKey) Equal(other *PrivateKey) bool {
	if other == nil {
		return false
	}

	return k.net.HDPrivateKeyID == other.net.HDPrivateKeyID &&
		k.depth == other.depth &&
		bytes.Equal(k.parentFP, other.parentFP) &&
		k.childIndex == other.childIndex &&
		bytes.Equal(k.chainCode, other.chainCode) &&
		bytes.Equal(k.key, other.key)
}

// Compare imposes a total order over keys by comparing depth, parent
// fingerprint, child index, chain code and private key in turn; the
// first difference decides.
func (k *PrivateKey) Compare(other *PrivateKey) int {
	if k.depth != other.depth {
		if k.depth < other.depth {
			return -1
		}
		return 1
	}
	if c := bytes.Compare(k.parentFP, other.parentFP); c != 0 {
		return c
	}
	if k.childIndex != other.childIndex {
		if k.childIndex < other.childIndex {
			return -1
		}
		return 1
	}
	if c := bytes.Compare(k.chainCode, other.chainCode); c != 0 {
		return c
	}
	return bytes.Compare(k.key, other.key)
}
