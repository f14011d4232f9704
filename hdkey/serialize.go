package hdkey

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/czh0526/hd-keychain/mnemonic"
	"github.com/czh0526/hd-keychain/netparams"
)

const (
	// serializedKeyLen is the length of the raw payload:
	// version(4) + depth(1) + parentFP(4) + childIndex(4) +
	// chainCode(32) + 0x00 + key(32).
	serializedKeyLen = 78

	// serializedCheckedKeyLen adds the 4-byte double-SHA256 checksum.
	serializedCheckedKeyLen = serializedKeyLen + 4
)

// Serialize encodes the key into its raw 82-byte form: the 78-byte
// payload followed by the first 4 bytes of its double-SHA256. The
// network override selects which parameter table supplies the version
// prefix; nil means the key's own network.
func (k *PrivateKey) Serialize(net *netparams.Params) ([]byte, error) {
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
	buf = append(buf, net.HDPrivateKeyID[:]...)
	buf = append(buf, k.depth)
	buf = append(buf, k.parentFP...)
	buf = append(buf, childIndex[:]...)
	buf = append(buf, k.chainCode...)
	buf = append(buf, 0x00)
	buf = append(buf, k.key...)

	checksum := chainhash.DoubleHashB(buf)[:4]
	return append(buf, checksum...), nil
}

// Deserialize decodes an 82-byte raw serialization. The checksum is
// verified first, then the version prefix is resolved against the
// registered networks.
func Deserialize(serialized []byte) (*PrivateKey, error) {
	if len(serialized) != serializedCheckedKeyLen {
		str := fmt.Sprintf("serialized key must be %d bytes, got %d",
			serializedCheckedKeyLen, len(serialized))
		return nil, keyError(ErrMalformedKey, str, nil)
	}

	payload := serialized[:serializedKeyLen]
	checksum := serialized[serializedKeyLen:]
	expected := chainhash.DoubleHashB(payload)[:4]
	if !bytes.Equal(checksum, expected) {
		return nil, keyError(ErrBadChecksum,
			"serialized key failed checksum verification", nil)
	}

	var prefix [4]byte
	copy(prefix[:], payload[:4])
	net, err := netparams.LookupPrivatePrefix(prefix)
	if err != nil {
		return nil, keyError(ErrUnknownVersion,
			"serialized key carries an unknown version prefix", err)
	}

	depth := payload[4]
	parentFP := payload[5:9]
	childIndex := binary.BigEndian.Uint32(payload[9:13])
	chainCode := payload[13:45]
	if payload[45] != 0x00 {
		return nil, keyError(ErrMalformedKey,
			"missing private key padding byte", nil)
	}
	key := payload[46:78]

	if !scalarIsValid(key) {
		return nil, keyError(ErrMalformedKey,
			"serialized private key is not a valid scalar", nil)
	}
	if depth == 0 && (childIndex != 0 ||
		!bytes.Equal(parentFP, zeroFingerprint)) {

		return nil, keyError(ErrMalformedKey,
			"depth-0 key must have zero parent fingerprint and child index", nil)
	}

	parentFPCopy := make([]byte, fingerprintLen)
	copy(parentFPCopy, parentFP)
	chainCopy := make([]byte, chainCodeLen)
	copy(chainCopy, chainCode)
	keyCopy := make([]byte, keyLen)
	copy(keyCopy, key)

	return newPrivateKey(net, depth, parentFPCopy, childIndex,
		chainCopy, keyCopy), nil
}

// String returns the base58 text form of the raw serialization (the
// familiar xprv format on mainnet). The string is computed once and
// cached on the node.
func (k *PrivateKey) String() string {
	if k.IsZeroed() {
		return "zeroed extended key"
	}
	if k.encoded == "" {
		serialized, _ := k.Serialize(nil)
		k.encoded = base58.Encode(serialized)
	}
	return k.encoded
}

// NewKeyFromString decodes the base58 text form.
func NewKeyFromString(s string) (*PrivateKey, error) {
	decoded := base58.Decode(s)
	if len(decoded) != serializedCheckedKeyLen {
		str := fmt.Sprintf("decoded key must be %d bytes, got %d",
			serializedCheckedKeyLen, len(decoded))
		return nil, keyError(ErrMalformedKey, str, nil)
	}
	return Deserialize(decoded)
}

// SerializeExtended encodes the key for full backup: the raw form, a
// flag byte marking whether a mnemonic is attached, and the mnemonic's
// own serialization when it is. Decoding the result reconstructs both
// the key and its seed phrase.
func (k *PrivateKey) SerializeExtended() ([]byte, error) {
	raw, err := k.Serialize(nil)
	if err != nil {
		return nil, err
	}

	if k.mnemonic == nil {
		return append(raw, 0x00), nil
	}

	buf := append(raw, 0x01)
	return append(buf, k.mnemonic.Serialize()...), nil
}

// DeserializeExtended decodes a buffer produced by SerializeExtended.
func DeserializeExtended(buf []byte) (*PrivateKey, error) {
	if len(buf) < serializedCheckedKeyLen+1 {
		str := fmt.Sprintf("extended serialization must be at least %d bytes",
			serializedCheckedKeyLen+1)
		return nil, keyError(ErrMalformedKey, str, nil)
	}

	key, err := Deserialize(buf[:serializedCheckedKeyLen])
	if err != nil {
		return nil, err
	}

	rest := buf[serializedCheckedKeyLen:]
	switch rest[0] {
	case 0x00:
		if len(rest) != 1 {
			return nil, keyError(ErrMalformedKey,
				"trailing bytes after extended serialization", nil)
		}

	case 0x01:
		m, consumed, err := mnemonic.Deserialize(rest[1:])
		if err != nil {
			return nil, keyError(ErrMalformedKey,
				"invalid mnemonic payload", err)
		}
		if len(rest) != 1+consumed {
			return nil, keyError(ErrMalformedKey,
				"trailing bytes after extended serialization", nil)
		}
		key.mnemonic = m

	default:
		return nil, keyError(ErrMalformedKey,
			fmt.Sprintf("invalid mnemonic flag byte %#x", rest[0]), nil)
	}

	return key, nil
}

type privateKeyJSON struct {
	XPrivKey string             `json:"xprivkey"`
	Mnemonic *mnemonic.Mnemonic `json:"mnemonic"`
}

// MarshalJSON encodes the key as {"xprivkey": <base58>, "mnemonic":
// <object|null>}.
func (k *PrivateKey) MarshalJSON() ([]byte, error) {
	if k.IsZeroed() {
		return nil, keyError(ErrZeroedKey,
			"cannot serialize a destroyed key", nil)
	}

	return json.Marshal(privateKeyJSON{
		XPrivKey: k.String(),
		Mnemonic: k.mnemonic,
	})
}

// UnmarshalJSON decodes the JSON form. The xprivkey field is required.
func (k *PrivateKey) UnmarshalJSON(data []byte) error {
	var obj privateKeyJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.XPrivKey == "" {
		return keyError(ErrMissingField,
			"required field `xprivkey` is missing", nil)
	}

	decoded, err := NewKeyFromString(obj.XPrivKey)
	if err != nil {
		return err
	}
	decoded.mnemonic = obj.Mnemonic

	*k = *decoded
	return nil
}
