package hdkey

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/czh0526/hd-keychain/internal/zero"
)

// bip44Purpose and bip45Purpose are the fixed first derivation steps of
// the respective specifications.
const (
	bip44Purpose uint32 = 44
	bip45Purpose uint32 = 45
)

// Derive computes the child key at index. An index at or above
// HardenedKeyStart selects hardened derivation; anything below it is a
// normal child. Repeated derivation of the same position returns the
// cached node.
//
// Per BIP32, roughly 1 in 2^127 indexes hashes to an invalid child
// scalar; such an index is skipped and derivation continues with
// index+1. The skip stays within the requested (hardened or normal)
// index space: running off its end fails with ErrInvalidChild.
func (k *PrivateKey) Derive(index uint32) (*PrivateKey, error) {
	if k.IsZeroed() {
		return nil, keyError(ErrZeroedKey,
			"cannot derive from a destroyed key", nil)
	}
	if k.depth == maxDepth {
		str := fmt.Sprintf("cannot derive past the maximum depth of %d",
			maxDepth)
		return nil, keyError(ErrDeriveBeyondMaxDepth, str, nil)
	}

	derivationCache := k.cacheOrShared()
	hardened := index >= HardenedKeyStart

	for {
		// 检查缓存
		id := derivationID(k.net.HDPrivateKeyID, k.pubKey, index)
		if child, ok := derivationCache.lookup(id); ok {
			return child, nil
		}

		child, ok := k.childKeyDerivation(index)
		if ok {
			derivationCache.store(id, child)
			return child, nil
		}

		// Invalid tweak result: continue with the next index, per
		// the specification, unless that would leave the index
		// space.
		atEnd := (hardened && index == math.MaxUint32) ||
			(!hardened && index == HardenedKeyStart-1)
		if atEnd {
			str := fmt.Sprintf("no valid child key at or after index %d", index)
			return nil, keyError(ErrInvalidChild, str, nil)
		}
		index++
	}
}

// DeriveHardened derives the hardened child at index, i.e. the child at
// index+HardenedKeyStart. Indexes that are already in the hardened
// range are used as they are.
func (k *PrivateKey) DeriveHardened(index uint32) (*PrivateKey, error) {
	if index < HardenedKeyStart {
		index += HardenedKeyStart
	}
	return k.Derive(index)
}

// childKeyDerivation runs one round of the CKD function. The second
// return value is false when the index produced an invalid scalar and
// the caller should continue with the next index; this is an expected
// branch of the algorithm, not an error.
func (k *PrivateKey) childKeyDerivation(index uint32) (*PrivateKey, bool) {
	// For hardened children:	0x00 || ser256(parentKey) || ser32(i)
	// For normal children:		serP(parentPubKey) || ser32(i)
	data := make([]byte, 0, pubKeyLen+4)
	if index >= HardenedKeyStart {
		data = append(data, 0x00)
		data = append(data, k.key...)
	} else {
		data = append(data, k.pubKey...)
	}
	var indexBytes [4]byte
	binary.BigEndian.PutUint32(indexBytes[:], index)
	data = append(data, indexBytes[:]...)

	hmac512 := hmac.New(sha512.New, k.chainCode)
	hmac512.Write(data)
	ilr := hmac512.Sum(nil)
	zero.Bytes(data)

	il := ilr[:keyLen]
	childChainCode := ilr[keyLen:]

	// child = (IL + parent) mod N. IL values at or above the curve
	// order, and sums that cancel to zero, are invalid.
	ilNum := new(big.Int).SetBytes(il)
	if ilNum.Cmp(curveOrder) >= 0 || ilNum.Sign() == 0 {
		zero.BigInt(ilNum)
		return nil, false
	}

	keyNum := new(big.Int).SetBytes(k.key)
	ilNum.Add(ilNum, keyNum)
	ilNum.Mod(ilNum, curveOrder)
	zero.BigInt(keyNum)
	if ilNum.Sign() == 0 {
		zero.BigInt(ilNum)
		return nil, false
	}

	childKey := ilNum.FillBytes(make([]byte, keyLen))
	zero.BigInt(ilNum)

	// Fingerprint() 填充并缓存父节点的指纹
	child := newPrivateKey(k.net, k.depth+1, k.Fingerprint(), index,
		childChainCode, childKey)
	child.cache = k.cache

	return child, true
}

// ParsePath parses a slash delimited derivation path such as
// m/44'/0'/1/2h into the sequence of normalized child indexes it
// denotes. A leading m or M root marker is permitted and ignored.
// Hardened steps carry a ', h or H suffix; a numeric index that is
// already in the hardened range stays as written.
func ParsePath(path string) ([]uint32, error) {
	if path == "" {
		return nil, keyError(ErrInvalidPath, "empty derivation path", nil)
	}

	parts := strings.Split(path, "/")
	if parts[0] == "m" || parts[0] == "M" {
		parts = parts[1:]
	}

	indexes := make([]uint32, 0, len(parts))
	for _, part := range parts {
		hardened := false
		if len(part) > 0 {
			switch part[len(part)-1] {
			case '\'', 'h', 'H':
				hardened = true
				part = part[:len(part)-1]
			}
		}
		if part == "" {
			str := fmt.Sprintf("empty step in derivation path `%s`", path)
			return nil, keyError(ErrInvalidPath, str, nil)
		}

		value, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				str := fmt.Sprintf("index `%s` is outside the 32-bit range", part)
				return nil, keyError(ErrInvalidIndex, str, err)
			}
			str := fmt.Sprintf("invalid step `%s` in derivation path", part)
			return nil, keyError(ErrInvalidPath, str, err)
		}

		index := uint32(value)
		if hardened && index < HardenedKeyStart {
			index += HardenedKeyStart
		}
		indexes = append(indexes, index)
	}

	return indexes, nil
}

// DerivePath applies every step of the parsed path in order, starting
// from this key, and returns the node it reaches.
func (k *PrivateKey) DerivePath(path string) (*PrivateKey, error) {
	indexes, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	key := k
	for _, index := range indexes {
		key, err = key.Derive(index)
		if err != nil {
			return nil, err
		}
	}

	return key, nil
}

// DeriveAccount44 derives the BIP44 account key
// m/44'/coin_type'/account' where coin_type comes from the key's
// network parameters. It is only valid on a master key.
func (k *PrivateKey) DeriveAccount44(account uint32) (*PrivateKey, error) {
	if !k.IsMaster() {
		return nil, keyError(ErrNotMaster,
			"BIP44 account derivation requires the master key", nil)
	}

	purpose, err := k.DeriveHardened(bip44Purpose)
	if err != nil {
		return nil, err
	}

	coinType, err := purpose.DeriveHardened(k.net.HDCoinType)
	if err != nil {
		return nil, err
	}

	return coinType.DeriveHardened(account)
}

// DerivePurpose45 derives the BIP45 purpose key m/45'. It is only valid
// on a master key.
func (k *PrivateKey) DerivePurpose45() (*PrivateKey, error) {
	if !k.IsMaster() {
		return nil, keyError(ErrNotMaster,
			"BIP45 purpose derivation requires the master key", nil)
	}

	return k.DeriveHardened(bip45Purpose)
}

// IsMaster reports whether this is a root node: depth 0, child index 0,
// all-zero parent fingerprint.
func (k *PrivateKey) IsMaster() bool {
	return k.depth == 0 && k.childIndex == 0 &&
		bytes.Equal(k.parentFP, zeroFingerprint)
}

// IsAccount44 reports whether this key sits at a BIP44 account position
// (depth 3, hardened child index). When an expected account index is
// supplied the child index must match it exactly.
func (k *PrivateKey) IsAccount44(expectedAccount ...uint32) bool {
	if k.depth != 3 || k.childIndex < HardenedKeyStart {
		return false
	}
	if len(expectedAccount) > 0 {
		return k.childIndex == HardenedKeyStart+expectedAccount[0]
	}
	return true
}

// IsPurpose45 reports whether this key is the BIP45 purpose key m/45'.
func (k *PrivateKey) IsPurpose45() bool {
	return k.depth == 1 && k.childIndex == HardenedKeyStart+bip45Purpose
}
