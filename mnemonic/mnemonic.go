// Package mnemonic wraps a BIP39 seed phrase so that it can travel with
// the extended key it produced and be recovered from a full backup.
package mnemonic

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/czh0526/hd-keychain/internal/zero"
	"github.com/tyler-smith/go-bip39"
)

const (
	// DefaultEntropyBits yields a 24-word phrase.
	DefaultEntropyBits = 256

	// MinEntropyBits and MaxEntropyBits bound the BIP39 entropy sizes
	// (12 through 24 words).
	MinEntropyBits = 128
	MaxEntropyBits = 256
)

var (
	ErrInvalidMnemonic = errors.New("mnemonic phrase failed checksum or wordlist validation")
	ErrInvalidEntropy  = errors.New("entropy bits must be in [128, 256] and a multiple of 32")
	ErrMalformed       = errors.New("malformed serialized mnemonic")
)

// Mnemonic holds a validated seed phrase. The phrase is secret material:
// callers are expected to Zero it when the wallet no longer needs it.
type Mnemonic struct {
	phrase []byte
}

// New generates a fresh phrase from entropyBits bits of system entropy.
func New(entropyBits int) (*Mnemonic, error) {
	if entropyBits < MinEntropyBits || entropyBits > MaxEntropyBits ||
		entropyBits%32 != 0 {
		return nil, ErrInvalidEntropy
	}

	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return nil, fmt.Errorf("generate entropy: %w", err)
	}
	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("generate mnemonic: %w", err)
	}

	return &Mnemonic{phrase: []byte(phrase)}, nil
}

// Generate creates a phrase of the default (24 word) size.
func Generate() (*Mnemonic, error) {
	return New(DefaultEntropyBits)
}

// NewFromPhrase validates an existing phrase.
func NewFromPhrase(phrase string) (*Mnemonic, error) {
	if !bip39.IsMnemonicValid(phrase) {
		return nil, ErrInvalidMnemonic
	}
	return &Mnemonic{phrase: []byte(phrase)}, nil
}

// Phrase returns the space separated word list.
func (m *Mnemonic) Phrase() string {
	return string(m.phrase)
}

// Seed stretches the phrase into the 64-byte BIP39 seed. The passphrase
// may be empty.
func (m *Mnemonic) Seed(passphrase string) []byte {
	return bip39.NewSeed(string(m.phrase), passphrase)
}

// Serialize encodes the phrase as a 2-byte big-endian length followed by
// the phrase bytes. The format is self-delimiting so it can trail an
// extended key serialization.
func (m *Mnemonic) Serialize() []byte {
	buf := make([]byte, 2+len(m.phrase))
	binary.BigEndian.PutUint16(buf, uint16(len(m.phrase)))
	copy(buf[2:], m.phrase)
	return buf
}

// Deserialize decodes a buffer produced by Serialize and returns the
// mnemonic along with the number of bytes consumed.
func Deserialize(buf []byte) (*Mnemonic, int, error) {
	if len(buf) < 2 {
		return nil, 0, ErrMalformed
	}
	phraseLen := int(binary.BigEndian.Uint16(buf))
	if len(buf) < 2+phraseLen {
		return nil, 0, ErrMalformed
	}

	m, err := NewFromPhrase(string(buf[2 : 2+phraseLen]))
	if err != nil {
		return nil, 0, err
	}
	return m, 2 + phraseLen, nil
}

// Equal reports whether both phrases are byte identical.
func (m *Mnemonic) Equal(other *Mnemonic) bool {
	if other == nil {
		return false
	}
	return string(m.phrase) == string(other.phrase)
}

type mnemonicJSON struct {
	Mnemonic string `json:"mnemonic"`
}

func (m *Mnemonic) MarshalJSON() ([]byte, error) {
	return json.Marshal(mnemonicJSON{Mnemonic: string(m.phrase)})
}

func (m *Mnemonic) UnmarshalJSON(data []byte) error {
	var obj mnemonicJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if !bip39.IsMnemonicValid(obj.Mnemonic) {
		return ErrInvalidMnemonic
	}
	m.phrase = []byte(obj.Mnemonic)
	return nil
}

// Zero wipes the phrase bytes. The mnemonic is unusable afterwards.
func (m *Mnemonic) Zero() {
	zero.Bytes(m.phrase)
	m.phrase = nil
}

// IsZeroed reports whether the phrase has been destroyed.
func (m *Mnemonic) IsZeroed() bool {
	return len(m.phrase) == 0
}
