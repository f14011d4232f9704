package mnemonic

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testVecPhrase is the all-zero entropy vector from the BIP39 reference
// suite.
const (
	testVecPhrase = "abandon abandon abandon abandon abandon abandon " +
		"abandon abandon abandon abandon abandon about"
	testVecSeedHex = "c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e" +
		"9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c8" +
		"1b2f001698e7463b04"
)

func TestNew(t *testing.T) {
	tests := []struct {
		bits      int
		wantWords int
		wantErr   bool
	}{
		{bits: 128, wantWords: 12},
		{bits: 160, wantWords: 15},
		{bits: 192, wantWords: 18},
		{bits: 224, wantWords: 21},
		{bits: 256, wantWords: 24},
		{bits: 96, wantErr: true},
		{bits: 288, wantErr: true},
		{bits: 130, wantErr: true},
		{bits: 0, wantErr: true},
	}

	for _, test := range tests {
		m, err := New(test.bits)
		if test.wantErr {
			assert.ErrorIs(t, err, ErrInvalidEntropy, "bits %d", test.bits)
			continue
		}
		require.NoError(t, err, "bits %d", test.bits)
		assert.Len(t, strings.Fields(m.Phrase()), test.wantWords,
			"bits %d", test.bits)
	}
}

func TestGenerate(t *testing.T) {
	m1, err := Generate()
	require.NoError(t, err)
	m2, err := Generate()
	require.NoError(t, err)

	assert.Len(t, strings.Fields(m1.Phrase()), 24)
	assert.False(t, m1.Equal(m2))
}

func TestNewFromPhrase(t *testing.T) {
	m, err := NewFromPhrase(testVecPhrase)
	require.NoError(t, err)
	assert.Equal(t, testVecPhrase, m.Phrase())

	// 无效的助记词被拒绝
	_, err = NewFromPhrase("abandon abandon abandon")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
	_, err = NewFromPhrase("")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
	_, err = NewFromPhrase(strings.Replace(testVecPhrase, "about", "aboot", 1))
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
}

func TestSeed(t *testing.T) {
	m, err := NewFromPhrase(testVecPhrase)
	require.NoError(t, err)

	seed := m.Seed("TREZOR")
	assert.Equal(t, testVecSeedHex, hex.EncodeToString(seed))

	// 不同的口令产生不同的种子
	assert.NotEqual(t, seed, m.Seed(""))
}

func TestSerializeRoundTrip(t *testing.T) {
	m, err := NewFromPhrase(testVecPhrase)
	require.NoError(t, err)

	buf := m.Serialize()
	require.Len(t, buf, 2+len(testVecPhrase))

	decoded, consumed, err := Deserialize(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), consumed)
	assert.True(t, m.Equal(decoded))

	// Trailing bytes are left for the caller; consumed tells it where
	// the mnemonic ends.
	decoded, consumed, err = Deserialize(append(buf, 0xff, 0xff))
	require.NoError(t, err)
	assert.Equal(t, len(buf), consumed)
	assert.True(t, m.Equal(decoded))
}

func TestDeserializeMalformed(t *testing.T) {
	_, _, err := Deserialize(nil)
	assert.ErrorIs(t, err, ErrMalformed)
	_, _, err = Deserialize([]byte{0x00})
	assert.ErrorIs(t, err, ErrMalformed)

	// 长度前缀超过剩余的字节数
	_, _, err = Deserialize([]byte{0xff, 0xff, 'a', 'b'})
	assert.ErrorIs(t, err, ErrMalformed)

	// Valid framing around an invalid phrase.
	m, err := NewFromPhrase(testVecPhrase)
	require.NoError(t, err)
	buf := m.Serialize()
	buf[2] ^= 0xff
	_, _, err = Deserialize(buf)
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
}

func TestJSONRoundTrip(t *testing.T) {
	m, err := NewFromPhrase(testVecPhrase)
	require.NoError(t, err)

	encoded, err := m.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"mnemonic": "`+testVecPhrase+`"}`, string(encoded))

	var decoded Mnemonic
	require.NoError(t, decoded.UnmarshalJSON(encoded))
	assert.True(t, m.Equal(&decoded))

	err = decoded.UnmarshalJSON([]byte(`{"mnemonic": "not a phrase"}`))
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
}

func TestZero(t *testing.T) {
	m, err := Generate()
	require.NoError(t, err)
	require.False(t, m.IsZeroed())

	m.Zero()
	assert.True(t, m.IsZeroed())
	assert.Empty(t, m.Phrase())
}
