package hdkey

import (
	"encoding/hex"
	"testing"

	"github.com/czh0526/hd-keychain/netparams"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testVec1MasterHex is BIP32 test vector 1.
const testVec1MasterHex = "000102030405060708090a0b0c0d0e0f"

func testVec1Master(t *testing.T) *PrivateKey {
	t.Helper()

	seed, err := hex.DecodeString(testVec1MasterHex)
	require.NoError(t, err)

	master, err := NewMaster(seed, &netparams.MainNetParams)
	require.NoError(t, err)
	master.SetCache(NewDerivationCache(100))

	return master
}

func TestBIP0032Vectors(t *testing.T) {
	hkStart := HardenedKeyStart

	tests := []struct {
		name     string
		path     []uint32
		wantPriv string
		wantPub  string
	}{
		{
			name:     "test vector 1 chain m",
			path:     []uint32{},
			wantPriv: "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHi",
			wantPub:  "xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhePY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8",
		},
		{
			name:     "test vector 1 chain m/0H",
			path:     []uint32{hkStart},
			wantPriv: "xprv9uHRZZhk6KAJC1avXpDAp4MDc3sQKNxDiPvvkX8Br5ngLNv1TxvUxt4cV1rGL5hj6KCesnDYUhd7oWgT11eZG7XnxHrnYeSvkzY7d2bhkJ7",
			wantPub:  "xpub68Gmy5EdvgibQVfPdqkBBCHxA5htiqg55crXYuXoQRKfDBFA1WEjWgP6LHhwBZeNK1VTsfTFUHCdrfp1bgwQ9xv5ski8PX9rL2dZXvgGDnw",
		},
		{
			name:     "test vector 1 chain m/0H/1",
			path:     []uint32{hkStart, 1},
			wantPriv: "xprv9wTYmMFdV23N2TdNG573QoEsfRrWKQgWeibmLntzniatZvR9BmLnvSxqu53Kw1UmYPxLgboyZQaXwTCg8MSY3H2EU4pWcQDnRnrVA1xe8fs",
			wantPub:  "xpub6ASuArnXKPbfEwhqN6e3mwBcDTgzisQN1wXN9BJcM47sSikHjJf3UFHKkNAWbWMiGj7Wf5uMash7SyYq527Hqck2AxYysAA7xmALppuCkwQ",
		},
		{
			name:     "test vector 1 chain m/0H/1/2H",
			path:     []uint32{hkStart, 1, hkStart + 2},
			wantPriv: "xprv9z4pot5VBttmtdRTWfWQmoH1taj2axGVzFqSb8C9xaxKymcFzXBDptWmT7FwuEzG3ryjH4ktypQSAewRiNMjANTtpgP4mLTj34bhnZX7UiM",
			wantPub:  "xpub6D4BDPcP2GT577Vvch3R8wDkScZWzQzMMUm3PWbmWvVJrZwQY4VUNgqFJPMM3No2dFDFGTsxxpG5uJh7n7epu4trkrX7x7DogT5Uv6fcLW5",
		},
		{
			name:     "test vector 1 chain m/0H/1/2H/2",
			path:     []uint32{hkStart, 1, hkStart + 2, 2},
			wantPriv: "xprvA2JDeKCSNNZky6uBCviVfJSKyQ1mDYahRjijr5idH2WwLsEd4Hsb2Tyh8RfQMuPh7f7RtyzTtdrbdqqsunu5Mm3wDvUAKRHSC34sJ7in334",
			wantPub:  "xpub6FHa3pjLCk84BayeJxFW2SP4XRrFd1JYnxeLeU8EqN3vDfZmbqBqaGJAyiLjTAwm6ZLRQUMv1ZACTj37sR62cfN7fe5JnJ7dh8zL4fiyLHV",
		},
		{
			name:     "test vector 1 chain m/0H/1/2H/2/1000000000",
			path:     []uint32{hkStart, 1, hkStart + 2, 2, 1000000000},
			wantPriv: "xprvA41z7zogVVwxVSgdKUHDy1SKmdb533PjDz7J6N6mV6uS3ze1ai8FHa8kmHScGpWmj4WggLyQjgPie1rFSruoUihUZREPSL39UNdE3BBDu76",
			wantPub:  "xpub6H1LXWLaKsWFhvm6RVpEL9P4KfRZSW7abD2ttkWP3SSQvnyA8FSVqNTEcYFgJS2UaFcxupHiYkro49S8yGasTvXEYBVPamhGW6cFJodrTHy",
		},
	}

	for _, test := range tests {
		extKey := testVec1Master(t)

		for _, childNum := range test.path {
			var err error
			extKey, err = extKey.Derive(childNum)
			require.NoError(t, err, test.name)
		}

		assert.Equal(t, uint8(len(test.path)), extKey.Depth(), test.name)
		assert.Equal(t, test.wantPriv, extKey.String(), test.name)
		assert.Equal(t, test.wantPub, extKey.PublicKey().String(), test.name)
	}
}

func TestDeriveHardenedNormalization(t *testing.T) {
	master := testVec1Master(t)

	// 显式的 hardened 派生
	explicit, err := master.DeriveHardened(5)
	require.NoError(t, err)
	assert.Equal(t, HardenedKeyStart+5, explicit.ChildIndex())

	// An index at or above the hardened offset is hardened no matter
	// which method is used.
	implicit, err := master.Derive(HardenedKeyStart + 5)
	require.NoError(t, err)
	assert.True(t, explicit.Equal(implicit))

	alreadyHardened, err := master.DeriveHardened(HardenedKeyStart + 5)
	require.NoError(t, err)
	assert.True(t, explicit.Equal(alreadyHardened))
}

func TestDeriveCacheIdentity(t *testing.T) {
	master := testVec1Master(t)

	child1, err := master.Derive(7)
	require.NoError(t, err)
	child2, err := master.Derive(7)
	require.NoError(t, err)

	// 重复派生返回缓存的同一个节点
	assert.Same(t, child1, child2)

	// Separate trees with separate caches derive equal but distinct
	// nodes.
	other := testVec1Master(t)
	child3, err := other.Derive(7)
	require.NoError(t, err)
	assert.True(t, child1.Equal(child3))
	assert.NotSame(t, child1, child3)
}

func TestDeriveBeyondMaxDepth(t *testing.T) {
	deep := testKeyAtDepth(t, maxDepth)

	_, err := deep.Derive(0)
	assert.True(t, IsError(err, ErrDeriveBeyondMaxDepth))
}

func TestDeriveFromZeroedKey(t *testing.T) {
	master := testVec1Master(t)
	master.Zero(true)

	_, err := master.Derive(0)
	assert.True(t, IsError(err, ErrZeroedKey))
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		path    string
		want    []uint32
		wantErr bool
	}{
		{path: "m", want: []uint32{}},
		{path: "m/0", want: []uint32{0}},
		{path: "0", want: []uint32{0}},
		{path: "m/0'/1", want: []uint32{HardenedKeyStart, 1}},
		{path: "m/44'/0'/0'", want: []uint32{
			HardenedKeyStart + 44, HardenedKeyStart, HardenedKeyStart}},
		{path: "m/1h/2H", want: []uint32{
			HardenedKeyStart + 1, HardenedKeyStart + 2}},
		// An already-hardened numeric index keeps its value even with
		// a hardened marker attached.
		{path: "m/2147483648'", want: []uint32{HardenedKeyStart}},
		{path: "M/3", want: []uint32{3}},
		{path: "", wantErr: true},
		{path: "m//0", wantErr: true},
		{path: "m/'", wantErr: true},
		{path: "m/abc", wantErr: true},
		{path: "m/0''", wantErr: true},
		{path: "m/-1", wantErr: true},
	}

	for _, test := range tests {
		indexes, err := ParsePath(test.path)
		if test.wantErr {
			assert.Error(t, err, "path `%s`", test.path)
			assert.True(t, IsError(err, ErrInvalidPath), "path `%s`", test.path)
			continue
		}
		require.NoError(t, err, "path `%s`", test.path)
		assert.Equal(t, test.want, indexes, "path `%s`", test.path)
	}

	// 超出 32 位范围的索引
	_, err := ParsePath("m/4294967296")
	assert.True(t, IsError(err, ErrInvalidIndex))
}

func TestDerivePath(t *testing.T) {
	master := testVec1Master(t)

	byPath, err := master.DerivePath("m/0'/1")
	require.NoError(t, err)

	step1, err := master.DeriveHardened(0)
	require.NoError(t, err)
	byHand, err := step1.Derive(1)
	require.NoError(t, err)

	assert.True(t, byHand.Equal(byPath))

	// "m" 返回起点本身
	self, err := master.DerivePath("m")
	require.NoError(t, err)
	assert.Same(t, master, self)
}

func TestDeriveAccount44(t *testing.T) {
	master := testVec1Master(t)

	acct, err := master.DeriveAccount44(0)
	require.NoError(t, err)

	// m/44'/coin'/0' derived step by step must reach the same node.
	purpose, err := master.DeriveHardened(44)
	require.NoError(t, err)
	coinType, err := purpose.DeriveHardened(master.Net().HDCoinType)
	require.NoError(t, err)
	byHand, err := coinType.DeriveHardened(0)
	require.NoError(t, err)

	assert.True(t, byHand.Equal(acct))
	assert.Equal(t, uint8(3), acct.Depth())
	assert.True(t, acct.IsAccount44())
	assert.True(t, acct.IsAccount44(0))
	assert.False(t, acct.IsAccount44(1))
	assert.False(t, acct.IsMaster())

	// 非 master 节点不能做 account 派生
	_, err = acct.DeriveAccount44(1)
	assert.True(t, IsError(err, ErrNotMaster))
}

func TestDerivePurpose45(t *testing.T) {
	master := testVec1Master(t)

	purpose, err := master.DerivePurpose45()
	require.NoError(t, err)

	assert.Equal(t, uint8(1), purpose.Depth())
	assert.Equal(t, HardenedKeyStart+45, purpose.ChildIndex())
	assert.True(t, purpose.IsPurpose45())
	assert.False(t, purpose.IsMaster())

	_, err = purpose.DerivePurpose45()
	assert.True(t, IsError(err, ErrNotMaster))
}

func TestIsMaster(t *testing.T) {
	master := testVec1Master(t)
	assert.True(t, master.IsMaster())

	child, err := master.Derive(0)
	require.NoError(t, err)
	assert.False(t, child.IsMaster())
}
