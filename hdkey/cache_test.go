package hdkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivationCacheHitMiss(t *testing.T) {
	c := NewDerivationCache(10)
	master := testVec1Master(t)
	id := derivationID(master.net.HDPrivateKeyID, master.pubKey, 0)

	_, ok := c.lookup(id)
	assert.False(t, ok)

	child, err := master.Derive(0)
	require.NoError(t, err)

	c.store(id, child)
	got, ok := c.lookup(id)
	assert.True(t, ok)
	assert.Same(t, child, got)
	assert.Equal(t, 1, c.Len())
}

func TestDerivationCacheEviction(t *testing.T) {
	master := testVec1Master(t)
	master.SetCache(NewDerivationCache(2))

	for index := uint32(0); index < 5; index++ {
		_, err := master.Derive(index)
		require.NoError(t, err)
	}

	// 容量之外的条目被淘汰
	assert.Equal(t, 2, master.cache.Len())
}

func TestDerivationCacheSharedByPosition(t *testing.T) {
	c := NewDerivationCache(10)

	// Two independently built masters at the same tree position hit
	// the same cache entries.
	k1 := testVec1Master(t)
	k1.SetCache(c)
	k2 := testVec1Master(t)
	k2.SetCache(c)

	child1, err := k1.Derive(12)
	require.NoError(t, err)
	child2, err := k2.Derive(12)
	require.NoError(t, err)

	assert.Same(t, child1, child2)
	assert.Equal(t, 1, c.Len())
}

func TestDerivationCacheInherited(t *testing.T) {
	c := NewDerivationCache(10)
	master := testVec1Master(t)
	master.SetCache(c)

	child, err := master.Derive(0)
	require.NoError(t, err)

	// 子节点继承父节点的缓存
	grandchild, err := child.Derive(1)
	require.NoError(t, err)
	assert.Same(t, c, grandchild.cache)
	assert.Equal(t, 2, c.Len())
}

func TestSharedCache(t *testing.T) {
	assert.Same(t, SharedCache(), SharedCache())
}

func TestDerivationIDDistinct(t *testing.T) {
	master := testVec1Master(t)

	base := derivationID(master.net.HDPrivateKeyID, master.pubKey, 0)
	assert.NotEqual(t, base,
		derivationID(master.net.HDPrivateKeyID, master.pubKey, 1))

	otherPrefix := [4]byte{0xff, 0xff, 0xff, 0xff}
	assert.NotEqual(t, base,
		derivationID(otherPrefix, master.pubKey, 0))
}
