package hdkey

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/lightninglabs/neutrino/cache"
	"github.com/lightninglabs/neutrino/cache/lru"
)

const (
	// defaultCacheSize bounds the number of derived keys the shared
	// cache may hold. Derivation is a pure function of its inputs so
	// entries never go stale; the bound only caps memory.
	defaultCacheSize = 10_000
)

type cacheEntry struct {
	key *PrivateKey
}

func (c *cacheEntry) Size() (uint64, error) {
	return 1, nil
}

// DerivationCache memoizes child key derivations. The identity of a
// derivation is the network private-key prefix, the parent public key
// and the normalized child index, so two parents at the same tree
// position share entries regardless of how they were constructed.
//
// Lookups and inserts are safe for concurrent use. Concurrent derivation
// of the same position may compute the child twice, but the results are
// byte identical and only one ends up cached.
type DerivationCache struct {
	entries *lru.Cache[string, *cacheEntry]
}

// NewDerivationCache creates a cache that holds at most numKeys derived
// keys.
func NewDerivationCache(numKeys uint64) *DerivationCache {
	return &DerivationCache{
		entries: lru.NewCache[string, *cacheEntry](numKeys),
	}
}

func (c *DerivationCache) lookup(id string) (*PrivateKey, bool) {
	entry, err := c.entries.Get(id)
	if errors.Is(err, cache.ErrElementNotFound) {
		return nil, false
	}
	return entry.key, true
}

func (c *DerivationCache) store(id string, key *PrivateKey) {
	_, _ = c.entries.Put(id, &cacheEntry{key: key})
}

// Len returns the number of cached derivations.
func (c *DerivationCache) Len() int {
	return c.entries.Len()
}

var (
	sharedCache     *DerivationCache
	sharedCacheOnce sync.Once
)

// SharedCache returns the process wide derivation cache used by keys
// that have not been pointed at an explicit cache via SetCache.
func SharedCache() *DerivationCache {
	sharedCacheOnce.Do(func() {
		sharedCache = NewDerivationCache(defaultCacheSize)
	})
	return sharedCache
}

// derivationID builds the deterministic cache identity for deriving
// child `index` under the given parent public key on the given network.
func derivationID(privKeyID [4]byte, parentPubKey []byte, index uint32) string {
	id := make([]byte, 0, len(privKeyID)+len(parentPubKey)+4)
	id = append(id, privKeyID[:]...)
	id = append(id, parentPubKey...)
	var indexBytes [4]byte
	binary.BigEndian.PutUint32(indexBytes[:], index)
	id = append(id, indexBytes[:]...)
	return string(id)
}
