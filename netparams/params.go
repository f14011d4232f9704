package netparams

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
)

// Params groups the per-network constants the key chain needs: the 4-byte
// extended-key version prefixes and the BIP44 coin type. The embedded
// chaincfg.Params supplies all of them.
type Params struct {
	*chaincfg.Params
}

var MainNetParams = Params{
	Params: &chaincfg.MainNetParams,
}

var TestNetParams = Params{
	Params: &chaincfg.TestNet3Params,
}

var SimNetParams = Params{
	Params: &chaincfg.SimNetParams,
}

var (
	registeredNets = []*Params{
		&MainNetParams,
		&TestNetParams,
		&SimNetParams,
	}
	registerMtx sync.RWMutex
)

// Register adds a custom parameter table so that extended keys encoded
// with its version prefixes can be decoded. A private-key prefix that is
// already claimed by another network is rejected.
func Register(params *Params) error {
	registerMtx.Lock()
	defer registerMtx.Unlock()

	for _, net := range registeredNets {
		if net.HDPrivateKeyID == params.HDPrivateKeyID {
			return fmt.Errorf("private key prefix %x is already "+
				"registered to network `%s`",
				net.HDPrivateKeyID, net.Name)
		}
	}

	registeredNets = append(registeredNets, params)
	return nil
}

// Lookup finds a registered network by name.
func Lookup(name string) (*Params, error) {
	registerMtx.RLock()
	defer registerMtx.RUnlock()

	for _, net := range registeredNets {
		if net.Name == name {
			return net, nil
		}
	}

	return nil, fmt.Errorf("unknown network `%s`", name)
}

// LookupPrivatePrefix finds the registered network whose extended
// private key version prefix matches the passed bytes.
func LookupPrivatePrefix(prefix [4]byte) (*Params, error) {
	registerMtx.RLock()
	defer registerMtx.RUnlock()

	for _, net := range registeredNets {
		if net.HDPrivateKeyID == prefix {
			return net, nil
		}
	}

	return nil, fmt.Errorf("no network matches private key prefix %x", prefix)
}

// LookupPublicPrefix finds the registered network whose extended
// public key version prefix matches the passed bytes.
func LookupPublicPrefix(prefix [4]byte) (*Params, error) {
	registerMtx.RLock()
	defer registerMtx.RUnlock()

	for _, net := range registeredNets {
		if net.HDPublicKeyID == prefix {
			return net, nil
		}
	}

	return nil, fmt.Errorf("no network matches public key prefix %x", prefix)
}
