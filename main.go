package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/czh0526/hd-keychain/hdkey"
	"github.com/czh0526/hd-keychain/mnemonic"
	"github.com/czh0526/hd-keychain/netparams"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hd-keychain: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	net := &netparams.MainNetParams
	switch {
	case cfg.TestNet:
		net = &netparams.TestNetParams
	case cfg.SimNet:
		net = &netparams.SimNetParams
	}

	master, err := buildMaster(cfg, net)
	if err != nil {
		return err
	}
	defer master.Zero(true)

	key := master
	switch {
	case cfg.Account != nil:
		key, err = master.DeriveAccount44(*cfg.Account)
	case cfg.Purpose45:
		key, err = master.DerivePurpose45()
	}
	if err != nil {
		return err
	}

	if cfg.Path != "" {
		key, err = key.DerivePath(cfg.Path)
		if err != nil {
			return err
		}
	}

	return printKey(cfg, key)
}

func buildMaster(cfg *config, net *netparams.Params) (*hdkey.PrivateKey, error) {
	switch {
	case cfg.Generate:
		m, err := mnemonic.Generate()
		if err != nil {
			return nil, err
		}
		fmt.Printf("mnemonic: %s\n", m.Phrase())
		return hdkey.NewMasterFromMnemonic(m, cfg.Passphrase, net)

	case cfg.Seed != "":
		seed, err := hex.DecodeString(cfg.Seed)
		if err != nil {
			return nil, fmt.Errorf("invalid --seed hex: %w", err)
		}
		return hdkey.NewMaster(seed, net)

	default:
		m, err := mnemonic.NewFromPhrase(cfg.Mnemonic)
		if err != nil {
			return nil, err
		}
		return hdkey.NewMasterFromMnemonic(m, cfg.Passphrase, net)
	}
}

func printKey(cfg *config, key *hdkey.PrivateKey) error {
	switch {
	case cfg.JSON:
		encoded, err := json.MarshalIndent(key, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", encoded)

	case cfg.Extended:
		serialized, err := key.SerializeExtended()
		if err != nil {
			return err
		}
		fmt.Printf("%x\n", serialized)

	default:
		fmt.Printf("%s\n", key.String())
	}

	if cfg.ShowPub {
		fmt.Printf("%s\n", key.PublicKey().String())
	}

	return nil
}
