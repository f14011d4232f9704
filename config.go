package main

import (
	"fmt"

	flags "github.com/jessevdk/go-flags"
)

type config struct {
	Generate   bool   `short:"g" long:"generate" description:"Generate a fresh mnemonic and derive the master key from it"`
	Seed       string `long:"seed" description:"Hex encoded seed (16-64 bytes) to build the master key from"`
	Mnemonic   string `short:"m" long:"mnemonic" description:"BIP39 seed phrase to build the master key from"`
	Passphrase string `long:"passphrase" default-mask:"-" description:"Optional BIP39 passphrase applied when stretching the mnemonic"`

	Path      string  `short:"p" long:"path" description:"Derivation path to apply, e.g. m/44'/0'/0'/0/1"`
	Account   *uint32 `long:"account" description:"Derive the BIP44 account key for the given account index"`
	Purpose45 bool    `long:"purpose45" description:"Derive the BIP45 purpose key"`

	TestNet bool `long:"testnet" description:"Encode for the test network (default mainnet)"`
	SimNet  bool `long:"simnet" description:"Encode for the simulation test network (default mainnet)"`

	JSON     bool `long:"json" description:"Print the key as JSON ({xprivkey, mnemonic})"`
	Extended bool `long:"extended" description:"Print the extended (key + mnemonic) serialization as hex"`
	ShowPub  bool `long:"pub" description:"Also print the public mirror (xpub) of the derived key"`
}

func loadConfig() (*config, error) {
	cfg := config{}
	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	sources := 0
	if cfg.Generate {
		sources++
	}
	if cfg.Seed != "" {
		sources++
	}
	if cfg.Mnemonic != "" {
		sources++
	}
	if sources != 1 {
		return nil, fmt.Errorf("exactly one of --generate, --seed or " +
			"--mnemonic must be given")
	}

	if cfg.TestNet && cfg.SimNet {
		return nil, fmt.Errorf("--testnet and --simnet are mutually exclusive")
	}

	if cfg.Account != nil && cfg.Purpose45 {
		return nil, fmt.Errorf("--account and --purpose45 are mutually exclusive")
	}

	return &cfg, nil
}
