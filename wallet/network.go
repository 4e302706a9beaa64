package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
)

// NetworkParams returns the chain configuration for the given network name
func NetworkParams(network string) (*chaincfg.Params, error) {
	switch network {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet4":
		// Testnet4 uses same address format as testnet3 (tb1... addresses)
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network: %s (supported: mainnet, testnet4, signet, regtest)", network)
	}
}
