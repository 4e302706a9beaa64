// Package wallet provides address-shape utilities: scriptPubKey and Electrum
// scripthash derivation, address validation and address type. No other
// package in this repository imports it. It intentionally carries
// no key material or derivation logic: enumerating or deriving "my"
// addresses is the implementer's key-management concern, not this
// repository's.
package wallet

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
)

// GetScriptPubKey returns the scriptPubKey for an address on the given network.
func GetScriptPubKey(address string, network string) ([]byte, error) {
	params, err := NetworkParams(network)
	if err != nil {
		return nil, err
	}

	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return nil, fmt.Errorf("failed to decode address: %w", err)
	}

	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to create scriptPubKey: %w", err)
	}

	return script, nil
}

// AddressToScriptHash converts a Bitcoin address to an Electrum scripthash.
// The scripthash is SHA256 of the scriptPubKey, reversed (little-endian).
func AddressToScriptHash(address string, network string) (string, error) {
	scriptPubKey, err := GetScriptPubKey(address, network)
	if err != nil {
		return "", err
	}
	return ScriptPubKeyToScriptHash(scriptPubKey), nil
}

// ScriptPubKeyToScriptHash converts a scriptPubKey directly to its Electrum
// scripthash, without requiring an address round-trip.
func ScriptPubKeyToScriptHash(scriptPubKey []byte) string {
	hash := sha256.Sum256(scriptPubKey)

	// Reverse for little-endian (Electrum format)
	for i, j := 0, len(hash)-1; i < j; i, j = i+1, j-1 {
		hash[i], hash[j] = hash[j], hash[i]
	}

	return hex.EncodeToString(hash[:])
}

// ValidateAddress checks if an address is valid for the given network.
func ValidateAddress(address string, network string) error {
	params, err := NetworkParams(network)
	if err != nil {
		return err
	}

	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}

	if !addr.IsForNet(params) {
		return fmt.Errorf("address is not for %s network", network)
	}

	return nil
}

// GetAddressType returns the shape of a Bitcoin address.
func GetAddressType(address string, network string) (string, error) {
	params, err := NetworkParams(network)
	if err != nil {
		return "", err
	}

	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return "", fmt.Errorf("invalid address: %w", err)
	}

	switch addr.(type) {
	case *btcutil.AddressPubKeyHash:
		return "p2pkh", nil
	case *btcutil.AddressScriptHash:
		return "p2sh", nil
	case *btcutil.AddressWitnessPubKeyHash:
		return "p2wpkh", nil
	case *btcutil.AddressWitnessScriptHash:
		return "p2wsh", nil
	case *btcutil.AddressTaproot:
		return "p2tr", nil
	default:
		return "unknown", nil
	}
}
