package wallet

import "testing"

func TestGetScriptPubKeyAndType(t *testing.T) {
	tests := []struct {
		name    string
		address string
		network string
		wantLen int
		wantTyp string
	}{
		{"mainnet p2pkh", "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2", "mainnet", 25, "p2pkh"},
		{"mainnet p2sh", "3P14159f73E4gFr7JterCCQh9QjiTjiZrG", "mainnet", 23, "p2sh"},
		{"mainnet p2wpkh", "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", "mainnet", 22, "p2wpkh"},
		{"mainnet p2tr", "bc1p5d7rjq7g6rdk2yhzks9smlaqtedr4dekq08ge8ztwac72sfr9rusxg3297", "mainnet", 34, "p2tr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := GetScriptPubKey(tt.address, tt.network)
			if err != nil {
				t.Fatalf("GetScriptPubKey() error = %v", err)
			}
			if len(script) != tt.wantLen {
				t.Errorf("GetScriptPubKey() len = %d, want %d", len(script), tt.wantLen)
			}

			typ, err := GetAddressType(tt.address, tt.network)
			if err != nil {
				t.Fatalf("GetAddressType() error = %v", err)
			}
			if typ != tt.wantTyp {
				t.Errorf("GetAddressType() = %q, want %q", typ, tt.wantTyp)
			}
		})
	}
}

func TestValidateAddressWrongNetwork(t *testing.T) {
	err := ValidateAddress("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", "testnet4")
	if err == nil {
		t.Fatal("ValidateAddress() expected error for mainnet address on testnet4")
	}
}

func TestAddressToScriptHash(t *testing.T) {
	hash, err := AddressToScriptHash("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", "mainnet")
	if err != nil {
		t.Fatalf("AddressToScriptHash() error = %v", err)
	}
	if len(hash) != 64 {
		t.Errorf("AddressToScriptHash() len = %d, want 64 (hex-encoded sha256)", len(hash))
	}
}

func TestNetworkParamsUnknown(t *testing.T) {
	if _, err := NetworkParams("nonsense"); err == nil {
		t.Fatal("NetworkParams() expected error for unknown network")
	}
}
