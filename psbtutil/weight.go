package psbtutil

import (
	"github.com/btcsuite/btcd/wire"
)

// Weight is a count of Bitcoin consensus weight units (four times virtual
// size minus the witness discount, per BIP141).
type Weight uint64

// Add returns the sum of two weights. Addition is associative, so repeated
// accumulation via Add never needs to special-case ordering.
func (w Weight) Add(other Weight) Weight {
	return w + other
}

// FeeRate divides a fee in satoshis by this weight, yielding a fee rate in
// satoshis per weight unit using integer division. Dividing by a zero
// weight is the caller's bug, not this library's to guard against silently;
// callers must only call FeeRate on a weight known to be non-zero (e.g. a
// transaction that has at least one input).
func (w Weight) FeeRate(feeSat int64) int64 {
	return feeSat / int64(w)
}

// txInBaseWeight is the BIP141 weight contribution of a TxIn excluding its
// witness stack: the stripped (non-witness) serialization counts at the
// full 4x multiplier.
func txInBaseWeight(txin *wire.TxIn) Weight {
	return Weight(txin.SerializeSize()) * 4
}

// txInWitnessWeight is the weight contribution of a TxIn's witness stack,
// which is discounted: it counts at 1x rather than 4x, per BIP141.
func txInWitnessWeight(txin *wire.TxIn) Weight {
	if len(txin.Witness) == 0 {
		return 0
	}
	return Weight(txin.Witness.SerializeSize())
}

// TxInWeight is the total weight of a single transaction input, including
// any witness data already attached to it (e.g. a sender's own finalized
// input). A not-yet-signed input simply contributes zero witness weight.
func TxInWeight(txin *wire.TxIn) Weight {
	return txInBaseWeight(txin) + txInWitnessWeight(txin)
}

// TxOutWeight is the weight of a single transaction output. Outputs carry no
// witness data, so this is simply the serialized size times four.
func TxOutWeight(txout *wire.TxOut) Weight {
	return Weight(txout.SerializeSize()) * 4
}

// TransactionWeight computes the BIP141 weight of a whole transaction the
// same way btcd's blockchain.GetTransactionWeight does (baseSize*3 +
// totalSize), without importing the blockchain package — that package pulls
// in chain-validation machinery this library has no other use for.
func TransactionWeight(tx *wire.MsgTx) Weight {
	baseSize := tx.SerializeSizeStripped()
	totalSize := tx.SerializeSize()
	return Weight(baseSize*3 + totalSize)
}

// Canonical signed-input weights per InputType, in weight units. These are
// fixed assumptions, not measurements of a specific input: the protocol
// cannot know a receiver-added input's actual spending conditions ahead of
// time, only its scriptPubKey shape.
const (
	// legacyInputWeight assumes a compact DER signature (~72 bytes) plus a
	// compressed pubkey (33 bytes) in the scriptSig: 32+4+4 (outpoint+
	// sequence) + 1+107 (scriptSig len + sig/pubkey pushes) = 148 vbytes, no
	// witness discount.
	legacyInputWeight = Weight(148 * 4)

	// nestedSegWitPubkeyInputWeight is a P2SH-wrapped P2WPKH input: ~64
	// vbytes of non-witness data (41 plus the 23-byte scriptSig pushing the
	// 22-byte redeemScript) plus a ~107 byte witness stack (sig+pubkey)
	// discounted to ~27 vbytes.
	nestedSegWitPubkeyInputWeight = Weight(91 * 4)

	// nestedSegWitScriptInputWeight assumes a P2SH-wrapped P2WSH 2-of-2
	// multisig: larger witness stack (two signatures + witnessScript) than
	// the pubkey case above.
	nestedSegWitScriptInputWeight = Weight(139 * 4)

	// nativeSegWitPubkeyInputWeight is a bare P2WPKH input: 41 vbytes
	// non-witness plus a discounted ~27 vbyte witness stack.
	nativeSegWitPubkeyInputWeight = Weight(68 * 4)

	// nativeSegWitScriptInputWeight assumes a bare P2WSH 2-of-2 multisig
	// input.
	nativeSegWitScriptInputWeight = Weight(116 * 4)

	// taprootInputWeight is a key-path-spend Taproot input: 41 vbytes
	// non-witness plus a single 64-byte Schnorr signature (discounted).
	taprootInputWeight = Weight(58 * 4)
)
