package psbtutil

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// SegWitV0Kind distinguishes a key-path (single pubkey) SegWit v0 spend from
// a script-path (e.g. multisig) one, for both nested and native variants.
type SegWitV0Kind int

const (
	// Pubkey is a P2WPKH spend (nested under P2SH or native).
	Pubkey SegWitV0Kind = iota
	// Script is a P2WSH spend (nested under P2SH or native).
	Script
)

func (k SegWitV0Kind) String() string {
	if k == Pubkey {
		return "pubkey"
	}
	return "script"
}

// InputKind enumerates the shapes the classifier can return.
type InputKind int

const (
	Legacy InputKind = iota
	NestedSegWitV0
	NativeSegWitV0
	Taproot
)

// InputType is the canonical classification of a spent output's scriptPubKey
// shape. For the two SegWit v0 variants, Nested/Native additionally carry
// whether the spend is key-path (Pubkey) or script-path (Script).
type InputType struct {
	Kind      InputKind
	SegWitV0  SegWitV0Kind // meaningful only when Kind is Nested/NativeSegWitV0
}

func (t InputType) String() string {
	switch t.Kind {
	case Legacy:
		return "Legacy"
	case Taproot:
		return "Taproot"
	case NestedSegWitV0:
		return fmt.Sprintf("NestedSegWitV0(%s)", t.SegWitV0)
	case NativeSegWitV0:
		return fmt.Sprintf("NativeSegWitV0(%s)", t.SegWitV0)
	default:
		return "Unknown"
	}
}

// ExpectedInputWeight returns the canonical signed-input weight for this
// type, used for fee-rate accounting (spec §4.2, §4.4(d)).
func (t InputType) ExpectedInputWeight() Weight {
	switch t.Kind {
	case Legacy:
		return legacyInputWeight
	case Taproot:
		return taprootInputWeight
	case NestedSegWitV0:
		if t.SegWitV0 == Pubkey {
			return nestedSegWitPubkeyInputWeight
		}
		return nestedSegWitScriptInputWeight
	case NativeSegWitV0:
		if t.SegWitV0 == Pubkey {
			return nativeSegWitPubkeyInputWeight
		}
		return nativeSegWitScriptInputWeight
	default:
		return 0
	}
}

// UnknownInputTypeError is returned when a funding output's scriptPubKey
// shape does not match any input type the classifier recognizes.
type UnknownInputTypeError struct {
	ScriptPubKey []byte
}

func (e *UnknownInputTypeError) Error() string {
	return fmt.Sprintf("unknown input type for scriptPubKey %x", e.ScriptPubKey)
}

// ClassifyInput maps a funding txout and its PSBT input record to a
// canonical InputType (spec §4.2).
func ClassifyInput(prevout *wire.TxOut, pin *psbt.PInput) (InputType, error) {
	class := txscript.GetScriptClass(prevout.PkScript)

	switch class {
	case txscript.PubKeyHashTy:
		return InputType{Kind: Legacy}, nil

	case txscript.ScriptHashTy:
		redeemScript := pin.RedeemScript
		// A finalized input carries its redeemScript as the last push of
		// the final scriptSig instead of in the RedeemScript field.
		if len(redeemScript) == 0 && len(pin.FinalScriptSig) != 0 {
			if pushes, err := txscript.PushedData(pin.FinalScriptSig); err == nil && len(pushes) > 0 {
				redeemScript = pushes[len(pushes)-1]
			}
		}
		if len(redeemScript) == 0 {
			return InputType{Kind: Legacy}, nil
		}
		switch txscript.GetScriptClass(redeemScript) {
		case txscript.WitnessV0PubKeyHashTy:
			return InputType{Kind: NestedSegWitV0, SegWitV0: Pubkey}, nil
		case txscript.WitnessV0ScriptHashTy:
			return InputType{Kind: NestedSegWitV0, SegWitV0: Script}, nil
		default:
			return InputType{Kind: Legacy}, nil
		}

	case txscript.WitnessV0PubKeyHashTy:
		return InputType{Kind: NativeSegWitV0, SegWitV0: Pubkey}, nil

	case txscript.WitnessV0ScriptHashTy:
		return InputType{Kind: NativeSegWitV0, SegWitV0: Script}, nil

	case txscript.WitnessV1TaprootTy:
		return InputType{Kind: Taproot}, nil

	default:
		return InputType{}, &UnknownInputTypeError{ScriptPubKey: prevout.PkScript}
	}
}
