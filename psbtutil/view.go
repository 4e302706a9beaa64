// Package psbtutil provides PSBT record accounting shared by the sender and
// receiver packages: guaranteed input/output count matching, zipped
// iteration over transaction/PSBT input pairs, input-type classification,
// and BIP141 weight accounting.
package psbtutil

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"
)

// UnequalInputCountsError is returned when a PSBT's embedded unsigned
// transaction and its Inputs slice disagree on length.
type UnequalInputCountsError struct {
	Tx   int
	Psbt int
}

func (e *UnequalInputCountsError) Error() string {
	return fmt.Sprintf("psbt: unequal input counts: tx has %d, psbt has %d", e.Tx, e.Psbt)
}

// UnequalOutputCountsError is returned when a PSBT's embedded unsigned
// transaction and its Outputs slice disagree on length.
type UnequalOutputCountsError struct {
	Tx   int
	Psbt int
}

func (e *UnequalOutputCountsError) Error() string {
	return fmt.Sprintf("psbt: unequal output counts: tx has %d, psbt has %d", e.Tx, e.Psbt)
}

// PrevoutMissingError is returned when an input pair supplies neither a
// witness UTXO nor a resolvable non-witness UTXO.
type PrevoutMissingError struct {
	Index int
}

func (e *PrevoutMissingError) Error() string {
	return fmt.Sprintf("psbt: missing funding output for input %d", e.Index)
}

// View wraps a *psbt.Packet, guaranteeing on construction that its record
// counts agree with its embedded unsigned transaction.
type View struct {
	Packet *psbt.Packet
}

// NewView validates a packet's record counts and wraps it.
func NewView(p *psbt.Packet) (*View, error) {
	numTxIn := len(p.UnsignedTx.TxIn)
	numTxOut := len(p.UnsignedTx.TxOut)

	if numTxIn != len(p.Inputs) {
		return nil, &UnequalInputCountsError{Tx: numTxIn, Psbt: len(p.Inputs)}
	}
	if numTxOut != len(p.Outputs) {
		return nil, &UnequalOutputCountsError{Tx: numTxOut, Psbt: len(p.Outputs)}
	}

	return &View{Packet: p}, nil
}

// InputPair zips a transaction input with its corresponding PSBT input
// record.
type InputPair struct {
	Index int
	TxIn  *wire.TxIn
	PIn   *psbt.PInput
}

// PreviousTxOut resolves the funding output spent by this pair, preferring
// the witness UTXO when present and falling back to the non-witness UTXO's
// referenced output otherwise.
func (p InputPair) PreviousTxOut() (*wire.TxOut, error) {
	if p.PIn.WitnessUtxo != nil {
		return p.PIn.WitnessUtxo, nil
	}

	if p.PIn.NonWitnessUtxo != nil {
		vout := p.TxIn.PreviousOutPoint.Index
		if int(vout) >= len(p.PIn.NonWitnessUtxo.TxOut) {
			return nil, &PrevoutMissingError{Index: p.Index}
		}
		return p.PIn.NonWitnessUtxo.TxOut[vout], nil
	}

	return nil, &PrevoutMissingError{Index: p.Index}
}

// InputPairs returns the zipped (tx-input, psbt-input) sequence for this
// view, in transaction order. The slice is a finite, one-shot snapshot: it
// does not track further mutation of the underlying packet.
func (v *View) InputPairs() []InputPair {
	pairs := make([]InputPair, len(v.Packet.UnsignedTx.TxIn))
	for i, txin := range v.Packet.UnsignedTx.TxIn {
		pairs[i] = InputPair{
			Index: i,
			TxIn:  txin,
			PIn:   &v.Packet.Inputs[i],
		}
	}
	return pairs
}
