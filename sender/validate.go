package sender

import (
	"bytes"
	"encoding/base64"
	"io"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"

	"github.com/dan/payjoin/psbtutil"
)

type inputStats struct {
	totalValue  btcutil.Amount
	totalWeight psbtutil.Weight
}

type outputStats struct {
	totalValue     btcutil.Amount
	contributedFee btcutil.Amount
	totalWeight    psbtutil.Weight
}

func calculatePSBTFee(p *psbt.Packet) (btcutil.Amount, error) {
	view, err := psbtutil.NewView(p)
	if err != nil {
		return 0, err
	}

	var totalIn, totalOut btcutil.Amount
	for _, pair := range view.InputPairs() {
		prevout, err := pair.PreviousTxOut()
		if err != nil {
			return 0, err
		}
		totalIn += btcutil.Amount(prevout.Value)
	}
	for _, out := range p.UnsignedTx.TxOut {
		totalOut += btcutil.Amount(out.Value)
	}
	return totalIn - totalOut, nil
}

// ProcessResponse decodes a base64-framed PSBT response and validates it
// against everything captured when the request was built. It returns the
// validated proposal PSBT, ready for the sender to sign.
func (c *Context) ProcessResponse(response io.Reader) (*psbt.Packet, error) {
	raw, err := io.ReadAll(response)
	if err != nil {
		return nil, newValidationErrorWithCause(Decode, err)
	}

	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(raw)))
	n, err := base64.StdEncoding.Decode(decoded, bytes.TrimSpace(raw))
	if err != nil {
		return nil, newValidationErrorWithCause(Decode, err)
	}

	proposal, err := psbt.NewFromRawBytes(bytes.NewReader(decoded[:n]), false)
	if err != nil {
		return nil, newValidationErrorWithCause(Decode, err)
	}

	return c.processProposal(proposal)
}

func (c *Context) processProposal(proposal *psbt.Packet) (*psbt.Packet, error) {
	if err := c.basicChecks(proposal); err != nil {
		return nil, err
	}
	inStats, err := c.checkInputs(proposal)
	if err != nil {
		return nil, err
	}
	outStats, err := c.checkOutputs(proposal)
	if err != nil {
		return nil, err
	}
	if err := c.checkFees(proposal, inStats, outStats); err != nil {
		return nil, err
	}
	return proposal, nil
}

func (c *Context) basicChecks(proposal *psbt.Packet) error {
	if proposal.UnsignedTx.Version != c.originalPSBT.UnsignedTx.Version {
		return newMismatchError(VersionsDontMatch, proposal.UnsignedTx.Version, c.originalPSBT.UnsignedTx.Version)
	}
	if proposal.UnsignedTx.LockTime != c.originalPSBT.UnsignedTx.LockTime {
		return newMismatchError(LockTimesDontMatch, proposal.UnsignedTx.LockTime, c.originalPSBT.UnsignedTx.LockTime)
	}
	return nil
}

func (c *Context) checkInputs(proposal *psbt.Packet) (inputStats, error) {
	proposalView, err := psbtutil.NewView(proposal)
	if err != nil {
		return inputStats{}, newValidationErrorWithCause(InvalidProposedInput, err)
	}
	originalView, err := psbtutil.NewView(c.originalPSBT)
	if err != nil {
		return inputStats{}, newValidationErrorWithCause(InvalidProposedInput, err)
	}

	originalPairs := originalView.InputPairs()
	cursor := 0

	var stats inputStats

	for _, proposed := range proposalView.InputPairs() {
		if len(proposed.PIn.Bip32Derivation) != 0 {
			return inputStats{}, newValidationError(TxInContainsKeyPaths)
		}
		if len(proposed.PIn.PartialSigs) != 0 {
			return inputStats{}, newValidationError(ContainsPartialSigs)
		}

		if cursor < len(originalPairs) && proposed.TxIn.PreviousOutPoint == originalPairs[cursor].TxIn.PreviousOutPoint {
			original := originalPairs[cursor]

			if proposed.TxIn.Sequence != original.TxIn.Sequence {
				return inputStats{}, newMismatchError(SenderTxinSequenceChanged, proposed.TxIn.Sequence, original.TxIn.Sequence)
			}
			if proposed.PIn.NonWitnessUtxo != nil {
				return inputStats{}, newValidationError(SenderTxinContainsNonWitnessUtxo)
			}
			if proposed.PIn.WitnessUtxo != nil {
				return inputStats{}, newValidationError(SenderTxinContainsWitnessUtxo)
			}
			if len(proposed.PIn.FinalScriptSig) != 0 {
				return inputStats{}, newValidationError(SenderTxinContainsFinalScriptSig)
			}
			if len(proposed.PIn.FinalScriptWitness) != 0 {
				return inputStats{}, newValidationError(SenderTxinContainsFinalScriptWitness)
			}

			prevout, err := original.PreviousTxOut()
			if err != nil {
				return inputStats{}, newValidationErrorWithCause(InvalidProposedInput, err)
			}
			stats.totalValue += btcutil.Amount(prevout.Value)
			stats.totalWeight = stats.totalWeight.Add(psbtutil.TxInWeight(original.TxIn))

			cursor++
			continue
		}

		// receiver-contributed input
		if proposed.PIn.WitnessUtxo == nil && proposed.PIn.NonWitnessUtxo == nil {
			return inputStats{}, newValidationError(ReceiverTxinMissingUtxoInfo)
		}
		if proposed.TxIn.Sequence != c.sequence {
			return inputStats{}, newValidationError(MixedSequence)
		}

		txout, err := proposed.PreviousTxOut()
		if err != nil {
			return inputStats{}, newValidationErrorWithCause(InvalidProposedInput, err)
		}
		stats.totalValue += btcutil.Amount(txout.Value)
		stats.totalWeight = stats.totalWeight.Add(psbtutil.TxInWeight(proposed.TxIn))

		gotType, err := psbtutil.ClassifyInput(txout, proposed.PIn)
		if err != nil {
			return inputStats{}, newValidationErrorWithCause(InvalidProposedInput, err)
		}
		if gotType != c.inputType {
			return inputStats{}, newMismatchError(MixedInputTypes, gotType, c.inputType)
		}
	}

	if cursor != len(originalPairs) {
		return inputStats{}, newValidationError(MissingOrShuffledInputs)
	}

	return stats, nil
}

func (c *Context) checkOutputs(proposal *psbt.Packet) (outputStats, error) {
	originalOutputs := c.originalPSBT.UnsignedTx.TxOut
	cursor := 0

	var stats outputStats

	for i, proposedOut := range proposal.UnsignedTx.TxOut {
		proposedPOut := proposal.Outputs[i]

		if len(proposedPOut.Bip32Derivation) != 0 {
			return outputStats{}, newValidationError(TxOutContainsKeyPaths)
		}

		stats.totalValue += btcutil.Amount(proposedOut.Value)
		stats.totalWeight = stats.totalWeight.Add(psbtutil.TxOutWeight(proposedOut))

		if cursor >= len(originalOutputs) {
			continue // receiver-added output
		}
		originalOut := originalOutputs[cursor]

		switch {
		case c.feeContribution != nil && cursor == c.feeContribution.outputIndex && bytes.Equal(proposedOut.PkScript, originalOut.PkScript):
			if proposedOut.Value < originalOut.Value {
				stats.contributedFee = btcutil.Amount(originalOut.Value - proposedOut.Value)
				if stats.contributedFee >= c.feeContribution.maxFeeContribution {
					return outputStats{}, newValidationError(FeeContributionExceedsMaximum)
				}
			}
			cursor++

		case bytes.Equal(originalOut.PkScript, c.payee):
			if c.disableOutputSubstitution {
				if !bytes.Equal(proposedOut.PkScript, originalOut.PkScript) || proposedOut.Value < originalOut.Value {
					return outputStats{}, newValidationError(DisallowedOutputSubstitution)
				}
			}
			cursor++

		case bytes.Equal(proposedOut.PkScript, originalOut.PkScript):
			if proposedOut.Value < originalOut.Value {
				return outputStats{}, newValidationError(OutputValueDecreased)
			}
			cursor++

		default:
			// receiver-added output; original cursor does not advance
		}
	}

	if cursor != len(originalOutputs) {
		return outputStats{}, newValidationError(MissingOrShuffledOutputs)
	}

	return stats, nil
}

func (c *Context) checkFees(proposal *psbt.Packet, in inputStats, out outputStats) error {
	if out.totalValue > in.totalValue {
		return newValidationError(Inflation)
	}
	proposedFee := in.totalValue - out.totalValue

	originalFee, err := calculatePSBTFee(c.originalPSBT)
	if err != nil {
		return newValidationErrorWithCause(InvalidProposedInput, err)
	}
	if originalFee > proposedFee {
		return newValidationError(AbsoluteFeeDecreased)
	}
	if out.contributedFee > proposedFee-originalFee {
		return newValidationError(PayeeTookContributedFee)
	}

	originalWeight := psbtutil.TransactionWeight(c.originalPSBT.UnsignedTx)
	originalFeeRate := originalWeight.FeeRate(int64(originalFee))

	addedInputs := len(proposal.Inputs) - len(c.originalPSBT.Inputs)
	bound := btcutil.Amount(originalFeeRate) * btcutil.Amount(c.inputType.ExpectedInputWeight()) * btcutil.Amount(addedInputs)
	if out.contributedFee > bound {
		return newValidationError(FeeContributionPaysOutputSizeIncrease)
	}

	return nil
}
