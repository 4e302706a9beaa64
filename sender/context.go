package sender

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"

	"github.com/dan/payjoin/psbtutil"
)

// Context retains everything needed to validate the receiver's eventual
// counter-proposal against the original PSBT a sender built.
type Context struct {
	originalPSBT              *psbt.Packet
	disableOutputSubstitution bool
	feeContribution           *resolvedFeeContribution
	inputType                 psbtutil.InputType
	sequence                  uint32
	payee                     []byte
}

type resolvedFeeContribution struct {
	maxFeeContribution btcutil.Amount
	outputIndex        int
}

func checkSinglePayee(p *psbt.Packet, payee []byte, amount btcutil.Amount) error {
	found := false
	for _, out := range p.UnsignedTx.TxOut {
		if bytes.Equal(out.PkScript, payee) {
			if out.Value != int64(amount) {
				return newCreateRequestError(PayeeValueNotEqual, nil)
			}
			if found {
				return newCreateRequestError(MultiplePayeeOutputs, nil)
			}
			found = true
		}
	}
	if !found {
		return newCreateRequestError(MissingPayeeOutput, nil)
	}
	return nil
}

func checkFeeOutputAmount(out *wire.TxOut, amount btcutil.Amount, clamp bool) (btcutil.Amount, error) {
	if btcutil.Amount(out.Value) < amount {
		if clamp {
			return btcutil.Amount(out.Value), nil
		}
		return 0, newCreateRequestError(FeeOutputValueLowerThanFeeContribution, nil)
	}
	return amount, nil
}

func findChangeIndex(p *psbt.Packet, payee []byte, amount btcutil.Amount, clamp bool) (*resolvedFeeContribution, error) {
	outs := p.UnsignedTx.TxOut
	switch {
	case len(outs) == 0:
		return nil, newCreateRequestError(NoOutputs, nil)
	case len(outs) == 1 && bytes.Equal(outs[0].PkScript, payee):
		if clamp {
			return nil, nil
		}
		return nil, newCreateRequestError(FeeOutputValueLowerThanFeeContribution, nil)
	case len(outs) == 1:
		return nil, newCreateRequestError(MissingPayeeOutput, nil)
	case len(outs) == 2:
		// fall through
	default:
		return nil, newCreateRequestError(AmbiguousChangeOutput, nil)
	}

	for i, out := range outs {
		if !bytes.Equal(out.PkScript, payee) {
			clamped, err := checkFeeOutputAmount(out, amount, clamp)
			if err != nil {
				return nil, err
			}
			return &resolvedFeeContribution{maxFeeContribution: clamped, outputIndex: i}, nil
		}
	}
	return nil, newCreateRequestError(MultiplePayeeOutputs, nil)
}

func checkChangeIndex(p *psbt.Packet, payee []byte, amount btcutil.Amount, index int, clamp bool) (*resolvedFeeContribution, error) {
	outs := p.UnsignedTx.TxOut
	if index < 0 || index >= len(outs) {
		return nil, newCreateRequestError(ChangeIndexOutOfBounds, nil)
	}
	out := outs[index]
	if bytes.Equal(out.PkScript, payee) {
		return nil, newCreateRequestError(ChangeIndexPointsAtPayee, nil)
	}
	clamped, err := checkFeeOutputAmount(out, amount, clamp)
	if err != nil {
		return nil, err
	}
	return &resolvedFeeContribution{maxFeeContribution: clamped, outputIndex: index}, nil
}

func determineFeeContribution(p *psbt.Packet, payee []byte, params Params) (*resolvedFeeContribution, error) {
	if params.feeContribution == nil {
		return nil, nil
	}
	req := params.feeContribution
	if req.changeIndex != nil {
		return checkChangeIndex(p, payee, req.maxFeeContribution, *req.changeIndex, params.clampFeeContribution)
	}
	return findChangeIndex(p, payee, req.maxFeeContribution, params.clampFeeContribution)
}

func clearUnneededFields(p *psbt.Packet) {
	p.Unknowns = nil
	for i := range p.Inputs {
		p.Inputs[i].Bip32Derivation = nil
		p.Inputs[i].Unknowns = nil
	}
	for i := range p.Outputs {
		p.Outputs[i].Bip32Derivation = nil
		p.Outputs[i].Unknowns = nil
	}
}

func serializeURL(endpoint string, disableOutputSubstitution bool, feeContribution *resolvedFeeContribution) string {
	url := endpoint + "?v=1"
	if disableOutputSubstitution {
		url += "&disableoutputsubstitution=1"
	}
	if feeContribution != nil {
		url += fmt.Sprintf("&additionalfeeoutputindex=%d&maxadditionalfeecontribution=%d",
			feeContribution.outputIndex, int64(feeContribution.maxFeeContribution))
	}
	return url
}

func serializePSBT(p *psbt.Packet) ([]byte, error) {
	var raw bytes.Buffer
	if err := p.Serialize(&raw); err != nil {
		return nil, err
	}
	encoded := make([]byte, base64.StdEncoding.EncodedLen(raw.Len()))
	base64.StdEncoding.Encode(encoded, raw.Bytes())
	return encoded, nil
}

// FromPSBTAndURI builds the outbound Request and the validating Context from
// an original PSBT and the already-parsed fields of a payjoin BIP21 URI
// (address scriptPubKey, amount, endpoint, and the URI's own
// disable-output-substitution flag).
func FromPSBTAndURI(p *psbt.Packet, payee []byte, amount btcutil.Amount, endpoint string, uriDisableOutputSubstitution bool, params Params) (*Request, *Context, error) {
	view, err := psbtutil.NewView(p)
	if err != nil {
		return nil, nil, newCreateRequestError(InvalidOriginalInput, err)
	}
	for _, pair := range view.InputPairs() {
		if _, err := pair.PreviousTxOut(); err != nil {
			return nil, nil, newCreateRequestError(InvalidOriginalInput, err)
		}
	}

	disableOutputSubstitution := uriDisableOutputSubstitution || params.disableOutputSubstitution

	if err := checkSinglePayee(p, payee, amount); err != nil {
		return nil, nil, err
	}

	feeContribution, err := determineFeeContribution(p, payee, params)
	if err != nil {
		return nil, nil, err
	}

	clearUnneededFields(p)

	pairs := view.InputPairs()
	if len(pairs) == 0 {
		return nil, nil, newCreateRequestError(NoInputs, nil)
	}
	zeroth := pairs[0]
	sequence := zeroth.TxIn.Sequence
	prevout, _ := zeroth.PreviousTxOut()
	inputType, err := psbtutil.ClassifyInput(prevout, zeroth.PIn)
	if err != nil {
		return nil, nil, newCreateRequestError(InvalidOriginalInput, err)
	}

	url := serializeURL(endpoint, disableOutputSubstitution, feeContribution)
	body, err := serializePSBT(p)
	if err != nil {
		return nil, nil, newCreateRequestError(InvalidOriginalInput, err)
	}

	ctx := &Context{
		originalPSBT:              p,
		disableOutputSubstitution: disableOutputSubstitution,
		feeContribution:           feeContribution,
		inputType:                 inputType,
		sequence:                  sequence,
		payee:                     payee,
	}

	return &Request{URL: url, Body: body}, ctx, nil
}
