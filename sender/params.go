package sender

import "github.com/btcsuite/btcd/btcutil"

// Params configures how a sender wants the receiver to handle a payjoin.
type Params struct {
	disableOutputSubstitution bool
	feeContribution           *feeContributionRequest
	clampFeeContribution      bool
}

type feeContributionRequest struct {
	maxFeeContribution btcutil.Amount
	changeIndex        *int
}

// WithFeeContribution offers the receiver up to maxFeeContribution satoshis,
// drawn from the output at changeIndex (or auto-detected when nil, provided
// the original transaction has exactly two outputs).
func WithFeeContribution(maxFeeContribution btcutil.Amount, changeIndex *int) Params {
	return Params{
		feeContribution: &feeContributionRequest{
			maxFeeContribution: maxFeeContribution,
			changeIndex:        changeIndex,
		},
	}
}

// NonIncentivizing builds Params offering the receiver no fee contribution.
func NonIncentivizing() Params {
	return Params{}
}

// AlwaysDisableOutputSubstitution forces output substitution off even if the
// URI did not request it. Not recommended: it prevents advanced receiver
// behavior such as opening a Lightning channel and guarantees no fee
// discount from the receiver.
func (p Params) AlwaysDisableOutputSubstitution(disable bool) Params {
	p.disableOutputSubstitution = disable
	return p
}

// ClampFeeContribution, when set, lowers the fee contribution to match an
// insufficient change output instead of failing request construction.
func (p Params) ClampFeeContribution(clamp bool) Params {
	p.clampFeeContribution = clamp
	return p
}
