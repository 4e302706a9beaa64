package receiver

import (
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"

	"github.com/dan/payjoin/psbtutil"
)

// Validated wraps a PSBT whose input/output record counts have already been
// confirmed to agree with its embedded unsigned transaction.
type Validated struct {
	packet *psbt.Packet
	view   *psbtutil.View
}

// Next advances to MaybeBroadcastable. This transition carries no guard: the
// count-equality check already ran during decoding.
func (v *Validated) Next() *MaybeBroadcastable {
	return &MaybeBroadcastable{packet: v.packet, view: v.view}
}

// MaybeBroadcastable exposes the raw unsigned transaction so the caller can
// run it through their own mempool-accept probe before advancing.
type MaybeBroadcastable struct {
	packet  *psbt.Packet
	view    *psbtutil.View
	checked bool
	passed  bool
}

// Transaction returns the proposal's unsigned transaction, for the caller's
// own broadcastability probe (e.g. Bitcoin Core's testmempoolaccept).
func (m *MaybeBroadcastable) Transaction() *wire.MsgTx {
	return m.packet.UnsignedTx
}

// AssertBroadcastable records the result of the caller's broadcastability
// check. It must be called before TryNext.
func (m *MaybeBroadcastable) AssertBroadcastable(broadcastable bool) {
	m.checked = true
	m.passed = broadcastable
}

// TryNext advances to MaybeInputsOwned. It fails with a GuardNotDischargedError
// if AssertBroadcastable was never called, or a CheckError{TxUnbroadcastable}
// if it was called with false.
func (m *MaybeBroadcastable) TryNext() (*MaybeInputsOwned, error) {
	if !m.checked {
		return nil, &GuardNotDischargedError{Phase: "MaybeBroadcastable"}
	}
	if !m.passed {
		return nil, newCheckError(TxUnbroadcastable, nil)
	}
	return &MaybeInputsOwned{packet: m.packet, view: m.view}, nil
}

// MaybeInputsOwned exposes each input's funding scriptPubKey so the caller
// can check none of them belong to the receiver's own wallet.
type MaybeInputsOwned struct {
	packet  *psbt.Packet
	view    *psbtutil.View
	checked bool
	passed  bool
}

// InputScriptPubKeys resolves the funding scriptPubKey of every input, in
// transaction order, for the caller's ownership probe.
func (m *MaybeInputsOwned) InputScriptPubKeys() ([][]byte, error) {
	pairs := m.view.InputPairs()
	scripts := make([][]byte, len(pairs))
	for i, pair := range pairs {
		out, err := pair.PreviousTxOut()
		if err != nil {
			return nil, newCheckError(MissingPrevout, err)
		}
		scripts[i] = out.PkScript
	}
	return scripts, nil
}

// AssertInputsNotOwned records the result of the caller's ownership check:
// anyOwned is true if the caller recognized any input's scriptPubKey as its
// own.
func (m *MaybeInputsOwned) AssertInputsNotOwned(anyOwned bool) {
	m.checked = true
	m.passed = !anyOwned
}

// TryNext advances to MaybePrevoutsSeen.
func (m *MaybeInputsOwned) TryNext() (*MaybePrevoutsSeen, error) {
	if !m.checked {
		return nil, &GuardNotDischargedError{Phase: "MaybeInputsOwned"}
	}
	if !m.passed {
		return nil, newCheckError(TxinOwned, nil)
	}
	return &MaybePrevoutsSeen{packet: m.packet, view: m.view}, nil
}

// MaybePrevoutsSeen exposes each input's outpoint so the caller can check
// none of them were ever part of a previously processed payjoin proposal.
type MaybePrevoutsSeen struct {
	packet  *psbt.Packet
	view    *psbtutil.View
	checked bool
	passed  bool
}

// Outpoints returns the spent outpoints of every input, in transaction
// order.
func (m *MaybePrevoutsSeen) Outpoints() []wire.OutPoint {
	pairs := m.view.InputPairs()
	outpoints := make([]wire.OutPoint, len(pairs))
	for i, pair := range pairs {
		outpoints[i] = pair.TxIn.PreviousOutPoint
	}
	return outpoints
}

// AssertPrevoutsNotSeen records the result of the caller's novelty check:
// anySeen is true if the caller recognized any outpoint as already consumed
// by a prior proposal.
func (m *MaybePrevoutsSeen) AssertPrevoutsNotSeen(anySeen bool) {
	m.checked = true
	m.passed = !anySeen
}

// TryNext advances to Proposal, the terminal phase ready for counter-proposal
// construction.
func (m *MaybePrevoutsSeen) TryNext() (*Proposal, error) {
	if !m.checked {
		return nil, &GuardNotDischargedError{Phase: "MaybePrevoutsSeen"}
	}
	if !m.passed {
		return nil, newCheckError(TxinAlreadySeen, nil)
	}
	return &Proposal{packet: m.packet, view: m.view}, nil
}

// Proposal is a PSBT that has passed every intake check and may now be used
// to construct a counter-proposal.
type Proposal struct {
	packet *psbt.Packet
	view   *psbtutil.View
}

// Packet returns the underlying PSBT.
func (p *Proposal) Packet() *psbt.Packet {
	return p.packet
}

// View returns the validated PSBT view backing this proposal.
func (p *Proposal) View() *psbtutil.View {
	return p.view
}
