package receiver

import (
	"strconv"
	"strings"
	"testing"
)

func validatedFixture(t *testing.T) *Validated {
	t.Helper()
	if _, err := decodeStdBase64ToBytes(testProposalBase64); err != nil {
		t.Fatalf("decode fixture error = %v", err)
	}
	headers := headerMap{"Content-Type": "text/plain", "Content-Length": strconv.Itoa(len(testProposalBase64))}
	validated, err := FromRequest(strings.NewReader(testProposalBase64), headers)
	if err != nil {
		t.Fatalf("FromRequest() error = %v", err)
	}
	return validated
}

func TestPhaseTransitionsHappyPath(t *testing.T) {
	broadcastable := validatedFixture(t).Next()
	if len(broadcastable.Transaction().TxIn) == 0 {
		t.Fatal("Transaction() has no inputs")
	}
	broadcastable.AssertBroadcastable(true)
	inputsOwned, err := broadcastable.TryNext()
	if err != nil {
		t.Fatalf("TryNext() error = %v", err)
	}

	scripts, err := inputsOwned.InputScriptPubKeys()
	if err != nil {
		t.Fatalf("InputScriptPubKeys() error = %v", err)
	}
	if len(scripts) == 0 {
		t.Fatal("InputScriptPubKeys() is empty")
	}
	inputsOwned.AssertInputsNotOwned(false)
	prevoutsSeen, err := inputsOwned.TryNext()
	if err != nil {
		t.Fatalf("TryNext() error = %v", err)
	}

	if len(prevoutsSeen.Outpoints()) == 0 {
		t.Fatal("Outpoints() is empty")
	}
	prevoutsSeen.AssertPrevoutsNotSeen(false)
	proposal, err := prevoutsSeen.TryNext()
	if err != nil {
		t.Fatalf("TryNext() error = %v", err)
	}
	if proposal.Packet() == nil {
		t.Fatal("Packet() is nil")
	}
}

func TestMaybeBroadcastableTryNextWithoutGuard(t *testing.T) {
	broadcastable := validatedFixture(t).Next()
	_, err := broadcastable.TryNext()
	if _, ok := err.(*GuardNotDischargedError); !ok {
		t.Fatalf("error = %v, want *GuardNotDischargedError", err)
	}
}

func TestMaybeBroadcastableTryNextRejected(t *testing.T) {
	broadcastable := validatedFixture(t).Next()
	broadcastable.AssertBroadcastable(false)
	_, err := broadcastable.TryNext()
	cerr, ok := err.(*CheckError)
	if !ok || cerr.Kind != TxUnbroadcastable {
		t.Fatalf("error = %v, want CheckError{TxUnbroadcastable}", err)
	}
}

func TestMaybeInputsOwnedTryNextWithoutGuard(t *testing.T) {
	broadcastable := validatedFixture(t).Next()
	broadcastable.AssertBroadcastable(true)
	inputsOwned, err := broadcastable.TryNext()
	if err != nil {
		t.Fatalf("TryNext() error = %v", err)
	}

	_, err = inputsOwned.TryNext()
	if _, ok := err.(*GuardNotDischargedError); !ok {
		t.Fatalf("error = %v, want *GuardNotDischargedError", err)
	}
}

func TestMaybeInputsOwnedTryNextRejected(t *testing.T) {
	broadcastable := validatedFixture(t).Next()
	broadcastable.AssertBroadcastable(true)
	inputsOwned, _ := broadcastable.TryNext()

	inputsOwned.AssertInputsNotOwned(true)
	_, err := inputsOwned.TryNext()
	cerr, ok := err.(*CheckError)
	if !ok || cerr.Kind != TxinOwned {
		t.Fatalf("error = %v, want CheckError{TxinOwned}", err)
	}
}

func TestMaybePrevoutsSeenTryNextWithoutGuard(t *testing.T) {
	broadcastable := validatedFixture(t).Next()
	broadcastable.AssertBroadcastable(true)
	inputsOwned, _ := broadcastable.TryNext()
	inputsOwned.AssertInputsNotOwned(false)
	prevoutsSeen, err := inputsOwned.TryNext()
	if err != nil {
		t.Fatalf("TryNext() error = %v", err)
	}

	_, err = prevoutsSeen.TryNext()
	if _, ok := err.(*GuardNotDischargedError); !ok {
		t.Fatalf("error = %v, want *GuardNotDischargedError", err)
	}
}

func TestMaybePrevoutsSeenTryNextRejected(t *testing.T) {
	broadcastable := validatedFixture(t).Next()
	broadcastable.AssertBroadcastable(true)
	inputsOwned, _ := broadcastable.TryNext()
	inputsOwned.AssertInputsNotOwned(false)
	prevoutsSeen, _ := inputsOwned.TryNext()

	prevoutsSeen.AssertPrevoutsNotSeen(true)
	_, err := prevoutsSeen.TryNext()
	cerr, ok := err.(*CheckError)
	if !ok || cerr.Kind != TxinAlreadySeen {
		t.Fatalf("error = %v, want CheckError{TxinAlreadySeen}", err)
	}
}
