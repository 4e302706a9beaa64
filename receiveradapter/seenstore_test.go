package receiveradapter

import (
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

func sampleOutpoint(t *testing.T, txid string, index uint32) wire.OutPoint {
	t.Helper()
	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		t.Fatalf("NewHashFromStr() error = %v", err)
	}
	return wire.OutPoint{Hash: *hash, Index: index}
}

func TestSeenStoreMarksAndRecognizesSeen(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenSeenStore(filepath.Join(dir, "seen.json"), nil)
	if err != nil {
		t.Fatalf("OpenSeenStore() error = %v", err)
	}

	op := sampleOutpoint(t, "a27bfb3b32a6dd2dffc77ca26733a88e0929775a7373ac5362c91de01de2f2d1", 0)
	if store.AlreadySeen(op) {
		t.Fatal("AlreadySeen() = true on first sighting")
	}
	if !store.AlreadySeen(op) {
		t.Fatal("AlreadySeen() = false on second sighting")
	}
}

func TestSeenStoreSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seen.json")

	first, err := OpenSeenStore(path, nil)
	if err != nil {
		t.Fatalf("OpenSeenStore() error = %v", err)
	}
	op := sampleOutpoint(t, "c4f9a1aab1a9064f7cc5f1357b3c2d2db3cf3bc56cfdc3bc87e3a4b0c30c6acd", 1)
	if first.AlreadySeen(op) {
		t.Fatal("AlreadySeen() = true on first sighting")
	}

	second, err := OpenSeenStore(path, nil)
	if err != nil {
		t.Fatalf("reopen OpenSeenStore() error = %v", err)
	}
	if !second.AlreadySeen(op) {
		t.Fatal("AlreadySeen() = false after restart-replay, want true")
	}
}

func TestSeenStoreDistinctIndicesAreIndependent(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenSeenStore(filepath.Join(dir, "seen.json"), nil)
	if err != nil {
		t.Fatalf("OpenSeenStore() error = %v", err)
	}

	txid := "d3f1a9b6e6c9f5c2b1a0d4e3f2c1b0a9d8e7f6c5b4a392817263544536271809"
	op0 := sampleOutpoint(t, txid, 0)
	op1 := sampleOutpoint(t, txid, 1)

	if store.AlreadySeen(op0) {
		t.Fatal("AlreadySeen(op0) = true on first sighting")
	}
	if store.AlreadySeen(op1) {
		t.Fatal("AlreadySeen(op1) = true on first sighting, want independent from op0")
	}
	if !store.AlreadySeen(op0) {
		t.Fatal("AlreadySeen(op0) = false on second sighting")
	}
}
