package receiveradapter

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"testing"

	"github.com/btcsuite/btcd/wire"
)

type fakeRPCRequest struct {
	ID     uint64        `json:"id"`
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

// broadcastHandler decides how the fake server answers
// blockchain.transaction.broadcast; everything else gets a canned reply.
func startFakeElectrumServer(t *testing.T, broadcastHandler func(rawtx string) (string, error)) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			var req fakeRPCRequest
			if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
				continue
			}

			var resp map[string]interface{}
			switch req.Method {
			case "server.version":
				resp = map[string]interface{}{
					"jsonrpc": "2.0", "id": req.ID, "result": []string{"fake-electrum", "1.4"},
				}
			case "blockchain.transaction.broadcast":
				rawtx, _ := req.Params[0].(string)
				txid, err := broadcastHandler(rawtx)
				if err != nil {
					resp = map[string]interface{}{
						"jsonrpc": "2.0", "id": req.ID,
						"error": map[string]interface{}{"code": 1, "message": err.Error()},
					}
				} else {
					resp = map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": txid}
				}
			default:
				resp = map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": nil}
			}

			line, _ := json.Marshal(resp)
			conn.Write(append(line, '\n'))
		}
	}()

	return "tcp://" + ln.Addr().String()
}

func sampleTx() *wire.MsgTx {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{PreviousOutPoint: wire.OutPoint{Index: 0}})
	tx.AddTxOut(&wire.TxOut{Value: 1000, PkScript: []byte{0x00, 0x14}})
	return tx
}

func TestElectrumChecksUnbroadcastableAcceptsBroadcast(t *testing.T) {
	url := startFakeElectrumServer(t, func(rawtx string) (string, error) {
		return "deadbeef", nil
	})

	checks, err := NewElectrumChecks(url, nil, nil)
	if err != nil {
		t.Fatalf("NewElectrumChecks() error = %v", err)
	}

	if checks.Unbroadcastable(sampleTx()) {
		t.Fatal("Unbroadcastable() = true for an accepted broadcast")
	}
}

func TestElectrumChecksUnbroadcastableOnRejection(t *testing.T) {
	url := startFakeElectrumServer(t, func(rawtx string) (string, error) {
		return "", fmt.Errorf("min relay fee not met")
	})

	checks, err := NewElectrumChecks(url, nil, nil)
	if err != nil {
		t.Fatalf("NewElectrumChecks() error = %v", err)
	}

	if !checks.Unbroadcastable(sampleTx()) {
		t.Fatal("Unbroadcastable() = false for a rejected broadcast")
	}
}

func TestElectrumChecksOwned(t *testing.T) {
	url := startFakeElectrumServer(t, func(rawtx string) (string, error) { return "deadbeef", nil })

	mine := [][]byte{{0x00, 0x14, 0xaa, 0xbb}}
	checks, err := NewElectrumChecks(url, mine, nil)
	if err != nil {
		t.Fatalf("NewElectrumChecks() error = %v", err)
	}

	if !checks.Owned([]byte{0x00, 0x14, 0xaa, 0xbb}) {
		t.Fatal("Owned() = false for a tracked scriptPubKey")
	}
	if checks.Owned([]byte{0x00, 0x14, 0xcc, 0xdd}) {
		t.Fatal("Owned() = true for an untracked scriptPubKey")
	}
}
