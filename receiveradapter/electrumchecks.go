// Package receiveradapter wires the payjoin receiver's caller-supplied
// checks (broadcastability, ownership, prevout-seen) to a concrete backend:
// an Electrum server for broadcast probing and a JSON-journaled on-disk set
// for prevout novelty. It is a reference implementation, not part of the
// validation core.
package receiveradapter

import (
	"bytes"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/wire"
	"github.com/hashicorp/go-hclog"

	"github.com/dan/payjoin/electrum"
)

// ElectrumChecks answers the receiver's broadcastability and ownership
// queries against an Electrum server connection, reconnecting once on a
// detected stale connection the way the original wallet backend did.
type ElectrumChecks struct {
	mu     sync.Mutex
	client *electrum.Client
	url    string
	mine   map[string]struct{} // scriptPubKey (hex) -> present
	logger hclog.Logger
}

// NewElectrumChecks connects to the given Electrum server and tracks
// mineScripts as the receiver's own scriptPubKeys. Key derivation or
// enumeration of "my" addresses is the caller's concern; this adapter only
// performs membership tests.
func NewElectrumChecks(url string, mineScripts [][]byte, logger hclog.Logger) (*ElectrumChecks, error) {
	client, err := electrum.NewClient(url)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = hclog.Default().Named("payjoin.receiveradapter")
	}

	mine := make(map[string]struct{}, len(mineScripts))
	for _, s := range mineScripts {
		mine[hex.EncodeToString(s)] = struct{}{}
	}

	return &ElectrumChecks{client: client, url: url, mine: mine, logger: logger}, nil
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "i/o timeout")
}

// resetLocked replaces a stale connection with a fresh one. Caller must hold
// c.mu.
func (c *ElectrumChecks) resetLocked() {
	c.logger.Warn("detected stale electrum connection, reconnecting")
	c.client.Close()
	if fresh, err := electrum.NewClient(c.url); err == nil {
		c.client = fresh
	} else {
		c.logger.Error("failed to reconnect to electrum server", "error", err)
	}
}

// Unbroadcastable reports whether tx should be treated as unable to reach
// the mempool. The Electrum wire protocol has no dry-run "testmempoolaccept"
// equivalent, so a broadcast rejection is treated as proof of
// unbroadcastability; success means the transaction was, in fact, just
// broadcast. This makes the check strictly weaker than a Bitcoin Core
// testmempoolaccept probe and is a reference/demo behavior, not a
// recommendation for production use.
func (c *ElectrumChecks) Unbroadcastable(tx *wire.MsgTx) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	var raw bytes.Buffer
	if err := tx.Serialize(&raw); err != nil {
		return true
	}

	_, err := c.client.BroadcastTransaction(hex.EncodeToString(raw.Bytes()))
	if err != nil {
		if isConnectionError(err) {
			c.resetLocked()
		}
		c.logger.Debug("broadcast rejected", "error", err)
		return true
	}
	return false
}

// Owned reports whether scriptPubKey belongs to the receiver's own wallet,
// per the set supplied at construction.
func (c *ElectrumChecks) Owned(scriptPubKey []byte) bool {
	_, ok := c.mine[hex.EncodeToString(scriptPubKey)]
	return ok
}
