package receiveradapter

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/hashicorp/go-hclog"
)

// SeenStore is a durable set of outpoints, journaled to disk as JSON so a
// restarted receiver does not forget which inputs it has already processed.
// There is no embedded key-value store in this codebase's dependency set, so
// a mutex-guarded file is used directly; this is the one component in the
// tree built on the standard library alone.
type SeenStore struct {
	mu     sync.Mutex
	path   string
	seen   map[wire.OutPoint]struct{}
	logger hclog.Logger
}

// outpointKey is the JSON-serializable form of a wire.OutPoint, since
// wire.OutPoint itself does not implement json.Marshaler.
type outpointKey struct {
	Hash  string `json:"hash"`
	Index uint32 `json:"index"`
}

// OpenSeenStore loads path's journal, if it exists, and returns a store
// ready to accept further outpoints. A missing file is not an error; it is
// treated as an empty store and created on first write.
func OpenSeenStore(path string, logger hclog.Logger) (*SeenStore, error) {
	if logger == nil {
		logger = hclog.Default().Named("payjoin.receiveradapter")
	}
	s := &SeenStore{path: path, seen: make(map[wire.OutPoint]struct{}), logger: logger}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seen store: %w", err)
	}
	defer f.Close()

	var keys []outpointKey
	if err := json.NewDecoder(f).Decode(&keys); err != nil {
		return nil, fmt.Errorf("decode seen store: %w", err)
	}
	for _, k := range keys {
		hash, err := chainhash.NewHashFromStr(k.Hash)
		if err != nil {
			return nil, fmt.Errorf("decode seen store entry: %w", err)
		}
		s.seen[wire.OutPoint{Hash: *hash, Index: k.Index}] = struct{}{}
	}
	return s, nil
}

// AlreadySeen reports whether op was previously marked seen. If it was not,
// it is inserted and flushed to disk before this call returns, so a crash
// immediately after a false result does not forget the mark. If the flush
// fails, the error is logged and the mark is held in memory only.
func (s *SeenStore) AlreadySeen(op wire.OutPoint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[op]; ok {
		return true
	}
	s.seen[op] = struct{}{}
	if err := s.flushLocked(); err != nil {
		// The in-memory set still reflects op as seen for the lifetime of
		// this process; only a restart before a successful flush could
		// forget it. Surfacing this as a panic would take down the whole
		// receiver over a transient disk error, so it's logged and eaten.
		s.logger.Error("flush seen store", "error", err)
	}
	return false
}

func (s *SeenStore) flushLocked() error {
	keys := make([]outpointKey, 0, len(s.seen))
	for op := range s.seen {
		h := op.Hash
		keys = append(keys, outpointKey{Hash: h.String(), Index: op.Index})
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(keys); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
