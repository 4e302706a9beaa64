// Package electrum implements the slice of the Electrum JSON-RPC protocol
// that receiveradapter.ElectrumChecks needs to broadcast a payjoin proposal
// and tear the connection back down: version handshake, broadcast, close.
package electrum

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Client represents an Electrum protocol client
type Client struct {
	conn     net.Conn
	mu       sync.Mutex
	id       atomic.Uint64
	url      string
	useTLS   bool
	host     string
	port     string
	respChan map[uint64]chan *rpcResponse
	respMu   sync.Mutex
	closed   bool
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewClient creates a new Electrum client
func NewClient(url string) (*Client, error) {
	c := &Client{
		url:      url,
		respChan: make(map[uint64]chan *rpcResponse),
	}

	if err := c.parseURL(url); err != nil {
		return nil, err
	}

	if err := c.connect(); err != nil {
		return nil, err
	}

	// Start response reader
	go c.readResponses()

	// Negotiate protocol version
	if err := c.negotiateVersion(); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

func (c *Client) parseURL(url string) error {
	if strings.HasPrefix(url, "ssl://") {
		c.useTLS = true
		url = strings.TrimPrefix(url, "ssl://")
	} else if strings.HasPrefix(url, "tcp://") {
		c.useTLS = false
		url = strings.TrimPrefix(url, "tcp://")
	} else {
		// Default to TLS
		c.useTLS = true
	}

	parts := strings.Split(url, ":")
	if len(parts) != 2 {
		return fmt.Errorf("invalid URL format: expected host:port")
	}

	c.host = parts[0]
	c.port = parts[1]

	return nil
}

func (c *Client) connect() error {
	addr := net.JoinHostPort(c.host, c.port)

	var conn net.Conn
	var err error

	if c.useTLS {
		conn, err = tls.DialWithDialer(&net.Dialer{
			Timeout: 30 * time.Second,
		}, "tcp", addr, &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: c.host, // Explicit ServerName for proper certificate validation
		})
	} else {
		conn, err = net.DialTimeout("tcp", addr, 30*time.Second)
	}

	if err != nil {
		return fmt.Errorf("failed to connect to Electrum server: %w", err)
	}

	c.conn = conn
	return nil
}

func (c *Client) readResponses() {
	decoder := json.NewDecoder(c.conn)
	for {
		var resp rpcResponse
		if err := decoder.Decode(&resp); err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				// Connection error, close all waiting channels
				c.respMu.Lock()
				for _, ch := range c.respChan {
					close(ch)
				}
				c.respChan = make(map[uint64]chan *rpcResponse)
				c.respMu.Unlock()
			}
			return
		}

		c.respMu.Lock()
		if ch, ok := c.respChan[resp.ID]; ok {
			ch <- &resp
			delete(c.respChan, resp.ID)
		}
		c.respMu.Unlock()
	}
}

func (c *Client) call(method string, params ...interface{}) (json.RawMessage, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("client is closed")
	}
	c.mu.Unlock()

	id := c.id.Add(1)

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	}

	respCh := make(chan *rpcResponse, 1)
	c.respMu.Lock()
	c.respChan[id] = respCh
	c.respMu.Unlock()

	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	data = append(data, '\n')

	c.mu.Lock()
	_, err = c.conn.Write(data)
	c.mu.Unlock()
	if err != nil {
		c.respMu.Lock()
		delete(c.respChan, id)
		c.respMu.Unlock()
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	// Wait for response with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	select {
	case resp, ok := <-respCh:
		if !ok {
			return nil, fmt.Errorf("connection closed")
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("electrum error %d: %s", resp.Error.Code, resp.Error.Message)
		}
		return resp.Result, nil
	case <-ctx.Done():
		c.respMu.Lock()
		delete(c.respChan, id)
		c.respMu.Unlock()
		return nil, fmt.Errorf("request timeout")
	}
}

func (c *Client) negotiateVersion() error {
	result, err := c.call("server.version", "payjoin", "1.4")
	if err != nil {
		return fmt.Errorf("version negotiation failed: %w", err)
	}

	var version []string
	if err := json.Unmarshal(result, &version); err != nil {
		return fmt.Errorf("failed to parse version response: %w", err)
	}

	return nil
}

// Close closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

// BroadcastTransaction broadcasts a raw transaction and returns the txid
func (c *Client) BroadcastTransaction(rawtx string) (string, error) {
	result, err := c.call("blockchain.transaction.broadcast", rawtx)
	if err != nil {
		return "", err
	}

	var txid string
	if err := json.Unmarshal(result, &txid); err != nil {
		return "", fmt.Errorf("failed to parse broadcast result: %w", err)
	}

	return txid, nil
}
