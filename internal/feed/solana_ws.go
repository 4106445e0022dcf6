package feed

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tardis-dev/serum-vial/internal/domain"
	"github.com/tardis-dev/serum-vial/internal/platform/serum"
)

const (
	// handshakeTimeout is the time allowed for the WebSocket handshake.
	handshakeTimeout = 15 * time.Second

	// writeWait is the time allowed to write a message to the RPC node.
	writeWait = 10 * time.Second

	// pingPeriod sends application-level pings at this interval.
	pingPeriod = 3 * time.Second

	// staleCheckPeriod terminates connections that stopped delivering any
	// messages. Slot notifications double as a heartbeat, so a healthy
	// connection is never silent for this long.
	staleCheckPeriod = 30 * time.Second

	// maxReconnectDelay caps the exponential backoff between reconnects.
	maxReconnectDelay = 32 * time.Second

	// rpcRequestTimeout bounds a single JSON RPC HTTP request.
	rpcRequestTimeout = 5 * time.Second

	// rpcMaxRetries bounds the REST bootstrap retries per connection.
	rpcMaxRetries = 10
)

// Request ids for the account subscriptions; responses echo them so the
// subscription confirmations can be tied back to the account they cover.
const (
	reqIDSlotSubscribe = 999
	reqIDBids          = 1000
	reqIDAsks          = 2000
	reqIDEventQueue    = 3000
)

// RPCClientOptions configures a per-market RPC feed.
type RPCClientOptions struct {
	// NodeEndpoint is the HTTP(S) JSON RPC endpoint of the Solana node. The
	// WebSocket endpoint is derived from it unless WSEndpointPort is set.
	NodeEndpoint   string
	WSEndpointPort int
	Commitment     string

	Market serum.MarketMeta
	Logger *slog.Logger

	HTTPClient *http.Client
}

// RPCClient subscribes to one market's bids, asks and event queue accounts
// over the Solana RPC WebSocket API and delivers slot-coalesced notifications
// on Notifications. A reconnect emits a reset notification first so consumers
// drop state derived from the previous connection.
type RPCClient struct {
	nodeEndpoint string
	wsEndpoint   string
	commitment   string
	market       serum.MarketMeta
	logger       *slog.Logger
	httpClient   *http.Client

	coalescer     *SlotCoalescer
	notifications chan domain.AccountsNotification

	restartCh chan struct{}

	msgCount atomic.Int64

	mu       sync.Mutex
	accounts []accountMeta
	subs     map[int64]domain.AccountName
}

type accountMeta struct {
	name    domain.AccountName
	reqID   int64
	address string
}

// NewRPCClient builds an RPC feed for one market.
func NewRPCClient(opts RPCClientOptions) (*RPCClient, error) {
	wsEndpoint, err := deriveWSEndpoint(opts.NodeEndpoint, opts.WSEndpointPort)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: rpcRequestTimeout}
	}

	c := &RPCClient{
		nodeEndpoint:  opts.NodeEndpoint,
		wsEndpoint:    wsEndpoint,
		commitment:    opts.Commitment,
		market:        opts.Market,
		logger:        logger.With("component", "rpc_client", "market", opts.Market.Name),
		httpClient:    httpClient,
		notifications: make(chan domain.AccountsNotification, 128),
		restartCh:     make(chan struct{}, 1),
		subs:          make(map[int64]domain.AccountName),
	}
	c.coalescer = NewSlotCoalescer(c.logger, func(n domain.AccountsNotification) {
		c.notifications <- n
	})
	return c, nil
}

// deriveWSEndpoint turns the HTTP RPC endpoint into its WebSocket
// counterpart, optionally overriding the port.
func deriveWSEndpoint(nodeEndpoint string, port int) (string, error) {
	u, err := url.Parse(nodeEndpoint)
	if err != nil {
		return "", fmt.Errorf("feed: invalid node endpoint %q: %w", nodeEndpoint, err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("feed: unsupported node endpoint scheme %q", u.Scheme)
	}
	if port > 0 {
		u.Host = fmt.Sprintf("%s:%d", u.Hostname(), port)
	}
	return u.String(), nil
}

// Notifications returns the stream of coalesced account notifications.
func (c *RPCClient) Notifications() <-chan domain.AccountsNotification {
	return c.notifications
}

// Restart drops the current connection so the feed re-bootstraps from a
// fresh snapshot. Used by consumers after detecting a data partition.
func (c *RPCClient) Restart() {
	select {
	case c.restartCh <- struct{}{}:
	default:
	}
}

// Run connects to the RPC node and keeps the subscription alive until ctx is
// canceled, reconnecting with exponential backoff.
func (c *RPCClient) Run(ctx context.Context) error {
	retries := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		err := c.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// A long-lived connection resets the backoff.
		if time.Since(start) > time.Minute {
			retries = 0
		}

		delay := reconnectDelay(retries)
		retries++
		c.logger.Info("restarting RPC WebSocket connection", "delay", delay, "error", err)

		c.coalescer.Reset()
		select {
		case c.notifications <- domain.AccountsNotification{Reset: true}:
		case <-ctx.Done():
			return ctx.Err()
		}

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func reconnectDelay(retries int) time.Duration {
	if retries == 0 {
		return 0
	}
	delay := time.Second << uint(retries)
	if delay > maxReconnectDelay {
		delay = maxReconnectDelay
	}
	return delay
}

// runConnection drives one WebSocket connection: resolve the market's
// account addresses, bootstrap from a REST snapshot, subscribe and read
// until the connection fails, ctx is canceled or a restart is requested.
func (c *RPCClient) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.wsEndpoint, nil)
	if err != nil {
		return fmt.Errorf("feed: connect %s: %w", c.wsEndpoint, err)
	}
	defer conn.Close()

	c.logger.Info("established RPC WebSocket connection")

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-connCtx.Done():
		case <-c.restartCh:
			c.logger.Info("connection restart requested")
		}
		conn.Close()
	}()

	// Solana RPC has no native heartbeats; slot notifications stand in.
	if err := c.send(conn, rpcRequest{JSONRPC: "2.0", ID: reqIDSlotSubscribe, Method: "slotSubscribe", Params: []any{}}); err != nil {
		return err
	}

	go c.pingLoop(connCtx, conn)
	go c.staleMonitor(connCtx, conn)

	if err := c.bootstrap(connCtx); err != nil {
		return err
	}
	if err := c.subscribeAccounts(conn); err != nil {
		return err
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("feed: read: %w", err)
		}
		c.msgCount.Add(1)
		if err := c.handleMessage(message); err != nil {
			return err
		}
	}
}

// bootstrap resolves the market's bids/asks/eventQueue addresses from the
// market state account and publishes an initial snapshot of all three, so
// quiet markets initialize without waiting for WS notifications.
func (c *RPCClient) bootstrap(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < rpcMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := c.resolveAccounts(ctx); err != nil {
			lastErr = err
			c.logger.Warn("failed to resolve market accounts", "attempt", attempt, "error", err)
			continue
		}
		accounts, slot, err := c.fetchAccountsSnapshot(ctx)
		if err != nil {
			lastErr = err
			c.logger.Warn("failed to fetch accounts snapshot", "attempt", attempt, "error", err)
			continue
		}

		c.coalescer.Bootstrap(accounts, slot)
		return nil
	}
	return fmt.Errorf("feed: bootstrap: %w", lastErr)
}

// resolveAccounts decodes the market state account into the tracked account
// addresses. The result is cached for the lifetime of the process.
func (c *RPCClient) resolveAccounts(ctx context.Context) error {
	c.mu.Lock()
	resolved := len(c.accounts) > 0
	c.mu.Unlock()
	if resolved {
		return nil
	}

	var result struct {
		Value *struct {
			Data [2]string `json:"data"`
		} `json:"value"`
	}
	err := c.call(ctx, "getAccountInfo",
		[]any{c.market.Address, map[string]string{"encoding": "base64", "commitment": c.commitment}},
		&result)
	if err != nil {
		return err
	}
	if result.Value == nil {
		return fmt.Errorf("feed: market account %s not found: %w", c.market.Address, domain.ErrUnknownMarket)
	}

	raw, err := base64.StdEncoding.DecodeString(result.Value.Data[0])
	if err != nil {
		return fmt.Errorf("feed: market account data: %w", err)
	}
	state, err := serum.DecodeMarketState(raw)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.accounts = []accountMeta{
		{name: domain.AccountBids, reqID: reqIDBids, address: state.BidsAddress},
		{name: domain.AccountAsks, reqID: reqIDAsks, address: state.AsksAddress},
		{name: domain.AccountEventQueue, reqID: reqIDEventQueue, address: state.EventQueueAddress},
	}
	c.mu.Unlock()

	c.logger.Info("resolved market accounts",
		"bids", state.BidsAddress, "asks", state.AsksAddress, "event_queue", state.EventQueueAddress)
	return nil
}

func (c *RPCClient) fetchAccountsSnapshot(ctx context.Context) (domain.AccountsData, uint64, error) {
	c.mu.Lock()
	accounts := c.accounts
	c.mu.Unlock()

	addresses := make([]string, len(accounts))
	for i, a := range accounts {
		addresses[i] = a.address
	}

	var result struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value []struct {
			Data [2]string `json:"data"`
		} `json:"value"`
	}
	err := c.call(ctx, "getMultipleAccounts",
		[]any{addresses, map[string]string{"encoding": "base64", "commitment": c.commitment}},
		&result)
	if err != nil {
		return domain.AccountsData{}, 0, err
	}
	if len(result.Value) != len(accounts) {
		return domain.AccountsData{}, 0, fmt.Errorf("feed: snapshot returned %d accounts, expected %d",
			len(result.Value), len(accounts))
	}

	var data domain.AccountsData
	for i, a := range accounts {
		raw, err := base64.StdEncoding.DecodeString(result.Value[i].Data[0])
		if err != nil {
			return domain.AccountsData{}, 0, fmt.Errorf("feed: %s account data: %w", a.name, err)
		}
		data.Set(a.name, raw)
	}
	return data, result.Context.Slot, nil
}

func (c *RPCClient) subscribeAccounts(conn *websocket.Conn) error {
	c.mu.Lock()
	accounts := c.accounts
	c.subs = make(map[int64]domain.AccountName)
	c.mu.Unlock()

	for _, a := range accounts {
		req := rpcRequest{
			JSONRPC: "2.0",
			ID:      a.reqID,
			Method:  "accountSubscribe",
			Params: []any{
				a.address,
				map[string]string{"encoding": "base64", "commitment": c.commitment},
			},
		}
		if err := c.send(conn, req); err != nil {
			return fmt.Errorf("feed: subscribe %s: %w", a.name, err)
		}
	}
	return nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

func (c *RPCClient) send(conn *websocket.Conn, req rpcRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("feed: marshal request: %w", err)
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// handleMessage routes one RPC WebSocket message: subscription
// confirmations, account notifications and slot heartbeats.
func (c *RPCClient) handleMessage(raw []byte) error {
	var msg struct {
		ID     int64           `json:"id"`
		Error  json.RawMessage `json:"error"`
		Result json.RawMessage `json:"result"`
		Method string          `json:"method"`
		Params struct {
			Result struct {
				Context struct {
					Slot uint64 `json:"slot"`
				} `json:"context"`
				Value struct {
					Data [2]string `json:"data"`
				} `json:"value"`
			} `json:"result"`
			Subscription int64 `json:"subscription"`
		} `json:"params"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fmt.Errorf("feed: malformed RPC message: %w", err)
	}

	if msg.Error != nil {
		return fmt.Errorf("feed: RPC error message: %s: %w", msg.Error, domain.ErrWSDisconnect)
	}

	switch msg.Method {
	case "":
		// Subscription confirmation: result is the subscription id.
		if msg.ID == reqIDSlotSubscribe {
			return nil
		}
		var subID int64
		if err := json.Unmarshal(msg.Result, &subID); err != nil {
			return fmt.Errorf("feed: subscription confirmation: %w", err)
		}
		c.mu.Lock()
		for _, a := range c.accounts {
			if a.reqID == msg.ID {
				c.subs[subID] = a.name
				break
			}
		}
		c.mu.Unlock()
		return nil

	case "slotNotification":
		// Heartbeat only.
		return nil

	case "accountNotification":
		c.mu.Lock()
		name, ok := c.subs[msg.Params.Subscription]
		c.mu.Unlock()
		if !ok {
			return fmt.Errorf("feed: notification for unknown subscription %d", msg.Params.Subscription)
		}
		data, err := base64.StdEncoding.DecodeString(msg.Params.Result.Value.Data[0])
		if err != nil {
			return fmt.Errorf("feed: %s account data: %w", name, err)
		}
		c.coalescer.Update(name, data, msg.Params.Result.Context.Slot)
		return nil

	default:
		c.logger.Warn("unknown RPC message method", "method", msg.Method)
		return nil
	}
}

func (c *RPCClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.send(conn, rpcRequest{JSONRPC: "2.0", Method: "ping", Params: nil}); err != nil {
				return
			}
		}
	}
}

// staleMonitor terminates connections that stay open but silent.
func (c *RPCClient) staleMonitor(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(staleCheckPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.msgCount.Swap(0) == 0 {
				c.logger.Info("no messages received within stale check period, terminating connection")
				conn.Close()
				return
			}
		}
	}
}

// call performs one JSON RPC request over HTTP and decodes result into out.
func (c *RPCClient) call(ctx context.Context, method string, params any, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, rpcRequestTimeout)
	defer cancel()

	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("feed: marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.nodeEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("feed: %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("feed: %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("feed: %s: HTTP %d: %s", method, resp.StatusCode, text)
	}

	var rpcResp struct {
		Error  json.RawMessage `json:"error"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("feed: %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("feed: %s: JSON RPC error: %s", method, rpcResp.Error)
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("feed: %s result: %w", method, err)
	}
	return nil
}
