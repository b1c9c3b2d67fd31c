package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/system-metaverse/system-go/pkg/entity"
	"github.com/system-metaverse/system-go/pkg/log"
	"github.com/system-metaverse/system-go/pkg/wire"
)

// Client defaults.
const (
	// DefaultMaxMessageSize is the maximum accepted server message (1 MB).
	DefaultMaxMessageSize = 1 << 20

	// DefaultPingInterval is the keepalive ping interval.
	DefaultPingInterval = 30 * time.Second

	// DefaultWriteTimeout bounds a single frame write.
	DefaultWriteTimeout = 10 * time.Second

	// dispatchBuffer bounds decoded messages awaiting dispatch. The read
	// loop blocks when the consumer falls this far behind.
	dispatchBuffer = 256
)

// ClientConfig configures a Client.
type ClientConfig struct {
	// URL is the WebSocket endpoint of the hosted database.
	URL string

	// MaxMessageSize caps incoming message size in bytes.
	MaxMessageSize int64

	// PingInterval is the keepalive ping interval.
	PingInterval time.Duration

	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration

	// Logger receives sync events. Nil disables logging.
	Logger log.Logger

	// OnDisconnect is invoked once when the connection is lost for any
	// reason other than Close. Runs on the dispatch goroutine.
	OnDisconnect func(err error)
}

// Client implements Source over a WebSocket carrying CBOR sync messages.
//
// A single read goroutine decodes server messages and a single dispatch
// goroutine delivers every callback, so subscribers observe the serial
// delivery order the protocol promises.
//
// A Client serves exactly one connection. After a connection loss, create
// a fresh Client instead of redialing this one.
type Client struct {
	cfg    ClientConfig
	logger log.Logger

	mu   sync.Mutex
	conn *websocket.Conn
	subs map[Handle]*activeSub

	connected atomic.Bool

	// writeMu serializes frame writes.
	writeMu sync.Mutex

	dispatchCh chan func()
	done       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

// activeSub holds the callbacks registered under one handle.
type activeSub struct {
	acks SubscriptionCallbacks
	rows map[entity.Family]RowCallbacks
}

// NewClient creates a client for the given endpoint. Call Dial to connect.
func NewClient(cfg ClientConfig) *Client {
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = DefaultMaxMessageSize
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultPingInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}

	return &Client{
		cfg:        cfg,
		logger:     log.OrNoop(cfg.Logger),
		subs:       make(map[Handle]*activeSub),
		dispatchCh: make(chan func(), dispatchBuffer),
		done:       make(chan struct{}),
	}
}

// Dial establishes the WebSocket connection and starts the read, dispatch
// and keepalive loops.
func (c *Client) Dial(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	conn.SetReadLimit(c.cfg.MaxMessageSize)

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.connected.Store(true)

	c.logger.Log(log.NewMessage(log.CategoryConnection, "connected to "+c.cfg.URL))

	c.wg.Add(3)
	go c.readLoop(conn)
	go c.dispatchLoop()
	go c.pingLoop(conn)

	return nil
}

// Connected reports whether a live connection exists.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Subscribe implements Source. The subscribe request is written to the
// server and the callbacks are registered under a fresh handle. The server's
// acknowledgment arrives later through acks.
func (c *Client) Subscribe(queries []wire.Query, acks SubscriptionCallbacks, rows map[entity.Family]RowCallbacks) (Handle, error) {
	if !c.Connected() {
		return "", ErrNotConnected
	}
	if len(queries) == 0 {
		return "", ErrNoQueries
	}

	h := NewHandle()

	c.mu.Lock()
	c.subs[h] = &activeSub{acks: acks, rows: rows}
	c.mu.Unlock()

	msg := &wire.ClientMessage{
		Type:     wire.MsgSubscribe,
		HandleID: h.String(),
		Queries:  queries,
	}
	if err := c.writeMessage(msg); err != nil {
		c.mu.Lock()
		delete(c.subs, h)
		c.mu.Unlock()
		return "", err
	}

	return h, nil
}

// Unsubscribe implements Source. The handle's callbacks are deregistered
// immediately; server messages still in flight for the handle are dropped.
func (c *Client) Unsubscribe(h Handle) {
	c.mu.Lock()
	_, known := c.subs[h]
	delete(c.subs, h)
	c.mu.Unlock()

	if !known || !c.Connected() {
		return
	}

	msg := &wire.ClientMessage{Type: wire.MsgUnsubscribe, HandleID: h.String()}
	if err := c.writeMessage(msg); err != nil {
		c.logger.Log(log.NewError("", fmt.Errorf("unsubscribe %s: %w", h, err)))
	}
}

// Close tears the connection down and waits for the loops to exit.
// Registered callbacks are never invoked after Close returns.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.connected.Store(false)
		close(c.done)

		c.mu.Lock()
		conn := c.conn
		c.conn = nil
		c.subs = make(map[Handle]*activeSub)
		c.mu.Unlock()

		if conn != nil {
			err = conn.Close()
		}
		c.wg.Wait()
	})
	return err
}

// Do runs fn on the dispatch goroutine, serialized with callback delivery.
// After Close the function is dropped.
func (c *Client) Do(fn func()) {
	select {
	case c.dispatchCh <- fn:
	case <-c.done:
	}
}

// writeMessage encodes and writes one client message.
func (c *Client) writeMessage(msg *wire.ClientMessage) error {
	data, err := wire.EncodeClientMessage(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.BinaryMessage, data)
}

// readLoop decodes server messages and queues them for serial dispatch.
func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleReadFailure(err)
			return
		}

		msg, err := wire.DecodeServerMessage(data)
		if err != nil {
			c.logger.Log(log.NewError("", err))
			continue
		}

		select {
		case c.dispatchCh <- func() { c.handleServerMessage(msg) }:
		case <-c.done:
			return
		}
	}
}

// handleReadFailure marks the connection lost and reports it, unless the
// loss was caused by Close.
func (c *Client) handleReadFailure(err error) {
	select {
	case <-c.done:
		return // Close in progress
	default:
	}

	if !c.connected.Swap(false) {
		return
	}

	c.logger.Log(log.NewError("", fmt.Errorf("connection lost: %w", err)))

	if c.cfg.OnDisconnect != nil {
		disconnect := c.cfg.OnDisconnect
		select {
		case c.dispatchCh <- func() { disconnect(err) }:
		case <-c.done:
		}
	}
}

// dispatchLoop delivers every callback serially.
func (c *Client) dispatchLoop() {
	defer c.wg.Done()

	for {
		select {
		case fn := <-c.dispatchCh:
			fn()
		case <-c.done:
			return
		}
	}
}

// pingLoop sends keepalive pings until the connection closes.
func (c *Client) pingLoop(conn *websocket.Conn) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// handleServerMessage routes one decoded server message to the callbacks
// registered under its handle. Runs on the dispatch goroutine.
func (c *Client) handleServerMessage(msg *wire.ServerMessage) {
	h := Handle(msg.HandleID)

	c.mu.Lock()
	sub, ok := c.subs[h]
	if ok && msg.Type == wire.MsgSubscriptionError {
		// A rejected subscription is dead; drop its registration.
		delete(c.subs, h)
	}
	c.mu.Unlock()

	if !ok {
		// Stale message for a superseded or torn-down handle.
		c.logger.Log(log.NewMessage(log.CategorySubscription,
			fmt.Sprintf("dropping %s for unknown handle %s", msg.Type, msg.HandleID)))
		return
	}

	switch msg.Type {
	case wire.MsgSubscriptionApplied:
		if sub.acks.OnApplied != nil {
			sub.acks.OnApplied(h)
		}

	case wire.MsgSubscriptionError:
		if sub.acks.OnError != nil {
			sub.acks.OnError(h, errors.New(msg.Error))
		}

	case wire.MsgTransactionUpdate:
		for i := range msg.Update.Ops {
			c.deliverRowOp(sub, &msg.Update.Ops[i])
		}
	}
}

// deliverRowOp hands one row change to the family's callbacks.
func (c *Client) deliverRowOp(sub *activeSub, op *wire.RowOp) {
	cbs, ok := sub.rows[op.Family]
	if !ok {
		return // Family not tracked by this subscription
	}

	switch op.Kind {
	case wire.OpInsert:
		if cbs.OnInsert != nil {
			cbs.OnInsert(op.Row)
		}
	case wire.OpUpdate:
		if cbs.OnUpdate != nil {
			cbs.OnUpdate(op.OldRow, op.Row)
		}
	case wire.OpDelete:
		if cbs.OnDelete != nil {
			cbs.OnDelete(op.Row)
		}
	}
}

// Compile-time interface satisfaction check.
var _ Source = (*Client)(nil)
