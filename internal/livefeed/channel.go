// Package livefeed is the client side of the live update feed: one
// persistent WebSocket connection per process, shared read-only by
// every open editor session and by the activity feed. The channel owns
// its own lifecycle (connect, heartbeat, reconnect) so no caller ever
// recreates it; consumers observe state transitions and subscribe to
// broadcast messages.
package livefeed

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kubedeck/kubedeck-backend/internal/models"
)

// State is the channel's connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateError        State = "error"
)

// Defaults for the in-process constructor options.
const (
	DefaultHeartbeatPeriod   = 30 * time.Second
	DefaultReconnectInterval = 3 * time.Second
	DefaultMaxReconnects     = 5
	DefaultHistorySize       = 100
)

// Notification is a user-facing banner derived from a broadcast
// message. Unknown message types produce no notification.
type Notification struct {
	Level   string // info | warning | error
	Message string
}

// Options configures a Channel. Zero values take the documented
// defaults.
type Options struct {
	URL               string
	HeartbeatPeriod   time.Duration
	ReconnectInterval time.Duration
	MaxReconnects     int
	HistorySize       int
	Dialer            *websocket.Dialer
	Logger            *slog.Logger
	Notify            func(Notification)
}

type subscription struct {
	pred func(models.LiveMessage) bool
	fn   func(models.LiveMessage)
}

// Channel is a live update feed connection with heartbeat and
// automatic recovery. Methods are safe for concurrent use.
type Channel struct {
	opts Options

	mu          sync.Mutex
	writeMu     sync.Mutex
	state       State
	conn        *websocket.Conn
	connGen     int
	attempts    int
	manualClose bool
	closed      bool

	history []models.LiveMessage // most-recent-first, bounded

	subs    map[int]subscription
	nextSub int

	reconnectTimer *time.Timer
	heartbeatStop  chan struct{}
}

// NewChannel builds a disconnected channel. Call Connect to start it.
func NewChannel(opts Options) *Channel {
	if opts.HeartbeatPeriod <= 0 {
		opts.HeartbeatPeriod = DefaultHeartbeatPeriod
	}
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = DefaultReconnectInterval
	}
	if opts.MaxReconnects <= 0 {
		opts.MaxReconnects = DefaultMaxReconnects
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = DefaultHistorySize
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Channel{
		opts:  opts,
		state: StateDisconnected,
		subs:  make(map[int]subscription),
	}
}

// Connect starts the channel. Idempotent: calling it while already
// connecting or connected is a no-op. The first dial failure is
// returned, but recovery is still scheduled.
func (c *Channel) Connect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("channel disposed")
	}
	if c.opts.URL == "" {
		c.state = StateError
		c.mu.Unlock()
		return errors.New("livefeed: no URL configured")
	}
	switch c.state {
	case StateConnected, StateConnecting, StateReconnecting:
		c.mu.Unlock()
		return nil
	}
	c.manualClose = false
	c.attempts = 0
	c.mu.Unlock()
	return c.dial()
}

func (c *Channel) dial() error {
	c.mu.Lock()
	if c.closed || c.manualClose {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	url := c.opts.URL
	c.mu.Unlock()

	conn, resp, err := c.opts.Dialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.manualClose {
		if conn != nil {
			conn.Close()
		}
		return nil
	}
	if err != nil {
		c.opts.Logger.Warn("livefeed dial failed", "url", url, "error", err)
		c.scheduleReconnectLocked()
		return err
	}

	c.conn = conn
	c.connGen++
	c.state = StateConnected
	c.attempts = 0
	c.heartbeatStop = make(chan struct{})
	go c.readLoop(conn, c.connGen)
	go c.heartbeatLoop(c.heartbeatStop)
	return nil
}

// readLoop drains frames until the connection drops, then routes the
// close through the reconnect state machine.
func (c *Channel) readLoop(conn *websocket.Conn, gen int) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(gen, err)
			return
		}
		c.handleFrame(data)
	}
}

func (c *Channel) handleClose(gen int, err error) {
	c.mu.Lock()
	if c.closed || gen != c.connGen {
		c.mu.Unlock()
		return
	}
	c.stopHeartbeatLocked()
	c.conn = nil

	if c.manualClose || isNormalClose(err) {
		c.state = StateDisconnected
		c.mu.Unlock()
		return
	}
	c.opts.Logger.Warn("livefeed connection lost", "error", err)
	c.scheduleReconnectLocked()
	c.mu.Unlock()
}

func isNormalClose(err error) bool {
	var ce *websocket.CloseError
	return errors.As(err, &ce) && ce.Code == websocket.CloseNormalClosure
}

// scheduleReconnectLocked implements the fixed-backoff retry policy:
// attempts are counted across consecutive failures and reset only by a
// successful connection; exceeding the limit is terminal.
func (c *Channel) scheduleReconnectLocked() {
	if c.attempts >= c.opts.MaxReconnects {
		c.state = StateDisconnected
		c.opts.Logger.Error("livefeed gave up reconnecting", "attempts", c.attempts)
		c.notify(Notification{Level: "error", Message: "Live updates unavailable: connection could not be re-established"})
		return
	}
	c.attempts++
	c.state = StateReconnecting
	c.reconnectTimer = time.AfterFunc(c.opts.ReconnectInterval, func() {
		_ = c.dial()
	})
}

func (c *Channel) handleFrame(data []byte) {
	var msg models.LiveMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		// Malformed frames are dropped; they never take the channel down.
		c.opts.Logger.Warn("livefeed dropped unparseable message", "error", err)
		return
	}
	if msg.Type == models.MsgPong {
		// Heartbeat replies are consumed silently.
		return
	}

	c.mu.Lock()
	c.history = append([]models.LiveMessage{msg}, c.history...)
	if len(c.history) > c.opts.HistorySize {
		c.history = c.history[:c.opts.HistorySize]
	}
	handlers := make([]func(models.LiveMessage), 0, len(c.subs))
	for _, sub := range c.subs {
		if sub.pred == nil || sub.pred(msg) {
			handlers = append(handlers, sub.fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range handlers {
		fn(msg)
	}
	if n, ok := notificationFor(msg); ok {
		c.notify(n)
	}
}

// notificationFor maps known broadcast types to user-facing banners.
func notificationFor(msg models.LiveMessage) (Notification, bool) {
	switch msg.Type {
	case models.MsgResourceUpdated:
		name, _ := msg.Data["name"].(string)
		user, _ := msg.Data["user"].(string)
		if ok, _ := msg.Data["success"].(bool); !ok {
			return Notification{Level: "error", Message: fmt.Sprintf("Update of %s by %s failed", name, user)}, true
		}
		return Notification{Level: "info", Message: fmt.Sprintf("%s updated by %s", name, user)}, true
	case models.MsgAuditLog:
		op, _ := msg.Data["operation"].(string)
		if ok, _ := msg.Data["success"].(bool); !ok {
			return Notification{Level: "warning", Message: fmt.Sprintf("Operation %s failed", op)}, true
		}
		return Notification{Level: "info", Message: fmt.Sprintf("Operation %s completed", op)}, true
	case models.MsgBatchOperation:
		okCount := intFromData(msg.Data, "success_count")
		failed := intFromData(msg.Data, "failed_count")
		return Notification{Level: "info", Message: fmt.Sprintf("Batch operation: %d succeeded, %d failed", okCount, failed)}, true
	case models.MsgCacheInvalidated:
		return Notification{Level: "info", Message: "Resource cache invalidated"}, true
	default:
		return Notification{}, false
	}
}

func intFromData(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func (c *Channel) notify(n Notification) {
	if c.opts.Notify != nil {
		c.opts.Notify(n)
	}
}

func (c *Channel) heartbeatLoop(stop chan struct{}) {
	ticker := time.NewTicker(c.opts.HeartbeatPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.Send(models.LiveMessage{Type: models.MsgPing, Timestamp: time.Now().UTC()})
		}
	}
}

func (c *Channel) stopHeartbeatLocked() {
	if c.heartbeatStop != nil {
		close(c.heartbeatStop)
		c.heartbeatStop = nil
	}
}

// Send writes a message to the server. It never blocks on a dead
// connection: when the channel is not Connected it reports failure and
// the caller decides what to do.
func (c *Channel) Send(msg models.LiveMessage) bool {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()
	if !connected || conn == nil {
		return false
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(msg) == nil
}

// Subscribe registers a handler for broadcast messages matching pred
// (nil matches everything). The returned function unsubscribes; it is
// safe to call more than once.
func (c *Channel) Subscribe(pred func(models.LiveMessage) bool, fn func(models.LiveMessage)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = subscription{pred: pred, fn: fn}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// Disconnect closes the connection with a normal close code and stops
// all timers. It never triggers reconnection. Idempotent.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.manualClose = true
	c.attempts = 0
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.stopHeartbeatLocked()
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn != nil {
		c.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		conn.Close()
	}
}

// Dispose disconnects and permanently retires the channel.
func (c *Channel) Dispose() {
	c.Disconnect()
	c.mu.Lock()
	c.closed = true
	c.subs = make(map[int]subscription)
	c.history = nil
	c.mu.Unlock()
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// History returns the bounded message history, most recent first.
func (c *Channel) History() []models.LiveMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.LiveMessage(nil), c.history...)
}

// Attempts returns the current reconnect attempt counter.
func (c *Channel) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}
