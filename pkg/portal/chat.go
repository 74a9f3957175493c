package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

// ChannelState is reported through OnState.
type ChannelState string

const (
	StateConnecting   ChannelState = "connecting"
	StateOpen         ChannelState = "open"
	StateReconnecting ChannelState = "reconnecting"
	StateClosed       ChannelState = "closed"
)

const (
	DefaultPingInterval  = 25 * time.Second
	DefaultMaxReconnects = 5

	frameChat = "chat"
	framePing = "ping"
)

type frame struct {
	Type    string       `json:"type"`
	Message *ChatMessage `json:"message,omitempty"`
}

// ChatChannel streams the conversation of one request. History comes over
// REST; new messages arrive over the socket.
type ChatChannel struct {
	api       *API
	requestID uint

	pingInterval  time.Duration
	maxReconnects int
	backoffBase   time.Duration
	backoffMax    time.Duration
	dialer        *websocket.Dialer
	onState       func(ChannelState)
	onMessage     func(ChatMessage)

	mu       sync.Mutex
	messages []ChatMessage
	state    ChannelState
	conn     *websocket.Conn
	cancel   context.CancelFunc
	done     chan struct{}

	writeMu sync.Mutex
}

type ChatOption func(*ChatChannel)

// WithPingInterval sets the keep-alive period. Zero or less disables pings.
func WithPingInterval(d time.Duration) ChatOption {
	return func(c *ChatChannel) { c.pingInterval = d }
}

// WithMaxReconnects bounds reconnect attempts after an unexpected close.
// Zero disables reconnecting.
func WithMaxReconnects(n int) ChatOption {
	return func(c *ChatChannel) { c.maxReconnects = n }
}

// WithBackoff sets the first retry delay and its cap. Delays double between
// attempts and are jittered.
func WithBackoff(base, max time.Duration) ChatOption {
	return func(c *ChatChannel) {
		c.backoffBase = base
		c.backoffMax = max
	}
}

func WithDialer(d *websocket.Dialer) ChatOption {
	return func(c *ChatChannel) { c.dialer = d }
}

func OnState(fn func(ChannelState)) ChatOption {
	return func(c *ChatChannel) { c.onState = fn }
}

func OnMessage(fn func(ChatMessage)) ChatOption {
	return func(c *ChatChannel) { c.onMessage = fn }
}

func NewChatChannel(api *API, requestID uint, opts ...ChatOption) *ChatChannel {
	c := &ChatChannel{
		api:           api,
		requestID:     requestID,
		pingInterval:  DefaultPingInterval,
		maxReconnects: DefaultMaxReconnects,
		backoffBase:   time.Second,
		backoffMax:    30 * time.Second,
		dialer:        websocket.DefaultDialer,
		state:         StateClosed,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// History fetches the stored conversation, oldest first.
func (c *ChatChannel) History(ctx context.Context) ([]ChatMessage, error) {
	var msgs []ChatMessage
	if err := c.api.Client.Do(ctx, http.MethodGet, requestPath(c.requestID)+"messages/", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Open loads the history and starts the socket in the background. Only the
// history fetch can fail; socket trouble is logged and retried.
func (c *ChatChannel) Open(ctx context.Context) error {
	history, err := c.History(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return ErrBusy
	}
	runCtx, cancel := context.WithCancel(context.Background())
	c.messages = history
	c.cancel = cancel
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	c.setState(StateConnecting)
	go func() {
		defer close(done)
		c.run(runCtx)
	}()
	return nil
}

// Close stops the channel. It is safe to call at any time.
func (c *ChatChannel) Close() {
	c.mu.Lock()
	cancel, done, conn := c.cancel, c.done, c.conn
	c.cancel = nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if conn != nil {
		conn.Close()
	}
	<-done
	c.setState(StateClosed)
}

// Messages returns a copy of the conversation so far.
func (c *ChatChannel) Messages() []ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ChatMessage(nil), c.messages...)
}

func (c *ChatChannel) State() ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Send posts a message over REST. It is not appended locally; the echo
// arrives through the socket.
func (c *ChatChannel) Send(ctx context.Context, text string) error {
	return postMessage(ctx, c.api.Client, c.requestID, text)
}

func (c *ChatChannel) run(ctx context.Context) {
	log := c.api.Client.Logger().WithField("request_id", c.requestID)
	policy := c.retryPolicy(ctx)
	connected := false
	for {
		conn, err := c.dial(ctx)
		if err == nil && connected {
			// Open loaded the history once; after a drop, catch up on what
			// was posted while the socket was down.
			if err = c.resync(ctx); err != nil {
				conn.Close()
			}
		}
		if err == nil {
			connected = true
			policy.Reset()
			c.serve(ctx, conn)
		} else {
			log.WithError(err).Warn("chat channel connect failed")
			if IsAuth(err) {
				c.setState(StateClosed)
				return
			}
		}
		if ctx.Err() != nil {
			return
		}

		wait := policy.NextBackOff()
		if wait == backoff.Stop {
			log.Warn("chat channel gave up reconnecting")
			c.setState(StateClosed)
			return
		}
		c.setState(StateReconnecting)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// retryPolicy yields the waits between reconnect attempts, at most
// maxReconnects of them.
func (c *ChatChannel) retryPolicy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.backoffBase
	exp.MaxInterval = c.backoffMax
	exp.Multiplier = 2
	exp.MaxElapsedTime = 0
	exp.Reset()

	retries := c.maxReconnects
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// resync replaces the local conversation with the stored one and hands the
// messages that were missed to OnMessage.
func (c *ChatChannel) resync(ctx context.Context) error {
	history, err := c.History(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	seen := make(map[string]bool, len(c.messages))
	for _, m := range c.messages {
		seen[messageKey(m)] = true
	}
	var missed []ChatMessage
	for _, m := range history {
		if !seen[messageKey(m)] {
			missed = append(missed, m)
		}
	}
	c.messages = history
	hook := c.onMessage
	c.mu.Unlock()

	if hook != nil {
		for _, m := range missed {
			hook(m)
		}
	}
	return nil
}

func messageKey(m ChatMessage) string {
	if m.ID != "" {
		return m.ID
	}
	return m.Sender + "\x00" + m.Timestamp.UTC().Format(time.RFC3339Nano) + "\x00" + m.Message
}

func (c *ChatChannel) dial(ctx context.Context) (*websocket.Conn, error) {
	token, err := c.api.Session.bearer()
	if err != nil {
		return nil, err
	}
	u := c.api.Client.socketURL(fmt.Sprintf("/ws/requests/%d/", c.requestID), token)
	conn, resp, err := c.dialer.DialContext(ctx, u, nil)
	if resp != nil && resp.StatusCode == http.StatusUnauthorized {
		return nil, &AuthError{Msg: "channel rejected token"}
	}
	if err != nil {
		return nil, &NetworkError{Op: "dial chat", Err: err}
	}
	return conn, nil
}

// serve reads frames until the connection drops or ctx ends.
func (c *ChatChannel) serve(ctx context.Context, conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.setState(StateOpen)

	stop := make(chan struct{})
	defer func() {
		close(stop)
		conn.Close()
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
	}()
	if c.pingInterval > 0 {
		go c.ping(conn, stop)
	}

	// unblock the reader on cancel
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.api.Client.Logger().WithError(err).Debug("chat channel closed")
			}
			return
		}
		c.handle(data)
	}
}

// handle appends a chat frame. Anything else is dropped.
func (c *ChatChannel) handle(data []byte) bool {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return false
	}
	if f.Type != frameChat || f.Message == nil {
		return false
	}
	msg := *f.Message

	c.mu.Lock()
	c.messages = append(c.messages, msg)
	hook := c.onMessage
	c.mu.Unlock()
	if hook != nil {
		hook(msg)
	}
	return true
}

func (c *ChatChannel) ping(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if c.State() != StateOpen {
				continue
			}
			c.writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			err := conn.WriteJSON(frame{Type: framePing})
			c.writeMu.Unlock()
			if err != nil {
				c.api.Client.Logger().WithError(err).Debug("chat ping failed")
			}
		}
	}
}

func (c *ChatChannel) setState(s ChannelState) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	hook := c.onState
	c.mu.Unlock()
	if hook != nil {
		hook(s)
	}
}
