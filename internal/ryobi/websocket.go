package ryobi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	pushPath = "/api/wsrpc"

	methodAuth          = "srvWebSocketAuth"
	methodSubscribe     = "wskSubscribe"
	methodModuleCommand = "gdoModuleCommand"

	// commandMsgType tags outbound module commands on the wire.
	commandMsgType = 16

	defaultDialTimeout  = 10 * time.Second
	defaultWriteTimeout = 5 * time.Second
	pingInterval        = 30 * time.Second
	readWait            = 90 * time.Second

	// Reconnect backoff doubles from the initial delay up to the cap.
	initialReconnectDelay = 2 * time.Second
	maxReconnectDelay     = 60 * time.Second
)

// rpcFrame is the outbound JSON-RPC envelope used by the vendor push stream.
type rpcFrame struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      string         `json:"id,omitempty"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

// TransportOptions configures a push-stream transport for one device.
type TransportOptions struct {
	// Host is the vendor API hostname. Defaults to DefaultHost.
	Host string

	// Username is the account email, sent as varName during stream auth.
	Username string

	// APIKey is the key obtained at login.
	APIKey string

	// DeviceID selects which device's update topic to subscribe to.
	DeviceID string

	Logger Logger

	// Dialer overrides the websocket dialer, used by tests.
	Dialer *websocket.Dialer

	// URL overrides the full stream URL, used by tests. When empty the URL
	// is derived from Host.
	URL string
}

// Transport maintains one push-stream connection per device: it dials,
// authenticates, subscribes to the device's update topic and delivers
// decoded frames to the OnFrame callback in wire order.
//
// Listen owns the connection and reconnects with exponential backoff until
// its context is cancelled or Close is called. SendModuleCommand is safe to
// call from any goroutine.
type Transport struct {
	opts    TransportOptions
	url     string
	dialer  *websocket.Dialer
	logger  Logger
	onFrame func(Frame)

	connMu sync.Mutex
	conn   *websocket.Conn

	closeOnce sync.Once
	done      chan struct{}
}

// NewTransport builds a push-stream transport. Call SetOnFrame before
// Listen; frames arriving with no callback are dropped.
func NewTransport(opts TransportOptions) *Transport {
	host := opts.Host
	if host == "" {
		host = DefaultHost
	}
	streamURL := opts.URL
	if streamURL == "" {
		u := url.URL{Scheme: "wss", Host: host, Path: pushPath}
		streamURL = u.String()
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: defaultDialTimeout}
	}
	return &Transport{
		opts:   opts,
		url:    streamURL,
		dialer: dialer,
		logger: opts.Logger,
		done:   make(chan struct{}),
	}
}

// SetOnFrame registers the frame callback. The callback runs on the read
// loop goroutine, so frames for one device are delivered in wire order;
// a slow callback delays subsequent frames rather than reordering them.
func (t *Transport) SetOnFrame(fn func(Frame)) {
	t.onFrame = fn
}

// Listen connects and consumes the push stream until ctx is cancelled or
// Close is called. Connection loss triggers reconnection with exponential
// backoff; the backoff resets after each successful connect.
func (t *Transport) Listen(ctx context.Context) error {
	delay := initialReconnectDelay

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.done:
			return nil
		default:
		}

		if err := t.connect(ctx); err != nil {
			logWarn(t.logger, "push stream connect failed",
				"device", t.opts.DeviceID, "retry_in", delay.String(), "error", err)
			if !t.sleep(ctx, delay) {
				return ctx.Err()
			}
			delay = min(delay*2, maxReconnectDelay)
			continue
		}

		delay = initialReconnectDelay
		logDebug(t.logger, "push stream connected", "device", t.opts.DeviceID)

		err := t.readLoop(ctx)
		t.dropConn()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.done:
			return nil
		default:
		}
		logWarn(t.logger, "push stream lost, reconnecting",
			"device", t.opts.DeviceID, "error", err)
	}
}

// connect dials the stream, authenticates and subscribes to the device's
// attribute update topic.
func (t *Transport) connect(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	conn, resp, err := t.dialer.DialContext(dialCtx, t.url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("%w: dialing push stream: %v (status %d)", ErrConnection, err, resp.StatusCode)
		}
		return fmt.Errorf("%w: dialing push stream: %v", ErrConnection, err)
	}

	auth := rpcFrame{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  methodAuth,
		Params: map[string]any{
			"varName": t.opts.Username,
			"apiKey":  t.opts.APIKey,
		},
	}
	if err := writeFrame(conn, auth); err != nil {
		conn.Close()
		return fmt.Errorf("%w: stream auth: %v", ErrConnection, err)
	}

	subscribe := rpcFrame{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  methodSubscribe,
		Params: map[string]any{
			"topic": t.opts.DeviceID + "." + MethodAttributeUpdate,
		},
	}
	if err := writeFrame(conn, subscribe); err != nil {
		conn.Close()
		return fmt.Errorf("%w: topic subscribe: %v", ErrConnection, err)
	}

	t.connMu.Lock()
	t.conn = conn
	t.connMu.Unlock()
	return nil
}

// readLoop consumes the stream until it fails, delivering each decodable
// frame synchronously to the OnFrame callback. A ping ticker keeps the
// connection alive; pongs extend the read deadline.
func (t *Transport) readLoop(ctx context.Context) error {
	t.connMu.Lock()
	conn := t.conn
	t.connMu.Unlock()
	if conn == nil {
		return ErrTransportClosed
	}

	conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})

	pingDone := make(chan struct{})
	defer close(pingDone)
	go t.pingLoop(ctx, conn, pingDone)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("%w: reading push stream: %v", ErrConnection, err)
		}
		conn.SetReadDeadline(time.Now().Add(readWait))

		frame, err := ParseFrame(message)
		if err != nil {
			logDebug(t.logger, "undecodable push frame dropped",
				"device", t.opts.DeviceID, "error", err)
			continue
		}
		if t.onFrame != nil {
			t.onFrame(frame)
		}
	}
}

// pingLoop sends websocket pings until the connection's read loop exits.
func (t *Transport) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.connMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			t.connMu.Unlock()
			if err != nil {
				logDebug(t.logger, "push stream ping failed",
					"device", t.opts.DeviceID, "error", err)
				return
			}
		}
	}
}

// SendModuleCommand dispatches one attribute write to a device module over
// the push stream. It returns ErrTransportClosed after Close and
// ErrConnection when no stream connection is currently held.
func (t *Transport) SendModuleCommand(ctx context.Context, port, class int, attribute string, value any) error {
	select {
	case <-t.done:
		return ErrTransportClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	frame := rpcFrame{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  methodModuleCommand,
		Params: map[string]any{
			"msgType":    commandMsgType,
			"moduleType": class,
			"portId":     port,
			"moduleMsg":  map[string]any{attribute: value},
			"topic":      t.opts.DeviceID,
		},
	}

	t.connMu.Lock()
	defer t.connMu.Unlock()
	if t.conn == nil {
		return fmt.Errorf("%w: push stream not connected", ErrConnection)
	}
	if err := writeFrame(t.conn, frame); err != nil {
		return fmt.Errorf("%w: sending module command: %v", ErrConnection, err)
	}
	logDebug(t.logger, "module command sent",
		"device", t.opts.DeviceID, "port", port, "attribute", attribute)
	return nil
}

// Close shuts the transport down. Safe to call more than once; Listen
// returns nil after Close.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
		t.dropConn()
	})
	return nil
}

// dropConn closes and forgets the current connection, if any.
func (t *Transport) dropConn() {
	t.connMu.Lock()
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	t.connMu.Unlock()
}

// sleep waits for the backoff delay, returning false when ctx or the
// transport is done.
func (t *Transport) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.done:
		return false
	case <-timer.C:
		return true
	}
}

func writeFrame(conn *websocket.Conn, frame rpcFrame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encoding %s frame: %w", frame.Method, err)
	}
	conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, payload)
}
