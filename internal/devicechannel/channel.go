// Package devicechannel implements the control-surface side of a device's
// WebSocket channel: it projects inbound status messages onto two display
// elements and sends LED and blink commands.
//
// A Channel owns exactly one connection for its lifetime. It never
// reconnects; once the connection drops, sends fail with ErrNotConnected.
package devicechannel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/m0rjc/DeviceChannel/internal/metrics"
)

const (
	closeGracePeriod    = time.Second
	defaultWriteTimeout = 5 * time.Second
)

var (
	// ErrNotConnected is returned by sends when the channel has no open
	// connection, either because it never connected or because it closed.
	ErrNotConnected = errors.New("device channel is not connected")

	// ErrAlreadyConnected is returned by Connect on a channel that already
	// holds a connection.
	ErrAlreadyConnected = errors.New("device channel is already connected")

	// ErrClosed is returned by Connect after Close.
	ErrClosed = errors.New("device channel is closed")
)

// Sender is the outbound half of a channel, as used by UI controls.
type Sender interface {
	SendLED(state bool) error
	SendBlink() error
}

// Labels are the texts shown in the led element.
type Labels struct {
	On  string
	Off string
}

// DefaultLabels returns the device's own on/off strings.
func DefaultLabels() Labels {
	return Labels{On: "AN", Off: "AUS"}
}

// Option configures a Channel.
type Option func(*Channel)

// WithLabels overrides the led element texts.
func WithLabels(labels Labels) Option {
	return func(c *Channel) { c.labels = labels }
}

// WithDialer replaces the default gorilla dialer.
func WithDialer(dialer *ws.Dialer) Option {
	return func(c *Channel) { c.dialer = dialer }
}

// WithHeader adds request headers to the opening handshake.
func WithHeader(header http.Header) Option {
	return func(c *Channel) { c.header = header }
}

// WithWriteTimeout bounds how long a single send may block on a peer that
// is not reading.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Channel) { c.writeTimeout = d }
}

// Channel is a single duplex connection to a device.
type Channel struct {
	endpoint *url.URL
	display  Display
	labels   Labels
	dialer   *ws.Dialer
	header   http.Header

	writeTimeout time.Duration

	// mu guards conn and closed. Sends and Close release it before writing.
	mu     sync.Mutex
	conn   *ws.Conn
	closed bool

	// writeMu serializes data frames: a gorilla connection supports one
	// concurrent writer. Close does not take it.
	writeMu sync.Mutex
}

// New creates an unconnected channel for endpoint. A nil display is allowed;
// inbound messages are then parsed and dropped.
func New(endpoint *url.URL, display Display, opts ...Option) *Channel {
	c := &Channel{
		endpoint: endpoint,
		display:  display,
		labels:   DefaultLabels(),
		dialer:   ws.DefaultDialer,

		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open derives the endpoint from origin, creates the channel and connects it.
// Failures are logged, never returned: the result is always a usable channel,
// which stays disconnected if anything went wrong.
func Open(ctx context.Context, origin *url.URL, display Display, opts ...Option) *Channel {
	endpoint, err := EndpointFor(origin)
	if err != nil {
		slog.Error("devicechannel.init_failed",
			"component", "devicechannel",
			"event", "channel.init_error",
			"error", err,
		)
		return New(nil, display, opts...)
	}

	c := New(endpoint, display, opts...)
	_ = c.Connect(ctx) // logged by Connect
	return c
}

// Endpoint returns the URL the channel dials, or nil if none could be derived.
func (c *Channel) Endpoint() *url.URL {
	return c.endpoint
}

// Connect dials the endpoint once. A failure is logged and returned; the
// channel remains disconnected.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.conn != nil {
		return ErrAlreadyConnected
	}
	if c.endpoint == nil {
		return ErrInvalidOrigin
	}

	conn, _, err := c.dialer.DialContext(ctx, c.endpoint.String(), c.header)
	if err != nil {
		metrics.ChannelConnects.WithLabelValues("error").Inc()
		slog.Error("devicechannel.connect_failed",
			"component", "devicechannel",
			"event", "channel.connect_error",
			"endpoint", c.endpoint.String(),
			"error", err,
		)
		return fmt.Errorf("dial %s: %w", c.endpoint, err)
	}

	c.conn = conn
	metrics.ChannelConnects.WithLabelValues("ok").Inc()
	slog.Info("devicechannel.connected",
		"component", "devicechannel",
		"event", "channel.connected",
		"endpoint", c.endpoint.String(),
	)
	return nil
}

// Connected reports whether the channel currently holds an open connection.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Run reads messages until the connection ends or ctx is cancelled, handing
// each one to HandleMessage in arrival order. It returns nil on a normal close
// or cancellation, and the read error otherwise. The channel is closed when
// Run returns.
func (c *Channel) Run(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	stop := context.AfterFunc(ctx, func() { c.Close() }) //nolint:errcheck
	defer stop()
	defer c.Close() //nolint:errcheck

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || c.isClosed() {
				return nil
			}
			if ws.IsCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) {
				slog.Info("devicechannel.closed_by_peer",
					"component", "devicechannel",
					"event", "channel.peer_close",
				)
				return nil
			}
			slog.Warn("devicechannel.read_failed",
				"component", "devicechannel",
				"event", "channel.read_error",
				"error", err,
			)
			return fmt.Errorf("read: %w", err)
		}
		c.HandleMessage(payload)
	}
}

// HandleMessage applies one inbound payload to the display. Payloads that are
// not status messages are dropped without logging.
func (c *Channel) HandleMessage(payload []byte) {
	status, err := ParseStatus(payload)
	if err != nil {
		metrics.ChannelMessages.WithLabelValues("ignored").Inc()
		return
	}

	if status.HasUptime {
		c.setText(UptimeElementID, status.Uptime)
	}
	if status.HasLED {
		label := c.labels.Off
		if status.LED {
			label = c.labels.On
		}
		c.setText(LEDElementID, label)
	}
	metrics.ChannelMessages.WithLabelValues("applied").Inc()
}

func (c *Channel) setText(id, text string) {
	if c.display == nil {
		return
	}
	if el, ok := c.display.Element(id); ok {
		el.SetText(text)
	}
}

// SendLED asks the device to switch its LED on or off.
func (c *Channel) SendLED(state bool) error {
	return c.Send(SetLEDCommand(state))
}

// SendBlink asks the device to blink.
func (c *Channel) SendBlink() error {
	return c.Send(BlinkCommand())
}

// Send transmits cmd as a JSON text frame. Nothing is queued or retried and
// no acknowledgement is awaited. A write that cannot complete within the
// write timeout fails.
func (c *Channel) Send(cmd Command) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode %s command: %w", cmd.Kind(), err)
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		metrics.ChannelCommands.WithLabelValues(cmd.Kind(), "not_connected").Inc()
		return ErrNotConnected
	}
	if err := c.write(conn, payload); err != nil {
		metrics.ChannelCommands.WithLabelValues(cmd.Kind(), "error").Inc()
		return fmt.Errorf("send %s command: %w", cmd.Kind(), err)
	}

	metrics.ChannelCommands.WithLabelValues(cmd.Kind(), "ok").Inc()
	slog.Debug("devicechannel.command_sent",
		"component", "devicechannel",
		"event", "channel.send",
		"payload", string(payload),
	)
	return nil
}

func (c *Channel) write(conn *ws.Conn, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)) //nolint:errcheck
	}
	return conn.WriteMessage(ws.TextMessage, payload)
}

// Close sends a normal close frame and releases the connection. It is safe to
// call more than once, and does not wait for a send that is stuck on the
// network beyond the close grace period.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	conn.WriteControl(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(closeGracePeriod)) //nolint:errcheck
	return conn.Close()
}

func (c *Channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
