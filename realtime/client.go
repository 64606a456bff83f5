// Package realtime owns the live connection to the backend's realtime
// endpoint and the per-vehicle channel membership. Exactly one Connection
// exists per vehicle channel and only this client ever holds it.
//
// Background goroutines (the read loop, the reconnect loop) never mutate
// observed state directly; everything the owner needs to see is produced as
// an Event on a single channel the owner consumes.
package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/fleetwatch/fleet-client/models"
	"github.com/fleetwatch/fleet-client/session"
)

// Provenance markers keep locally authored messages distinct from
// server-originated ones in the displayed list.
const (
	ProvenanceLocal  = "You"
	ProvenanceServer = "Server"
)

// EventKind discriminates events on the subscriber channel.
type EventKind int

const (
	// KindStateChange reports a connection state transition
	KindStateChange EventKind = iota
	// KindMessage carries an inbound or locally echoed message
	KindMessage
)

// Event is what the client delivers to its subscriber.
type Event struct {
	Kind EventKind

	// state change fields
	State models.ConnState
	Err   error // non-nil when the transition was caused by a failure

	// message fields
	Message       models.Message
	Provenance    string
	CorrelationID string
	// Confirmed marks the server echo of a message this client sent; the
	// subscriber should replace the optimistic local entry rather than
	// append a duplicate.
	Confirmed bool
}

// ReconnectPolicy controls automatic redial after an unexpected drop.
// The zero value never retries, which mirrors the original behavior of
// leaving the user disconnected until they act.
type ReconnectPolicy struct {
	MaxAttempts     uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Options configures a Client.
type Options struct {
	// URL is the ws(s) endpoint serving the realtime upgrade.
	URL string
	// Session supplies the bearer token presented at handshake time.
	Session session.Store
	// HandshakeTimeout bounds the websocket dial. Defaults to 10s.
	HandshakeTimeout time.Duration
	Reconnect        ReconnectPolicy
}

// Client manages the connection lifecycle and channel membership for one
// vehicle at a time.
type Client struct {
	opts   Options
	dialer *websocket.Dialer

	mu      sync.Mutex
	conn    *websocket.Conn
	state   models.ConnState
	vehicle string
	pending map[string]struct{} // correlation ids awaiting their server echo

	events chan Event
}

// New creates a realtime client. No connection is made until Connect.
func New(opts Options) *Client {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	return &Client{
		opts:    opts,
		dialer:  &websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout},
		state:   models.ConnStateDisconnected,
		pending: make(map[string]struct{}),
		events:  make(chan Event, 64),
	}
}

// Events returns the channel the owner consumes state changes and messages
// from. All events, whatever goroutine produced them, arrive here in order.
func (c *Client) Events() <-chan Event { return c.events }

// State returns the current connection state
func (c *Client) State() models.ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether the transport is currently established
func (c *Client) Connected() bool { return c.State() == models.ConnStateConnected }

// Vehicle returns the currently joined vehicle channel, if any
func (c *Client) Vehicle() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vehicle
}

// Connect establishes the transport. Calling it while connected is a no-op.
// The bearer token travels as a handshake header, never per-message. On
// failure the state returns to disconnected and a state-change event with
// the cause is delivered; there is no automatic retry from here.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.state == models.ConnStateConnected || c.state == models.ConnStateConnecting {
		c.mu.Unlock()
		return nil
	}
	c.state = models.ConnStateConnecting
	c.mu.Unlock()

	header := http.Header{}
	if token := c.opts.Session.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := c.dialer.Dial(c.opts.URL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		c.mu.Lock()
		c.state = models.ConnStateDisconnected
		c.mu.Unlock()
		zap.S().Errorw("realtime connect failed", "url", c.opts.URL, "error", err)
		c.deliver(Event{Kind: KindStateChange, State: models.ConnStateDisconnected, Err: err})
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.state = models.ConnStateConnected
	c.mu.Unlock()

	c.deliver(Event{Kind: KindStateChange, State: models.ConnStateConnected})
	go c.readLoop(conn)
	return nil
}

// JoinRoom enters the logical channel for vehicleNumber. If the transport is
// down it connects first and emits the join only after the handshake
// completes, so the join can never race ahead of the connection.
func (c *Client) JoinRoom(vehicleNumber string) error {
	if vehicleNumber == "" {
		return models.ErrEmptyVehicleNumber
	}
	if !c.Connected() {
		if err := c.Connect(); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return models.ErrNotConnected
	}
	c.vehicle = vehicleNumber
	return c.writeLocked(models.Envelope{Event: models.EventJoinRoom, VehicleNumber: vehicleNumber})
}

// SendMessage emits a message into the vehicle channel. A locally authored
// echo is delivered to the subscriber before the transport write happens;
// the message is not retried if the transport silently drops it. Sending
// while disconnected is a logged no-op, never queued.
func (c *Client) SendMessage(vehicleNumber, text string) error {
	if vehicleNumber == "" {
		return models.ErrEmptyVehicleNumber
	}
	if text == "" {
		return models.ErrEmptyMessage
	}

	c.mu.Lock()
	if c.state != models.ConnStateConnected || c.conn == nil {
		c.mu.Unlock()
		zap.S().Warnw("dropping sendMessage while disconnected", "vehicle", vehicleNumber)
		return models.ErrNotConnected
	}
	corr := uuid.NewString()
	c.pending[corr] = struct{}{}
	c.mu.Unlock()

	env := models.Envelope{
		Event:         models.EventSendMessage,
		VehicleNumber: vehicleNumber,
		Message:       text,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		CorrelationID: corr,
	}

	// optimistic local echo, ahead of any server confirmation
	c.deliver(Event{
		Kind: KindMessage,
		Message: models.Message{
			Text:          text,
			Timestamp:     env.Timestamp,
			OriginVehicle: vehicleNumber,
		},
		Provenance:    ProvenanceLocal,
		CorrelationID: corr,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return models.ErrNotConnected
	}
	return c.writeLocked(env)
}

// EndRoute signals the end of the vehicle's route. One-shot; the local
// connection state is untouched.
func (c *Client) EndRoute(vehicleNumber string) error {
	if vehicleNumber == "" {
		return models.ErrEmptyVehicleNumber
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != models.ConnStateConnected || c.conn == nil {
		zap.S().Warnw("dropping endRoute while disconnected", "vehicle", vehicleNumber)
		return models.ErrNotConnected
	}
	return c.writeLocked(models.Envelope{Event: models.EventEndRoute, VehicleNumber: vehicleNumber})
}

// Disconnect tears the transport down unconditionally and clears channel
// membership. It always succeeds locally, reachable remote end or not.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.state = models.ConnStateDisconnected
	c.vehicle = ""
	c.pending = make(map[string]struct{})
	c.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = conn.Close()
	}
	c.deliver(Event{Kind: KindStateChange, State: models.ConnStateDisconnected})
}

// writeLocked sends one envelope; c.mu must be held (gorilla allows a single
// concurrent writer).
func (c *Client) writeLocked(env models.Envelope) error {
	if err := c.conn.WriteJSON(env); err != nil {
		zap.S().Errorw("realtime write failed", "event", env.Event, "error", err)
		return err
	}
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var env models.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			c.handleDrop(conn, err)
			return
		}
		c.handleInbound(env)
	}
}

func (c *Client) handleInbound(env models.Envelope) {
	if env.Event != models.EventMessage {
		zap.S().Debugw("ignoring unknown realtime event", "event", env.Event)
		return
	}

	c.mu.Lock()
	_, mine := c.pending[env.CorrelationID]
	if mine {
		delete(c.pending, env.CorrelationID)
	}
	c.mu.Unlock()

	prov := ProvenanceServer
	if mine {
		prov = ProvenanceLocal
	}
	c.deliver(Event{
		Kind: KindMessage,
		Message: models.Message{
			Text:          env.Message,
			Timestamp:     env.Timestamp,
			OriginVehicle: env.VehicleNumber,
		},
		Provenance:    prov,
		CorrelationID: env.CorrelationID,
		Confirmed:     mine,
	})
}

// handleDrop runs when the read loop exits. If the conn was already swapped
// out by Disconnect this is stale and ignored; otherwise the drop was
// remote-initiated and the reconnect policy, if armed, takes over.
func (c *Client) handleDrop(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = models.ConnStateDisconnected
	vehicle := c.vehicle
	c.mu.Unlock()

	zap.S().Errorw("realtime connection dropped", "error", err)
	c.deliver(Event{Kind: KindStateChange, State: models.ConnStateDisconnected, Err: err})

	if c.opts.Reconnect.MaxAttempts > 0 {
		go c.reconnect(vehicle)
	}
}

func (c *Client) reconnect(vehicle string) {
	policy := backoff.NewExponentialBackOff()
	if c.opts.Reconnect.InitialInterval > 0 {
		policy.InitialInterval = c.opts.Reconnect.InitialInterval
	}
	if c.opts.Reconnect.MaxInterval > 0 {
		policy.MaxInterval = c.opts.Reconnect.MaxInterval
	}

	err := backoff.Retry(func() error {
		if err := c.Connect(); err != nil {
			return err
		}
		if vehicle != "" {
			return c.JoinRoom(vehicle)
		}
		return nil
	}, backoff.WithMaxRetries(policy, c.opts.Reconnect.MaxAttempts))
	if err != nil {
		zap.S().Errorw("reconnect gave up", "vehicle", vehicle, "error", err)
	}
}

// deliver hands an event to the subscriber without ever blocking the
// producing goroutine; a full subscriber loses the event with a diagnostic
// rather than stalling the transport.
func (c *Client) deliver(ev Event) {
	select {
	case c.events <- ev:
	default:
		zap.S().Warnw("dropping realtime event, subscriber not keeping up", "kind", ev.Kind)
	}
}
