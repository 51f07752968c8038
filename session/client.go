package session

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"rso-client/game"

	log "github.com/sirupsen/logrus"
)

// IDFieldSize is the widest handshake reply the authority may send: the
// decimal id with no delimiter.
const IDFieldSize = 8

// DefaultIOTimeout bounds every read and write when Options.IOTimeout is
// unset, so a silent authority cannot stall a tick forever.
var DefaultIOTimeout = 10 * time.Second

type State int

const (
	Unconnected State = iota
	Connecting
	Connected
	Closed
)

func (s State) String() string {
	switch s {
	case Unconnected:
		return "unconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// Announcements is the auxiliary best-effort channel read once after the
// name is sent.
type Announcements interface {
	Receive(ctx context.Context) (string, error)
	Close() error
}

type Options struct {
	Dialer           Dialer
	Announcements    Announcements
	IOTimeout        time.Duration
	DiscoveryTimeout time.Duration
	MaxReplySize     int
}

// Client owns the reliable channel to the authority. Exchanges are strictly
// request then reply; only Disconnect may be called concurrently.
type Client struct {
	dialer           Dialer
	announcements    Announcements
	ioTimeout        time.Duration
	discoveryTimeout time.Duration
	maxReplySize     int

	mu    sync.Mutex
	state State
	conn  Conn
	id    int

	log *log.Entry
}

func New(opts Options) *Client {
	if opts.MaxReplySize <= 0 {
		opts.MaxReplySize = game.MaxReplySize
	}
	if opts.IOTimeout <= 0 {
		opts.IOTimeout = DefaultIOTimeout
	}
	if opts.DiscoveryTimeout <= 0 {
		opts.DiscoveryTimeout = 2 * time.Second
	}

	return &Client{
		dialer:           opts.Dialer,
		announcements:    opts.Announcements,
		ioTimeout:        opts.IOTimeout,
		discoveryTimeout: opts.DiscoveryTimeout,
		maxReplySize:     opts.MaxReplySize,
		log:              log.WithField("component", "session"),
	}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) ID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Connect performs the handshake and returns the id the authority assigned.
func (c *Client) Connect(ctx context.Context, name string) (int, error) {
	if err := game.ValidateName(name); err != nil {
		return 0, &ConnectError{Op: "validate name", Err: err}
	}

	c.mu.Lock()
	if c.state != Unconnected {
		c.mu.Unlock()
		return 0, &ConnectError{Op: "start", Err: ErrAlreadyStarted}
	}
	c.state = Connecting
	c.mu.Unlock()

	conn, err := c.dialer.Dial(ctx)
	if err != nil {
		c.shutdown()
		return 0, &ConnectError{Op: "dial", Err: err}
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	err = c.withDeadline(ctx, conn, func() error {
		return conn.WriteFrame([]byte(name))
	})
	if err != nil {
		c.shutdown()
		return 0, &ConnectError{Op: "send name", Err: err}
	}

	c.listenAnnouncements()

	var raw []byte
	err = c.withDeadline(ctx, conn, func() error {
		var err error
		raw, err = conn.ReadFrame(IDFieldSize)
		return err
	})
	if err != nil {
		c.shutdown()
		return 0, &ConnectError{Op: "receive id", Err: err}
	}

	id, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		c.shutdown()
		return 0, &ConnectError{Op: "parse id", Err: err}
	}

	c.mu.Lock()
	c.state = Connected
	c.id = id
	c.log = c.log.WithField("session", id)
	c.mu.Unlock()

	c.logger().WithField("name", name).Info("Connected to authority")

	return id, nil
}

// Exchange sends one request and waits for the snapshot that answers it.
// Transport failures close the session; decode failures leave it open.
func (c *Client) Exchange(ctx context.Context, req game.Request) (game.WorldSnapshot, error) {
	c.mu.Lock()
	conn, state := c.conn, c.state
	c.mu.Unlock()

	if state != Connected {
		return game.WorldSnapshot{}, &TransportError{Op: "exchange", Err: ErrNotConnected}
	}

	payload, err := game.EncodeRequest(req)
	if err != nil {
		return game.WorldSnapshot{}, &TransportError{Op: "encode request", Err: err}
	}

	err = c.withDeadline(ctx, conn, func() error {
		return conn.WriteFrame(payload)
	})
	if err != nil {
		c.shutdown()
		return game.WorldSnapshot{}, newTransportError("send "+req.String(), err)
	}

	var reply []byte
	err = c.withDeadline(ctx, conn, func() error {
		var err error
		reply, err = conn.ReadFrame(c.maxReplySize)
		return err
	})
	if err != nil {
		c.shutdown()
		return game.WorldSnapshot{}, newTransportError("receive snapshot", err)
	}

	return game.DecodeSnapshot(reply)
}

// Disconnect closes both channels. It is safe to call more than once.
func (c *Client) Disconnect() {
	c.shutdown()
}

func (c *Client) shutdown() {
	c.mu.Lock()
	if c.state == Closed {
		c.mu.Unlock()
		return
	}
	c.state = Closed
	conn := c.conn
	c.conn = nil
	logger := c.log
	c.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close connection to authority")
		}
	}
	if c.announcements != nil {
		if err := c.announcements.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close discovery channel")
		}
	}

	logger.Info("Session closed")
}

func (c *Client) listenAnnouncements() {
	if c.announcements == nil {
		return
	}

	logger := c.logger()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.discoveryTimeout)
		defer cancel()

		msg, err := c.announcements.Receive(ctx)
		if err != nil {
			logger.WithError(err).Warn("No announcement received")
			return
		}
		logger.WithField("announcement", msg).Info("Received announcement")
	}()
}

func (c *Client) logger() *log.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log
}

// withDeadline bounds fn by the I/O timeout and the context, whichever ends
// first. A cancelled context surfaces as its own error.
func (c *Client) withDeadline(ctx context.Context, conn Conn, fn func() error) error {
	deadline := time.Now().Add(c.ioTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	err := fn()
	if err != nil && ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ctx.Err()
	}
	return err
}
