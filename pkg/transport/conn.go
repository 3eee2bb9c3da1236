package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sealink-protocol/sealink-go/pkg/log"
	"github.com/sealink-protocol/sealink-go/pkg/msock"
)

// Option configures a Conn.
type Option func(*connOptions)

type connOptions struct {
	maxMessageSize uint32
	logger         log.Logger
}

// WithMaxMessageSize bounds the payload size accepted and produced by the
// connection. The default is DefaultMaxMessageSize.
func WithMaxMessageSize(size uint32) Option {
	return func(o *connOptions) {
		o.maxMessageSize = size
	}
}

// WithLogger attaches a protocol event logger to the connection.
func WithLogger(logger log.Logger) Option {
	return func(o *connOptions) {
		o.logger = logger
	}
}

// Conn adapts a stream connection into a message socket using
// length-prefixed framing. It implements msock.Socket, so it can be wrapped
// by seal.Attach directly.
type Conn struct {
	conn   net.Conn
	framer *Framer
	id     string

	mu     sync.Mutex
	closed bool
}

// NewConn wraps an established network connection. Ownership of the
// connection transfers to the returned Conn.
func NewConn(conn net.Conn, opts ...Option) *Conn {
	o := connOptions{maxMessageSize: DefaultMaxMessageSize}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Conn{
		conn:   conn,
		framer: NewFramerWithMaxSize(conn, o.maxMessageSize),
		id:     uuid.New().String(),
	}
	if o.logger != nil {
		c.framer.SetLogger(o.logger, c.id)
	}
	return c
}

// ID returns the connection's unique identifier, as used in log events.
func (c *Conn) ID() string {
	return c.id
}

// LocalAddr returns the local network address.
func (c *Conn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the remote network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Query answers the closable-handle and message-socket capabilities.
func (c *Conn) Query(capability msock.Capability) (any, error) {
	switch capability {
	case msock.CapCloser, msock.CapMessageSocket:
		return msock.Socket(c), nil
	default:
		return nil, msock.ErrNotSupported
	}
}

// Close closes the network connection. Closing twice returns msock.ErrClosed.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return msock.ErrClosed
	}
	c.closed = true
	return c.conn.Close()
}

// Send transmits p as one frame, honoring the deadline.
func (c *Conn) Send(p []byte, deadline time.Time) error {
	return c.SendV([][]byte{p}, deadline)
}

// SendV transmits the concatenation of bufs as one frame.
func (c *Conn) SendV(bufs [][]byte, deadline time.Time) error {
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.framer.WriteFrameV(bufs)
}

// Receive reads one frame into p. Deadline expiry surfaces as an error
// satisfying errors.Is(err, os.ErrDeadlineExceeded).
func (c *Conn) Receive(p []byte, deadline time.Time) (int, error) {
	return c.ReceiveV([][]byte{p}, deadline)
}

// ReceiveV reads one frame, scattering it across bufs in order.
func (c *Conn) ReceiveV(bufs [][]byte, deadline time.Time) (int, error) {
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return 0, err
	}
	return c.framer.ReadFrameV(bufs)
}

// Dial connects to the address and wraps the connection into a message
// socket.
func Dial(ctx context.Context, network, address string, opts ...Option) (*Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	return NewConn(conn, opts...), nil
}

// Listener accepts message-socket connections.
type Listener struct {
	l    net.Listener
	opts []Option
}

// Listen announces on the address and returns a message-socket listener.
func Listen(network, address string, opts ...Option) (*Listener, error) {
	l, err := net.Listen(network, address)
	if err != nil {
		return nil, err
	}
	return &Listener{l: l, opts: opts}, nil
}

// Accept waits for the next connection.
func (l *Listener) Accept() (*Conn, error) {
	conn, err := l.l.Accept()
	if err != nil {
		return nil, err
	}
	return NewConn(conn, l.opts...), nil
}

// Addr returns the listener's network address.
func (l *Listener) Addr() net.Addr {
	return l.l.Addr()
}

// Close stops the listener. Connections already accepted stay open.
func (l *Listener) Close() error {
	return l.l.Close()
}

// Compile-time interface satisfaction check.
var _ msock.Socket = (*Conn)(nil)
