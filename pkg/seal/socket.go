package seal

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/sealink-protocol/sealink-go/pkg/log"
	"github.com/sealink-protocol/sealink-go/pkg/msock"
)

// Sizes of the secretbox primitive's inputs and outputs.
const (
	// KeySize is the required key length in bytes.
	KeySize = 32

	// NonceSize is the nonce length in bytes.
	NonceSize = 24

	// Overhead is the authentication tag length added to every message.
	Overhead = secretbox.Overhead

	// WireOverhead is the total expansion of a message on the wire.
	WireOverhead = NonceSize + Overhead
)

// Socket errors.
var (
	// ErrKeySize indicates the supplied key is not exactly KeySize bytes.
	ErrKeySize = errors.New("key must be exactly 32 bytes")

	// ErrAuthentication indicates an inbound message failed verification.
	// No plaintext is surfaced.
	ErrAuthentication = errors.New("message authentication failed")

	// ErrBufferTooSmall indicates a verified message does not fit the
	// destination the caller supplied.
	ErrBufferTooSmall = errors.New("destination buffer too small for message")

	// ErrEntropy indicates the entropy source failed while generating
	// a nonce. Nothing was sent.
	ErrEntropy = errors.New("entropy source failure")

	// ErrSocketDamaged indicates a prior fatal error (failed close of the
	// owned underlying socket). The socket must be discarded.
	ErrSocketDamaged = errors.New("socket damaged by fatal error")
)

// Socket states.
const (
	stateActive int32 = iota
	stateClosed
	stateDetached
	stateDamaged
)

func stateName(s int32) string {
	switch s {
	case stateActive:
		return "ATTACHED"
	case stateClosed:
		return "CLOSED"
	case stateDetached:
		return "DETACHED"
	case stateDamaged:
		return "DAMAGED"
	default:
		return "UNKNOWN"
	}
}

// Socket is an encrypted message socket. It owns the underlying socket it
// was attached to and presents the same msock.Socket contract.
type Socket struct {
	under   msock.Socket
	key     [KeySize]byte
	entropy io.Reader
	logger  log.Logger
	connID  string

	state atomic.Int32

	// Per-direction scratch pairs, grown on demand and never shrunk.
	// Keeping the directions independent makes one concurrent sender
	// plus one concurrent receiver safe.
	sendPlain []byte
	sendWire  []byte
	recvWire  []byte
	recvPlain []byte
}

// Option configures a Socket at attach time.
type Option func(*Socket)

// WithLogger attaches a protocol event logger. connID identifies this
// socket in emitted events.
func WithLogger(logger log.Logger, connID string) Option {
	return func(s *Socket) {
		if logger != nil {
			s.logger = logger
		}
		s.connID = connID
	}
}

// WithEntropy overrides the nonce entropy source. Tests use this to inject
// deterministic or failing sources; production code should not.
func WithEntropy(r io.Reader) Option {
	return func(s *Socket) {
		s.entropy = r
	}
}

// Attach wraps a message-socket handle into an encrypted socket.
//
// The handle must implement the message-socket capability; otherwise Attach
// fails with msock.ErrNotSupported. The key must be exactly KeySize bytes
// and is copied; the caller may destroy its copy afterwards.
//
// Attach takes ownership of h. After a successful Attach the caller must
// not use h again; all traffic goes through the returned Socket.
func Attach(h msock.Handle, key []byte, opts ...Option) (*Socket, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	under, err := msock.QuerySocket(h)
	if err != nil {
		return nil, err
	}

	s := &Socket{
		under:   under,
		entropy: rand.Reader,
		logger:  log.NoopLogger{},
	}
	copy(s.key[:], key)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Detach undoes the encrypted wrapping and returns the still-open
// underlying socket. The encrypted socket becomes unusable; buffered
// scratch state is released. Key material is not wiped from the underlying
// socket because it never had any.
func (s *Socket) Detach() (msock.Socket, error) {
	if !s.state.CompareAndSwap(stateActive, stateDetached) {
		return nil, s.usableErr()
	}
	s.dropBuffers()
	s.stateEvent(stateActive, stateDetached, "caller detach")
	return s.under, nil
}

// Close closes the underlying socket exactly once and releases scratch
// state. A close failure on the owned underlying socket is fatal: the
// error is returned and the socket is marked damaged.
func (s *Socket) Close() error {
	if !s.state.CompareAndSwap(stateActive, stateClosed) {
		return s.usableErr()
	}
	s.dropBuffers()
	if err := s.under.Close(); err != nil {
		s.state.Store(stateDamaged)
		s.errEvent("close", err)
		s.stateEvent(stateActive, stateDamaged, "underlying close failed")
		return fmt.Errorf("close underlying socket: %w", err)
	}
	s.stateEvent(stateActive, stateClosed, "caller close")
	return nil
}

// Query answers the closable-handle, message-socket, and secretbox-socket
// capabilities, all served by the socket itself.
func (s *Socket) Query(c msock.Capability) (any, error) {
	switch c {
	case msock.CapCloser, msock.CapMessageSocket, msock.CapSecretboxSocket:
		return s, nil
	default:
		return nil, msock.ErrNotSupported
	}
}

// Send seals p and transmits it as one message, honoring the deadline.
func (s *Socket) Send(p []byte, deadline time.Time) error {
	return s.SendV([][]byte{p}, deadline)
}

// SendV seals the concatenation of bufs and transmits it as one message.
// Either the complete sealed message is handed to the transport or the
// call fails and nothing is sent.
func (s *Socket) SendV(bufs [][]byte, deadline time.Time) error {
	if err := s.usable(); err != nil {
		return err
	}
	total, err := msock.TotalLen(bufs)
	if err != nil {
		return err
	}
	if total > math.MaxInt-WireOverhead {
		return msock.ErrMessageOverflow
	}
	wireLen := WireOverhead + total
	s.growSend(wireLen)

	var nonce [NonceSize]byte
	if _, err := io.ReadFull(s.entropy, nonce[:]); err != nil {
		s.errEvent("send", err)
		return fmt.Errorf("%w: %v", ErrEntropy, err)
	}

	plain := s.sendPlain[:total]
	msock.Gather(plain, bufs)

	// Assemble nonce || ciphertext in the wire scratch buffer. Seal
	// appends the ciphertext and tag after the nonce prefix, reusing the
	// buffer's capacity, so the sealed message is built without
	// allocating.
	copy(s.sendWire[:NonceSize], nonce[:])
	out := secretbox.Seal(s.sendWire[:NonceSize], plain, &nonce, &s.key)

	if err := s.under.Send(out, deadline); err != nil {
		s.errEvent("send", err)
		return err
	}
	s.sealEvent(log.DirectionOut, total, wireLen)
	return nil
}

// Receive reads one message into p, verifying and opening it, and returns
// the plaintext length.
func (s *Socket) Receive(p []byte, deadline time.Time) (int, error) {
	return s.ReceiveV([][]byte{p}, deadline)
}

// ReceiveV reads one message, verifies and opens it, and scatters the
// plaintext across bufs in order. The combined length of bufs is the
// maximum plaintext the caller is prepared to accept; a wire message
// carrying more than that fails with msock.ErrMessageTooLarge. A message
// that fails verification fails with ErrAuthentication and surfaces no
// plaintext.
func (s *Socket) ReceiveV(bufs [][]byte, deadline time.Time) (int, error) {
	if err := s.usable(); err != nil {
		return 0, err
	}
	capacity, err := msock.TotalLen(bufs)
	if err != nil {
		return 0, err
	}
	if capacity > math.MaxInt-WireOverhead {
		return 0, msock.ErrMessageOverflow
	}
	bound := WireOverhead + capacity
	s.growRecv(bound)

	n, err := s.under.Receive(s.recvWire[:bound], deadline)
	if err != nil {
		// Transport errors, including deadline expiry and oversized
		// messages, pass through unmodified.
		s.errEvent("receive", err)
		return 0, err
	}
	if n < WireOverhead {
		// Too short to carry a nonce and tag. Indistinguishable from
		// tampering to the caller.
		s.errEvent("receive", ErrAuthentication)
		return 0, ErrAuthentication
	}

	var nonce [NonceSize]byte
	copy(nonce[:], s.recvWire[:NonceSize])

	plain, ok := secretbox.Open(s.recvPlain[:0], s.recvWire[NonceSize:n], &nonce, &s.key)
	if !ok {
		s.errEvent("receive", ErrAuthentication)
		return 0, ErrAuthentication
	}
	if len(plain) > capacity {
		// Guards against an underlying socket that returns more than
		// it was asked for; never scatter past the destination.
		s.errEvent("receive", ErrBufferTooSmall)
		return 0, ErrBufferTooSmall
	}
	msock.Scatter(bufs, plain)
	s.sealEvent(log.DirectionIn, len(plain), n)
	return len(plain), nil
}

// usable returns nil if the socket can run send/receive operations.
func (s *Socket) usable() error {
	if s.state.Load() == stateActive {
		return nil
	}
	return s.usableErr()
}

func (s *Socket) usableErr() error {
	if s.state.Load() == stateDamaged {
		return ErrSocketDamaged
	}
	return msock.ErrClosed
}

// growSend grows the send-side scratch pair to at least n bytes.
// Growth is monotonic; buffers never shrink within the socket's lifetime.
func (s *Socket) growSend(n int) {
	if len(s.sendPlain) < n {
		s.sendPlain = make([]byte, n)
		s.sendWire = make([]byte, n)
	}
}

// growRecv grows the receive-side scratch pair to at least n bytes.
func (s *Socket) growRecv(n int) {
	if len(s.recvWire) < n {
		s.recvWire = make([]byte, n)
		s.recvPlain = make([]byte, n)
	}
}

func (s *Socket) dropBuffers() {
	s.sendPlain = nil
	s.sendWire = nil
	s.recvWire = nil
	s.recvPlain = nil
}

func (s *Socket) sealEvent(dir log.Direction, plaintextSize, wireSize int) {
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.connID,
		Direction:    dir,
		Layer:        log.LayerSecretbox,
		Category:     log.CategoryMessage,
		Seal: &log.SealEvent{
			PlaintextSize: plaintextSize,
			WireSize:      wireSize,
		},
	})
}

func (s *Socket) stateEvent(from, to int32, reason string) {
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.connID,
		Layer:        log.LayerSecretbox,
		Category:     log.CategoryState,
		State: &log.StateEvent{
			OldState: stateName(from),
			NewState: stateName(to),
			Reason:   reason,
		},
	})
}

func (s *Socket) errEvent(op string, err error) {
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.connID,
		Layer:        log.LayerSecretbox,
		Category:     log.CategoryError,
		Error: &log.ErrorEvent{
			Op:      op,
			Message: err.Error(),
		},
	})
}

// Compile-time interface satisfaction check.
var _ msock.Socket = (*Socket)(nil)
