package msock

import "errors"

// Capability identifies one operation set a handle may implement.
// The set is closed: layers select behavior by enum value, never by
// comparing concrete types.
type Capability uint8

const (
	// CapCloser is the generic closable-handle capability.
	CapCloser Capability = iota

	// CapMessageSocket is the discrete-message send/receive capability.
	CapMessageSocket

	// CapSecretboxSocket identifies an encrypted socket from pkg/seal.
	CapSecretboxSocket
)

// String returns the capability name.
func (c Capability) String() string {
	switch c {
	case CapCloser:
		return "CLOSER"
	case CapMessageSocket:
		return "MSOCK"
	case CapSecretboxSocket:
		return "SECRETBOX"
	default:
		return "UNKNOWN"
	}
}

// Handle errors.
var (
	// ErrNotSupported indicates the handle does not implement the
	// requested capability.
	ErrNotSupported = errors.New("capability not supported")

	// ErrClosed indicates the socket has been closed or detached.
	ErrClosed = errors.New("socket is closed")

	// ErrMessageTooLarge indicates a received message exceeds the
	// capacity the caller supplied. The message is consumed.
	ErrMessageTooLarge = errors.New("message too large")
)

// Handle is a generic closable handle with capability dispatch.
type Handle interface {
	// Query returns the implementation of the requested capability,
	// or ErrNotSupported. The returned value is valid until the handle
	// is closed.
	Query(c Capability) (any, error)

	// Close releases the handle. Closing an already-closed handle
	// returns ErrClosed.
	Close() error
}

// QuerySocket asks a handle for its message-socket capability.
func QuerySocket(h Handle) (Socket, error) {
	v, err := h.Query(CapMessageSocket)
	if err != nil {
		return nil, err
	}
	s, ok := v.(Socket)
	if !ok {
		return nil, ErrNotSupported
	}
	return s, nil
}
