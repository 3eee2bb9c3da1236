// Package msock defines the message-oriented socket abstraction that the
// sealink layers are built on.
//
// A message socket transfers discrete messages rather than an
// undifferentiated byte stream: one Send hands exactly one message to the
// peer, and one Receive yields exactly one message, however the transport
// chooses to carry it. Implementations in this module include the in-memory
// Pipe (this package) and the length-prefixed network transport
// (pkg/transport). The encrypted socket in pkg/seal both consumes and
// implements this contract, which is what makes it a drop-in substitute for
// the socket it wraps.
//
// # Capabilities
//
// Layered sockets are passed around as generic handles. A Handle answers
// Query with the implementation of a requested capability from a closed set
// (CapCloser, CapMessageSocket, CapSecretboxSocket), or ErrNotSupported.
// This is how a layer validates, at attach time, that the handle it was
// given really is a message socket.
//
// # Deadlines
//
// All blocking operations take an absolute deadline. The zero time means
// block indefinitely. Expiry is reported as an error satisfying
// errors.Is(err, os.ErrDeadlineExceeded), and a timed-out operation leaves
// the socket usable.
package msock
