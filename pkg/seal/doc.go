// Package seal layers authenticated encryption over a message socket.
//
// Attach wraps an existing msock handle into an encrypted socket: every
// outbound message is sealed with NaCl secretbox under a caller-supplied
// 32-byte key and a fresh random 24-byte nonce, and every inbound message is
// verified and opened before delivery. The encrypted socket implements
// msock.Socket itself, so code written against a plain message socket works
// unmodified against an encrypted one.
//
// # Wire Format
//
// Each logical message travels as exactly one message on the underlying
// socket:
//
//	nonce (24 bytes) || ciphertext (plaintext length + 16 bytes)
//
// The nonce is generated fresh from the system entropy source for every
// send and never reused with the same key. Key distribution is out of
// band; this package performs no key exchange.
//
// # Lifecycle
//
// Attach takes ownership of the handle it is given: after a successful
// Attach the caller must use only the returned *Socket. Detach undoes the
// wrapping and hands back the still-open underlying socket; Close closes
// the underlying socket exactly once. A failure to close the underlying
// socket is fatal: the socket is marked damaged and every subsequent call
// fails with ErrSocketDamaged.
//
// # Concurrency
//
// The send and receive paths keep separate scratch buffer pairs, so one
// goroutine sending while another receives is safe. Two goroutines sending
// concurrently (or two receiving concurrently) on the same socket is not:
// the shared scratch state would be corrupted. Serialize per direction.
//
// A failed send or receive (bad authentication, deadline expiry, oversized
// message) leaves the socket usable for subsequent calls.
package seal
