// Package transport carries discrete messages over stream connections.
//
// The sealink encryption layer (pkg/seal) requires a message-oriented
// socket underneath it. This package provides the reference implementation:
// 4-byte big-endian length-prefixed frames over any net.Conn, exposed
// through the msock.Socket contract.
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│   Secretbox Messages (seal)    │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│         TCP / Unix             │
//	└────────────────────────────────┘
//
// FrameReader and FrameWriter implement the framing directly over io
// streams; Conn binds them to a net.Conn with deadline support and is what
// callers normally use:
//
//	c, err := transport.Dial(ctx, "tcp", "device.local:4040")
//	...
//	enc, err := seal.Attach(c, key)
//
// Frames of length zero are legal: the framing layer does not interpret
// payloads, and an encrypted empty message is still 40 bytes here.
package transport
