package msock

import (
	"errors"
	"math"
	"time"
)

// Socket is a message-oriented socket. Each Send transfers exactly one
// discrete message; each Receive yields exactly one.
//
// The vectored variants operate on an ordered list of byte chunks: SendV
// transmits the concatenation of the chunks as a single message, and
// ReceiveV scatters a single message across the chunks in order, filling
// each to its own length before advancing to the next.
type Socket interface {
	Handle

	// Send transmits p as one message, honoring the deadline.
	Send(p []byte, deadline time.Time) error

	// SendV transmits the concatenation of bufs as one message.
	SendV(bufs [][]byte, deadline time.Time) error

	// Receive reads one message into p and returns its length.
	// A message longer than p fails with ErrMessageTooLarge and is
	// consumed.
	Receive(p []byte, deadline time.Time) (int, error)

	// ReceiveV reads one message, scattering it across bufs in order.
	ReceiveV(bufs [][]byte, deadline time.Time) (int, error)
}

// ErrMessageOverflow indicates the total length of a chunk list does not
// fit in an int.
var ErrMessageOverflow = errors.New("message length overflow")

// TotalLen returns the summed length of the chunks, guarding against
// overflow.
func TotalLen(bufs [][]byte) (int, error) {
	total := 0
	for _, b := range bufs {
		if len(b) > math.MaxInt-total {
			return 0, ErrMessageOverflow
		}
		total += len(b)
	}
	return total, nil
}

// Scatter copies src across dst chunks in order, filling each chunk to its
// length before advancing. It panics if src is longer than the combined
// chunk capacity; callers bound-check first.
func Scatter(dst [][]byte, src []byte) {
	for _, d := range dst {
		if len(src) == 0 {
			return
		}
		n := copy(d, src)
		src = src[n:]
	}
	if len(src) != 0 {
		panic("msock: scatter past destination capacity")
	}
}

// Gather copies the chunks into dst back to back and returns the number of
// bytes written.
func Gather(dst []byte, bufs [][]byte) int {
	n := 0
	for _, b := range bufs {
		n += copy(dst[n:], b)
	}
	return n
}

// Compile-time interface satisfaction checks.
var _ Socket = (*pipeEnd)(nil)
