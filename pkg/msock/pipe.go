package msock

import (
	"io"
	"os"
	"sync"
	"time"
)

// Pipe creates a synchronous, in-memory pair of connected message sockets.
// Messages written to one end are read from the other with boundaries
// preserved. There is no internal buffering: a Send blocks until the peer
// receives the message, its deadline expires, or an end is closed.
//
// Pipe is the loopback collaborator used by tests and examples; it supports
// the full Socket contract including deadlines.
func Pipe() (Socket, Socket) {
	ab := make(chan []byte)
	ba := make(chan []byte)
	doneA := make(chan struct{})
	doneB := make(chan struct{})
	a := &pipeEnd{wr: ab, rd: ba, localDone: doneA, peerDone: doneB}
	b := &pipeEnd{wr: ba, rd: ab, localDone: doneB, peerDone: doneA}
	return a, b
}

type pipeEnd struct {
	wr chan []byte
	rd chan []byte

	localDone chan struct{}
	peerDone  chan struct{}

	mu     sync.Mutex
	closed bool
}

func (p *pipeEnd) Query(c Capability) (any, error) {
	switch c {
	case CapCloser, CapMessageSocket:
		return Socket(p), nil
	default:
		return nil, ErrNotSupported
	}
}

func (p *pipeEnd) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.closed = true
	close(p.localDone)
	return nil
}

// deadlineChan returns a channel that fires when the deadline expires, or
// nil for the zero deadline. The caller must stop the returned timer.
func deadlineChan(deadline time.Time) (<-chan time.Time, *time.Timer) {
	if deadline.IsZero() {
		return nil, nil
	}
	t := time.NewTimer(time.Until(deadline))
	return t.C, t
}

func (p *pipeEnd) Send(m []byte, deadline time.Time) error {
	// The caller may reuse m immediately after Send returns, so hand the
	// peer its own copy.
	msg := make([]byte, len(m))
	copy(msg, m)
	return p.deliver(msg, deadline)
}

func (p *pipeEnd) SendV(bufs [][]byte, deadline time.Time) error {
	total, err := TotalLen(bufs)
	if err != nil {
		return err
	}
	msg := make([]byte, total)
	Gather(msg, bufs)
	return p.deliver(msg, deadline)
}

func (p *pipeEnd) deliver(msg []byte, deadline time.Time) error {
	expired, timer := deadlineChan(deadline)
	if timer != nil {
		defer timer.Stop()
	}
	select {
	case p.wr <- msg:
		return nil
	case <-p.localDone:
		return ErrClosed
	case <-p.peerDone:
		return io.ErrClosedPipe
	case <-expired:
		return os.ErrDeadlineExceeded
	}
}

func (p *pipeEnd) Receive(b []byte, deadline time.Time) (int, error) {
	msg, err := p.take(deadline)
	if err != nil {
		return 0, err
	}
	if len(msg) > len(b) {
		return 0, ErrMessageTooLarge
	}
	return copy(b, msg), nil
}

func (p *pipeEnd) ReceiveV(bufs [][]byte, deadline time.Time) (int, error) {
	capacity, err := TotalLen(bufs)
	if err != nil {
		return 0, err
	}
	msg, err := p.take(deadline)
	if err != nil {
		return 0, err
	}
	if len(msg) > capacity {
		return 0, ErrMessageTooLarge
	}
	Scatter(bufs, msg)
	return len(msg), nil
}

func (p *pipeEnd) take(deadline time.Time) ([]byte, error) {
	expired, timer := deadlineChan(deadline)
	if timer != nil {
		defer timer.Stop()
	}
	select {
	case msg := <-p.rd:
		return msg, nil
	case <-p.localDone:
		return nil, ErrClosed
	case <-p.peerDone:
		// Drain a message the peer managed to hand off before closing.
		select {
		case msg := <-p.rd:
			return msg, nil
		default:
		}
		return nil, io.EOF
	case <-expired:
		return nil, os.ErrDeadlineExceeded
	}
}
