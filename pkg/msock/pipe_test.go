package msock

import (
	"bytes"
	"errors"
	"io"
	"os"
	"testing"
	"time"
)

func TestPipeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  []byte
	}{
		{name: "empty message", msg: []byte{}},
		{name: "single byte", msg: []byte{0x42}},
		{name: "text", msg: []byte("hello world")},
		{name: "binary", msg: []byte{0x00, 0xFF, 0x7F, 0x80}},
		{name: "large", msg: bytes.Repeat([]byte("z"), 1<<16)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := Pipe()
			defer a.Close()
			defer b.Close()

			errc := make(chan error, 1)
			go func() {
				errc <- a.Send(tt.msg, time.Time{})
			}()

			buf := make([]byte, len(tt.msg)+16)
			n, err := b.Receive(buf, time.Now().Add(time.Second))
			if err != nil {
				t.Fatalf("Receive failed: %v", err)
			}
			if n != len(tt.msg) {
				t.Errorf("received %d bytes, want %d", n, len(tt.msg))
			}
			if !bytes.Equal(buf[:n], tt.msg) {
				t.Errorf("received %q, want %q", buf[:n], tt.msg)
			}
			if err := <-errc; err != nil {
				t.Errorf("Send failed: %v", err)
			}
		})
	}
}

func TestPipePreservesBoundaries(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	defer b.Close()

	go func() {
		a.Send([]byte("first"), time.Time{})
		a.Send([]byte("second"), time.Time{})
	}()

	buf := make([]byte, 64)
	n, err := b.Receive(buf, time.Now().Add(time.Second))
	if err != nil || string(buf[:n]) != "first" {
		t.Fatalf("first Receive = %q, %v", buf[:n], err)
	}
	n, err = b.Receive(buf, time.Now().Add(time.Second))
	if err != nil || string(buf[:n]) != "second" {
		t.Fatalf("second Receive = %q, %v", buf[:n], err)
	}
}

func TestPipeVectored(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	defer b.Close()

	go func() {
		a.SendV([][]byte{[]byte("abc"), nil, []byte("defg")}, time.Time{})
	}()

	d1 := make([]byte, 2)
	d2 := make([]byte, 5)
	n, err := b.ReceiveV([][]byte{d1, d2}, time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("ReceiveV failed: %v", err)
	}
	if n != 7 {
		t.Errorf("n = %d, want 7", n)
	}
	if string(d1) != "ab" || string(d2) != "cdefg" {
		t.Errorf("scatter = %q + %q, want \"ab\" + \"cdefg\"", d1, d2)
	}
}

func TestPipeDeadline(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	defer b.Close()

	buf := make([]byte, 8)
	_, err := b.Receive(buf, time.Now().Add(20*time.Millisecond))
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Fatalf("Receive err = %v, want deadline exceeded", err)
	}

	// Expired deadline on Send with nobody receiving.
	err = a.Send([]byte("x"), time.Now().Add(-time.Second))
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Fatalf("Send err = %v, want deadline exceeded", err)
	}

	// A timed-out socket remains usable.
	go func() { a.Send([]byte("later"), time.Time{}) }()
	n, err := b.Receive(buf, time.Now().Add(time.Second))
	if err != nil || string(buf[:n]) != "later" {
		t.Fatalf("Receive after timeout = %q, %v", buf[:n], err)
	}
}

func TestPipeMessageTooLarge(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	defer b.Close()

	go func() {
		a.Send([]byte("too long for you"), time.Time{})
		a.Send([]byte("ok"), time.Time{})
	}()

	buf := make([]byte, 4)
	_, err := b.Receive(buf, time.Now().Add(time.Second))
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Fatalf("Receive err = %v, want ErrMessageTooLarge", err)
	}

	// The oversized message is consumed, not redelivered.
	n, err := b.Receive(buf, time.Now().Add(time.Second))
	if err != nil || string(buf[:n]) != "ok" {
		t.Fatalf("next Receive = %q, %v", buf[:n], err)
	}
}

func TestPipeClose(t *testing.T) {
	a, b := Pipe()

	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := a.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close err = %v, want ErrClosed", err)
	}

	buf := make([]byte, 8)
	if _, err := b.Receive(buf, time.Time{}); !errors.Is(err, io.EOF) {
		t.Errorf("Receive from closed peer err = %v, want EOF", err)
	}
	if err := b.Send([]byte("x"), time.Time{}); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("Send to closed peer err = %v, want ErrClosedPipe", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close of surviving end failed: %v", err)
	}
}

func TestPipeQuery(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	defer b.Close()

	s, err := QuerySocket(a)
	if err != nil {
		t.Fatalf("QuerySocket failed: %v", err)
	}
	if s == nil {
		t.Fatal("QuerySocket returned nil socket")
	}
	if _, err := a.Query(CapSecretboxSocket); !errors.Is(err, ErrNotSupported) {
		t.Errorf("Query(CapSecretboxSocket) err = %v, want ErrNotSupported", err)
	}
}

func TestTotalLenOverflow(t *testing.T) {
	// Cannot build a slice near MaxInt; exercise the happy path and the
	// zero case instead.
	n, err := TotalLen([][]byte{make([]byte, 3), nil, make([]byte, 5)})
	if err != nil || n != 8 {
		t.Fatalf("TotalLen = %d, %v, want 8, nil", n, err)
	}
	n, err = TotalLen(nil)
	if err != nil || n != 0 {
		t.Fatalf("TotalLen(nil) = %d, %v, want 0, nil", n, err)
	}
}
