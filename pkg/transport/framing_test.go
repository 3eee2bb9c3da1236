package transport

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/sealink-protocol/sealink-go/pkg/log"
	"github.com/sealink-protocol/sealink-go/pkg/msock"
)

func TestFrameWriterReader(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{
			name:    "empty message",
			payload: []byte{},
		},
		{
			name:    "small message",
			payload: []byte("hello"),
		},
		{
			name:    "medium message",
			payload: bytes.Repeat([]byte("x"), 1000),
		},
		{
			name:    "max size message",
			payload: bytes.Repeat([]byte("y"), DefaultMaxMessageSize),
		},
		{
			name:    "single byte",
			payload: []byte{0x42},
		},
		{
			name:    "binary data",
			payload: []byte{0x00, 0xFF, 0x7F, 0x80},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)

			// Write frame
			writer := NewFrameWriter(buf)
			if err := writer.WriteFrame(tt.payload); err != nil {
				t.Fatalf("WriteFrame failed: %v", err)
			}

			// Check frame size
			expectedSize := LengthPrefixSize + len(tt.payload)
			if buf.Len() != expectedSize {
				t.Errorf("frame size = %d, want %d", buf.Len(), expectedSize)
			}

			// Read frame
			reader := NewFrameReader(buf)
			got, err := reader.ReadFrame()
			if err != nil {
				t.Fatalf("ReadFrame failed: %v", err)
			}
			if !bytes.Equal(got, tt.payload) {
				t.Errorf("payload mismatch: got %d bytes, want %d", len(got), len(tt.payload))
			}
		})
	}
}

func TestFrameWriterVectored(t *testing.T) {
	buf := new(bytes.Buffer)
	writer := NewFrameWriter(buf)

	if err := writer.WriteFrameV([][]byte{[]byte("ab"), nil, []byte("cde")}); err != nil {
		t.Fatalf("WriteFrameV failed: %v", err)
	}

	reader := NewFrameReader(buf)
	got, err := reader.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if string(got) != "abcde" {
		t.Errorf("payload = %q, want \"abcde\"", got)
	}
}

func TestFrameReaderVectored(t *testing.T) {
	buf := new(bytes.Buffer)
	writer := NewFrameWriter(buf)
	if err := writer.WriteFrame([]byte("scattered")); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	d1 := make([]byte, 4)
	d2 := make([]byte, 16)
	reader := NewFrameReader(buf)
	n, err := reader.ReadFrameV([][]byte{d1, d2})
	if err != nil {
		t.Fatalf("ReadFrameV failed: %v", err)
	}
	if n != 9 {
		t.Errorf("n = %d, want 9", n)
	}
	if string(d1) != "scat" || string(d2[:5]) != "tered" {
		t.Errorf("scatter = %q + %q", d1, d2[:5])
	}
}

func TestFrameTooLargeForWriter(t *testing.T) {
	buf := new(bytes.Buffer)
	writer := NewFrameWriterWithMaxSize(buf, 8)

	err := writer.WriteFrame(bytes.Repeat([]byte("z"), 9))
	if !errors.Is(err, msock.ErrMessageTooLarge) {
		t.Fatalf("err = %v, want ErrMessageTooLarge", err)
	}
	if buf.Len() != 0 {
		t.Error("nothing may be written for an oversized frame")
	}
}

func TestFrameTooLargeForReader(t *testing.T) {
	buf := new(bytes.Buffer)
	writer := NewFrameWriter(buf)
	writer.WriteFrame(bytes.Repeat([]byte("a"), 100))
	writer.WriteFrame([]byte("after"))

	// Capacity smaller than the frame: the frame is consumed and the
	// stream stays aligned.
	reader := NewFrameReader(buf)
	dst := make([]byte, 10)
	_, err := reader.ReadFrameV([][]byte{dst})
	if !errors.Is(err, msock.ErrMessageTooLarge) {
		t.Fatalf("err = %v, want ErrMessageTooLarge", err)
	}

	n, err := reader.ReadFrameV([][]byte{dst})
	if err != nil || string(dst[:n]) != "after" {
		t.Fatalf("next frame = %q, %v", dst[:n], err)
	}
}

func TestFrameTruncated(t *testing.T) {
	full := new(bytes.Buffer)
	NewFrameWriter(full).WriteFrame([]byte("whole frame"))

	tests := []struct {
		name string
		cut  int
	}{
		{name: "mid prefix", cut: 2},
		{name: "empty prefix", cut: 0},
		{name: "mid payload", cut: LengthPrefixSize + 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewFrameReader(bytes.NewReader(full.Bytes()[:tt.cut]))
			_, err := reader.ReadFrame()
			if tt.cut == 0 {
				if err != io.EOF {
					t.Fatalf("err = %v, want EOF at clean boundary", err)
				}
				return
			}
			if !errors.Is(err, ErrFrameTruncated) {
				t.Fatalf("err = %v, want ErrFrameTruncated", err)
			}
		})
	}
}

func TestFramerLogging(t *testing.T) {
	var rec eventRecorder
	buf := new(bytes.Buffer)
	framer := NewFramer(buf)
	framer.SetLogger(&rec, "conn-log")

	payload := []byte("logged")
	if err := framer.WriteFrame(payload); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	if _, err := framer.ReadFrame(); err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}

	if len(rec.events) != 2 {
		t.Fatalf("got %d events, want 2", len(rec.events))
	}
	out, in := rec.events[0], rec.events[1]
	if out.Direction != log.DirectionOut || in.Direction != log.DirectionIn {
		t.Error("event directions wrong")
	}
	for _, e := range rec.events {
		if e.ConnectionID != "conn-log" {
			t.Errorf("ConnectionID = %q, want conn-log", e.ConnectionID)
		}
		if e.Layer != log.LayerTransport {
			t.Errorf("Layer = %v, want transport", e.Layer)
		}
		if e.Frame == nil || e.Frame.Size != FrameSize(len(payload)) {
			t.Errorf("Frame event = %+v, want size %d", e.Frame, FrameSize(len(payload)))
		}
	}
}

func TestFrameEventTruncation(t *testing.T) {
	var rec eventRecorder
	buf := new(bytes.Buffer)
	writer := NewFrameWriterWithMaxSize(buf, 2*MaxLogFrameDataSize)
	writer.SetLogger(&rec, "conn-trunc")

	if err := writer.WriteFrame(bytes.Repeat([]byte("q"), MaxLogFrameDataSize+1)); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	if len(rec.events) != 1 {
		t.Fatalf("got %d events, want 1", len(rec.events))
	}
	e := rec.events[0]
	if !e.Frame.Truncated {
		t.Error("expected truncated frame data in event")
	}
	if len(e.Frame.Data) != MaxLogFrameDataSize {
		t.Errorf("event data length = %d, want %d", len(e.Frame.Data), MaxLogFrameDataSize)
	}
}

type eventRecorder struct {
	events []log.Event
}

func (r *eventRecorder) Log(e log.Event) { r.events = append(r.events, e) }
