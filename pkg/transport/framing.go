package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sealink-protocol/sealink-go/pkg/log"
	"github.com/sealink-protocol/sealink-go/pkg/msock"
)

// Framing constants.
const (
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4

	// DefaultMaxMessageSize is the default maximum message size (64 KB).
	DefaultMaxMessageSize = 65536

	// MaxLogFrameDataSize is the maximum frame data size to include in
	// logs (4 KB). Larger frames are truncated in log events.
	MaxLogFrameDataSize = 4096
)

// Framing errors.
var (
	// ErrFrameTruncated indicates the stream ended mid-frame.
	ErrFrameTruncated = errors.New("frame truncated")
)

// FrameWriter writes length-prefixed frames to an underlying writer.
type FrameWriter struct {
	w              io.Writer
	maxMessageSize uint32
	mu             sync.Mutex

	// Logging support (optional)
	logger log.Logger
	connID string
}

// NewFrameWriter creates a new frame writer.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{
		w:              w,
		maxMessageSize: DefaultMaxMessageSize,
	}
}

// NewFrameWriterWithMaxSize creates a frame writer with a custom max size.
func NewFrameWriterWithMaxSize(w io.Writer, maxSize uint32) *FrameWriter {
	return &FrameWriter{
		w:              w,
		maxMessageSize: maxSize,
	}
}

// SetLogger configures logging for this writer.
// Pass nil to disable logging.
func (fw *FrameWriter) SetLogger(logger log.Logger, connID string) {
	fw.logger = logger
	fw.connID = connID
}

// WriteFrame writes a length-prefixed frame.
// Thread-safe: can be called from multiple goroutines.
func (fw *FrameWriter) WriteFrame(data []byte) error {
	return fw.WriteFrameV([][]byte{data})
}

// WriteFrameV writes the concatenation of bufs as one length-prefixed
// frame, without assembling the chunks into a contiguous buffer first.
func (fw *FrameWriter) WriteFrameV(bufs [][]byte) error {
	total, err := msock.TotalLen(bufs)
	if err != nil {
		return err
	}
	if uint64(total) > uint64(fw.maxMessageSize) {
		return fmt.Errorf("%w: %d > %d", msock.ErrMessageTooLarge, total, fw.maxMessageSize)
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	// Write length prefix (4 bytes, big-endian)
	var lengthBuf [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(lengthBuf[:], uint32(total))

	if _, err := fw.w.Write(lengthBuf[:]); err != nil {
		return fmt.Errorf("failed to write length prefix: %w", err)
	}

	for _, b := range bufs {
		if len(b) == 0 {
			continue
		}
		if _, err := fw.w.Write(b); err != nil {
			return fmt.Errorf("failed to write payload: %w", err)
		}
	}

	if fw.logger != nil {
		fw.logger.Log(makeFrameEvent(fw.connID, bufs, total, log.DirectionOut))
	}

	return nil
}

// FrameReader reads length-prefixed frames from an underlying reader.
type FrameReader struct {
	r              io.Reader
	maxMessageSize uint32
	lengthBuf      [LengthPrefixSize]byte
	mu             sync.Mutex

	// Logging support (optional)
	logger log.Logger
	connID string
}

// NewFrameReader creates a new frame reader.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{
		r:              r,
		maxMessageSize: DefaultMaxMessageSize,
	}
}

// NewFrameReaderWithMaxSize creates a frame reader with a custom max size.
func NewFrameReaderWithMaxSize(r io.Reader, maxSize uint32) *FrameReader {
	return &FrameReader{
		r:              r,
		maxMessageSize: maxSize,
	}
}

// SetLogger configures logging for this reader.
// Pass nil to disable logging.
func (fr *FrameReader) SetLogger(logger log.Logger, connID string) {
	fr.logger = logger
	fr.connID = connID
}

// SetMaxMessageSize updates the maximum message size.
func (fr *FrameReader) SetMaxMessageSize(size uint32) {
	fr.maxMessageSize = size
}

// ReadFrame reads one frame and returns its payload in a fresh buffer.
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	fr.mu.Lock()
	defer fr.mu.Unlock()

	length, err := fr.readLength()
	if err != nil {
		return nil, err
	}
	if length > fr.maxMessageSize {
		_ = fr.discard(length)
		return nil, fmt.Errorf("%w: %d > %d", msock.ErrMessageTooLarge, length, fr.maxMessageSize)
	}

	payload := make([]byte, length)
	if err := fr.readBody([][]byte{payload}); err != nil {
		return nil, err
	}

	if fr.logger != nil {
		fr.logger.Log(makeFrameEvent(fr.connID, [][]byte{payload}, int(length), log.DirectionIn))
	}

	return payload, nil
}

// ReadFrameV reads one frame, scattering its payload across bufs in order.
// A frame longer than the combined length of bufs (or the configured max)
// is consumed and fails with msock.ErrMessageTooLarge.
func (fr *FrameReader) ReadFrameV(bufs [][]byte) (int, error) {
	capacity, err := msock.TotalLen(bufs)
	if err != nil {
		return 0, err
	}

	fr.mu.Lock()
	defer fr.mu.Unlock()

	length, err := fr.readLength()
	if err != nil {
		return 0, err
	}
	if uint64(length) > uint64(capacity) || length > fr.maxMessageSize {
		// Consume the frame so the stream stays aligned.
		if err := fr.discard(length); err != nil {
			return 0, err
		}
		return 0, msock.ErrMessageTooLarge
	}

	remaining := int(length)
	filled := make([][]byte, 0, len(bufs))
	for _, b := range bufs {
		if remaining == 0 {
			break
		}
		if len(b) > remaining {
			b = b[:remaining]
		}
		filled = append(filled, b)
		remaining -= len(b)
	}
	if err := fr.readBody(filled); err != nil {
		return 0, err
	}

	if fr.logger != nil {
		fr.logger.Log(makeFrameEvent(fr.connID, filled, int(length), log.DirectionIn))
	}

	return int(length), nil
}

// readLength reads the 4-byte length prefix.
func (fr *FrameReader) readLength() (uint32, error) {
	if _, err := io.ReadFull(fr.r, fr.lengthBuf[:]); err != nil {
		if err == io.EOF {
			return 0, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, ErrFrameTruncated
		}
		return 0, fmt.Errorf("failed to read length prefix: %w", err)
	}
	return binary.BigEndian.Uint32(fr.lengthBuf[:]), nil
}

// readBody fills the chunks, in order, from the stream.
func (fr *FrameReader) readBody(bufs [][]byte) error {
	for _, b := range bufs {
		if len(b) == 0 {
			continue
		}
		if _, err := io.ReadFull(fr.r, b); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || err == io.EOF {
				return ErrFrameTruncated
			}
			return fmt.Errorf("failed to read payload: %w", err)
		}
	}
	return nil
}

// discard consumes n payload bytes from the stream.
func (fr *FrameReader) discard(n uint32) error {
	if _, err := io.CopyN(io.Discard, fr.r, int64(n)); err != nil {
		return ErrFrameTruncated
	}
	return nil
}

// makeFrameEvent creates a log event for a frame.
func makeFrameEvent(connID string, bufs [][]byte, payloadSize int, direction log.Direction) log.Event {
	frameData := make([]byte, 0, min(payloadSize, MaxLogFrameDataSize))
	truncated := false
	for _, b := range bufs {
		room := MaxLogFrameDataSize - len(frameData)
		if room <= 0 {
			truncated = true
			break
		}
		if len(b) > room {
			b = b[:room]
			truncated = true
		}
		frameData = append(frameData, b...)
	}

	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    direction,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		Frame: &log.FrameEvent{
			Size:      LengthPrefixSize + payloadSize,
			Data:      frameData,
			Truncated: truncated,
		},
	}
}

// Framer combines frame reading and writing.
type Framer struct {
	*FrameReader
	*FrameWriter
}

// NewFramer creates a new framer for bidirectional communication.
func NewFramer(rw io.ReadWriter) *Framer {
	return &Framer{
		FrameReader: NewFrameReader(rw),
		FrameWriter: NewFrameWriter(rw),
	}
}

// NewFramerWithMaxSize creates a framer with a custom max message size.
func NewFramerWithMaxSize(rw io.ReadWriter, maxSize uint32) *Framer {
	return &Framer{
		FrameReader: NewFrameReaderWithMaxSize(rw, maxSize),
		FrameWriter: NewFrameWriterWithMaxSize(rw, maxSize),
	}
}

// SetLogger configures logging for both reader and writer.
// Pass nil to disable logging.
func (f *Framer) SetLogger(logger log.Logger, connID string) {
	f.FrameReader.SetLogger(logger, connID)
	f.FrameWriter.SetLogger(logger, connID)
}

// FrameSize returns the total frame size including the length prefix.
func FrameSize(payloadSize int) int {
	return LengthPrefixSize + payloadSize
}
