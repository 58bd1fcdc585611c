package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/shutter-remote/shutter-go/pkg/log"
)

// Framing constants.
const (
	// LengthPrefixSize is the size of the big-endian length prefix.
	LengthPrefixSize = 4

	// DefaultMaxMessageSize bounds a frame payload (64 KiB). Every message on
	// the link is a few dozen bytes; the bound only guards against a corrupt
	// length prefix.
	DefaultMaxMessageSize = 65536

	// MaxLogFrameDataSize caps the payload bytes copied into a log event.
	MaxLogFrameDataSize = 4096
)

// Framing errors.
var (
	ErrMessageTooLarge = errors.New("message too large")
	ErrMessageEmpty    = errors.New("message is empty")
	ErrFrameTruncated  = errors.New("frame truncated")
)

// FrameSize returns the bytes a payload occupies on the wire.
func FrameSize(payloadSize int) int {
	return LengthPrefixSize + payloadSize
}

// checkSize rejects payloads the peer would refuse to read.
func checkSize(n uint64, maxSize uint32) error {
	if n == 0 {
		return ErrMessageEmpty
	}
	if n > uint64(maxSize) {
		return fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, n, maxSize)
	}
	return nil
}

func sizeOrDefault(maxSize uint32) uint32 {
	if maxSize == 0 {
		return DefaultMaxMessageSize
	}
	return maxSize
}

// FrameWriter writes length-prefixed frames.
type FrameWriter struct {
	mu      sync.Mutex
	w       io.Writer
	maxSize uint32
	tap     frameTap
}

// NewFrameWriter creates a frame writer. A zero maxSize selects
// DefaultMaxMessageSize.
func NewFrameWriter(w io.Writer, maxSize uint32) *FrameWriter {
	return &FrameWriter{w: w, maxSize: sizeOrDefault(maxSize)}
}

// SetLogger records written frames under sessionID. Pass nil to stop.
func (fw *FrameWriter) SetLogger(logger log.Logger, sessionID string) {
	fw.tap = frameTap{logger: logger, base: log.Event{SessionID: sessionID}}
}

// WriteFrame writes the prefix and payload in a single Write, so frames
// from concurrent callers never interleave.
func (fw *FrameWriter) WriteFrame(data []byte) error {
	if err := checkSize(uint64(len(data)), fw.maxSize); err != nil {
		return err
	}
	frame := make([]byte, FrameSize(len(data)))
	binary.BigEndian.PutUint32(frame, uint32(len(data)))
	copy(frame[LengthPrefixSize:], data)

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if _, err := fw.w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	fw.tap.record(data, log.DirectionOut)
	return nil
}

// FrameReader reads length-prefixed frames.
type FrameReader struct {
	r       io.Reader
	maxSize uint32
	prefix  [LengthPrefixSize]byte
	tap     frameTap
}

// NewFrameReader creates a frame reader. A zero maxSize selects
// DefaultMaxMessageSize.
func NewFrameReader(r io.Reader, maxSize uint32) *FrameReader {
	return &FrameReader{r: r, maxSize: sizeOrDefault(maxSize)}
}

// SetLogger records read frames under sessionID. Pass nil to stop.
func (fr *FrameReader) SetLogger(logger log.Logger, sessionID string) {
	fr.tap = frameTap{logger: logger, base: log.Event{SessionID: sessionID}}
}

// ReadFrame returns the next payload. The stream ending between frames
// yields io.EOF; ending inside one yields ErrFrameTruncated.
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	if _, err := io.ReadFull(fr.r, fr.prefix[:]); err != nil {
		return nil, readError("length prefix", err)
	}
	n := binary.BigEndian.Uint32(fr.prefix[:])
	if err := checkSize(uint64(n), fr.maxSize); err != nil {
		return nil, err
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(fr.r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, readError("payload", err)
	}
	fr.tap.record(payload, log.DirectionIn)
	return payload, nil
}

func readError(part string, err error) error {
	switch {
	case err == io.EOF:
		return err
	case errors.Is(err, io.ErrUnexpectedEOF):
		return ErrFrameTruncated
	default:
		return fmt.Errorf("read %s: %w", part, err)
	}
}

// Framer reads and writes frames on one stream.
type Framer struct {
	*FrameReader
	*FrameWriter
}

// NewFramer creates a framer. A zero maxSize selects DefaultMaxMessageSize.
func NewFramer(rw io.ReadWriter, maxSize uint32) *Framer {
	return &Framer{
		FrameReader: NewFrameReader(rw, maxSize),
		FrameWriter: NewFrameWriter(rw, maxSize),
	}
}

// SetLogger records frames in both directions under sessionID.
func (f *Framer) SetLogger(logger log.Logger, sessionID string) {
	f.FrameReader.SetLogger(logger, sessionID)
	f.FrameWriter.SetLogger(logger, sessionID)
}

// setTap records frames with the connection's session, role and peer.
func (f *Framer) setTap(tap frameTap) {
	f.FrameReader.tap = tap
	f.FrameWriter.tap = tap
}

// frameTap turns frames into transport events. The zero value records
// nothing.
type frameTap struct {
	logger log.Logger
	base   log.Event
}

func (t frameTap) record(data []byte, direction log.Direction) {
	if t.logger == nil {
		return
	}
	shown := data
	if len(shown) > MaxLogFrameDataSize {
		shown = shown[:MaxLogFrameDataSize]
	}

	e := t.base
	e.Timestamp = time.Now()
	e.Direction = direction
	e.Layer = log.LayerTransport
	e.Category = log.CategoryMessage
	e.Frame = &log.FrameEvent{
		Size:      FrameSize(len(data)),
		Data:      shown,
		Truncated: len(shown) < len(data),
	}
	t.logger.Log(e)
}
