// Package capture persists framed packet streams to append-only capture
// files, so decoded traffic can be replayed through a schema later. A
// capture file starts with a fixed header carrying a magic, a format
// version, and a unique session id; frames follow in the file's framing
// profile.
package capture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/segmentio/ksuid"

	"github.com/khusmann/bydantic/pkg/codec"
	"github.com/khusmann/bydantic/pkg/framing"
)

// ErrBadHeader reports a capture file whose header failed to decode.
var ErrBadHeader = errors.New("capture: invalid file header")

// ksuidMapper maps the header's 20 raw id bytes to a ksuid.KSUID.
type ksuidMapper struct{}

func (ksuidMapper) Forward(x any) (any, error) {
	return ksuid.FromBytes(x.([]byte))
}

func (ksuidMapper) Back(y any) (any, error) {
	id, ok := y.(ksuid.KSUID)
	if !ok {
		return nil, fmt.Errorf("expected ksuid.KSUID, got %T", y)
	}
	return id.Bytes(), nil
}

// headerSchema is the capture file header, declared with the codec package
// itself: a literal magic, a literal version byte, and the session id.
var headerSchema = codec.MustSchema("CaptureHeader",
	codec.F("magic", codec.LitBytes([]byte("BYDC"))),
	codec.F("version", codec.LitUint(8, 1)),
	codec.F("session", codec.Map(codec.Bytes(20), ksuidMapper{})),
)

// HeaderSize is the encoded header length in bytes.
const HeaderSize = 25

// WriterConfig holds configuration for a capture writer.
type WriterConfig struct {
	FilePath   string          // Path to the capture file; must not exist yet
	Framing    framing.Framing // Framing profile for appended packets
	BufferSize int             // Write buffer size (0 = bufio default)
}

// Writer appends framed packets to a new capture file.
type Writer struct {
	file    *os.File
	writer  *bufio.Writer
	framing framing.Framing
	session ksuid.KSUID
	mutex   sync.Mutex
}

// NewWriter creates the capture file, stamps a fresh session id into the
// header, and returns a writer ready for Append.
func NewWriter(config WriterConfig) (*Writer, error) {
	if config.Framing == nil {
		return nil, fmt.Errorf("capture: framing profile is required")
	}
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0750); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	session := ksuid.New()
	header, err := headerSchema.Encode(headerSchema.MustNew(map[string]any{
		"session": session,
	}), nil)
	if err != nil {
		file.Close()
		return nil, err
	}

	w := bufio.NewWriterSize(file, config.BufferSize)
	if _, err := w.Write(header); err != nil {
		file.Close()
		return nil, err
	}

	return &Writer{
		file:    file,
		writer:  w,
		framing: config.Framing,
		session: session,
	}, nil
}

// SessionID returns the id stamped into the file header.
func (w *Writer) SessionID() ksuid.KSUID {
	return w.session
}

// Append frames one packet and appends it to the capture file.
func (w *Writer) Append(packet []byte) error {
	framed, err := w.framing.Frame([][]byte{packet})
	if err != nil {
		return err
	}
	w.mutex.Lock()
	defer w.mutex.Unlock()
	_, err = w.writer.Write(framed)
	return err
}

// Sync flushes buffered frames and fsyncs the file.
func (w *Writer) Sync() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Close flushes and closes the capture file.
func (w *Writer) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// Reader replays a capture file.
type Reader struct {
	session ksuid.KSUID
	frames  [][]byte
	partial []byte
}

// OpenReader reads and verifies the capture file at path, unframing its
// whole body with the given framing profile.
func OpenReader(path string, fr framing.Framing) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(file, header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	rec, err := headerSchema.DecodeExact(header, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	sessionVal, _ := rec.Get("session")
	session := sessionVal.(ksuid.KSUID)

	body, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	frames, partial, err := fr.Unframe(body)
	if err != nil {
		return nil, err
	}
	return &Reader{session: session, frames: frames, partial: partial}, nil
}

// SessionID returns the id read from the file header.
func (r *Reader) SessionID() ksuid.KSUID {
	return r.session
}

// Frames returns the complete frames in capture order.
func (r *Reader) Frames() [][]byte {
	return r.frames
}

// Partial returns the trailing unterminated frame bytes, if any.
func (r *Reader) Partial() []byte {
	return r.partial
}

// DecodeAll decodes every frame exactly against schema.
func (r *Reader) DecodeAll(schema *codec.Schema, ctx any) ([]*codec.Record, error) {
	out := make([]*codec.Record, len(r.frames))
	for i, frame := range r.frames {
		rec, err := schema.DecodeExact(frame, ctx)
		if err != nil {
			return nil, fmt.Errorf("capture: frame %d: %w", i, err)
		}
		out[i] = rec
	}
	return out, nil
}
