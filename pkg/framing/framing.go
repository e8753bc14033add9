// Package framing splits a raw byte stream into discrete packet frames and
// joins frames back into a stream, using delimiter-based byte stuffing. It
// pairs with the codec package to batch-decode framed packet logs.
package framing

import (
	"fmt"

	"github.com/khusmann/bydantic/pkg/codec"
)

// Framing converts between a contiguous byte stream and discrete frames.
type Framing interface {
	// Frame wraps each frame with delimiters, escaping payload bytes as
	// needed.
	Frame(frames [][]byte) ([]byte, error)

	// Unframe extracts complete frames from data and returns any trailing
	// partial frame unconsumed, so it can be retried once more data
	// arrives.
	Unframe(data []byte) ([][]byte, []byte, error)
}

// SimpleFraming is delimiter framing with a single escape byte, KISS style:
// every frame is wrapped in Delimiter bytes, and occurrences of the
// delimiter or escape byte inside a frame are replaced by Escape followed by
// EscapeMap[b].
type SimpleFraming struct {
	Delimiter byte
	Escape    byte
	EscapeMap map[byte]byte
}

// KISS returns the framing profile of the KISS TNC protocol (FEND/FESC
// delimiters as used by amateur packet radio hardware).
func KISS() SimpleFraming {
	return SimpleFraming{
		Delimiter: 0xC0,
		Escape:    0xDB,
		EscapeMap: map[byte]byte{
			0xC0: 0xDC,
			0xDB: 0xDD,
		},
	}
}

// Frame implements Framing.
func (f SimpleFraming) Frame(frames [][]byte) ([]byte, error) {
	var out []byte
	for _, frame := range frames {
		out = append(out, f.Delimiter)
		for _, b := range frame {
			if b == f.Delimiter || b == f.Escape {
				sub, ok := f.EscapeMap[b]
				if !ok {
					return nil, fmt.Errorf("framing: no escape mapping for byte %02X", b)
				}
				out = append(out, f.Escape, sub)
			} else {
				out = append(out, b)
			}
		}
		out = append(out, f.Delimiter)
	}
	return out, nil
}

// Unframe implements Framing. Bytes after the final delimiter form an
// unterminated frame and are returned as the remainder, re-prefixed with the
// delimiter so a later call can resume cleanly.
func (f SimpleFraming) Unframe(data []byte) ([][]byte, []byte, error) {
	var frames [][]byte
	var current []byte
	for _, b := range data {
		if b == f.Delimiter {
			if len(current) > 0 {
				frame, err := f.unescape(current)
				if err != nil {
					return nil, nil, err
				}
				frames = append(frames, frame)
				current = current[:0]
			}
			continue
		}
		current = append(current, b)
	}
	var remaining []byte
	if len(current) > 0 {
		remaining = append([]byte{f.Delimiter}, current...)
	}
	return frames, remaining, nil
}

func (f SimpleFraming) unescape(frame []byte) ([]byte, error) {
	inverse := make(map[byte]byte, len(f.EscapeMap))
	for k, v := range f.EscapeMap {
		inverse[v] = k
	}
	out := make([]byte, 0, len(frame))
	for i := 0; i < len(frame); i++ {
		b := frame[i]
		if b != f.Escape {
			out = append(out, b)
			continue
		}
		i++
		if i >= len(frame) {
			break
		}
		orig, ok := inverse[frame[i]]
		if !ok {
			return nil, fmt.Errorf("framing: invalid escape sequence %02X %02X", f.Escape, frame[i])
		}
		out = append(out, orig)
	}
	return out, nil
}

// Framer combines a record schema with a framing profile, so whole packet
// logs can be encoded and decoded in one call.
type Framer struct {
	Schema  *codec.Schema
	Framing Framing
}

// Encode serializes each record and frames the results into one stream.
func (f Framer) Encode(records []*codec.Record, ctx any) ([]byte, error) {
	frames := make([][]byte, len(records))
	for i, rec := range records {
		data, err := f.Schema.Encode(rec, ctx)
		if err != nil {
			return nil, err
		}
		frames[i] = data
	}
	return f.Framing.Frame(frames)
}

// DecodeBatch unframes the stream and decodes every complete frame exactly.
// The trailing partial frame, if any, is returned unconsumed. Unlike
// Schema.DecodeBatch, a frame that fails to decode is an error: framing
// already established the packet boundary, so a failure inside it is
// corruption rather than a short read.
func (f Framer) DecodeBatch(data []byte, ctx any) ([]*codec.Record, []byte, error) {
	frames, remaining, err := f.Framing.Unframe(data)
	if err != nil {
		return nil, nil, err
	}
	records := make([]*codec.Record, len(frames))
	for i, frame := range frames {
		rec, err := f.Schema.DecodeExact(frame, ctx)
		if err != nil {
			return nil, nil, err
		}
		records[i] = rec
	}
	return records, remaining, nil
}
