package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Type markers for container values. Scalars carry no marker: they are
// written as their UTF-8 text representation, so an integer and a string
// holding the same digits are indistinguishable on the wire. That ambiguity
// is part of the format and is exercised by the tests.
const (
	markerList byte = 0x01
	markerMap  byte = 0x02
)

// ErrNoFallback is returned when an opaque value is encountered but no
// fallback ByteCodec was configured.
var ErrNoFallback = errors.New("codec: no fallback codec configured")

// ByteCodec serializes values outside the structural model. It is supplied
// by the embedding environment; the codec treats it as an opaque capability.
type ByteCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte) (any, error)
}

// RawBytes is a trivial ByteCodec that passes []byte payloads through
// unchanged. It refuses anything that is not already a byte slice.
type RawBytes struct{}

// Encode returns v unchanged if it is a []byte.
func (RawBytes) Encode(v any) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("codec: raw fallback cannot encode %T", v)
	}
	return b, nil
}

// Decode returns the payload unchanged.
func (RawBytes) Decode(data []byte) (any, error) { return data, nil }

// Codec encodes and decodes Values using the length-prefixed binary format.
// The zero Codec has no fallback and fails on opaque payloads; use New to
// attach one.
type Codec struct {
	fallback ByteCodec
}

// New returns a Codec that delegates opaque values to fallback. A nil
// fallback makes opaque payloads an encode/decode error.
func New(fallback ByteCodec) *Codec {
	return &Codec{fallback: fallback}
}

// Encode serializes v.
//
// Integers, floats, and strings become their UTF-8 text representation with
// no marker byte. Lists are markerList followed by one (8-byte little-endian
// length, payload) frame per element. Maps are markerMap followed by two
// frames per entry, key bytes then encoded value. Opaque values defer to the
// fallback ByteCodec.
func (c *Codec) Encode(v Value) ([]byte, error) {
	switch v.kind {
	case KindInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindFloat:
		return []byte(formatFloat(v.f)), nil
	case KindString:
		return []byte(v.s), nil
	case KindList:
		buf := []byte{markerList}
		for i, item := range v.list {
			payload, err := c.Encode(item)
			if err != nil {
				return nil, fmt.Errorf("codec: list element %d: %w", i, err)
			}
			buf = appendFrame(buf, payload)
		}
		return buf, nil
	case KindMap:
		buf := []byte{markerMap}
		// Sorted keys keep the encoding deterministic; decoders do not
		// care about entry order.
		keys := make([]string, 0, len(v.dict))
		for k := range v.dict {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			payload, err := c.Encode(v.dict[k])
			if err != nil {
				return nil, fmt.Errorf("codec: map entry %q: %w", k, err)
			}
			buf = appendFrame(buf, []byte(k))
			buf = appendFrame(buf, payload)
		}
		return buf, nil
	case KindOpaque:
		if c.fallback == nil {
			return nil, ErrNoFallback
		}
		data, err := c.fallback.Encode(v.opaque)
		if err != nil {
			return nil, fmt.Errorf("codec: fallback encode: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("codec: cannot encode kind %s", v.kind)
	}
}

// Decode parses data back into a Value.
//
// Empty input decodes to the empty string by convention, not an error.
// A leading markerList or markerMap byte selects container decoding; frames
// are consumed until the cursor cannot extract another full length+payload
// pair. Anything else is treated as a text scalar: integer parse first, then
// float, then raw string. Bytes that are not valid UTF-8 go through the
// fallback ByteCodec and surface as an Opaque value.
func (c *Codec) Decode(data []byte) (Value, error) {
	if len(data) == 0 {
		return String(""), nil
	}

	switch data[0] {
	case markerList:
		cursor := 1
		items := []Value{}
		for {
			payload, ok := nextFrame(data, &cursor)
			if !ok {
				break
			}
			item, err := c.Decode(payload)
			if err != nil {
				return Value{}, fmt.Errorf("codec: list element %d: %w", len(items), err)
			}
			items = append(items, item)
		}
		return List(items...), nil

	case markerMap:
		cursor := 1
		entries := map[string]Value{}
		for {
			keyBytes, ok := nextFrame(data, &cursor)
			if !ok {
				break
			}
			valBytes, ok := nextFrame(data, &cursor)
			if !ok {
				break
			}
			val, err := c.Decode(valBytes)
			if err != nil {
				return Value{}, fmt.Errorf("codec: map entry %q: %w", keyBytes, err)
			}
			entries[string(keyBytes)] = val
		}
		return Map(entries), nil

	default:
		if utf8.Valid(data) {
			s := string(data)
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return Int(i), nil
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return Float(f), nil
			}
			return String(s), nil
		}
		if c.fallback == nil {
			return Value{}, ErrNoFallback
		}
		obj, err := c.fallback.Decode(data)
		if err != nil {
			return Value{}, fmt.Errorf("codec: fallback decode: %w", err)
		}
		return Opaque(obj), nil
	}
}

// appendFrame appends an 8-byte little-endian length followed by payload.
func appendFrame(buf, payload []byte) []byte {
	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], uint64(len(payload)))
	buf = append(buf, size[:]...)
	return append(buf, payload...)
}

// nextFrame extracts the next length-prefixed payload starting at *cursor,
// advancing the cursor past it. It reports false when a full frame cannot
// be read, which terminates container decoding.
func nextFrame(data []byte, cursor *int) ([]byte, bool) {
	if *cursor+8 > len(data) {
		return nil, false
	}
	size := int(binary.LittleEndian.Uint64(data[*cursor : *cursor+8]))
	if size < 0 || *cursor+8+size > len(data) {
		return nil, false
	}
	payload := data[*cursor+8 : *cursor+8+size]
	*cursor += 8 + size
	return payload, true
}

// formatFloat renders f so that it survives the shared scalar lane: a float
// whose shortest representation has no decimal point or exponent would
// otherwise decode as an integer.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		// Inf/NaN contain letters already; plain integral floats do not.
		s += ".0"
	}
	return s
}
