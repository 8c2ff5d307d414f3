package codec

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	// KindString is the zero Kind so that a zero Value is the empty string,
	// matching the decoder's treatment of empty input.
	KindString Kind = iota
	KindInt
	KindFloat
	KindList
	KindMap
	KindOpaque
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// Value is a closed tagged union over the types the wire format can carry:
// integers, floats, UTF-8 strings, ordered lists, string-keyed maps, and
// opaque values the codec cannot structurally decompose.
//
// Values are immutable by convention: constructors copy nothing, so callers
// must not mutate slices or maps after handing them to List or Map.
type Value struct {
	kind   Kind
	i      int64
	f      float64
	s      string
	list   []Value
	dict   map[string]Value
	opaque any
}

// Int returns an integer Value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a floating point Value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// String returns a string Value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// List returns an ordered list Value.
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// Map returns a string-keyed map Value. Entry order is irrelevant.
func Map(entries map[string]Value) Value { return Value{kind: KindMap, dict: entries} }

// Opaque wraps a value outside the structural model. It is carried through
// the codec's fallback ByteCodec rather than the structural wire format.
func Opaque(v any) Value { return Value{kind: KindOpaque, opaque: v} }

// Kind reports which variant the value holds.
func (v Value) Kind() Kind { return v.kind }

// IntValue returns the integer payload. Valid only for KindInt.
func (v Value) IntValue() int64 { return v.i }

// FloatValue returns the float payload. Valid only for KindFloat.
func (v Value) FloatValue() float64 { return v.f }

// StringValue returns the string payload. Valid only for KindString.
func (v Value) StringValue() string { return v.s }

// ListValue returns the list payload. Valid only for KindList.
// The returned slice must not be mutated.
func (v Value) ListValue() []Value { return v.list }

// MapValue returns the map payload. Valid only for KindMap.
// The returned map must not be mutated.
func (v Value) MapValue() map[string]Value { return v.dict }

// OpaqueValue returns the wrapped payload. Valid only for KindOpaque.
func (v Value) OpaqueValue() any { return v.opaque }

// Equal reports structural equality. Lists compare element-wise in order,
// maps compare entry-wise regardless of order. Opaque payloads compare with
// reflect.DeepEqual, which is best-effort: the wire contract for opaque
// values is round-tripping through the fallback codec, not equality.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.dict) != len(other.dict) {
			return false
		}
		for k, val := range v.dict {
			o, ok := other.dict[k]
			if !ok || !val.Equal(o) {
				return false
			}
		}
		return true
	case KindOpaque:
		return reflect.DeepEqual(v.opaque, other.opaque)
	default:
		return false
	}
}

// String renders the value for logs and test failures. It is not part of
// the wire format.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.dict))
		for k := range v.dict {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ":" + v.dict[k].String()
		}
		return "{" + strings.Join(parts, " ") + "}"
	case KindOpaque:
		return fmt.Sprintf("opaque(%v)", v.opaque)
	default:
		return "invalid"
	}
}
