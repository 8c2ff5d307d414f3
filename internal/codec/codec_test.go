package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// TestScalarRoundTrip verifies that scalar values survive encode/decode.
func TestScalarRoundTrip(t *testing.T) {
	c := New(nil)

	cases := []struct {
		name string
		in   Value
		want Value
	}{
		{"int", Int(42), Int(42)},
		{"negative int", Int(-7), Int(-7)},
		{"zero", Int(0), Int(0)},
		{"large int", Int(math.MaxInt64), Int(math.MaxInt64)},
		{"float", Float(3.25), Float(3.25)},
		{"negative float", Float(-0.5), Float(-0.5)},
		{"integral float stays float", Float(42), Float(42)},
		{"string", String("hello"), String("hello")},
		{"empty string", String(""), String("")},
		{"unicode string", String("héllo wörld"), String("héllo wörld")},
		// The documented ambiguity: a digit string decodes as an integer.
		{"digit string becomes int", String("123"), Int(123)},
		{"float string becomes float", String("1.5"), Float(1.5)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := c.Encode(tc.in)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			got, err := c.Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("round trip: got %s, want %s", got, tc.want)
			}
		})
	}
}

// TestContainerRoundTrip verifies lists and maps, including nesting.
func TestContainerRoundTrip(t *testing.T) {
	c := New(nil)

	cases := []struct {
		name string
		in   Value
	}{
		{"empty list", List()},
		{"flat list", List(Int(1), Int(2), String("c"))},
		{"nested list", List(Int(1), List(Int(2), Int(3)), String("x"))},
		{"empty map", Map(map[string]Value{})},
		{"flat map", Map(map[string]Value{"a": Int(1), "b": Float(2.5)})},
		{"nested map", Map(map[string]Value{
			"list": List(Int(1), Int(2)),
			"map":  Map(map[string]Value{"inner": String("v")}),
		})},
		{"list of maps", List(
			Map(map[string]Value{"k": Int(1)}),
			Map(map[string]Value{"k": Int(2)}),
		)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := c.Encode(tc.in)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			got, err := c.Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !got.Equal(tc.in) {
				t.Errorf("round trip: got %s, want %s", got, tc.in)
			}
		})
	}
}

// TestEmptyInput verifies the empty-bytes convention: decode yields the
// empty string rather than an error.
func TestEmptyInput(t *testing.T) {
	c := New(nil)

	got, err := c.Decode(nil)
	if err != nil {
		t.Fatalf("Decode(nil) failed: %v", err)
	}
	if !got.Equal(String("")) {
		t.Errorf("Decode(nil) = %s, want empty string", got)
	}
}

// TestScalarWireFormat pins the text encoding of scalars.
func TestScalarWireFormat(t *testing.T) {
	c := New(nil)

	cases := []struct {
		in   Value
		want string
	}{
		{Int(42), "42"},
		{Int(-1), "-1"},
		{Float(1.5), "1.5"},
		{Float(2), "2.0"},
		{String("abc"), "abc"},
	}

	for _, tc := range cases {
		data, err := c.Encode(tc.in)
		if err != nil {
			t.Fatalf("Encode(%s) failed: %v", tc.in, err)
		}
		if string(data) != tc.want {
			t.Errorf("Encode(%s) = %q, want %q", tc.in, data, tc.want)
		}
	}
}

// TestContainerWireFormat pins the marker byte and frame layout for a
// single-element list.
func TestContainerWireFormat(t *testing.T) {
	c := New(nil)

	data, err := c.Encode(List(Int(7)))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	want := []byte{0x01}
	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], 1)
	want = append(want, size[:]...)
	want = append(want, '7')

	if !bytes.Equal(data, want) {
		t.Errorf("wire bytes = %v, want %v", data, want)
	}
}

// TestTruncatedContainer verifies that decoding stops cleanly when the
// stream cannot yield another full frame.
func TestTruncatedContainer(t *testing.T) {
	c := New(nil)

	data, err := c.Encode(List(Int(1), Int(2)))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Chop the final frame's payload: only the first element survives.
	got, err := c.Decode(data[:len(data)-1])
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !got.Equal(List(Int(1))) {
		t.Errorf("truncated decode = %s, want [1]", got)
	}

	// A bare marker is an empty container.
	got, err = c.Decode([]byte{0x02})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !got.Equal(Map(map[string]Value{})) {
		t.Errorf("bare map marker = %s, want empty map", got)
	}
}

// TestOpaqueFallback verifies delegation to the fallback ByteCodec in both
// directions using the RawBytes identity codec.
func TestOpaqueFallback(t *testing.T) {
	c := New(RawBytes{})

	// Invalid UTF-8 so the decoder cannot mistake it for a text scalar.
	payload := []byte{0xff, 0xfe, 0x00, 0x01}

	data, err := c.Encode(Opaque(payload))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("fallback encode altered payload: %v", data)
	}

	got, err := c.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Kind() != KindOpaque {
		t.Fatalf("decoded kind = %s, want opaque", got.Kind())
	}
	if !bytes.Equal(got.OpaqueValue().([]byte), payload) {
		t.Errorf("fallback round trip altered payload")
	}
}

// TestNoFallbackConfigured verifies the error path when opaque data shows
// up and no fallback codec exists.
func TestNoFallbackConfigured(t *testing.T) {
	c := New(nil)

	if _, err := c.Encode(Opaque(struct{}{})); !errors.Is(err, ErrNoFallback) {
		t.Errorf("Encode opaque without fallback: got %v, want ErrNoFallback", err)
	}
	if _, err := c.Decode([]byte{0xff, 0xfe}); !errors.Is(err, ErrNoFallback) {
		t.Errorf("Decode non-UTF8 without fallback: got %v, want ErrNoFallback", err)
	}
}

// TestFallbackFailure verifies that fallback errors propagate wrapped.
func TestFallbackFailure(t *testing.T) {
	c := New(RawBytes{})

	if _, err := c.Encode(Opaque(42)); err == nil {
		t.Error("expected error encoding non-bytes opaque through RawBytes")
	}
}

// TestValueEqual covers the equality rules the round-trip tests rely on.
func TestValueEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"same int", Int(1), Int(1), true},
		{"int vs string", Int(1), String("1"), false},
		{"list order matters", List(Int(1), Int(2)), List(Int(2), Int(1)), false},
		{"map order irrelevant",
			Map(map[string]Value{"a": Int(1), "b": Int(2)}),
			Map(map[string]Value{"b": Int(2), "a": Int(1)}),
			true},
		{"map missing key",
			Map(map[string]Value{"a": Int(1)}),
			Map(map[string]Value{"b": Int(1)}),
			false},
		{"opaque deep equal", Opaque([]byte{1}), Opaque([]byte{1}), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Equal(tc.b); got != tc.want {
				t.Errorf("Equal(%s, %s) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}
