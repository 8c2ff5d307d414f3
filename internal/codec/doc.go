// Package codec implements the binary value format used for state entries.
//
// The format is a compact, self-framing encoding of a small dynamic value
// model: integers, floats, UTF-8 strings, ordered lists, string-keyed maps,
// and opaque payloads handled by a pluggable fallback codec.
//
// # Wire format
//
// The first byte selects the shape:
//
//	0x01        list:  one (uint64 LE length, payload) frame per element
//	0x02        map:   two frames per entry, key bytes then encoded value
//	anything    scalar: the UTF-8 text of the value, no marker
//
// Container frame counts are implicit: decoding consumes frames until a
// full length+payload pair can no longer be extracted. Scalars share one
// text lane, so decoding attempts an integer parse, then a float parse,
// then falls back to the raw string. A string made of digits is therefore
// not distinguishable from the integer with the same digits; the format
// accepts this ambiguity and the tests document it.
//
// Empty input decodes to the empty string, not an error.
//
// Any two conforming implementations of this format interoperate over the
// same backing store, so changes here are wire-breaking.
package codec
