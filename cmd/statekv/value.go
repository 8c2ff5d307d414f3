package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dreamware/statekv/internal/codec"
)

// parseValue turns a command line argument into a codec.Value. Arguments
// that parse as JSON become the corresponding structured value; anything
// else is taken as a plain string, so `statekv set k hello` works without
// quoting gymnastics.
func parseValue(arg string) (codec.Value, error) {
	dec := json.NewDecoder(strings.NewReader(arg))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil || dec.More() {
		return codec.String(arg), nil
	}
	return fromJSON(raw)
}

func fromJSON(raw any) (codec.Value, error) {
	switch v := raw.(type) {
	case nil:
		return codec.String(""), nil
	case bool:
		// The wire format has no boolean lane; carry it as text.
		if v {
			return codec.String("true"), nil
		}
		return codec.String("false"), nil
	case string:
		return codec.String(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return codec.Int(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return codec.Value{}, fmt.Errorf("unrepresentable number %q", v)
		}
		return codec.Float(f), nil
	case []any:
		items := make([]codec.Value, len(v))
		for i, item := range v {
			cv, err := fromJSON(item)
			if err != nil {
				return codec.Value{}, err
			}
			items[i] = cv
		}
		return codec.List(items...), nil
	case map[string]any:
		entries := make(map[string]codec.Value, len(v))
		for k, item := range v {
			cv, err := fromJSON(item)
			if err != nil {
				return codec.Value{}, err
			}
			entries[k] = cv
		}
		return codec.Map(entries), nil
	default:
		return codec.Value{}, fmt.Errorf("unsupported JSON value %T", raw)
	}
}

// renderValue prints a codec.Value as JSON for the terminal. Opaque values
// cannot be rendered structurally and come out as a quoted description.
func renderValue(v codec.Value) (string, error) {
	var buf bytes.Buffer
	if err := writeJSONValue(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeJSONValue(buf *bytes.Buffer, v codec.Value) error {
	switch v.Kind() {
	case codec.KindInt, codec.KindFloat:
		buf.WriteString(v.String())
		return nil
	case codec.KindString:
		return encodeJSONTo(buf, v.StringValue())
	case codec.KindList:
		buf.WriteByte('[')
		for i, item := range v.ListValue() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case codec.KindMap:
		entries := v.MapValue()
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeJSONTo(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSONValue(buf, entries[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case codec.KindOpaque:
		return encodeJSONTo(buf, fmt.Sprintf("%v", v.OpaqueValue()))
	default:
		return fmt.Errorf("cannot render value of kind %s", v.Kind())
	}
}

func encodeJSONTo(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
