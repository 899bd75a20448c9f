package phpserial

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var (
	_ json.Marshaler = Null{}
	_ json.Marshaler = (*Array)(nil)
)

// MarshalJSON encodes Null as the json null literal.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// MarshalJSON encodes a list array as a json array and any other array as a
// json object that keeps the order of the entries. Integer keys are written
// as decimal strings. An array holding both IntKey(n) and the StrKey of the
// same decimal text can not be represented and fails with ErrKeyCollision.
func (a *Array) MarshalJSON() ([]byte, error) {
	if a.IsList() {
		return marshalList(a)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')

	seen := make(map[string]struct{}, a.Len())

	var idx int
	for key, value := range a.All() {
		name := key.String()
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("json object key %q: %w", name, ErrKeyCollision)
		}

		seen[name] = struct{}{}

		if idx > 0 {
			buf.WriteByte(',')
		}

		encodedKey, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}

		encodedValue, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}

		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(encodedValue)

		idx++
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func marshalList(a *Array) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for idx, value := range a.Values() {
		if idx > 0 {
			buf.WriteByte(',')
		}

		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}

		buf.Write(encoded)
	}

	buf.WriteByte(']')

	return buf.Bytes(), nil
}
