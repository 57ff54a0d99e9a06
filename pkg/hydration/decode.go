package hydration

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var ErrTrailingData = errors.New("failed to decode json: unexpected data after the top level value")

// Decode reads a single JSON document from r into a raw value tree. Numbers are
// kept as json.Number so that large integers survive. Anything but whitespace
// after the document is an error.
func Decode(r io.Reader) (any, error) {
	var raw any

	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}

	var trailing any
	if err := decoder.Decode(&trailing); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}

	return raw, nil
}

// Unmarshal decodes data into a raw value tree, see Decode
func Unmarshal(data []byte) (any, error) {
	return Decode(bytes.NewReader(data))
}

// FromJSON decodes data and constructs a T from it
func FromJSON[T any](data []byte, construct Constructor[T]) (*T, error) {
	raw, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}

	return construct(raw)
}

// Snapshot marshals v and decodes the result back into a raw value tree
func Snapshot(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return Unmarshal(data)
}
