package commsutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const codecLogPrefix = "commsutil:codec"

// ErrEmptyPayload is returned when decoding a message without a body.
var ErrEmptyPayload = errors.New("empty payload")

// EncodePayload serializes a value to JSON bytes. HTML characters are left
// unescaped so report payloads reach consumers byte for byte.
func EncodePayload(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("%s - encode: %w", codecLogPrefix, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DecodePayload deserializes JSON bytes into the given target. Unknown fields
// are rejected and trailing data after the first value is an error.
func DecodePayload(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%s - %w", codecLogPrefix, ErrEmptyPayload)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%s - decode: %w", codecLogPrefix, err)
	}
	if dec.More() {
		return fmt.Errorf("%s - decode: trailing data after payload", codecLogPrefix)
	}
	return nil
}
