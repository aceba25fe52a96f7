package connectjson

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bufbuild/connect-go"
)

// Name is the codec name negotiated on the wire (application/connect+json).
const Name = "json"

// Codec encodes/decodes plain Go structs as JSON for Connect handlers and clients.
type Codec struct{}

func (Codec) Name() string {
	return Name
}

func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal leaves v untouched for an empty payload.
func (Codec) Unmarshal(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("connectjson: %w", err)
	}
	return nil
}

var _ connect.Codec = (*Codec)(nil)
