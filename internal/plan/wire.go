package plan

import (
	"encoding/json"
	"fmt"

	"github.com/golang/snappy"
)

// EncodeWire marshals p to JSON and snappy-compresses the result into
// a compact plan frame. The peer package does not use it: a sub-query
// ships its plan as plain JSON inside the request envelope. Individual
// PT frames are not compressed this way either — they are
// small and frequent, and the marshal/compress overhead would
// outweigh the savings.
func EncodeWire(p *Plan) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("plan: marshal: %w", err)
	}
	return snappy.Encode(nil, data), nil
}

// DecodeWire reverses EncodeWire.
func DecodeWire(frame []byte) (*Plan, error) {
	data, err := snappy.Decode(nil, frame)
	if err != nil {
		return nil, fmt.Errorf("plan: snappy decode: %w", err)
	}
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("plan: unmarshal: %w", err)
	}
	return &p, nil
}
