package server

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec carries the plain Go request and response structs as JSON.
// It replaces connect's protobuf JSON codec under the same name.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(message any) ([]byte, error) {
	return json.Marshal(message)
}

func (jsonCodec) Unmarshal(data []byte, message any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, message)
}
