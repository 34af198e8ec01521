package draft

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// jsonCodec lets connect carry plain Go structs. It replaces the protojson
// codec registered under the same name.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}

// protoCodec carries the same messages on the binary protobuf wire as a
// google.protobuf.Struct, so clients on connect's default proto encoding
// can call the service. It replaces the codec registered as "proto".
type protoCodec struct{}

func (protoCodec) Name() string { return "proto" }

func (protoCodec) Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("encode %T: not an object: %w", v, err)
	}
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return proto.Marshal(msg)
}

func (protoCodec) Unmarshal(data []byte, v any) error {
	var msg structpb.Struct
	if err := proto.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	raw, err := json.Marshal(msg.AsMap())
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}

// WithProtobufWire makes a ServiceClient send binary protobuf instead of JSON.
func WithProtobufWire() connect.ClientOption {
	return connect.WithCodec(protoCodec{})
}
