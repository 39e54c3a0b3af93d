package llm

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// codecName is requested by clients via grpc.CallContentSubtype, and the
// server picks this registered codec by that content subtype, so that both
// the "llm serve" server and its CLI clients exchange plain JSON frames instead of a protoc-generated wire
// format. There is no .proto file for this service: the messages below are
// hand-written structs, encoded the way cri/runtime.go's generated stubs
// would normally be encoded for it, minus the codegen step.
const codecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("llm: decoding %T: %w", v, err)
	}
	return nil
}

func (jsonCodec) Name() string {
	return codecName
}
