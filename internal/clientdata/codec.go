package clientdata

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec names the encoding a cache payload is stored in.
type Codec string

// Supported codecs.
const (
	CodecJSON    Codec = "json"
	CodecMsgpack Codec = "msgpack"
)

// ParseCodec returns the codec for name; empty selects JSON.
func ParseCodec(name string) (Codec, error) {
	switch Codec(name) {
	case "", CodecJSON:
		return CodecJSON, nil
	case CodecMsgpack:
		return CodecMsgpack, nil
	default:
		return "", fmt.Errorf("unknown cache codec %q", name)
	}
}

func (c Codec) encode(v interface{}) ([]byte, error) {
	switch c {
	case CodecJSON:
		return json.Marshal(v)
	case CodecMsgpack:
		return msgpack.Marshal(v)
	default:
		return nil, fmt.Errorf("unknown cache codec %q", string(c))
	}
}

func (c Codec) decode(data []byte, dest interface{}) error {
	switch c {
	case CodecJSON:
		return json.Unmarshal(data, dest)
	case CodecMsgpack:
		return msgpack.Unmarshal(data, dest)
	default:
		return fmt.Errorf("unknown cache codec %q", string(c))
	}
}
