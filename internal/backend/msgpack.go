package backend

import (
	"errors"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/tallo-speech/tallo-go/internal/schema"
)

// EncodeMsgpack encodes a value to MessagePack format.
func EncodeMsgpack(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

// DecodeMsgpack decodes MessagePack data into the provided value.
func DecodeMsgpack(data []byte, v interface{}) error {
	return msgpack.Unmarshal(data, v)
}

// EncodeSynthesisRequest encodes a chunk synthesis request for the worker.
func EncodeSynthesisRequest(req *schema.ServeSynthesisRequest) ([]byte, error) {
	if req == nil {
		return nil, errors.New("request is nil")
	}

	if req.Text == "" {
		return nil, errors.New("text is empty")
	}

	if len(req.SpeakerEmbedding) == 0 {
		return nil, errors.New("speaker embedding is empty")
	}

	return EncodeMsgpack(req)
}
