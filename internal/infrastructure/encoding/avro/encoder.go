package avro

import (
	"fmt"
	"io"
	"sync"

	"github.com/linkedin/goavro/v2"

	"github.com/BryServices/auradhom-v2/internal/domain/order"
)

// Encoder wraps goavro codec for thread-safe encoding
type Encoder struct {
	codec *goavro.Codec
	mu    sync.Mutex
}

// NewEncoder creates a new encoder from an Avro schema string
func NewEncoder(schema string) (*Encoder, error) {
	codec, err := goavro.NewCodec(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to create avro codec: %w", err)
	}
	return &Encoder{
		codec: codec,
	}, nil
}

func NewOrderEncoder() (*Encoder, error) {
	return NewEncoder(OrderSchema)
}

// EncodeNative converts a Go native map to Avro binary format
func (e *Encoder) EncodeNative(native interface{}) ([]byte, error) {
	binary, err := e.codec.BinaryFromNative(nil, native)
	if err != nil {
		return nil, fmt.Errorf("failed to encode to avro binary: %w", err)
	}
	return binary, nil
}

func (e *Encoder) EncodeOrder(o *order.Order) ([]byte, error) {
	return e.EncodeNative(ToOrderNative(o))
}

// WriteContainer writes orders as an Avro object container file to w.
func (e *Encoder) WriteContainer(w io.Writer, orders []*order.Order) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ocf, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               w,
		Codec:           e.codec,
		CompressionName: goavro.CompressionDeflateLabel,
	})
	if err != nil {
		return fmt.Errorf("failed to create avro container writer: %w", err)
	}

	batch := make([]interface{}, 0, len(orders))
	for _, o := range orders {
		batch = append(batch, ToOrderNative(o))
	}
	if len(batch) == 0 {
		return nil
	}
	if err := ocf.Append(batch); err != nil {
		return fmt.Errorf("failed to append avro records: %w", err)
	}
	return nil
}
