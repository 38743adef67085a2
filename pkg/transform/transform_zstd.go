package transform

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstdTransform uses the stateless EncodeAll/DecodeAll entry points, which
// are safe for concurrent use on a shared encoder and decoder.
type zstdTransform struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

var (
	zstdOnce   sync.Once
	zstdShared *zstdTransform
	zstdErr    error
)

// NewZstdTransform returns the process-wide Zstandard transform.
func NewZstdTransform() (Transform, error) {
	zstdOnce.Do(func() {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			zstdErr = fmt.Errorf("zstd: failed to initialize encoder: %w", err)
			return
		}
		dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxDecodedSize))
		if err != nil {
			zstdErr = fmt.Errorf("zstd: failed to initialize decoder: %w", err)
			return
		}
		zstdShared = &zstdTransform{encoder: enc, decoder: dec}
	})
	if zstdErr != nil {
		return nil, zstdErr
	}
	return zstdShared, nil
}

// Apply compresses data.
func (s *zstdTransform) Apply(data []byte) ([]byte, error) {
	return s.encoder.EncodeAll(data, nil), nil
}

// Reverse decompresses data.
func (s *zstdTransform) Reverse(data []byte) ([]byte, error) {
	out, err := s.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd reverse (decompress): %w", err)
	}
	return out, nil
}
