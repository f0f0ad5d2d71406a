package blockcodec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the algorithm used for column blocks handed to
// the external chunk manager.
type Compression uint8

const (
	// None stores blocks uncompressed.
	None Compression = 0
	// LZ4 uses LZ4 block compression (fast, good for hot columns).
	LZ4 Compression = 1
	// ZSTD uses zstd block compression (better ratio for cold columns).
	ZSTD Compression = 2
)

// String returns the codec name.
func (c Compression) String() string {
	switch c {
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return "none"
	}
}

// ErrCorruptBlock is returned when a block fails structural checks.
var ErrCorruptBlock = errors.New("corrupt column block")

// Block layout: [UncompressedSize uint32][CompressedSize uint32][Data].
// CompressedSize == 0 marks an uncompressed payload; incompressible
// blocks fall back to that to avoid inflation.
const headerSize = 8

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Encode compresses one column block with the given codec and prepends
// the block header.
func Encode(data []byte, codec Compression) ([]byte, error) {
	var compressed []byte
	switch codec {
	case None:
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("blockcodec: lz4 encode: %w", err)
		}
		compressed = buf[:n] // n == 0 means incompressible
	case ZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("blockcodec: unknown codec %d", codec)
	}

	// Store uncompressed when compression does not pay for itself.
	if len(compressed) == 0 || len(compressed) >= len(data) {
		out := make([]byte, headerSize+len(data))
		binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
		binary.LittleEndian.PutUint32(out[4:], 0)
		copy(out[headerSize:], data)
		return out, nil
	}

	out := make([]byte, headerSize+len(compressed))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(compressed)))
	copy(out[headerSize:], compressed)
	return out, nil
}

// Decode reverses Encode, returning the raw column block.
func Decode(block []byte, codec Compression) ([]byte, error) {
	if len(block) < headerSize {
		return nil, fmt.Errorf("%w: short header", ErrCorruptBlock)
	}
	rawSize := binary.LittleEndian.Uint32(block[0:])
	compSize := binary.LittleEndian.Uint32(block[4:])

	if compSize == 0 {
		if uint32(len(block)-headerSize) < rawSize {
			return nil, fmt.Errorf("%w: truncated payload", ErrCorruptBlock)
		}
		return block[headerSize : headerSize+rawSize], nil
	}

	if uint32(len(block)-headerSize) < compSize {
		return nil, fmt.Errorf("%w: truncated compressed payload", ErrCorruptBlock)
	}
	payload := block[headerSize : headerSize+compSize]

	switch codec {
	case LZ4:
		out := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("blockcodec: lz4 decode: %w", err)
		}
		if uint32(n) != rawSize {
			return nil, fmt.Errorf("%w: size mismatch", ErrCorruptBlock)
		}
		return out, nil
	case ZSTD:
		dec := getZstdDecoder()
		out, err := dec.DecodeAll(payload, make([]byte, 0, rawSize))
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("blockcodec: zstd decode: %w", err)
		}
		if uint32(len(out)) != rawSize {
			return nil, fmt.Errorf("%w: size mismatch", ErrCorruptBlock)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: compressed payload with codec none", ErrCorruptBlock)
	}
}
