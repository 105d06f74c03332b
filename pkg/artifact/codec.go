package artifact

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// magic prefixes every encoded bundle.
var magic = [4]byte{'E', 'R', 'A', 'B'}

const headerLen = len(magic) + 2

var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

func initCodec() error {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if codecErr != nil {
			return
		}
		//When a value of 0 is provided in DecoderConcurrency, GOMAXPROCS will be used
		decoder, codecErr = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(0),
			zstd.WithDecoderLowmem(false))
	})
	return codecErr
}

// Encode serializes b as magic, big-endian format version, then the zstd
// compressed gob of the bundle.
func Encode(b *Bundle) ([]byte, error) {
	if err := initCodec(); err != nil {
		return nil, err
	}
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(b); err != nil {
		return nil, fmt.Errorf("artifact: gob encode: %w", err)
	}
	out := make([]byte, headerLen, headerLen+payload.Len()/2)
	copy(out, magic[:])
	binary.BigEndian.PutUint16(out[len(magic):], b.Version)
	return encoder.EncodeAll(payload.Bytes(), out), nil
}

// Decode is the inverse of Encode. A blob written by another format version
// fails with ErrIncompatibleVersion before the payload is touched.
func Decode(blob []byte) (*Bundle, error) {
	if err := initCodec(); err != nil {
		return nil, err
	}
	if len(blob) < headerLen || !bytes.Equal(blob[:len(magic)], magic[:]) {
		return nil, fmt.Errorf("%w: bad header", ErrCorrupt)
	}
	if v := binary.BigEndian.Uint16(blob[len(magic):]); v != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrIncompatibleVersion, v, FormatVersion)
	}
	raw, err := decoder.DecodeAll(blob[headerLen:], make([]byte, 0, len(blob)*3))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	var b Bundle
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if b.Version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrIncompatibleVersion, b.Version, FormatVersion)
	}
	return &b, nil
}
