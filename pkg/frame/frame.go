// Package frame wraps payloads in a small header carrying a 64-bit Pearson
// checksum, for detecting corruption of records stored or sent by
// constrained devices. The checksum is an integrity check only; it offers no
// protection against deliberate tampering.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"pearson-go/pkg/pearson"
)

const (
	// Version is the only header version understood by Open.
	Version uint8 = 1
	// HeaderSize is Version(1) + Flags(1) + Length(4) + Checksum(8).
	HeaderSize = 1 + 1 + 4 + 8
	// MaxPayload bounds the Length field accepted by ReadFrom.
	MaxPayload = 16 << 20

	checksumOffset = 6
)

var (
	ErrShortFrame = errors.New("frame: insufficient data for header")
	ErrVersion    = errors.New("frame: unsupported version")
	ErrLength     = errors.New("frame: length does not match payload")
	ErrChecksum   = errors.New("frame: checksum verification failed")
)

// Header is the decoded frame header.
type Header struct {
	Version  uint8
	Flags    uint8
	Length   uint32
	Checksum uint64
}

// Seal returns header+payload. The checksum covers the header, with the
// checksum field zeroed, followed by the payload. Callers must keep payload
// within MaxPayload: ReadFrom rejects anything larger, and the Length field
// cannot represent payloads of 4 GiB or more.
func Seal(payload []byte, flags uint8) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	buf[0] = Version
	buf[1] = flags
	binary.BigEndian.PutUint32(buf[2:6], uint32(len(payload)))
	copy(buf[HeaderSize:], payload)

	binary.BigEndian.PutUint64(buf[checksumOffset:HeaderSize], checksum(buf))
	return buf
}

// Open verifies data and returns its header and payload. The payload aliases
// data.
func Open(data []byte) (Header, []byte, error) {
	var h Header
	if len(data) < HeaderSize {
		return h, nil, ErrShortFrame
	}
	h.Version = data[0]
	h.Flags = data[1]
	h.Length = binary.BigEndian.Uint32(data[2:6])
	h.Checksum = binary.BigEndian.Uint64(data[checksumOffset:HeaderSize])

	if h.Version != Version {
		return h, nil, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	payload := data[HeaderSize:]
	if uint64(len(payload)) != uint64(h.Length) {
		return h, nil, fmt.Errorf("%w: header says %d, got %d", ErrLength, h.Length, len(payload))
	}

	// Recompute over a copy with the checksum field zeroed; data stays
	// untouched so concurrent readers of the same buffer are safe.
	scratch := make([]byte, len(data))
	copy(scratch, data)
	clear(scratch[checksumOffset:HeaderSize])
	if computed := checksum(scratch); computed != h.Checksum {
		return h, nil, fmt.Errorf("%w: stored %#016x, computed %#016x", ErrChecksum, h.Checksum, computed)
	}
	return h, payload, nil
}

// WriteTo writes one sealed frame to w. Payloads over MaxPayload fail with
// ErrLength and nothing is written.
func WriteTo(w io.Writer, payload []byte, flags uint8) error {
	if len(payload) > MaxPayload {
		return fmt.Errorf("%w: %d exceeds %d", ErrLength, len(payload), MaxPayload)
	}
	_, err := w.Write(Seal(payload, flags))
	return err
}

// ReadFrom reads and verifies one frame from r. It returns io.EOF when r is
// exhausted before the first header byte.
func ReadFrom(r io.Reader) (Header, []byte, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, nil, ErrShortFrame
		}
		return Header{}, nil, err
	}
	n := binary.BigEndian.Uint32(hdr[2:6])
	if n > MaxPayload {
		return Header{}, nil, fmt.Errorf("%w: %d exceeds %d", ErrLength, n, MaxPayload)
	}

	buf := make([]byte, HeaderSize+int(n))
	copy(buf, hdr[:])
	if _, err := io.ReadFull(r, buf[HeaderSize:]); err != nil {
		return Header{}, nil, fmt.Errorf("%w: %v", ErrLength, err)
	}
	return Open(buf)
}

func checksum(frame []byte) uint64 {
	// frame always holds at least a header, so Hash64 cannot fail.
	h, _ := pearson.Hash64(frame)
	return h
}
