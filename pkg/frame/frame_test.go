package frame

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	payload := []byte("sensor=7;temp=21.5")
	data := Seal(payload, 0x02)
	require.Len(t, data, HeaderSize+len(payload))

	h, got, err := Open(data)
	require.NoError(t, err)
	assert.Equal(t, Version, h.Version)
	assert.Equal(t, uint8(0x02), h.Flags)
	assert.Equal(t, uint32(len(payload)), h.Length)
	assert.NotZero(t, h.Checksum)
	assert.Equal(t, payload, got)
}

func TestOpenEmptyPayload(t *testing.T) {
	h, got, err := Open(Seal(nil, 0))
	require.NoError(t, err)
	assert.Zero(t, h.Length)
	assert.Empty(t, got)
}

func TestOpenDetectsCorruption(t *testing.T) {
	data := Seal([]byte("payload bytes"), 0)

	for _, idx := range []int{1, HeaderSize, len(data) - 1} {
		corrupt := bytes.Clone(data)
		corrupt[idx] ^= 0x40
		_, _, err := Open(corrupt)
		assert.True(t, errors.Is(err, ErrChecksum), "flipped byte %d: %v", idx, err)
	}
}

func TestOpenLeavesInputIntact(t *testing.T) {
	data := Seal([]byte("keep me"), 0)
	orig := bytes.Clone(data)
	_, _, err := Open(data)
	require.NoError(t, err)
	assert.Equal(t, orig, data)
}

func TestOpenErrors(t *testing.T) {
	_, _, err := Open(make([]byte, HeaderSize-1))
	assert.ErrorIs(t, err, ErrShortFrame)

	data := Seal([]byte("abc"), 0)
	bad := bytes.Clone(data)
	bad[0] = 9
	_, _, err = Open(bad)
	assert.ErrorIs(t, err, ErrVersion)

	_, _, err = Open(data[:len(data)-1])
	assert.ErrorIs(t, err, ErrLength)
}

func TestStream(t *testing.T) {
	var buf bytes.Buffer
	records := [][]byte{[]byte("one"), {}, []byte("three")}
	for i, r := range records {
		require.NoError(t, WriteTo(&buf, r, uint8(i)))
	}

	for i, want := range records {
		h, got, err := ReadFrom(&buf)
		require.NoError(t, err)
		assert.Equal(t, uint8(i), h.Flags)
		assert.Equal(t, want, got)
	}
	_, _, err := ReadFrom(&buf)
	assert.ErrorIs(t, err, io.EOF)

	_, _, err = ReadFrom(bytes.NewReader([]byte{Version, 0, 0}))
	assert.ErrorIs(t, err, ErrShortFrame)

	truncated := Seal([]byte("truncated"), 0)
	_, _, err = ReadFrom(bytes.NewReader(truncated[:len(truncated)-2]))
	assert.ErrorIs(t, err, ErrLength)
}

func TestWriteToRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTo(&buf, make([]byte, MaxPayload+1), 0)
	assert.True(t, errors.Is(err, ErrLength))
	assert.Zero(t, buf.Len())

	require.NoError(t, WriteTo(&buf, make([]byte, MaxPayload), 0))
	_, payload, err := ReadFrom(&buf)
	require.NoError(t, err)
	assert.Len(t, payload, MaxPayload)
}
