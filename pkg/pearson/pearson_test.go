package pearson

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEmpty(t *testing.T) {
	assert.Equal(t, uint8(0), Hash([]byte{}))
	assert.Equal(t, uint8(0), Hash(nil))

	tbl := DefaultTable()
	h, err := ByteHash(nil, tbl[:])
	require.NoError(t, err)
	assert.Equal(t, uint8(0), h)
}

func TestHashConsistency(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")
	assert.Equal(t, Hash(data), Hash(data))

	h1, err := Hash64(data)
	require.NoError(t, err)
	h2, err := Hash64(data)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestHashSingleByte(t *testing.T) {
	tbl := DefaultTable()
	for b := 0; b < TableSize; b++ {
		assert.Equal(t, tbl[b], Hash([]byte{byte(b)}), "byte %d", b)
	}
}

func TestHashKnownValues(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  uint8
	}{
		{"zero", []byte{0x00}, 98},
		{"letter a", []byte("a"), 96},
		{"abc", []byte("abc"), 172},
		{"sentence", []byte("Pearson hashing in Go!"), 96},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Hash(tt.input))
		})
	}
}

func TestByteHashCustomTable(t *testing.T) {
	// The identity table turns the hash into an XOR of all bytes.
	identity := make([]byte, TableSize)
	for i := range identity {
		identity[i] = byte(i)
	}
	h, err := ByteHash([]byte{0x0f, 0xf0, 0x01}, identity)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x0f^0xf0^0x01), h)

	tbl, err := NewTable(identity)
	require.NoError(t, err)
	assert.Equal(t, h, tbl.Hash([]byte{0x0f, 0xf0, 0x01}))
}

func TestByteHashTableSize(t *testing.T) {
	for _, n := range []int{0, 1, 255, 257} {
		_, err := ByteHash([]byte("x"), make([]byte, n))
		require.Error(t, err, "table of %d entries", n)
		assert.True(t, errors.Is(err, ErrTableSize))
		assert.True(t, errors.Is(err, ErrInvalidArgument))

		_, err = NewTable(make([]byte, n))
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestByteHashDoesNotModifyInputs(t *testing.T) {
	msg := []byte("read only")
	orig := bytes.Clone(msg)
	tbl := DefaultTable()
	lut := tbl[:]

	_, err := ByteHash(msg, lut)
	require.NoError(t, err)
	assert.Equal(t, orig, msg)
	assert.Equal(t, DefaultTable(), tbl)
}

func TestHash64KnownValues(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  uint64
	}{
		// Lanes are table[0..7] = 98, 6, 85, 150, 36, 23, 112, 164.
		{"zero", []byte{0x00}, 0xa470172496550662},
		{"letter a", []byte("a"), 0x33caf8e3102dd260},
		{"abc", []byte("abc"), 0xf7508c7b0ed515ac},
		{"wraps at 255", []byte{0xff}, 0x70172496550662ef},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Hash64(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, h, "got %#x", h)
		})
	}
}

func TestHash64Empty(t *testing.T) {
	_, err := Hash64(nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Hash64([]byte{})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestHash64Lanes(t *testing.T) {
	tbl := DefaultTable()
	inputs := [][]byte{
		{0x00},
		[]byte("sensor-42"),
		{0xfa, 0x10},
		{0xff, 0x01, 0x02},
	}
	for _, msg := range inputs {
		h, err := Hash64(msg)
		require.NoError(t, err)

		for lane := 0; lane < 8; lane++ {
			perturbed := bytes.Clone(msg)
			perturbed[0] += byte(lane)
			want, err := ByteHash(perturbed, tbl[:])
			require.NoError(t, err)
			assert.Equal(t, want, uint8(h>>(lane*8)), "message %v lane %d", msg, lane)
		}
	}
}

func TestHash64DoesNotModifyMessage(t *testing.T) {
	msg := []byte{0xfe, 'x', 'y'}
	orig := bytes.Clone(msg)

	_, err := Hash64(msg)
	require.NoError(t, err)
	assert.Equal(t, orig, msg)
}

func TestHash64ConcurrentSharedBuffer(t *testing.T) {
	msg := []byte("shared buffer")
	want, err := Hash64(msg)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]uint64, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				h, err := Hash64(msg)
				if err != nil {
					return
				}
				results[i] = h
			}
		}(i)
	}
	wg.Wait()

	for i, h := range results {
		assert.Equal(t, want, h, "goroutine %d", i)
	}
}

func TestTableHash64MatchesDefault(t *testing.T) {
	tbl := DefaultTable()
	msg := []byte("same table, same answer")

	a, err := tbl.Hash64(msg)
	require.NoError(t, err)
	b, err := Hash64(msg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func BenchmarkHash(b *testing.B) {
	data := bytes.Repeat([]byte("pearson"), 64)
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		Hash(data)
	}
}

func BenchmarkHash64(b *testing.B) {
	data := bytes.Repeat([]byte("pearson"), 64)
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		_, _ = Hash64(data)
	}
}
