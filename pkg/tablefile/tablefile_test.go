package tablefile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pearson-go/pkg/pearson"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reversed() pearson.Table {
	var t pearson.Table
	for i := range t {
		t[i] = byte(255 - i)
	}
	return t
}

func TestLoadRaw(t *testing.T) {
	want := reversed()
	got, err := Load(bytes.NewReader(want[:]))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadCInitializer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Format(&buf, pearson.DefaultTable()))

	src := "{\n" + buf.String() + "};\n"

	got, err := Load(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, pearson.DefaultTable(), got)
}

func TestLoadHexValues(t *testing.T) {
	want := reversed()
	var sb strings.Builder
	for _, v := range want {
		fmt.Fprintf(&sb, "0x%02X ", v)
	}
	got, err := Load(strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(strings.NewReader("1, 2, 3"))
	assert.True(t, errors.Is(err, pearson.ErrTableSize))

	_, err = Load(strings.NewReader("1, 2, 300"))
	assert.True(t, errors.Is(err, ErrFormat))

	_, err = Load(strings.NewReader("1, two, 3"))
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestLoadSizeLimit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Format(&buf, pearson.DefaultTable()))
	pad := strings.Repeat(" ", MaxFileSize-buf.Len())

	got, err := Load(strings.NewReader(buf.String() + pad))
	require.NoError(t, err)
	assert.Equal(t, pearson.DefaultTable(), got)

	_, err = Load(strings.NewReader(buf.String() + pad + " "))
	assert.True(t, errors.Is(err, ErrFormat))
	assert.Contains(t, err.Error(), "too large")
}

func TestLoadFile(t *testing.T) {
	want := reversed()
	path := filepath.Join(t.TempDir(), "table.bin")
	require.NoError(t, os.WriteFile(path, want[:], 0o644))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestFormatLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Format(&buf, pearson.DefaultTable()))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 16)
	assert.True(t, strings.HasPrefix(lines[0], "\t98, 6, 85, 150,"))
	assert.True(t, strings.HasSuffix(lines[15], "138, 239,"))
}
