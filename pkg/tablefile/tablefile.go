// Package tablefile reads and writes substitution tables. Two encodings are
// accepted: exactly 256 raw bytes, or a text list of 256 numbers (decimal or
// 0x-prefixed hex) separated by whitespace, commas or braces, which matches a
// C array initializer.
package tablefile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"pearson-go/pkg/pearson"
)

var ErrFormat = errors.New("tablefile: malformed table")

// MaxFileSize bounds the input accepted by Load.
const MaxFileSize = 64 << 10

// Load decodes a table from r.
func Load(r io.Reader) (pearson.Table, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return pearson.Table{}, fmt.Errorf("tablefile: read: %w", err)
	}
	if len(data) > MaxFileSize {
		return pearson.Table{}, fmt.Errorf("%w: table file too large (over %d bytes)", ErrFormat, MaxFileSize)
	}
	if len(data) == pearson.TableSize && !isText(data) {
		return pearson.NewTable(data)
	}
	return parseText(data)
}

// LoadFile decodes the table stored at path.
func LoadFile(path string) (pearson.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return pearson.Table{}, err
	}
	defer f.Close()
	return Load(f)
}

// Format writes t as a text list, sixteen values per line.
func Format(w io.Writer, t pearson.Table) error {
	bw := bufio.NewWriter(w)
	for i, v := range t {
		sep := ", "
		switch {
		case i%16 == 15:
			sep = ",\n"
		case i%16 == 0:
			bw.WriteString("\t")
		}
		fmt.Fprintf(bw, "%d%s", v, sep)
	}
	return bw.Flush()
}

func isText(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 || (b < 0x20 && b != '\n' && b != '\r' && b != '\t') {
			return false
		}
	}
	return true
}

func parseText(data []byte) (pearson.Table, error) {
	fields := strings.FieldsFunc(string(bytes.TrimSpace(data)), func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '{' || r == '}' || r == ';'
	})

	values := make([]byte, 0, pearson.TableSize)
	for i, f := range fields {
		n, err := strconv.ParseUint(f, 0, 8)
		if err != nil {
			return pearson.Table{}, fmt.Errorf("%w: entry %d %q: %v", ErrFormat, i, f, err)
		}
		values = append(values, byte(n))
	}
	return pearson.NewTable(values)
}
