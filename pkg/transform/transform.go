// Package transform holds reversible byte transforms used to decode inputs
// (for example compressed sensor dumps) before they are hashed, and to
// produce such inputs in tests and tools.
package transform

import (
	"fmt"
	"sort"
)

// Transform encodes with Apply and decodes with Reverse.
type Transform interface {
	Apply(data []byte) ([]byte, error)
	Reverse(data []byte) ([]byte, error)
}

const (
	NameNone = "none"
	NameGzip = "gzip"
	NameZstd = "zstd"
)

var registry = map[string]func() (Transform, error){
	NameNone: func() (Transform, error) { return NewNoOpTransform(), nil },
	"":       func() (Transform, error) { return NewNoOpTransform(), nil },
	NameGzip: func() (Transform, error) { return NewGzipTransform(), nil },
	NameZstd: func() (Transform, error) { return NewZstdTransform() },
}

// ByName returns the transform registered under name. The empty name is
// an alias for "none".
func ByName(name string) (Transform, error) {
	mk, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("transform: unknown transform %q (want one of %v)", name, Names())
	}
	return mk()
}

// Names lists the registered transform names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		if n != "" {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

type noOpTransform struct{}

func NewNoOpTransform() Transform                            { return &noOpTransform{} }
func (n *noOpTransform) Apply(data []byte) ([]byte, error)   { return data, nil }
func (n *noOpTransform) Reverse(data []byte) ([]byte, error) { return data, nil }
