package transform

import (
	"errors"
	"fmt"
	"strings"
)

// Pipeline chains transforms: Encode runs them 0..N, Decode N..0.
type Pipeline struct {
	transforms []Transform
}

// NewPipeline requires at least one transform; use NewNoOpTransform for an
// explicitly empty pipeline.
func NewPipeline(transforms ...Transform) (*Pipeline, error) {
	if len(transforms) == 0 {
		return nil, errors.New("transform: pipeline requires at least one transform")
	}
	return &Pipeline{transforms: append([]Transform(nil), transforms...)}, nil
}

// PipelineByNames builds a pipeline from registered transform names.
func PipelineByNames(names ...string) (*Pipeline, error) {
	ts := make([]Transform, 0, len(names))
	for _, n := range names {
		t, err := ByName(n)
		if err != nil {
			return nil, err
		}
		ts = append(ts, t)
	}
	return NewPipeline(ts...)
}

// ParsePipeline builds a pipeline from a comma-separated list of names in
// encode order. "gzip,zstd" describes data gzipped and then zstd-compressed,
// so Decode undoes zstd first. The empty list decodes nothing.
func ParsePipeline(list string) (*Pipeline, error) {
	names := strings.Split(list, ",")
	for i, n := range names {
		names[i] = strings.TrimSpace(n)
	}
	return PipelineByNames(names...)
}

// Apply and Reverse let a Pipeline stand wherever a Transform is accepted.
func (p *Pipeline) Apply(data []byte) ([]byte, error)   { return p.Encode(data) }
func (p *Pipeline) Reverse(data []byte) ([]byte, error) { return p.Decode(data) }

func (p *Pipeline) Encode(data []byte) ([]byte, error) {
	var err error
	for i, t := range p.transforms {
		if data, err = t.Apply(data); err != nil {
			return nil, fmt.Errorf("encode: transform %d (%T): %w", i, t, err)
		}
	}
	return data, nil
}

func (p *Pipeline) Decode(data []byte) ([]byte, error) {
	var err error
	for i := len(p.transforms) - 1; i >= 0; i-- {
		t := p.transforms[i]
		if data, err = t.Reverse(data); err != nil {
			return nil, fmt.Errorf("decode: transform %d (%T): %w", i, t, err)
		}
	}
	return data, nil
}
