package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generator mints identifiers for fixtures and balance runs.
type Generator interface {
	NewID() (string, error)
}

// TimeOrderedGenerator issues UUIDv7 values so rows created later sort later.
type TimeOrderedGenerator struct {
	prefix string
}

// NewUUIDGenerator returns a generator with no prefix.
func NewUUIDGenerator() *TimeOrderedGenerator {
	return &TimeOrderedGenerator{}
}

// NewPrefixedGenerator tags every id with prefix, e.g. "run_0190...".
func NewPrefixedGenerator(prefix string) *TimeOrderedGenerator {
	return &TimeOrderedGenerator{prefix: strings.TrimSpace(prefix)}
}

func (g *TimeOrderedGenerator) NewID() (string, error) {
	v, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("mint uuid v7: %w", err)
	}
	if g.prefix == "" {
		return v.String(), nil
	}
	return g.prefix + "_" + v.String(), nil
}

// Valid reports whether raw is a uuid, optionally carrying a "<prefix>_" tag.
func Valid(raw string) bool {
	if i := strings.LastIndexByte(raw, '_'); i >= 0 {
		raw = raw[i+1:]
	}
	_, err := uuid.Parse(raw)
	return err == nil
}
