// Package pearson implements Pearson hashing as described in
// Peter K. Pearson's 1990 paper "Fast Hashing of Variable-Length Data".
// The base algorithm folds a message through a 256-entry substitution table
// and produces an 8-bit hash. Hash64 widens this to 64 bits by hashing the
// message eight times, bumping its first byte by one on every round, and
// packing the eight results into successive byte lanes.
//
// None of the functions allocate or retain the message, and none of them
// write to it, so they are safe for concurrent use on shared buffers.
package pearson

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is the kind shared by every input validation error.
	ErrInvalidArgument = errors.New("pearson: invalid argument")
	// ErrTableSize is returned when a lookup table does not have 256 entries.
	ErrTableSize = fmt.Errorf("%w: lookup table must have %d entries", ErrInvalidArgument, TableSize)
	// ErrEmptyMessage is returned by the 64-bit hash on a zero-length message.
	ErrEmptyMessage = fmt.Errorf("%w: message must not be empty", ErrInvalidArgument)
)

// Hash computes the 8-bit Pearson hash of message with the default table.
// If message is empty, it returns 0.
func Hash(message []byte) uint8 {
	return defaultTable.Hash(message)
}

// Hash64 computes the 64-bit Pearson hash of message with the default table.
func Hash64(message []byte) (uint64, error) {
	return defaultTable.Hash64(message)
}

// ByteHash computes the 8-bit Pearson hash of message with an arbitrary
// lookup table, which must hold exactly 256 entries.
func ByteHash(message, table []byte) (uint8, error) {
	if len(table) != TableSize {
		return 0, fmt.Errorf("%w: got %d entries", ErrTableSize, len(table))
	}
	// Let the compiler drop the bounds checks below.
	lut := (*Table)(table)
	return lut.fold(0, message), nil
}

// Hash computes the 8-bit Pearson hash of message.
func (t *Table) Hash(message []byte) uint8 {
	return t.fold(0, message)
}

// Hash64 computes the 64-bit Pearson hash of message. Lane i (bits 8i to
// 8i+7) holds the 8-bit hash of message with its first byte incremented by i,
// wrapping at 256. The message itself is left untouched.
func (t *Table) Hash64(message []byte) (uint64, error) {
	if len(message) == 0 {
		return 0, ErrEmptyMessage
	}

	first, rest := message[0], message[1:]
	var h uint64
	for lane := 0; lane < 8; lane++ {
		// The accumulator starts at 0, so the first step is a plain lookup.
		acc := t[first+uint8(lane)]
		h |= uint64(t.fold(acc, rest)) << (lane * 8)
	}
	return h, nil
}

func (t *Table) fold(acc uint8, data []byte) uint8 {
	for _, b := range data {
		acc = t[acc^b]
	}
	return acc
}
