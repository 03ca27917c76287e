// Package vlq decodes Base64 VLQ values as found in source map mappings.
//
// Every character carries six bits: bit 5 is the continuation flag and bits
// 0-4 are payload, least significant group first. Once a group is complete
// the lowest bit of the assembled value is the sign.
package vlq

import (
	"io"
	"unicode/utf8"
)

const (
	vlqBaseShift = 5

	// binary: 100000
	vlqBase = 1 << vlqBaseShift

	// binary: 011111
	vlqBaseMask = vlqBase - 1

	// binary: 100000
	vlqContinuationMask = vlqBase

	// binary: 000001
	vlqSignMask = 1
)

// Decode decodes every VLQ value in mapping, left to right.
//
// A character outside the alphabet fails the whole call with an
// *InvalidCharacterError and no values. If mapping ends in the middle of a
// group, whatever has been accumulated is emitted as the last value.
//
// Values are assembled in 64 bits. Groups of 13 or more characters carry
// payload past bit 63, and those high bits are dropped.
func Decode(mapping string) ([]int, error) {
	values := []int{}

	var acc uint64
	depth := 0

	for i := 0; i < len(mapping); i++ {
		digit := decodeMap[mapping[i]]
		if digit == invalidIndex {
			char, _ := utf8.DecodeRuneInString(mapping[i:])
			return nil, &InvalidCharacterError{Char: char, Offset: i}
		}

		acc += uint64(digit&vlqBaseMask) << uint(vlqBaseShift*depth)

		if digit&vlqContinuationMask != 0 {
			depth++
			continue
		}

		values = append(values, fromVLQSigned(acc))
		acc, depth = 0, 0
	}

	if depth > 0 {
		values = append(values, fromVLQSigned(acc))
	}

	return values, nil
}

func fromVLQSigned(acc uint64) int {
	value := int(acc >> 1)
	if acc&vlqSignMask != 0 {
		return -value
	}

	return value
}

// Decoder reads VLQ values one at a time from a byte stream.
type Decoder struct {
	r      io.ByteReader
	offset int
	err    error
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.ByteReader) *Decoder {
	return &Decoder{r: r}
}

// Decode returns the next value. It returns io.EOF once the stream ends on
// a group boundary; a stream ending inside a group yields the accumulated
// value first. Offsets in errors count bytes read by this Decoder.
//
// After an invalid character every call returns the same error.
func (dec *Decoder) Decode() (int, error) {
	if dec.err != nil {
		return 0, dec.err
	}

	var acc uint64
	depth := 0

	for {
		c, err := dec.r.ReadByte()
		if err == io.EOF && depth > 0 {
			return fromVLQSigned(acc), nil
		}
		if err != nil {
			return 0, err
		}

		digit := decodeMap[c]
		if digit == invalidIndex {
			dec.err = &InvalidCharacterError{Char: dec.readRune(c), Offset: dec.offset}
			return 0, dec.err
		}
		dec.offset++

		acc += uint64(digit&vlqBaseMask) << uint(vlqBaseShift*depth)

		if digit&vlqContinuationMask == 0 {
			return fromVLQSigned(acc), nil
		}
		depth++
	}
}

// readRune completes the UTF-8 sequence that starts with c.
func (dec *Decoder) readRune(c byte) rune {
	if c < utf8.RuneSelf {
		return rune(c)
	}

	buf := []byte{c}
	for !utf8.FullRune(buf) {
		b, err := dec.r.ReadByte()
		if err != nil {
			break
		}
		buf = append(buf, b)
	}

	char, _ := utf8.DecodeRune(buf)
	return char
}
