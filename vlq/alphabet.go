package vlq

import "unicode/utf8"

// The source map Base64 alphabet. '=' sits at index 64 and so carries
// neither a continuation bit nor payload.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/="

// Marks bytes with no mapping.
const invalidIndex = 0xFF

var decodeMap = func() [256]byte {
	var table [256]byte
	for i := range table {
		table[i] = invalidIndex
	}
	for i := 0; i < len(alphabet); i++ {
		table[alphabet[i]] = byte(i)
	}
	return table
}()

// Index returns the position of c in the VLQ Base64 alphabet.
func Index(c rune) (int, error) {
	if c < 0 || c >= utf8.RuneSelf || decodeMap[c] == invalidIndex {
		return 0, &InvalidCharacterError{Char: c, Offset: -1}
	}

	return int(decodeMap[c]), nil
}
