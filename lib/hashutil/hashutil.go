package hashutil

import (
	"strings"
	"unicode/utf16"
)

// Hash derives a stable 53-bit identifier from the given parts.
//
// Parts are joined with "," before hashing, so callers must pass them in a
// fixed order. Identifiers produced by this function are persisted in the
// document store; the bit mixing below must never change.
func Hash(parts ...string) uint64 {
	return HashSeed(0, parts...)
}

func HashSeed(seed uint32, parts ...string) uint64 {
	str := strings.Join(parts, ",")

	h1 := 0xdeadbeef ^ seed
	h2 := 0x41c6ce57 ^ seed

	// iterate UTF-16 code units so multi-byte runes hash the same way
	// the ids already in storage were computed
	for _, ch := range utf16.Encode([]rune(str)) {
		h1 = (h1 ^ uint32(ch)) * 2654435761
		h2 = (h2 ^ uint32(ch)) * 1597334677
	}

	h1 = ((h1 ^ (h1 >> 16)) * 2246822507) ^ ((h2 ^ (h2 >> 13)) * 3266489909)
	h2 = ((h2 ^ (h2 >> 16)) * 2246822507) ^ ((h1 ^ (h1 >> 13)) * 3266489909)

	return uint64(h2&2097151)*4294967296 + uint64(h1)
}
