package utils

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// StringHash64 is a rolling hash stable across runs and platforms
func StringHash64(str string, initial uint64) uint64 {
	hash := initial
	for i := 0; i < len(str); i++ {
		hash = (hash << 7) - hash + uint64(str[i])
	}
	return hash
}

var pathNamespace = uuid.MustParse("6b2d1c57-8a3e-4f0a-9d51-7c2a4e0b9f13")

// PathUid derives the identifier of a resource path.
// High bit is always set, so path ids never collide with counter ids.
func PathUid(path string) uint64 {
	if path == "" {
		return 0
	}
	u := uuid.NewSHA1(pathNamespace, []byte(path))
	return binary.LittleEndian.Uint64(u[:8]) | (1 << 63)
}
