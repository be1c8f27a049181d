// Package hash provides the checksums that guard ftc bitstream sections.
package hash

import "github.com/cespare/xxhash/v2"

// Checksum returns the low 32 bits of the xxHash64 digest of data.
func Checksum(data []byte) uint32 {
	return uint32(xxhash.Sum64(data)) //nolint:gosec
}

// Hasher accumulates a checksum over several writes.
type Hasher struct {
	d *xxhash.Digest
}

// NewHasher returns an empty Hasher.
func NewHasher() Hasher {
	return Hasher{d: xxhash.New()}
}

// Write adds p to the running digest. It never fails.
func (h Hasher) Write(p []byte) (int, error) {
	return h.d.Write(p)
}

// Sum32 returns the low 32 bits of the running digest.
func (h Hasher) Sum32() uint32 {
	return uint32(h.d.Sum64()) //nolint:gosec
}
