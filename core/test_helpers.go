package core

import (
	"encoding/binary"
	"hash/crc32"
	"math/rand"
)

// testConfig returns a small, test-friendly Config: seg_len=16, buf_len=16,
// giving a 12-byte body per segment.
func testConfig() Config {
	return Config{SegLen: 16, BufLen: 16}
}

// buildValidStore lays out data as a sequence of valid segments of the given
// bodyLen and returns the encoded bytes, ready to hand to NewMemInner.
func buildValidStore(body []byte, bodyLen uint32) []byte {
	var out []byte
	for len(body) > 0 {
		n := int(bodyLen)
		if n > len(body) {
			n = len(body)
		}
		chunk := body[:n]
		body = body[n:]

		out = append(out, chunk...)
		var cs [4]byte
		binary.BigEndian.PutUint32(cs[:], crc32.ChecksumIEEE(chunk))
		out = append(out, cs[:]...)
	}
	return out
}

// randomBytes returns n pseudo-random bytes from a seeded source, so tests
// are deterministic without being hand-written byte-for-byte.
func randomBytes(rng *rand.Rand, n int) []byte {
	b := make([]byte, n)
	rng.Read(b)
	return b
}
