package core

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate_EmptyStoreOK(t *testing.T) {
	s, err := New(testConfig(), NewMemInner(nil))
	require.NoError(t, err)
	require.NoError(t, s.Validate())
}

func TestValidate_WrittenDataOK(t *testing.T) {
	s, inner := emptyStore(t)
	rng := rand.New(rand.NewSource(1))
	data := randomBytes(rng, 64)
	_, err := s.Write(data)
	require.NoError(t, err)

	s2, err := New(testConfig(), inner)
	require.NoError(t, err)
	require.NoError(t, s2.Validate())
}

func TestValidate_DetectsCorruption(t *testing.T) {
	s, inner := emptyStore(t)
	rng := rand.New(rand.NewSource(2))
	data := randomBytes(rng, 64) // 5 full 12-byte-body segments plus a 4-byte partial (index 5)
	_, err := s.Write(data)
	require.NoError(t, err)

	// Flip a bit inside segment index 2's checksum (offset 2*16 + 12 = 44).
	buf := inner.buf
	buf[44] ^= 0x01

	s2, err := New(testConfig(), inner)
	require.NoError(t, err)

	err = s2.Validate()
	require.Error(t, err)
	var cerr *ChecksumError
	require.ErrorAs(t, err, &cerr)
	require.Contains(t, cerr.Indices, uint64(2))
}

// TestValidate_LargeSegmentPath exercises the SegLen > BufLen strategy.
func TestValidate_LargeSegmentPath(t *testing.T) {
	cfg := Config{SegLen: 64, BufLen: 16}
	inner := NewMemInner(nil)
	s, err := New(cfg, inner)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	data := randomBytes(rng, 480)
	_, err = s.Write(data)
	require.NoError(t, err)

	s2, err := New(cfg, inner)
	require.NoError(t, err)
	require.NoError(t, s2.Validate())
}

// TestValidate_LargeSegmentPathPartialTrailing writes one full segment plus
// a short trailing partial segment through the SegLen > BufLen strategy,
// which at one point mistook the partial segment's checksum bytes for body
// data and rejected a perfectly valid store.
func TestValidate_LargeSegmentPathPartialTrailing(t *testing.T) {
	cfg := Config{SegLen: 64, BufLen: 16}
	inner := NewMemInner(nil)
	s, err := New(cfg, inner)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(4))
	data := randomBytes(rng, 70) // one full 60-byte body segment plus 10 trailing body bytes
	_, err = s.Write(data)
	require.NoError(t, err)

	s2, err := New(cfg, inner)
	require.NoError(t, err)
	require.NoError(t, s2.Validate())
}

func TestValidate_SegTooShort(t *testing.T) {
	// A 3-byte trailing remainder is invalid (New rejects it), so build the
	// inner directly and bypass New's construction-time check by starting
	// from a valid store and truncating the inner afterward.
	inner := NewMemInner(buildValidStore(make([]byte, 12), 12))
	s, err := New(testConfig(), inner)
	require.NoError(t, err)

	inner.buf = inner.buf[:len(inner.buf)-14] // leave a 2-byte remainder

	require.Error(t, s.Validate())
}
