package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_EmptyInner(t *testing.T) {
	inner := NewMemInner(nil)
	s, err := New(testConfig(), inner)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.Equal(t, uint64(0), s.innerLen)
}

func TestNew_BadInnerLen(t *testing.T) {
	for length := 1; length <= 4; length++ {
		inner := NewMemInner(make([]byte, length))
		_, err := New(testConfig(), inner)
		require.ErrorIs(t, err, ErrBadInnerLen, "length=%d", length)
	}
}

func TestNew_MinimalValidInnerLen(t *testing.T) {
	inner := NewMemInner(make([]byte, 5))
	s, err := New(testConfig(), inner)
	require.NoError(t, err)
	require.Equal(t, uint64(5), s.innerLen)
}

func TestNew_RejectsBadConfig(t *testing.T) {
	inner := NewMemInner(nil)
	_, err := New(Config{SegLen: 3, BufLen: 16}, inner)
	require.Error(t, err)
	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
}

func TestIntoInner_ReturnsUnderlyingStore(t *testing.T) {
	inner := NewMemInner([]byte("hello"))
	s, err := New(testConfig(), inner)
	require.NoError(t, err)
	got := s.IntoInner()
	require.Equal(t, inner, got)
}

func TestFlush_NoOpWithoutFlusher(t *testing.T) {
	inner := NewMemInner(nil)
	s, err := New(testConfig(), inner)
	require.NoError(t, err)
	require.NoError(t, s.Flush())
}
