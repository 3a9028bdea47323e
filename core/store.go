package core

import (
	"fmt"
	"io"
)

// Store wraps an Inner byte store, presenting a contiguous outer byte stream
// while transparently maintaining a CRC-32 checksum at the tail of every
// fixed-size segment. It implements io.Reader, io.Writer and io.Seeker.
//
// A Store is not safe for concurrent use; it assumes exclusive ownership of
// its inner store, the same way the teacher's segment type owns a single
// open file handle.
type Store struct {
	cfg     Config
	segLen  uint32
	bodyLen uint32
	bufLen  uint32

	inner    Inner
	innerLen uint64
	innerPos uint64

	buf []byte
}

// New adopts inner as the backing store for a fresh Store. inner must either
// be empty or already end on a valid (possibly partial) segment boundary;
// New does not verify checksums, only the overall length shape.
func New(cfg Config, inner Inner) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	end, err := inner.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek inner to end: %w", err)
	}
	innerLen := uint64(end)

	if innerLen > 0 {
		if rem := innerLen % uint64(cfg.SegLen); rem >= 1 && rem <= 4 {
			return nil, ErrBadInnerLen
		}
	}

	if _, err := inner.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek inner to start: %w", err)
	}

	return &Store{
		cfg:      cfg,
		segLen:   cfg.SegLen,
		bodyLen:  cfg.bodyLen(),
		bufLen:   cfg.BufLen,
		inner:    inner,
		innerLen: innerLen,
		innerPos: 0,
		buf:      make([]byte, cfg.BufLen),
	}, nil
}

// Cfg returns the configuration the store was constructed with.
func (s *Store) Cfg() Config {
	return s.cfg
}

// BodyLen returns the number of body bytes carried by one full segment.
func (s *Store) BodyLen() uint32 {
	return s.bodyLen
}

// Flush delegates to the inner store's Flush method when it implements one;
// otherwise it is a no-op, matching the semantics of wrapping a plain
// in-memory buffer that has nothing to flush.
func (s *Store) Flush() error {
	if f, ok := s.inner.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// IntoInner releases the inner store back to the caller. The Store must not
// be used afterward.
func (s *Store) IntoInner() Inner {
	inner := s.inner
	s.inner = nil
	return inner
}
