package core

import (
	"fmt"
	"io"
)

// Seek repositions the store's cursor and returns the resulting inner byte
// offset, matching io.Seeker's convention of returning the raw stream
// position rather than a logical one.
func (s *Store) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		if offset < 0 {
			return 0, fmt.Errorf("seek: negative start offset %d", offset)
		}
		inner, ok := s.startPos(uint64(offset))
		if !ok {
			return 0, ErrOverflow
		}
		return s.seekInnerTo(inner)

	case io.SeekCurrent:
		delta, ok := s.relInnerPos(offset, s.innerPos)
		if !ok {
			return 0, ErrOverflow
		}
		target := int64(s.innerPos) + delta
		if target < 0 {
			return 0, fmt.Errorf("seek: resulting position %d is negative", target)
		}
		return s.seekInnerTo(uint64(target))

	case io.SeekEnd:
		base, shift, ok := s.endBase()
		if !ok {
			return 0, fmt.Errorf("seek: store has no segments to seek from end")
		}
		delta, ok := s.relInnerPos(offset, base)
		if !ok {
			return 0, ErrOverflow
		}
		// The computed delta is relative to the true end of the inner
		// store, not to base: base only supplies the in-segment offset
		// relInnerPos needs to decide how many checksums it crosses. An
		// empty store has no checksum to land in front of, so shift is 0.
		target := int64(s.innerLen) + delta - shift
		if target < 0 {
			return 0, fmt.Errorf("seek: resulting position %d is negative", target)
		}
		return s.seekInnerTo(uint64(target))

	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
}

// endBase returns the inner position relInnerPos should pivot from for
// SeekEnd, plus how far the final target must be shifted back from the raw
// end of the store: 0 for an empty store (there is no trailing checksum to
// land in front of), otherwise 4 bytes before the very end, shifted back by
// 4 to land on the last segment's body rather than past its checksum.
func (s *Store) endBase() (base uint64, shift int64, ok bool) {
	if s.innerLen == 0 {
		return 0, 0, true
	}
	if s.innerLen <= 4 {
		return 0, 0, false
	}
	return s.innerLen - 4, 4, true
}

func (s *Store) seekInnerTo(target uint64) (int64, error) {
	pos, err := s.inner.Seek(int64(target), io.SeekStart)
	if err != nil {
		return 0, fmt.Errorf("seek inner to %d: %w", target, err)
	}
	s.innerPos = uint64(pos)
	return pos, nil
}
