package core

import (
	"fmt"
	"io"
	"log"
)

// Read fills p with body bytes starting at the current outer position,
// transparently stepping the inner cursor over each segment's trailing
// checksum bytes as it crosses a boundary. It follows the io.Reader
// contract: a short, non-error read is valid, and (0, io.EOF) signals the
// true end of data.
func (s *Store) Read(p []byte) (int, error) {
	if s.cfg.ValidateOnRead {
		return 0, ErrValidateOnReadUnsupported
	}

	var total int
	for total < len(p) {
		if s.innerPos >= s.innerLen {
			if total > 0 {
				return total, nil
			}
			return 0, io.EOF
		}

		off := s.innerPos % uint64(s.segLen)
		if off >= uint64(s.bodyLen) {
			log.Panicf("read: cursor %d rests on a checksum byte (segLen=%d bodyLen=%d)", s.innerPos, s.segLen, s.bodyLen)
		}

		bufRemain := uint64(len(p) - total)
		bodyRemain := uint64(s.bodyLen) - off
		// toChecksum bounds the read to whichever comes first: this
		// segment's own checksum (full segments, bodyRemain) or the
		// checksum of the final, possibly-partial segment in the store.
		// Taking the min of both lets one expression cover every segment
		// without special-casing "is this the last one".
		toChecksum := (s.innerLen - 4) - s.innerPos
		n := min3(bufRemain, bodyRemain, toChecksum)
		if n == 0 {
			break
		}

		read, err := readRetrying(s.inner, p[total:total+int(n)])
		if read == 0 && err != nil {
			if err == io.EOF {
				if total > 0 {
					return total, nil
				}
				return 0, io.EOF
			}
			return total, fmt.Errorf("read inner at %d: %w", s.innerPos, err)
		}

		total += read
		s.innerPos += uint64(read)

		if read == 0 {
			break
		}

		// Crossed a full segment boundary: step over its checksum. This
		// includes a full final segment, which leaves the cursor at
		// innerLen. A partial trailing segment never matches this (its
		// in-segment offset stays below bodyLen), so its own checksum is
		// never stepped over; toChecksum above already stopped the read
		// right at its start, leaving the cursor resting within that
		// segment's body budget.
		atChecksum := s.innerPos%uint64(s.segLen) == uint64(s.bodyLen)
		if atChecksum && s.innerPos < s.innerLen {
			if _, err := s.seekInnerTo(s.innerPos + 4); err != nil {
				return total, err
			}
		}
	}

	if total == 0 {
		return 0, io.EOF
	}
	return total, nil
}
