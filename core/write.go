package core

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"log"
)

// Write writes p starting at the current outer position, re-hashing
// whatever body bytes already exist around the touched region so every
// segment's trailing checksum stays correct. It never reads or writes
// outside the segments p actually touches.
//
// Writing mid-segment or across a segment boundary works the same way: for
// each segment touched, leading bytes the write doesn't cover (the
// "prelude") and trailing bytes the write doesn't reach but that already
// existed (the "epilogue") are both re-read and folded into the checksum
// alongside the newly written bytes.
func (s *Store) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	segLen := uint64(s.segLen)
	bodyLen := uint64(s.bodyLen)
	oldInnerLen := s.innerLen // snapshot: segments are classified against this

	var total int
	var finalPartial bool

	for total < len(p) {
		segStart := s.innerPos - (s.innerPos % segLen)
		offset := s.innerPos - segStart
		if offset >= bodyLen {
			log.Panicf("write: cursor %d rests on a checksum byte (segLen=%d bodyLen=%d)", s.innerPos, segLen, bodyLen)
		}

		existing := existingBodyLenFor(segStart, oldInnerLen, segLen, bodyLen)

		hasher := crc32.NewIEEE()

		if offset > 0 {
			if err := s.hashExisting(hasher, segStart, offset); err != nil {
				return total, err
			}
		}

		callerRemain := uint64(len(p) - total)
		toWrite := bodyLen - offset
		if callerRemain < toWrite {
			toWrite = callerRemain
		}

		chunk := p[total : total+int(toWrite)]
		if _, err := s.inner.Write(chunk); err != nil {
			return total, fmt.Errorf("write body at %d: %w", s.innerPos, err)
		}
		hasher.Write(chunk)
		total += int(toWrite)
		s.innerPos += toWrite
		if s.innerPos > s.innerLen {
			s.innerLen = s.innerPos
		}

		newOffset := offset + toWrite
		finalBodyLen := existing
		if newOffset > finalBodyLen {
			finalBodyLen = newOffset
		}

		if finalBodyLen > newOffset {
			if err := s.hashExisting(hasher, s.innerPos, finalBodyLen-newOffset); err != nil {
				return total, err
			}
		}

		var cs [4]byte
		binary.BigEndian.PutUint32(cs[:], hasher.Sum32())
		if _, err := s.inner.Write(cs[:]); err != nil {
			return total, fmt.Errorf("write checksum at %d: %w", s.innerPos, err)
		}
		s.innerPos += 4
		if s.innerPos > s.innerLen {
			s.innerLen = s.innerPos
		}

		finalPartial = finalBodyLen < bodyLen
	}

	if finalPartial {
		if _, err := s.seekInnerTo(s.innerPos - 4); err != nil {
			return total, err
		}
	}

	return total, nil
}

// existingBodyLenFor classifies the segment starting at segStart against the
// inner length observed before this Write call began, returning how many of
// its body bytes already existed:
//   - 0 if the segment lies entirely beyond the old end (a brand-new segment)
//   - bodyLen if the segment was a complete old segment
//   - otherwise the segment was the old trailing partial segment
func existingBodyLenFor(segStart, oldInnerLen, segLen, bodyLen uint64) uint64 {
	switch {
	case segStart >= oldInnerLen:
		return 0
	case segStart+segLen <= oldInnerLen:
		return bodyLen
	default:
		rem := oldInnerLen - segStart
		if rem < 5 {
			log.Panicf("write: old trailing segment at %d has only %d bytes", segStart, rem)
		}
		return rem - 4
	}
}

// hashExisting seeks to pos, reads n bytes through the store's scratch
// buffer, and folds them into hasher without otherwise touching them. It
// leaves the inner cursor at pos+n.
func (s *Store) hashExisting(hasher hash.Hash32, pos, n uint64) error {
	if n == 0 {
		return nil
	}
	if _, err := s.seekInnerTo(pos); err != nil {
		return err
	}

	remain := n
	for remain > 0 {
		want := uint64(len(s.buf))
		if want > remain {
			want = remain
		}
		read, err := readRetrying(s.inner, s.buf[:want])
		if read > 0 {
			hasher.Write(s.buf[:read])
			s.innerPos += uint64(read)
			remain -= uint64(read)
		}
		if err != nil {
			if err == io.EOF {
				return fmt.Errorf("hash existing body at %d: unexpected eof with %d bytes left", pos, remain)
			}
			return fmt.Errorf("hash existing body at %d: %w", pos, err)
		}
		if read == 0 {
			return fmt.Errorf("hash existing body at %d: no progress with %d bytes left", pos, remain)
		}
	}
	return nil
}
