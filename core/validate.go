package core

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"log"
	"sort"

	"github.com/deckarep/golang-set/v2"
)

// Validate walks every segment from the start of the store, recomputes its
// checksum, and compares it against the stored one. It returns nil if every
// segment matches, a *ChecksumError naming every offending segment index, or
// a *SegTooShortError if it encounters a trailing region too short to hold a
// checksum at all (which New is supposed to have refused at construction, but
// nothing stops an inner store from being truncated out from under a live
// Store).
//
// When the scan completes (nil or *ChecksumError) the inner cursor rests at
// the end of the store. On a *SegTooShortError or an I/O error it is left
// where the scan stopped.
func (s *Store) Validate() error {
	if _, err := s.seekInnerTo(0); err != nil {
		return err
	}

	segLen := uint64(s.segLen)
	bufLen := uint64(s.bufLen)

	mismatches := mapset.NewSet[uint64]()

	var err error
	if segLen <= bufLen && bufLen%segLen == 0 {
		err = s.validateSmallSegments(mismatches)
	} else {
		err = s.validateLargeSegments(mismatches)
	}
	if err != nil {
		return err
	}

	if mismatches.Cardinality() == 0 {
		return nil
	}

	indices := mismatches.ToSlice()
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	return &ChecksumError{Indices: indices}
}

// validateSmallSegments handles SegLen <= BufLen: read BufLen bytes at a
// time and slice that chunk into several whole segments before hashing each.
func (s *Store) validateSmallSegments(mismatches mapset.Set[uint64]) error {
	segLen := uint64(s.segLen)
	bodyLen := uint64(s.bodyLen)

	var segIdx uint64
	for {
		n, err := io.ReadFull(s.inner, s.buf)
		if err != nil {
			if n == 0 && err == io.EOF {
				break
			}
			if err != io.ErrUnexpectedEOF {
				return fmt.Errorf("validate: read chunk at segment %d: %w", segIdx, err)
			}
			// Partial fill at true EOF: process the short final chunk below.
		}
		s.innerPos += uint64(n)

		full := uint64(n) / segLen
		rem := uint64(n) % segLen

		for i := uint64(0); i < full; i++ {
			chunk := s.buf[i*segLen : (i+1)*segLen]
			if !isValidSegment(chunk, bodyLen) {
				mismatches.Add(segIdx)
			}
			segIdx++
		}

		if rem > 0 {
			if rem < 5 {
				return &SegTooShortError{Index: segIdx}
			}
			chunk := s.buf[full*segLen : full*segLen+rem]
			if !isValidSegment(chunk, rem-4) {
				mismatches.Add(segIdx)
			}
			segIdx++
		}

		if n < len(s.buf) {
			break
		}
	}

	s.innerLen = s.innerPos
	return nil
}

// validateLargeSegments handles SegLen > BufLen: hash one segment's body at
// a time, BufLen bytes per inner read. The final segment's body length is
// derived from the cached inner length rather than from where reads happen
// to hit EOF, the same way the reference implementation's process_segment
// bounds each read by end_of_inner = inner_len - inner_pos.
func (s *Store) validateLargeSegments(mismatches mapset.Set[uint64]) error {
	bodyLen := uint64(s.bodyLen)
	total := s.innerLen

	var segIdx uint64
	for s.innerPos < total {
		remaining := total - s.innerPos
		if remaining < 5 {
			return &SegTooShortError{Index: segIdx}
		}

		segBodyLen := bodyLen
		if remaining-4 < segBodyLen {
			segBodyLen = remaining - 4
		}

		hasher := crc32.NewIEEE()
		bodyRemain := segBodyLen
		for bodyRemain > 0 {
			want := uint64(len(s.buf))
			if want > bodyRemain {
				want = bodyRemain
			}
			read, err := readRetrying(s.inner, s.buf[:want])
			if read > 0 {
				hasher.Write(s.buf[:read])
				s.innerPos += uint64(read)
				bodyRemain -= uint64(read)
			}
			if err != nil {
				return fmt.Errorf("validate: read body of segment %d: %w", segIdx, err)
			}
			if read == 0 {
				return fmt.Errorf("validate: read body of segment %d: no progress", segIdx)
			}
		}

		var cs [4]byte
		if _, err := io.ReadFull(s.inner, cs[:]); err != nil {
			return fmt.Errorf("validate: read checksum of segment %d: %w", segIdx, err)
		}
		s.innerPos += 4

		if binary.BigEndian.Uint32(cs[:]) != hasher.Sum32() {
			mismatches.Add(segIdx)
		}
		segIdx++
	}

	return nil
}

// isValidSegment reports whether chunk's trailing 4 bytes equal the CRC-32
// of its first bodyLen bytes. chunk must be exactly bodyLen+4 bytes long.
func isValidSegment(chunk []byte, bodyLen uint64) bool {
	if uint64(len(chunk)) != bodyLen+4 {
		log.Panicf("isValidSegment: chunk length %d does not match bodyLen %d", len(chunk), bodyLen)
	}
	body := chunk[:bodyLen]
	stored := binary.BigEndian.Uint32(chunk[bodyLen:])
	return crc32.ChecksumIEEE(body) == stored
}
