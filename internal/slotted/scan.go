package slotted

import (
	"errors"

	"github.com/tuannm99/slotdb/internal/storage"
)

// ErrEndOfScan signals scan exhaustion. It is a sentinel, not a failure.
var ErrEndOfScan = errors.New("slotted: end of scan")

// Scan is a forward-only cursor over the live records of a RecordFile.
// Between Next calls no page stays fixed, so a resting cursor never blocks
// eviction or release. A cursor is not safe to share across goroutines, and
// it simply reads whatever is on each page when it gets there: mutations on
// pages it has not reached yet are visible, mutations behind it are not
// revisited. Restart with a fresh OpenScan.
type Scan struct {
	rf   *RecordFile
	page uint32
	slot uint16
}

// OpenScan returns a cursor positioned before the first record.
func (rf *RecordFile) OpenScan() *Scan {
	return &Scan{rf: rf}
}

// Next returns a copy of the next live record and its RID, or ErrEndOfScan
// once the file is exhausted. Tombstoned slots are skipped.
func (s *Scan) Next() ([]byte, RID, error) {
	for {
		buf, err := s.rf.pool.Get(s.rf.file, s.page)
		if errors.Is(err, storage.ErrInvalidPage) {
			return nil, RID{}, ErrEndOfScan
		}
		if err != nil {
			return nil, RID{}, err
		}

		pg := page{buf: buf}
		n := pg.slotCount()
		for i := int32(s.slot); i < n; i++ {
			offset, length := pg.slot(i)
			if length <= 0 {
				continue
			}
			rec := make([]byte, length)
			copy(rec, buf[offset:offset+length])
			rid := RID{Page: s.page, Slot: uint16(i)}

			s.slot = uint16(i) + 1
			if err := s.rf.pool.Unfix(s.rf.file, s.page, false); err != nil {
				return nil, RID{}, err
			}
			return rec, rid, nil
		}

		if err := s.rf.pool.Unfix(s.rf.file, s.page, false); err != nil {
			return nil, RID{}, err
		}
		s.page++
		s.slot = 0
	}
}

// Close releases the cursor. No page is fixed at rest, so there is nothing
// to unpin; the cursor is simply unusable afterwards.
func (s *Scan) Close() {
	s.rf = nil
}
