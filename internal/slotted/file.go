package slotted

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/tuannm99/slotdb/internal/bufferpool"
	"github.com/tuannm99/slotdb/internal/storage"
)

var (
	ErrRecordTooLarge = errors.New("slotted: record too large for one page")
	ErrBadSlot        = errors.New("slotted: slot index out of range")
	ErrRecordDeleted  = errors.New("slotted: record already deleted")
)

// RecordFile stores variable-length records in slotted pages. All page
// access goes through the buffer pool; the raw file is touched directly only
// to reserve new page numbers.
type RecordFile struct {
	file *storage.File
	pool *bufferpool.Pool
}

// Create makes a new empty record file backed by pool.
func Create(path string, pool *bufferpool.Pool) (*RecordFile, error) {
	f, err := storage.Create(path)
	if err != nil {
		return nil, err
	}
	return &RecordFile{file: f, pool: pool}, nil
}

// Open opens an existing record file backed by pool.
func Open(path string, pool *bufferpool.Pool) (*RecordFile, error) {
	f, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	return &RecordFile{file: f, pool: pool}, nil
}

// Close releases the file's pages from the pool (flushing dirty ones) and
// closes the underlying file. It fails, leaving everything open, if any page
// is still fixed.
func (rf *RecordFile) Close() error {
	if err := rf.pool.ReleaseFile(rf.file); err != nil {
		return err
	}
	if err := rf.file.Close(); err != nil {
		log.WithField("file", rf.file.Name()).WithError(err).Error("close record file")
		return err
	}
	return nil
}

// Insert stores rec and returns its RID.
//
// Pages are tried in order from page 0: the first page with room for the
// record plus one slot entry wins, and only when every existing page is full
// is a new page allocated. Insertion cost is therefore linear in the number
// of pages — the simple, documented policy of this layer (there is no
// free-space map), and the property that defines its exact page-fill
// behavior.
func (rf *RecordFile) Insert(rec []byte) (RID, error) {
	if len(rec) > MaxRecordSize {
		return RID{}, ErrRecordTooLarge
	}

	need := int32(len(rec) + slotSize)
	for pageNum := uint32(0); ; pageNum++ {
		buf, err := rf.pool.Get(rf.file, pageNum)
		if errors.Is(err, storage.ErrInvalidPage) {
			return rf.insertNewPage(rec)
		}
		if err != nil {
			return RID{}, err
		}

		pg := page{buf: buf}
		if pg.freeSpace() < need {
			// Full page: release untouched and try the next one.
			_ = rf.pool.Unfix(rf.file, pageNum, false)
			continue
		}

		if pg.freeStart() == headerSize && pg.slotCount() == 0 {
			pg.init() // materialize the header on a still-zero page
		}
		slotIdx := pg.appendRecord(rec)
		if err := rf.pool.Unfix(rf.file, pageNum, true); err != nil {
			return RID{}, err
		}
		return RID{Page: pageNum, Slot: uint16(slotIdx)}, nil
	}
}

// insertNewPage extends the file by one page and lands rec as its first
// record.
func (rf *RecordFile) insertNewPage(rec []byte) (RID, error) {
	pageNum, err := rf.file.AllocatePage()
	if err != nil {
		return RID{}, err
	}
	buf, err := rf.pool.Alloc(rf.file, pageNum)
	if err != nil {
		return RID{}, err
	}

	pg := page{buf: buf}
	pg.init()
	pg.appendRecord(rec)
	if err := rf.pool.Unfix(rf.file, pageNum, true); err != nil {
		return RID{}, err
	}
	return RID{Page: pageNum, Slot: 0}, nil
}

// Delete tombstones the record at rid by writing a negative slot length.
// The record's bytes stay on the page; the space is never reclaimed or
// compacted, so repeated delete/insert cycles grow the file until a page is
// abandoned. Deleting an already-deleted record fails with
// ErrRecordDeleted.
func (rf *RecordFile) Delete(rid RID) error {
	buf, err := rf.pool.Get(rf.file, rid.Page)
	if err != nil {
		return err
	}

	pg := page{buf: buf}
	if int32(rid.Slot) >= pg.slotCount() {
		_ = rf.pool.Unfix(rf.file, rid.Page, false)
		return ErrBadSlot
	}
	offset, length := pg.slot(int32(rid.Slot))
	if length <= 0 {
		_ = rf.pool.Unfix(rf.file, rid.Page, false)
		return ErrRecordDeleted
	}

	pg.setSlot(int32(rid.Slot), offset, deletedLen)
	return rf.pool.Unfix(rf.file, rid.Page, true)
}

// PageUsedBytes reports how many bytes of the given page are in use
// (data region, slot directory and trailer). Diagnostic helper for
// fill-factor experiments.
func (rf *RecordFile) PageUsedBytes(pageNum uint32) (int, error) {
	buf, err := rf.pool.Get(rf.file, pageNum)
	if err != nil {
		return 0, err
	}
	used := page{buf: buf}.usedBytes()
	if err := rf.pool.Unfix(rf.file, pageNum, false); err != nil {
		return 0, err
	}
	return used, nil
}

// PageCount returns the number of allocated pages.
func (rf *RecordFile) PageCount() uint32 {
	return rf.file.PageCount()
}

// Name returns the path of the backing file.
func (rf *RecordFile) Name() string {
	return rf.file.Name()
}
