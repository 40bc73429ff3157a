package slotted

import (
	"encoding/binary"

	"github.com/tuannm99/slotdb/internal/storage"
)

// On-page layout (persisted contract, little-endian int32 fields):
//
// +------------------+ 0
// | freeStart        | 4 bytes
// +------------------+ 4
// |  Record data     |
// |  (grows up)      |
// +------------------+ <-- freeStart
// |                  |
// |   Free space     |
// |                  |
// +------------------+ <-- slot directory start
// | slot n-1 | ...   | each slot: 4-byte offset, 4-byte length
// | ... | slot 0     | (grows down; length < 0 marks a tombstone)
// +------------------+ PageSize - 4
// | slotCount        |
// +------------------+ PageSize
//
// freeStart == 0 means the page is an untouched zero page; it is read as the
// post-header offset.
const (
	headerSize  = 4
	slotSize    = 8
	trailerSize = 4

	deletedLen int32 = -1
)

// MaxRecordSize is the largest record that fits on one page together with
// its slot entry.
const MaxRecordSize = storage.PageSize - headerSize - slotSize - trailerSize

// page interprets one pool-supplied payload as a slotted page. It is a view:
// every mutation lands directly in the buffer slot.
type page struct {
	buf []byte
}

func (p page) freeStart() int32 {
	v := int32(binary.LittleEndian.Uint32(p.buf[0:]))
	if v == 0 {
		return headerSize
	}
	return v
}

func (p page) setFreeStart(v int32) {
	binary.LittleEndian.PutUint32(p.buf[0:], uint32(v))
}

func (p page) slotCount() int32 {
	return int32(binary.LittleEndian.Uint32(p.buf[storage.PageSize-trailerSize:]))
}

func (p page) setSlotCount(n int32) {
	binary.LittleEndian.PutUint32(p.buf[storage.PageSize-trailerSize:], uint32(n))
}

// slotPos returns the byte offset of slot i. Slot 0 sits immediately before
// the trailing count, later slots before it.
func slotPos(i int32) int {
	return storage.PageSize - trailerSize - int(i+1)*slotSize
}

func (p page) slot(i int32) (offset, length int32) {
	pos := slotPos(i)
	offset = int32(binary.LittleEndian.Uint32(p.buf[pos:]))
	length = int32(binary.LittleEndian.Uint32(p.buf[pos+4:]))
	return offset, length
}

func (p page) setSlot(i int32, offset, length int32) {
	pos := slotPos(i)
	binary.LittleEndian.PutUint32(p.buf[pos:], uint32(offset))
	binary.LittleEndian.PutUint32(p.buf[pos+4:], uint32(length))
}

// init writes a fresh header onto a zero page.
func (p page) init() {
	p.setFreeStart(headerSize)
	p.setSlotCount(0)
}

// freeSpace is the gap between the data region and the slot directory.
// It must cover the record bytes plus one new slot entry for an insert to
// land here.
func (p page) freeSpace() int32 {
	slotDirStart := int32(storage.PageSize - trailerSize - int(p.slotCount())*slotSize)
	return slotDirStart - p.freeStart()
}

// appendRecord places rec at freeStart and adds its slot entry. The caller
// has already checked freeSpace.
func (p page) appendRecord(rec []byte) (slotIdx int32) {
	start := p.freeStart()
	copy(p.buf[start:], rec)

	slotIdx = p.slotCount()
	p.setSlot(slotIdx, start, int32(len(rec)))
	p.setSlotCount(slotIdx + 1)
	p.setFreeStart(start + int32(len(rec)))
	return slotIdx
}

// usedBytes reports how many page bytes are consumed: data region plus the
// slot directory and trailer. Tombstoned records still count; their space is
// never reclaimed.
func (p page) usedBytes() int {
	used := int(p.freeStart()) + trailerSize + int(p.slotCount())*slotSize
	if used > storage.PageSize {
		used = storage.PageSize
	}
	return used
}
