package bufferpool

import (
	"container/list"
	"errors"
	"sync"

	"github.com/tuannm99/slotdb/internal/storage"
)

var (
	DefaultCapacity = 64

	// MaxCapacity bounds what Reconfigure will accept.
	MaxCapacity = 4096

	ErrNoBufferSpace   = errors.New("bufferpool: no buffer space (every resident page is fixed)")
	ErrPageFixed       = errors.New("bufferpool: page is fixed")
	ErrPageNotFixed    = errors.New("bufferpool: page is not fixed")
	ErrPageNotInBuffer = errors.New("bufferpool: page is not in the buffer")
	ErrPageInBuffer    = errors.New("bufferpool: page is already in the buffer")
	ErrBadCapacity     = errors.New("bufferpool: capacity out of range")
	ErrBadPolicy       = errors.New("bufferpool: unknown replacement policy")
)

// PageFile is what the pool needs from an open page file. *storage.File
// satisfies it; tests substitute fakes to inject I/O failures.
type PageFile interface {
	ReadPage(pageNum uint32, dst []byte) error
	WritePage(pageNum uint32, src []byte) error
}

var _ PageFile = (*storage.File)(nil)

// PageTag uniquely identifies a cached page.
type PageTag struct {
	File    PageFile
	PageNum uint32
}

// slot is one cached page image. fixed is a boolean, not a pin count:
// fixing a page that is already fixed is a caller error (ErrPageFixed),
// never shared access.
type slot struct {
	tag   PageTag
	buf   []byte
	fixed bool
	dirty bool
}

// Pool is a fixed-capacity page cache enforcing the fix/unfix protocol.
//
// Resident slots live in a single structure: a recency-ordered list (front =
// most recently touched) whose elements are indexed by tag in a map. Keeping
// one structure instead of a separate used list and hash table means the two
// can never disagree. Slots without a page identity wait on the free list.
type Pool struct {
	mu       sync.Mutex
	capacity int
	policy   Policy

	// used holds *slot values, front = most recently touched; table mirrors
	// its membership exactly, one entry per resident identity.
	used  *list.List
	table map[PageTag]*list.Element
	free  []*slot

	// numSlots counts every slot ever allocated, free + used; never exceeds
	// capacity.
	numSlots int

	stats Stats
}

// NewPool creates a pool with the given capacity and replacement policy.
// Zero values fall back to DefaultCapacity and PolicyLRU.
func NewPool(capacity int, policy Policy) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if policy != PolicyLRU && policy != PolicyMRU {
		policy = PolicyLRU
	}
	return &Pool{
		capacity: capacity,
		policy:   policy,
		used:     list.New(),
		table:    make(map[PageTag]*list.Element),
	}
}

// Get fixes page (f, pageNum) in the buffer and returns its payload.
//
// On a hit the page is fixed and moved to the used-list front. Getting a page
// that is already fixed fails with ErrPageFixed, but the payload is still
// returned so the caller can inspect what it holds; the call is not a second
// pin. On a miss the page is read from f, possibly evicting a victim first.
func (p *Pool) Get(f PageFile, pageNum uint32) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.LogicalReads++
	tag := PageTag{File: f, PageNum: pageNum}

	if el, ok := p.table[tag]; ok {
		s := el.Value.(*slot)
		if s.fixed {
			return s.buf, ErrPageFixed
		}
		s.fixed = true
		p.used.MoveToFront(el)
		p.stats.PageHits++
		return s.buf, nil
	}

	s, err := p.acquireSlot()
	if err != nil {
		return nil, err
	}

	p.stats.PhysicalReads++
	if err := f.ReadPage(pageNum, s.buf); err != nil {
		// Read failed: the slot goes back to the free list and no index
		// entry is created.
		p.free = append(p.free, s)
		return nil, err
	}
	p.stats.PageMisses++

	s.tag = tag
	s.fixed = true
	s.dirty = false
	p.table[tag] = p.used.PushFront(s)
	return s.buf, nil
}

// Unfix releases a fixed page. With dirty=true the slot is marked modified
// and a logical write is counted; dirty=false leaves the flag unchanged (it
// is monotonic until write-back). The page becomes the most recently used
// unfixed slot, so it is eviction-eligible again.
func (p *Pool) Unfix(f PageFile, pageNum uint32, dirty bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	el, ok := p.table[PageTag{File: f, PageNum: pageNum}]
	if !ok {
		return ErrPageNotInBuffer
	}
	s := el.Value.(*slot)
	if !s.fixed {
		return ErrPageNotFixed
	}

	if dirty {
		s.dirty = true
		p.stats.LogicalWrites++
	}
	s.fixed = false
	p.used.MoveToFront(el)
	return nil
}

// Alloc fixes a buffer slot for a brand-new page of f with no existing disk
// image; no physical read happens. The payload is zeroed, matching what the
// raw store would return for a never-written page. Allocating an identity
// that is already resident is a misuse error, not a cache hit.
func (p *Pool) Alloc(f PageFile, pageNum uint32) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tag := PageTag{File: f, PageNum: pageNum}
	if _, ok := p.table[tag]; ok {
		return nil, ErrPageInBuffer
	}

	s, err := p.acquireSlot()
	if err != nil {
		return nil, err
	}
	for i := range s.buf {
		s.buf[i] = 0
	}

	s.tag = tag
	s.fixed = true
	s.dirty = false
	p.table[tag] = p.used.PushFront(s)
	return s.buf, nil
}

// MarkUsed records an in-place modification of a page the caller holds
// fixed: the slot is marked dirty, a logical write is counted, and the slot
// becomes most recently used. Lighter than an unfix+refix pair.
func (p *Pool) MarkUsed(f PageFile, pageNum uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	el, ok := p.table[PageTag{File: f, PageNum: pageNum}]
	if !ok {
		return ErrPageNotInBuffer
	}
	s := el.Value.(*slot)
	if !s.fixed {
		return ErrPageNotFixed
	}

	s.dirty = true
	p.stats.LogicalWrites++
	p.used.MoveToFront(el)
	return nil
}

// ReleaseFile drops every resident page of f, writing back the dirty ones.
// The operation is all-or-nothing: if any page of f is still fixed it fails
// with ErrPageFixed before a single flush, so a file is never half released.
// Used when a file is closed.
func (p *Pool) ReleaseFile(f PageFile) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for el := p.used.Front(); el != nil; el = el.Next() {
		s := el.Value.(*slot)
		if s.tag.File == f && s.fixed {
			return ErrPageFixed
		}
	}

	var next *list.Element
	for el := p.used.Front(); el != nil; el = next {
		next = el.Next()
		s := el.Value.(*slot)
		if s.tag.File != f {
			continue
		}
		if s.dirty {
			if err := p.writeBack(s); err != nil {
				return err
			}
		}
		delete(p.table, s.tag)
		p.used.Remove(el)
		s.tag = PageTag{}
		p.free = append(p.free, s)
	}
	return nil
}

// Reconfigure swaps capacity and replacement policy and resets all
// statistics so reported counters belong to exactly one configuration.
// Meant to run between workloads; resident slots are left alone (after a
// shrink, new acquisitions simply take the eviction path).
func (p *Pool) Reconfigure(capacity int, policy Policy) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if capacity <= 0 || capacity > MaxCapacity {
		return ErrBadCapacity
	}
	if policy != PolicyLRU && policy != PolicyMRU {
		return ErrBadPolicy
	}
	p.capacity = capacity
	p.policy = policy
	p.stats = Stats{}
	return nil
}

// acquireSlot hands out an unlinked slot ready to be rebound: from the free
// list if possible, by growing the pool while under capacity, otherwise by
// evicting a victim. Caller holds p.mu and is responsible for relinking the
// slot at the used-list front under its new tag.
func (p *Pool) acquireSlot() (*slot, error) {
	if n := len(p.free); n > 0 {
		s := p.free[n-1]
		p.free = p.free[:n-1]
		return s, nil
	}

	if p.numSlots < p.capacity {
		p.numSlots++
		return &slot{buf: make([]byte, storage.PageSize)}, nil
	}

	el := p.findVictim()
	if el == nil {
		return nil, ErrNoBufferSpace
	}
	s := el.Value.(*slot)

	if s.dirty {
		// Write-back failure aborts the acquisition; the victim stays
		// resident and dirty, and the pool is untouched.
		if err := p.writeBack(s); err != nil {
			return nil, err
		}
	}

	delete(p.table, s.tag)
	p.used.Remove(el)
	s.tag = PageTag{}
	return s, nil
}

// findVictim scans the used list for the first unfixed slot: tail to head
// under LRU, head to tail under MRU. Fixed slots are never victims.
func (p *Pool) findVictim() *list.Element {
	if p.policy == PolicyMRU {
		for el := p.used.Front(); el != nil; el = el.Next() {
			if !el.Value.(*slot).fixed {
				return el
			}
		}
		return nil
	}
	for el := p.used.Back(); el != nil; el = el.Prev() {
		if !el.Value.(*slot).fixed {
			return el
		}
	}
	return nil
}

// writeBack flushes one dirty slot through the physical-write path. The
// dirty flag clears and the counter increments only after the write
// succeeds.
func (p *Pool) writeBack(s *slot) error {
	if err := s.tag.File.WritePage(s.tag.PageNum, s.buf); err != nil {
		return err
	}
	s.dirty = false
	p.stats.PhysicalWrites++
	return nil
}
