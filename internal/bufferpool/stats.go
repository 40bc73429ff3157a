package bufferpool

// Stats holds the pool's monotonically increasing counters. Logical counts
// track caller intent (every Get, every dirtying Unfix/MarkUsed); physical
// counts track actual disk I/O. They reset only on Reconfigure so reported
// numbers stay attributable to one configuration.
type Stats struct {
	LogicalReads   uint64
	LogicalWrites  uint64
	PhysicalReads  uint64
	PhysicalWrites uint64
	PageHits       uint64
	PageMisses     uint64
}

// Stats returns a point-in-time copy of the counters. Reading is
// non-destructive.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
