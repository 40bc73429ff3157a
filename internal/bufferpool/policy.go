package bufferpool

import "fmt"

// Policy selects how a victim slot is chosen when the pool is full.
type Policy int

const (
	// PolicyLRU evicts the least recently used unfixed slot (used-list tail).
	PolicyLRU Policy = iota + 1
	// PolicyMRU evicts the most recently used unfixed slot (used-list head).
	// Useful to study access patterns, e.g. cyclic full scans, where LRU
	// degenerates to a miss on every touch.
	PolicyMRU
)

func (p Policy) String() string {
	switch p {
	case PolicyLRU:
		return "lru"
	case PolicyMRU:
		return "mru"
	default:
		return "unknown"
	}
}

// ParsePolicy maps a config string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "lru":
		return PolicyLRU, nil
	case "mru":
		return PolicyMRU, nil
	default:
		return 0, fmt.Errorf("invalid replacement policy: %q", s)
	}
}
