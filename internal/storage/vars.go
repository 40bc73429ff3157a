package storage

import "errors"

const (
	OneB  = 1 << 0  // 1
	OneKB = 1 << 10 // 1,024
	OneMB = 1 << 20 // 1,048,576

	// PageSize is the fixed size of every page. It is part of the on-disk
	// contract: existing files were written with 4 KiB pages.
	PageSize = 1 << 12 // 4,096 (4 KiB)
)

const (
	FileMode0644 = 0o644
	FileMode0755 = 0o755
)

var (
	// ErrInvalidPage marks a page number that has not been allocated yet.
	// Callers distinguish it from genuine I/O failures: the record layer
	// falls back to page allocation when it sees this.
	ErrInvalidPage = errors.New("storage: page not allocated")

	ErrWrongSize  = errors.New("storage: buffer size != PageSize")
	ErrFileClosed = errors.New("storage: file is closed")
)
