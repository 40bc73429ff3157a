package storage

import (
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// File is a raw page store: an open OS file addressed as a sequence of
// fixed-size pages. It knows nothing about page contents or caching; the
// buffer pool sits on top and is the only component that should read or
// write pages of an open file at steady state.
type File struct {
	f         *os.File
	path      string
	pageCount uint32
}

// Create makes a new empty page file. It fails if the file already exists.
func Create(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, FileMode0644)
	if err != nil {
		return nil, errors.Wrapf(err, "create page file %s", path)
	}
	log.WithField("path", path).Debug("page file created")
	return &File{f: f, path: path}, nil
}

// Open opens an existing page file. The page count is derived from the file
// size; a trailing partial page is ignored.
func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, FileMode0644)
	if err != nil {
		return nil, errors.Wrapf(err, "open page file %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "stat page file %s", path)
	}
	return &File{
		f:         f,
		path:      path,
		pageCount: uint32(info.Size() / PageSize),
	}, nil
}

// ReadPage reads page pageNum into dst. Anything past the physical EOF is
// zero-filled: an allocated page that was never written back reads as a zero
// page. Page numbers at or beyond the allocated count fail with
// ErrInvalidPage so callers can tell "not yet allocated" from an I/O error.
func (f *File) ReadPage(pageNum uint32, dst []byte) error {
	if f.f == nil {
		return ErrFileClosed
	}
	if len(dst) != PageSize {
		return ErrWrongSize
	}
	if pageNum >= f.pageCount {
		return errors.Wrapf(ErrInvalidPage, "%s page %d (have %d)", f.path, pageNum, f.pageCount)
	}

	n, err := f.f.ReadAt(dst, int64(pageNum)*PageSize)
	if err != nil && err != io.EOF {
		return errors.Wrapf(err, "read %s page %d", f.path, pageNum)
	}
	for i := n; i < PageSize; i++ {
		dst[i] = 0
	}
	return nil
}

// WritePage writes one page at its offset.
func (f *File) WritePage(pageNum uint32, src []byte) error {
	if f.f == nil {
		return ErrFileClosed
	}
	if len(src) != PageSize {
		return ErrWrongSize
	}

	n, err := f.f.WriteAt(src, int64(pageNum)*PageSize)
	if err != nil {
		return errors.Wrapf(err, "write %s page %d", f.path, pageNum)
	}
	if n != PageSize {
		return errors.Wrapf(io.ErrShortWrite, "write %s page %d", f.path, pageNum)
	}
	if pageNum >= f.pageCount {
		f.pageCount = pageNum + 1
	}
	return nil
}

// AllocatePage appends one logical page and returns its number. The file is
// extended immediately so the new page reads back as zeros even before any
// write-back reaches it.
func (f *File) AllocatePage() (uint32, error) {
	if f.f == nil {
		return 0, ErrFileClosed
	}
	pageNum := f.pageCount
	if err := f.f.Truncate(int64(pageNum+1) * PageSize); err != nil {
		return 0, errors.Wrapf(err, "extend %s to page %d", f.path, pageNum)
	}
	f.pageCount = pageNum + 1
	return pageNum, nil
}

// PageCount returns the number of allocated pages.
func (f *File) PageCount() uint32 {
	return f.pageCount
}

// Name returns the path the file was opened with.
func (f *File) Name() string {
	return f.path
}

// Close closes the underlying OS file. The caller must have released the
// file's pages from any buffer pool first; Close does not flush caches it
// does not know about.
func (f *File) Close() error {
	if f.f == nil {
		return ErrFileClosed
	}
	err := f.f.Close()
	f.f = nil
	if err != nil {
		return errors.Wrapf(err, "close page file %s", f.path)
	}
	return nil
}
