package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestFile creates a fresh page file in a temp directory.
func newTestFile(t *testing.T) *File {
	t.Helper()

	f, err := Create(filepath.Join(t.TempDir(), "pages.sp"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestCreate_FailsIfExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pages.sp")

	f, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Create(path)
	require.Error(t, err)
}

func TestFile_AllocateReadWrite(t *testing.T) {
	f := newTestFile(t)
	require.Equal(t, uint32(0), f.PageCount())

	pageNum, err := f.AllocatePage()
	require.NoError(t, err)
	require.Equal(t, uint32(0), pageNum)
	require.Equal(t, uint32(1), f.PageCount())

	// A freshly allocated page reads as zeros.
	buf := make([]byte, PageSize)
	buf[0] = 0xFF // stale caller data must be overwritten
	require.NoError(t, f.ReadPage(0, buf))
	for i, b := range buf {
		require.Zerof(t, b, "byte %d", i)
	}

	buf[0] = 0xAB
	buf[PageSize-1] = 0xCD
	require.NoError(t, f.WritePage(0, buf))

	got := make([]byte, PageSize)
	require.NoError(t, f.ReadPage(0, got))
	require.Equal(t, buf, got)
}

func TestFile_ReadPage_InvalidPage(t *testing.T) {
	f := newTestFile(t)

	buf := make([]byte, PageSize)
	err := f.ReadPage(0, buf)
	require.ErrorIs(t, err, ErrInvalidPage)

	_, err = f.AllocatePage()
	require.NoError(t, err)

	require.NoError(t, f.ReadPage(0, buf))
	require.ErrorIs(t, f.ReadPage(1, buf), ErrInvalidPage)
}

func TestFile_WrongBufferSize(t *testing.T) {
	f := newTestFile(t)
	_, err := f.AllocatePage()
	require.NoError(t, err)

	short := make([]byte, PageSize-1)
	require.ErrorIs(t, f.ReadPage(0, short), ErrWrongSize)
	require.ErrorIs(t, f.WritePage(0, short), ErrWrongSize)
}

func TestFile_WriteExtendsPageCount(t *testing.T) {
	f := newTestFile(t)

	buf := make([]byte, PageSize)
	buf[7] = 7
	require.NoError(t, f.WritePage(2, buf))
	require.Equal(t, uint32(3), f.PageCount())

	// Pages 0 and 1 exist now and read as zeros (sparse tail).
	zero := make([]byte, PageSize)
	got := make([]byte, PageSize)
	require.NoError(t, f.ReadPage(0, got))
	require.Equal(t, zero, got)
	require.NoError(t, f.ReadPage(1, got))
	require.Equal(t, zero, got)

	require.NoError(t, f.ReadPage(2, got))
	require.Equal(t, byte(7), got[7])
}

func TestFile_ReopenKeepsPageCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pages.sp")

	f, err := Create(path)
	require.NoError(t, err)

	buf := make([]byte, PageSize)
	buf[0] = 1
	require.NoError(t, f.WritePage(0, buf))
	_, err = f.AllocatePage()
	require.NoError(t, err)
	require.Equal(t, uint32(2), f.PageCount())
	require.NoError(t, f.Close())

	f2, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = f2.Close() }()

	require.Equal(t, uint32(2), f2.PageCount())
	got := make([]byte, PageSize)
	require.NoError(t, f2.ReadPage(0, got))
	require.Equal(t, byte(1), got[0])
}

func TestFile_ClosedOperationsFail(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Close())

	buf := make([]byte, PageSize)
	require.ErrorIs(t, f.ReadPage(0, buf), ErrFileClosed)
	require.ErrorIs(t, f.WritePage(0, buf), ErrFileClosed)
	_, err := f.AllocatePage()
	require.ErrorIs(t, err, ErrFileClosed)
	require.ErrorIs(t, f.Close(), ErrFileClosed)
}
