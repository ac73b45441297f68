// Package memdm provides a memory-backed implementation of the disk manager.
// The engine runs unchanged on top of it, which the tests rely on.
package memdm

import (
	"errors"
	"io"
	"os"

	"github.com/MikhailWahib/kvs/internal/diskmanager"
)

var errNegativeOffset = errors.New("memdm: negative offset")

var _ diskmanager.FileHandle = (*MemFile)(nil)

// MemFile implements diskmanager.FileHandle over a growable byte slice
type MemFile struct {
	data []byte
	off  int64
}

// NewMemFile returns a MemFile holding a copy of data, positioned at offset 0.
func NewMemFile(data []byte) *MemFile {
	return &MemFile{data: append([]byte(nil), data...)}
}

// Read reads up to len(b) bytes from the current offset
func (m *MemFile) Read(b []byte) (int, error) {
	if m.off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(b, m.data[m.off:])
	m.off += int64(n)
	return n, nil
}

// Write writes b at the current offset, extending the data if needed
func (m *MemFile) Write(b []byte) (int, error) {
	requiredLen := m.off + int64(len(b))
	if requiredLen > int64(len(m.data)) {
		newData := make([]byte, requiredLen)
		copy(newData, m.data)
		m.data = newData
	}
	n := copy(m.data[m.off:], b)
	m.off += int64(n)
	return n, nil
}

// Seek sets the offset for the next Read or Write
func (m *MemFile) Seek(off int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = off
	case io.SeekCurrent:
		abs = m.off + off
	case io.SeekEnd:
		abs = int64(len(m.data)) + off
	default:
		return 0, errors.New("memdm: invalid whence")
	}
	if abs < 0 {
		return 0, errNegativeOffset
	}
	m.off = abs
	return abs, nil
}

// Truncate changes the size of the data
func (m *MemFile) Truncate(size int64) error {
	if size < 0 {
		return errNegativeOffset
	}
	if size <= int64(len(m.data)) {
		m.data = m.data[:size]
		return nil
	}
	m.data = append(m.data, make([]byte, size-int64(len(m.data)))...)
	return nil
}

// Close closes the mock file
func (m *MemFile) Close() error {
	return nil
}

// Sync is a no-op for memory
func (m *MemFile) Sync() error {
	return nil
}

// Bytes returns a copy of the current contents
func (m *MemFile) Bytes() []byte {
	return append([]byte(nil), m.data...)
}

// MemDiskManager implements diskmanager.DiskManager in memory
type MemDiskManager struct {
	files map[string]*MemFile
}

// NewMemDiskManager creates a new MemDiskManager instance
func NewMemDiskManager() *MemDiskManager {
	return &MemDiskManager{
		files: make(map[string]*MemFile),
	}
}

// Open creates or opens a memory file. Reopening a path rewinds it to offset 0.
func (dm *MemDiskManager) Open(path string, flags int, _ os.FileMode) (diskmanager.FileHandle, error) {
	if file, exists := dm.files[path]; exists {
		file.off = 0
		return file, nil
	}
	if flags&os.O_CREATE == 0 {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}

	file := NewMemFile(nil)
	dm.files[path] = file
	return file, nil
}

// Delete removes a memory file
func (dm *MemDiskManager) Delete(path string) error {
	if _, exists := dm.files[path]; !exists {
		return &os.PathError{Op: "remove", Path: path, Err: os.ErrNotExist}
	}
	delete(dm.files, path)
	return nil
}

// Close is a no-op; the contents stay available for a later Open
func (dm *MemDiskManager) Close(_ string) error {
	return nil
}
