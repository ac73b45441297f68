// Package diskmanager provides the byte store abstraction the engine runs on.
// A FileHandle is a seekable readable and writable byte store; the file-backed
// variant lives here and a memory-backed one lives in memdm.
package diskmanager

import (
	"io"
	"os"
	"path/filepath"
)

// FileHandle abstracts a seekable byte store with syncing and truncation.
type FileHandle interface {
	io.Reader
	io.Writer
	// Seek sets the offset for the next Read or Write.
	io.Seeker
	// Close closes the handle, rendering it unusable for I/O.
	Close() error
	// Sync commits the current contents of the store to stable storage.
	Sync() error
	// Truncate changes the size of the store. It does not move the offset.
	Truncate(size int64) error
}

type fileHandle struct {
	file *os.File
}

// NewFileHandle wraps an *os.File into a FileHandle implementation.
func NewFileHandle(file *os.File) FileHandle { return &fileHandle{file: file} }

func (fh *fileHandle) Read(b []byte) (int, error) { return fh.file.Read(b) }

func (fh *fileHandle) Write(b []byte) (int, error) { return fh.file.Write(b) }

func (fh *fileHandle) Seek(off int64, whence int) (int64, error) { return fh.file.Seek(off, whence) }

func (fh *fileHandle) Close() error { return fh.file.Close() }

func (fh *fileHandle) Sync() error { return fh.file.Sync() }

func (fh *fileHandle) Truncate(size int64) error { return fh.file.Truncate(size) }

// DiskManager defines methods for file operations.
type DiskManager interface {
	// Open opens a file with specified path, flags and permissions.
	// Missing parent directories are created. If the file is already open,
	// returns the existing handle.
	Open(path string, flags int, perm os.FileMode) (FileHandle, error)
	// Delete removes the named file and closes its handle if open.
	Delete(path string) error
	// Close closes the file handle for the file at path if it exists.
	Close(path string) error
}

type diskManager struct {
	fileHandles map[string]FileHandle
}

// NewDiskManager creates a new DiskManager instance.
func NewDiskManager() DiskManager {
	return &diskManager{
		fileHandles: make(map[string]FileHandle),
	}
}

// Open opens a file with the given flags and permissions.
// It caches the file handle keyed by path.
func (dm *diskManager) Open(path string, flags int, perm os.FileMode) (FileHandle, error) {
	if handle, exists := dm.fileHandles[path]; exists {
		return handle, nil
	}
	if flags&os.O_CREATE != 0 {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, flags, perm)
	if err != nil {
		return nil, err
	}
	handle := NewFileHandle(file)
	dm.fileHandles[path] = handle
	return handle, nil
}

func (dm *diskManager) Delete(path string) error {
	if handle, exists := dm.fileHandles[path]; exists {
		_ = handle.Close()
		delete(dm.fileHandles, path)
	}
	return os.Remove(path)
}

func (dm *diskManager) Close(path string) error {
	handle, exists := dm.fileHandles[path]
	if !exists {
		return nil
	}
	err := handle.Close()
	if err != nil {
		return err
	}
	delete(dm.fileHandles, path)
	return nil
}
