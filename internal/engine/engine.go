// Package engine implements a log-structured key-value engine over a single
// append-only log.
//
// Every mutation is appended to the end of the log and deletions are written
// as tombstones. An in-memory index from key to the offset of its live entry
// is rebuilt by replaying the log when the engine is created; the index and
// the append position are never persisted on their own.
//
// An Engine is not safe for concurrent use. Reads move the handle's offset
// as well as writes, so callers must serialize every call.
package engine

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/MikhailWahib/kvs/internal/config"
	"github.com/MikhailWahib/kvs/internal/diskmanager"
	"github.com/MikhailWahib/kvs/internal/index"
	"github.com/MikhailWahib/kvs/internal/record"
	"github.com/gofrs/flock"
)

// Engine owns the log handle, the index and the append position.
type Engine struct {
	cfg      *config.Config
	handle   diskmanager.FileHandle
	index    index.Indexer
	position int64

	// set when the engine opened the handle itself
	dm   diskmanager.DiskManager
	path string
	lock *flock.Flock

	closed bool
}

// New creates an engine over h, replaying the log from h's current offset to
// its end. An empty store is a valid empty log.
func New(h diskmanager.FileHandle, cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	} else {
		c := *cfg
		cfg = &c
	}
	cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	idx, err := index.New(cfg.IndexType)
	if err != nil {
		return nil, err
	}

	start, err := h.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("failed to read start offset: %w", err)
	}

	stats, err := index.Build(h, start, idx)
	if err != nil {
		log.Printf("engine: %v", err)
		return nil, err
	}

	if _, err := h.Seek(stats.Position, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to append position: %w", err)
	}

	return &Engine{
		cfg:      cfg,
		handle:   h,
		index:    idx,
		position: stats.Position,
	}, nil
}

// Open opens or creates the log file at path and takes an exclusive lock on
// path+".lock" for the lifetime of the engine. Parent directories are created
// as needed.
func Open(path string, cfg *config.Config) (*Engine, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	e, err := OpenWith(diskmanager.NewDiskManager(), path, cfg)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	e.lock = lock

	log.Printf("engine: opened %s with %d live keys, append position %d", path, e.index.Len(), e.position)
	return e, nil
}

// OpenWith opens or creates the log at path through dm without locking it.
func OpenWith(dm diskmanager.DiskManager, path string, cfg *config.Config) (*Engine, error) {
	h, err := dm.Open(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	e, err := New(h, cfg)
	if err != nil {
		_ = dm.Close(path)
		return nil, err
	}
	e.dm = dm
	e.path = path
	return e, nil
}

// Put appends an active entry for key and points the index at it. The bytes
// of any previous entry for key stay in the log.
func (e *Engine) Put(key string, value []byte) error {
	if e.closed {
		return ErrClosed
	}
	if err := e.checkLimits(key, value); err != nil {
		return err
	}

	entry := record.NewEntry(key, value)
	offset, err := e.append(entry)
	if err != nil {
		return err
	}

	e.index.Put(key, offset)
	return nil
}

// Get returns the value of key's live entry after verifying its checksum.
func (e *Engine) Get(key string) ([]byte, error) {
	if e.closed {
		return nil, ErrClosed
	}

	entry, err := e.read(key)
	if err != nil {
		return nil, err
	}
	return entry.Value, nil
}

// Delete appends a tombstone for key and removes it from the index. It returns
// the previous value and true, or false without touching the log if key has
// no live entry.
func (e *Engine) Delete(key string) ([]byte, bool, error) {
	if e.closed {
		return nil, false, ErrClosed
	}

	prev, err := e.read(key)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if _, err := e.append(record.Tombstone(key)); err != nil {
		return nil, false, err
	}

	e.index.Delete(key)
	return prev.Value, true, nil
}

// Keys yields every live key once, in no particular order. The engine must
// not be modified while iterating.
func (e *Engine) Keys() iter.Seq[string] {
	if e.closed {
		return func(func(string) bool) {}
	}
	return e.index.Keys()
}

// Has reports whether key has a live entry.
func (e *Engine) Has(key string) bool {
	if e.closed {
		return false
	}
	_, ok := e.index.Get(key)
	return ok
}

// Len returns the number of live keys.
func (e *Engine) Len() int {
	return e.index.Len()
}

// Position returns the offset at which the next entry will be appended.
func (e *Engine) Position() int64 {
	return e.position
}

// Dump copies the whole log, up to the append position, to w.
func (e *Engine) Dump(w io.Writer) (int64, error) {
	if e.closed {
		return 0, ErrClosed
	}

	if _, err := e.handle.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to seek to log start: %w", err)
	}
	n, err := io.CopyN(w, e.handle, e.position)
	if rerr := e.restore(); err == nil {
		err = rerr
	}
	return n, err
}

// Close syncs and closes the log and releases the lock.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	err := e.handle.Sync()
	var cerr error
	if e.dm != nil {
		cerr = e.dm.Close(e.path)
	} else {
		cerr = e.handle.Close()
	}
	if err == nil {
		err = cerr
	}

	if e.lock != nil {
		if uerr := e.lock.Unlock(); err == nil {
			err = uerr
		}
	}
	return err
}

// Destroy closes the engine and removes its log and lock file. An engine
// created with New has no path, so its handle is emptied and closed instead.
func (e *Engine) Destroy() error {
	if e.closed {
		return ErrClosed
	}
	e.closed = true

	var err error
	if e.dm != nil {
		err = e.dm.Delete(e.path)
	} else {
		err = e.handle.Truncate(0)
		if cerr := e.handle.Close(); err == nil {
			err = cerr
		}
	}

	if e.lock != nil {
		if uerr := e.lock.Unlock(); err == nil {
			err = uerr
		}
		_ = os.Remove(e.lock.Path())
	}

	if err == nil {
		log.Printf("engine: destroyed log %s", e.path)
	}
	return err
}

func (e *Engine) checkLimits(key string, value []byte) error {
	if !utf8.ValidString(key) {
		return fmt.Errorf("%w: key is not valid utf-8", record.ErrInvalidKey)
	}
	if len(key) > e.cfg.MaxKeyBytes {
		return fmt.Errorf("%w: key is %d bytes, limit %d", ErrMaxKeyBytes, len(key), e.cfg.MaxKeyBytes)
	}
	if int64(len(value)) > e.cfg.MaxValueBytes {
		return fmt.Errorf("%w: value is %d bytes, limit %d", ErrMaxValueBytes, len(value), e.cfg.MaxValueBytes)
	}
	return nil
}

// append writes entry at the append position and returns the offset it was
// written at. On failure the log is truncated back to the append position.
func (e *Engine) append(entry record.Entry) (int64, error) {
	offset := e.position

	if _, err := e.handle.Seek(offset, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to seek to append position: %w", err)
	}

	n, err := record.Encode(e.handle, entry)
	if err == nil && e.cfg.ShouldSync() {
		err = e.handle.Sync()
	}
	if err != nil {
		if terr := e.handle.Truncate(offset); terr != nil {
			log.Printf("engine: failed to truncate torn entry at offset %d: %v", offset, terr)
		}
		return 0, err
	}
	if int64(n) != entry.Len() {
		panic(fmt.Sprintf("engine: wrote %d bytes for a %d byte entry", n, entry.Len()))
	}

	e.position += int64(n)
	return offset, nil
}

// read decodes and verifies key's live entry, then moves the handle back to
// the append position.
func (e *Engine) read(key string) (record.Entry, error) {
	offset, ok := e.index.Get(key)
	if !ok {
		return record.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	if _, err := e.handle.Seek(offset, io.SeekStart); err != nil {
		return record.Entry{}, fmt.Errorf("failed to seek to entry: %w", err)
	}
	entry, err := record.DecodeWithCheck(e.handle)
	if rerr := e.restore(); err == nil && rerr != nil {
		return record.Entry{}, rerr
	}
	if err != nil {
		if errors.Is(err, record.ErrCorruptData) {
			log.Printf("engine: corrupt entry for key %q at offset %d", key, offset)
		}
		return record.Entry{}, fmt.Errorf("failed to read %q at offset %d: %w", key, offset, err)
	}

	if entry.Key != key || entry.IsDeleted() {
		return record.Entry{}, fmt.Errorf("%w: index points key %q at %s entry for %q", record.ErrCorruptData, key, entry.State, entry.Key)
	}
	return entry, nil
}

func (e *Engine) restore() error {
	if _, err := e.handle.Seek(e.position, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek back to append position: %w", err)
	}
	return nil
}
