// Package kvs is a persistent key-value store built on a single append-only log.
//
// Every write is appended to the end of the log file and deletions are
// recorded as tombstones. An in-memory index of live keys is rebuilt by
// replaying the log on open, so the log alone is the source of truth.
//
// Example usage:
//
//	store, err := kvs.Open("/path/to/data.kvs", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	if err := store.Put("greeting", "hello"); err != nil {
//		log.Printf("Put failed: %v", err)
//	}
//
//	var greeting string
//	if err := store.Get("greeting", &greeting); kvs.IsNotFound(err) {
//		fmt.Println("no greeting")
//	}
//
//	if _, err := store.Delete("greeting", nil); err != nil {
//		log.Printf("Delete failed: %v", err)
//	}
package kvs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"slices"
	"sync"

	"github.com/MikhailWahib/kvs/internal/config"
	"github.com/MikhailWahib/kvs/internal/diskmanager/memdm"
	"github.com/MikhailWahib/kvs/internal/engine"
	"github.com/klauspost/compress/s2"
)

// Config is an alias for config.Config, re-exported for user convenience.
type Config = config.Config

// DefaultConfig returns a Config struct populated with default values. Re-exported for user convenience.
var DefaultConfig = config.DefaultConfig

// LoadConfig reads a YAML config file. Re-exported for user convenience.
var LoadConfig = config.LoadFile

// Compression and IndexType are re-exported config enums.
type (
	Compression = config.Compression
	IndexType   = config.IndexType
)

const (
	CompressionNone = config.CompressionNone
	CompressionS2   = config.CompressionS2

	IndexHash     = config.IndexHash
	IndexBTree    = config.IndexBTree
	IndexART      = config.IndexART
	IndexSkipList = config.IndexSkipList
)

// Store is a thread-safe typed key-value store. Values are stored as JSON,
// optionally compressed with S2.
type Store struct {
	mu          sync.Mutex
	engine      *engine.Engine
	compression config.Compression
}

// Open opens or creates the store whose log lives at path.
//
// The parent directory is created if it doesn't exist. The log is locked for
// as long as the store is open; a second Open of the same path fails with
// ErrLocked.
func Open(path string, cfg *Config) (*Store, error) {
	cfg = prepare(cfg)
	e, err := engine.Open(path, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{engine: e, compression: cfg.Compression}, nil
}

// OpenMemory returns a store that keeps its log in memory.
func OpenMemory(cfg *Config) (*Store, error) {
	return OpenBytes(nil, cfg)
}

// OpenBytes returns an in-memory store replayed from a log previously written
// by Dump.
func OpenBytes(log []byte, cfg *Config) (*Store, error) {
	cfg = prepare(cfg)
	e, err := engine.New(memdm.NewMemFile(log), cfg)
	if err != nil {
		return nil, err
	}
	return &Store{engine: e, compression: cfg.Compression}, nil
}

func prepare(cfg *Config) *Config {
	if cfg == nil {
		return config.DefaultConfig()
	}
	c := *cfg
	c.FillDefaults()
	return &c
}

// Put stores the JSON encoding of v under key.
func (s *Store) Put(key string, v any) error {
	data, err := s.encode(v)
	if err != nil {
		return err
	}
	return s.PutRaw(key, data)
}

// Get decodes the value stored under key into out.
func (s *Store) Get(key string, out any) error {
	data, err := s.GetRaw(key)
	if err != nil {
		return err
	}
	return s.decode(data, out)
}

// Delete removes key. If it was present, its previous value is decoded into
// out unless out is nil, and true is returned.
func (s *Store) Delete(key string, out any) (bool, error) {
	data, found, err := s.DeleteRaw(key)
	if err != nil || !found || out == nil {
		return found, err
	}
	return true, s.decode(data, out)
}

// PutRaw stores value under key as is.
func (s *Store) PutRaw(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Put(key, value)
}

// GetRaw returns the bytes stored under key.
func (s *Store) GetRaw(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Get(key)
}

// DeleteRaw removes key and returns its previous bytes.
func (s *Store) DeleteRaw(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Delete(key)
}

// Exists reports whether key has a live value.
func (s *Store) Exists(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Has(key)
}

// Keys yields a snapshot of the live keys taken when iteration starts, in no
// particular order. The store may be modified while iterating.
func (s *Store) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		s.mu.Lock()
		keys := slices.Collect(s.engine.Keys())
		s.mu.Unlock()

		for _, k := range keys {
			if !yield(k) {
				return
			}
		}
	}
}

// Len returns the number of live keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Len()
}

// Dump writes the raw log to w. The output can be reopened with OpenBytes.
func (s *Store) Dump(w io.Writer) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Dump(w)
}

// Close flushes and closes the log. The store must not be used afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Close()
}

// Scan calls fn with the raw bytes of every live key in a snapshot of the
// keys, stopping at the first error fn returns. Keys deleted after the
// snapshot is taken are skipped.
func (s *Store) Scan(fn func(key string, raw []byte) error) error {
	for key := range s.Keys() {
		raw, err := s.GetRaw(key)
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	return nil
}

// Destroy closes the store and removes its log from disk. An in-memory
// store is emptied. The store must not be used afterwards.
func (s *Store) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Destroy()
}

// All decodes every live value that holds a T. Values that do not decode as
// T are skipped; engine errors are returned.
func All[T any](s *Store) (map[string]T, error) {
	out := make(map[string]T)
	for key := range s.Keys() {
		var v T
		err := s.Get(key, &v)
		switch {
		case err == nil:
			out[key] = v
		case IsSerialize(err), IsNotFound(err):
			// not a T, or deleted since the snapshot
		default:
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialize, err)
	}
	if s.compression == config.CompressionS2 {
		data = s2.Encode(nil, data)
	}
	return data, nil
}

func (s *Store) decode(data []byte, out any) error {
	if s.compression == config.CompressionS2 {
		var err error
		data, err = s2.Decode(nil, data)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSerialize, err)
		}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrSerialize, err)
	}
	return nil
}
