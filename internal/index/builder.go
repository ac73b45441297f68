package index

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/MikhailWahib/kvs/internal/record"
)

// Stats summarizes a replay.
type Stats struct {
	// Entries is the number of entries read, tombstones included.
	Entries int
	// Tombstones is the number of deleted entries read.
	Tombstones int
	// Position is the offset just past the last entry, where the next append goes.
	Position int64
}

// Build replays the log from r into idx. r must be positioned at start, the
// log offset of its first byte.
//
// Active entries set their key's offset and tombstones remove the key, so
// idx ends up holding only the most recent live entry of every key. Replay
// ends cleanly only when r is exhausted exactly at an entry boundary; any
// other decode failure means the log is corrupt and is returned as is.
// Checksums are not verified here.
func Build(r io.Reader, start int64, idx Indexer) (Stats, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	stats := Stats{Position: start}

	for {
		e, err := record.Decode(br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return stats, nil
			}
			return stats, fmt.Errorf("replay failed at offset %d: %w", stats.Position, err)
		}

		if e.IsDeleted() {
			// An older live entry for the key may precede the tombstone.
			idx.Delete(e.Key)
			stats.Tombstones++
		} else {
			idx.Put(e.Key, stats.Position)
		}

		stats.Entries++
		stats.Position += e.Len()
	}
}
