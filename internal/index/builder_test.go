package index_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/MikhailWahib/kvs/internal/index"
	"github.com/MikhailWahib/kvs/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeAll(t *testing.T, entries ...record.Entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, e := range entries {
		_, err := record.Encode(&buf, e)
		require.NoError(t, err)
	}
	return buf.Bytes()
}

func TestBuild_Offsets(t *testing.T) {
	entries := []record.Entry{
		record.NewEntry("1", []byte("1")),
		record.NewEntry("2", []byte("2")),
		record.NewEntry("3", []byte("3")),
	}
	log := encodeAll(t, entries...)

	idx := index.NewHash()
	stats, err := index.Build(bytes.NewReader(log), 0, idx)
	require.NoError(t, err)

	var position int64
	for _, e := range entries {
		off, ok := idx.Get(e.Key)
		require.True(t, ok, "key %s missing", e.Key)
		assert.Equal(t, position, off)
		position += e.Len()
	}
	assert.Equal(t, int64(len(log)), stats.Position)
	assert.Equal(t, 3, stats.Entries)
}

func TestBuild_EmptyLog(t *testing.T) {
	idx := index.NewHash()
	stats, err := index.Build(bytes.NewReader(nil), 0, idx)
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.Position)
	assert.Equal(t, 0, idx.Len())
}

func TestBuild_LastWriterWinsAndTombstones(t *testing.T) {
	first := record.NewEntry("a", []byte("old"))
	second := record.NewEntry("b", []byte("b"))
	update := record.NewEntry("a", []byte("new"))
	tomb := record.Tombstone("b")
	orphan := record.Tombstone("never-written")
	log := encodeAll(t, first, second, update, tomb, orphan)

	idx := index.NewBTree()
	stats, err := index.Build(bytes.NewReader(log), 0, idx)
	require.NoError(t, err)

	off, ok := idx.Get("a")
	require.True(t, ok)
	assert.Equal(t, first.Len()+second.Len(), off, "a should point at its update")

	_, ok = idx.Get("b")
	assert.False(t, ok, "tombstoned key must be absent")
	_, ok = idx.Get("never-written")
	assert.False(t, ok)

	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 5, stats.Entries)
	assert.Equal(t, 2, stats.Tombstones)
	assert.Equal(t, int64(len(log)), stats.Position)
}

func TestBuild_StartOffset(t *testing.T) {
	skipped := record.NewEntry("skipped", []byte("x"))
	kept := record.NewEntry("kept", []byte("y"))
	log := encodeAll(t, skipped, kept)

	r := bytes.NewReader(log)
	_, err := r.Seek(skipped.Len(), io.SeekStart)
	require.NoError(t, err)

	idx := index.NewHash()
	stats, err := index.Build(r, skipped.Len(), idx)
	require.NoError(t, err)

	off, ok := idx.Get("kept")
	require.True(t, ok)
	assert.Equal(t, skipped.Len(), off)
	_, ok = idx.Get("skipped")
	assert.False(t, ok)
	assert.Equal(t, int64(len(log)), stats.Position)
}

func TestBuild_TruncatedTailIsFatal(t *testing.T) {
	log := encodeAll(t, record.NewEntry("a", []byte("1")), record.NewEntry("b", []byte("22")))

	for _, cut := range []int{1, record.HeaderSize, len(log) - 1} {
		_, err := index.Build(bytes.NewReader(log[:len(log)-cut]), 0, index.NewHash())
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF, "cut %d", cut)
	}
}

func TestBuild_InvalidStateIsFatal(t *testing.T) {
	good := record.NewEntry("a", []byte("1"))
	log := encodeAll(t, good, record.NewEntry("b", []byte("2")))
	log[good.Len()+record.ChecksumSize] = 9

	_, err := index.Build(bytes.NewReader(log), 0, index.NewHash())
	assert.ErrorIs(t, err, record.ErrInvalidState)
	assert.ErrorContains(t, err, "offset 13")
}

func TestBuild_DoesNotVerifyChecksums(t *testing.T) {
	log := encodeAll(t, record.NewEntry("a", []byte("1")))
	log[len(log)-1] = '2'

	idx := index.NewHash()
	_, err := index.Build(bytes.NewReader(log), 0, idx)
	require.NoError(t, err)

	_, ok := idx.Get("a")
	assert.True(t, ok)
}
