package record

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"unicode/utf8"
)

// Serialize converts an Entry to its on-disk byte form.
func Serialize(e Entry) []byte {
	keyLen := len(e.Key)
	buf := make([]byte, HeaderSize+keyLen+len(e.Value))

	binary.BigEndian.PutUint32(buf[0:ChecksumSize], e.Checksum)
	putHeaderTail(buf[ChecksumSize:HeaderSize], e.State, keyLen, len(e.Value))
	copy(buf[HeaderSize:], e.Key)
	copy(buf[HeaderSize+keyLen:], e.Value)

	return buf
}

// Encode writes the entry to w in a single write and returns the number of bytes written.
func Encode(w io.Writer, e Entry) (int, error) {
	n, err := w.Write(Serialize(e))
	if err != nil {
		return n, fmt.Errorf("failed to write entry: %w", err)
	}
	return n, nil
}

// Decode reads one entry from r without verifying its checksum.
//
// It returns io.EOF when r is exhausted before the first header byte, and
// io.ErrUnexpectedEOF when r ends partway through an entry.
func Decode(r io.Reader) (Entry, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Entry{}, err
	}

	checksum := binary.BigEndian.Uint32(hdr[0:ChecksumSize])
	state, err := parseState(hdr[ChecksumSize])
	if err != nil {
		return Entry{}, err
	}
	keyLen := int(binary.BigEndian.Uint16(hdr[ChecksumSize+StateSize : ChecksumSize+StateSize+KeyLenSize]))
	valLen := int64(binary.BigEndian.Uint32(hdr[ChecksumSize+StateSize+KeyLenSize : HeaderSize]))

	key := make([]byte, keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return Entry{}, unexpected(err)
	}
	if !utf8.Valid(key) {
		return Entry{}, fmt.Errorf("%w: key bytes are not valid utf-8", ErrInvalidKey)
	}

	value, err := readValue(r, valLen)
	if err != nil {
		return Entry{}, unexpected(err)
	}

	return Entry{
		Checksum: checksum,
		State:    state,
		Key:      string(key),
		Value:    value,
	}, nil
}

// DecodeWithCheck reads one entry from r and verifies its checksum.
func DecodeWithCheck(r io.Reader) (Entry, error) {
	e, err := Decode(r)
	if err != nil {
		return Entry{}, err
	}
	if err := e.Verify(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Verify recomputes the checksum of e and compares it to the stored one.
func (e Entry) Verify() error {
	if sum := e.computeChecksum(); sum != e.Checksum {
		return fmt.Errorf("%w: key %q stored %08x computed %08x", ErrCorruptData, e.Key, e.Checksum, sum)
	}
	return nil
}

func (e Entry) computeChecksum() uint32 {
	var tail [HeaderSize - ChecksumSize]byte
	putHeaderTail(tail[:], e.State, len(e.Key), len(e.Value))

	h := crc32.NewIEEE()
	_, _ = h.Write(tail[:])
	_, _ = io.WriteString(h, e.Key)
	_, _ = h.Write(e.Value)
	return h.Sum32()
}

func putHeaderTail(buf []byte, state State, keyLen, valLen int) {
	buf[0] = byte(state)
	binary.BigEndian.PutUint16(buf[StateSize:StateSize+KeyLenSize], uint16(keyLen))
	binary.BigEndian.PutUint32(buf[StateSize+KeyLenSize:StateSize+KeyLenSize+ValueLenSize], uint32(valLen))
}

// readValue reads exactly n bytes, allocating at most 1MiB ahead of the data read.
func readValue(r io.Reader, n int64) ([]byte, error) {
	const chunk = 1 << 20
	if n <= chunk {
		buf := make([]byte, n)
		_, err := io.ReadFull(r, buf)
		return buf, err
	}
	buf := make([]byte, 0, chunk)
	for int64(len(buf)) < n {
		next := min(n-int64(len(buf)), chunk)
		start := len(buf)
		buf = append(buf, make([]byte, next)...)
		if _, err := io.ReadFull(r, buf[start:]); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// unexpected reports a stream that ended after the header as truncated.
func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
