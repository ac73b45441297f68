// Package record implements the on-disk entry format of the log.
//
// Every entry is laid out as:
//
//	[4 bytes Checksum][1 byte State][2 bytes KeyLen][4 bytes ValueLen][Key][Value]
//
// All integers are big-endian. The checksum is a CRC-32 (IEEE) over every
// byte of the entry that follows it.
package record

// ChecksumSize is the size in bytes of the CRC-32 checksum
const ChecksumSize = 4

// StateSize is the size in bytes used to store the entry state marker
const StateSize = 1

// KeyLenSize is the size in bytes of the key length prefix
const KeyLenSize = 2

// ValueLenSize is the size in bytes of the value length prefix
const ValueLenSize = 4

// HeaderSize is the total size of entry metadata (checksum + state + key length + value length)
const HeaderSize = ChecksumSize + StateSize + KeyLenSize + ValueLenSize // 11 bytes

// MaxKeyLen is the largest key length the format can express.
const MaxKeyLen = 1<<16 - 1

// MaxValueLen is the largest value length the format can express.
const MaxValueLen = 1<<32 - 1
