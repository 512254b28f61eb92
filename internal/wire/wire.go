// Package wire frames cached entries with their absolute expiry, so per-entry
// TTL holds even on providers without native per-entry TTL (e.g. BigCache).
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const version byte = 1

var (
	ErrCorrupt = errors.New("blitzcache: corrupt entry")
	magic4     = [...]byte{'B', 'L', 'T', 'Z'}
)

const hdrLen = 4 + 1 + 8 + 4

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode frames payload as:
// magic(4) | ver(1) | expiresAt(i64 be, unix nanos, 0 = no expiry) | vlen(u32 be) | payload(vlen)
func Encode(expiresAt int64, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], uint64(expiresAt))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

// Decode validates the frame strictly: bad magic, wrong version, or a total
// length that disagrees with vlen (including trailing bytes) returns
// ErrCorrupt.
func Decode(b []byte) (expiresAt int64, payload []byte, err error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version {
		return 0, nil, ErrCorrupt
	}
	expiresAt = int64(binary.BigEndian.Uint64(b[5:13]))
	vlen := binary.BigEndian.Uint32(b[13:hdrLen])
	if uint64(len(b)) != uint64(hdrLen)+uint64(vlen) {
		return 0, nil, ErrCorrupt
	}
	return expiresAt, b[hdrLen:], nil
}
