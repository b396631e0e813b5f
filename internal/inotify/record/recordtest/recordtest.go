// Package recordtest builds raw inotify records for tests that feed a
// record.Reader without a kernel.
package recordtest

import "encoding/binary"

// headerSize mirrors record.HeaderSize. It is repeated here so the record
// package's own tests can import this one.
const headerSize = 16

// Encode builds a record the way the kernel lays it out. The name is NUL
// terminated and then padded with pad further NUL bytes. An empty name with
// no padding produces a header-only record.
func Encode(wd int32, mask, cookie uint32, name string, pad int) []byte {
	n := 0
	if name != "" || pad > 0 {
		n = len(name) + 1 + pad
	}
	b := make([]byte, headerSize+n)
	binary.NativeEndian.PutUint32(b[0:4], uint32(wd))
	binary.NativeEndian.PutUint32(b[4:8], mask)
	binary.NativeEndian.PutUint32(b[8:12], cookie)
	binary.NativeEndian.PutUint32(b[12:16], uint32(n))
	copy(b[headerSize:], name)
	return b
}

// AlignedPad returns the padding that rounds a name up to the header size,
// which is what the kernel does.
func AlignedPad(name string) int {
	n := len(name) + 1
	if r := n % headerSize; r != 0 {
		return headerSize - r
	}
	return 0
}
