// Package record decodes the framed event records an inotify channel
// delivers: a fixed header followed by a NUL-padded name.
package record

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// HeaderSize is the size of struct inotify_event without its name.
const HeaderSize = 16

// MinBufferSize is the smallest read buffer the kernel accepts for one
// record with a maximal name (NAME_MAX + 1).
const MinBufferSize = HeaderSize + 256

// DefaultBufferSize is enough for a burst of short-named records per read.
const DefaultBufferSize = 4096

// Header is the fixed part of a record.
type Header struct {
	WD     int32
	Mask   uint32
	Cookie uint32
	Len    uint32
}

// Record is one decoded header with its name.
type Record struct {
	Header
	Name string
}

// TruncatedRecordError means fewer bytes than a full header or name were
// available.
type TruncatedRecordError struct {
	Field string
	Want  int
	Got   int
}

func (e *TruncatedRecordError) Error() string {
	return fmt.Sprintf("truncated record: %s needs %d bytes, got %d", e.Field, e.Want, e.Got)
}

// InvalidEncodingError means a name was not valid UTF-8. The record it
// belongs to has been consumed.
type InvalidEncodingError struct {
	Header Header
	Raw    []byte
}

func (e *InvalidEncodingError) Error() string {
	return fmt.Sprintf("invalid utf-8 in name of record for watch %d: %q", e.Header.WD, e.Raw)
}

// DecodeHeader reads a header from the start of b.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, &TruncatedRecordError{Field: "header", Want: HeaderSize, Got: len(b)}
	}
	return Header{
		WD:     int32(binary.NativeEndian.Uint32(b[0:4])),
		Mask:   binary.NativeEndian.Uint32(b[4:8]),
		Cookie: binary.NativeEndian.Uint32(b[8:12]),
		Len:    binary.NativeEndian.Uint32(b[12:16]),
	}, nil
}

// DecodeName strips every trailing NUL from the name field and returns the
// rest as text.
func DecodeName(b []byte) (string, error) {
	name := bytes.TrimRight(b, "\x00")
	if !utf8.Valid(name) {
		return "", &InvalidEncodingError{Raw: append([]byte(nil), name...)}
	}
	return string(name), nil
}

// Reader frames records from a byte stream one at a time.
type Reader struct {
	r   *bufio.Reader
	hdr [HeaderSize]byte
}

// NewReader wraps r with a buffer of size bytes, never less than
// MinBufferSize.
func NewReader(r io.Reader, size int) *Reader {
	if size < MinBufferSize {
		size = MinBufferSize
	}
	return &Reader{r: bufio.NewReaderSize(r, size)}
}

// Next returns the next record. io.EOF is returned when the stream ends
// before the header or before the name of a record. A record that is cut
// off part way yields a *TruncatedRecordError and a name that is not
// UTF-8 an *InvalidEncodingError; in both cases the bytes are consumed.
func (rd *Reader) Next() (Record, error) {
	n, err := io.ReadFull(rd.r, rd.hdr[:])
	if err != nil {
		return Record{}, framingError("header", HeaderSize, n, err)
	}
	h, err := DecodeHeader(rd.hdr[:])
	if err != nil {
		return Record{}, err
	}
	if h.Len == 0 {
		return Record{Header: h}, nil
	}

	raw := make([]byte, h.Len)
	n, err = io.ReadFull(rd.r, raw)
	if err != nil {
		return Record{}, framingError("name", int(h.Len), n, err)
	}
	name, err := DecodeName(raw)
	if err != nil {
		var encErr *InvalidEncodingError
		if errors.As(err, &encErr) {
			encErr.Header = h
		}
		return Record{Header: h}, err
	}
	return Record{Header: h, Name: name}, nil
}

func framingError(field string, want, got int, err error) error {
	switch {
	case errors.Is(err, io.EOF):
		return io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return &TruncatedRecordError{Field: field, Want: want, Got: got}
	default:
		return fmt.Errorf("reading record %s: %w", field, err)
	}
}
