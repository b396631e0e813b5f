package record

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dominicbreuker/notifywatch/internal/inotify/record/recordtest"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		wd     int32
		mask   uint32
		cookie uint32
		file   string
		pad    int
	}{
		{name: "empty", wd: 1, mask: 0x100, file: "", pad: 0},
		{name: "empty-padded", wd: 1, mask: 0x4, file: "", pad: 15},
		{name: "one-char", wd: 2, mask: 0x200, file: "a", pad: 0},
		{name: "one-char-aligned", wd: 2, mask: 0x200, file: "a", pad: recordtest.AlignedPad("a")},
		{name: "long", wd: 7, mask: 0x40, cookie: 4711, file: "report-2024.txt", pad: 0},
		{name: "long-aligned", wd: 7, mask: 0x80, cookie: 4711, file: "report-2024.txt", pad: recordtest.AlignedPad("report-2024.txt")},
		{name: "long-extra-padding", wd: 9, mask: 0x2, file: "καλημέρα.md", pad: 33},
		{name: "negative-wd", wd: -1, mask: 0x4000, file: "", pad: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := recordtest.Encode(tt.wd, tt.mask, tt.cookie, tt.file, tt.pad)

			h, err := DecodeHeader(b)
			require.NoError(t, err)
			require.Equal(t, tt.wd, h.WD)
			require.Equal(t, tt.mask, h.Mask)
			require.Equal(t, tt.cookie, h.Cookie)
			require.Equal(t, len(b)-HeaderSize, int(h.Len))

			name, err := DecodeName(b[HeaderSize:])
			require.NoError(t, err)
			require.Equal(t, tt.file, name)

			rec, err := NewReader(bytes.NewReader(b), 0).Next()
			require.NoError(t, err)
			require.Equal(t, Record{Header: h, Name: tt.file}, rec)
		})
	}
}

func TestDecodeHeaderTruncated(t *testing.T) {
	_, err := DecodeHeader(make([]byte, HeaderSize-1))
	var truncErr *TruncatedRecordError
	require.ErrorAs(t, err, &truncErr)
	require.Equal(t, "header", truncErr.Field)
	require.Equal(t, HeaderSize-1, truncErr.Got)
}

func TestDecodeNameInvalid(t *testing.T) {
	_, err := DecodeName([]byte{'a', 0xff, 0xfe, 0, 0})
	var encErr *InvalidEncodingError
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, []byte{'a', 0xff, 0xfe}, encErr.Raw)
}

func TestReaderSequence(t *testing.T) {
	var stream bytes.Buffer
	names := []string{"first", "second", "third", ""}
	for i, n := range names {
		stream.Write(recordtest.Encode(int32(i+1), 0x100, uint32(i), n, recordtest.AlignedPad(n)))
	}

	rd := NewReader(&stream, DefaultBufferSize)
	for i, n := range names {
		rec, err := rd.Next()
		require.NoError(t, err)
		require.Equal(t, int32(i+1), rec.WD)
		require.Equal(t, uint32(i), rec.Cookie)
		require.Equal(t, n, rec.Name)
	}
	_, err := rd.Next()
	require.Equal(t, io.EOF, err)
}

func TestReaderEndOfStream(t *testing.T) {
	t.Run("at-header", func(t *testing.T) {
		_, err := NewReader(bytes.NewReader(nil), 0).Next()
		require.Equal(t, io.EOF, err)
	})
	t.Run("at-name", func(t *testing.T) {
		full := recordtest.Encode(3, 0x100, 0, "a.txt", 10)
		_, err := NewReader(bytes.NewReader(full[:HeaderSize]), 0).Next()
		require.Equal(t, io.EOF, err)
	})
}

func TestReaderTruncated(t *testing.T) {
	full := recordtest.Encode(3, 0x100, 0, "a.txt", 10)

	t.Run("header", func(t *testing.T) {
		_, err := NewReader(bytes.NewReader(full[:HeaderSize-4]), 0).Next()
		var truncErr *TruncatedRecordError
		require.ErrorAs(t, err, &truncErr)
		require.Equal(t, "header", truncErr.Field)
		require.Equal(t, HeaderSize-4, truncErr.Got)
	})
	t.Run("name", func(t *testing.T) {
		_, err := NewReader(bytes.NewReader(full[:HeaderSize+2]), 0).Next()
		var truncErr *TruncatedRecordError
		require.ErrorAs(t, err, &truncErr)
		require.Equal(t, "name", truncErr.Field)
		require.Equal(t, len(full)-HeaderSize, truncErr.Want)
		require.Equal(t, 2, truncErr.Got)
	})
}

func TestReaderInvalidNameConsumesRecord(t *testing.T) {
	bad := recordtest.Encode(4, 0x100, 0, "x", 14)
	bad[HeaderSize] = 0xff
	var stream bytes.Buffer
	stream.Write(bad)
	stream.Write(recordtest.Encode(5, 0x200, 0, "ok", recordtest.AlignedPad("ok")))

	rd := NewReader(&stream, 0)
	rec, err := rd.Next()
	var encErr *InvalidEncodingError
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, int32(4), encErr.Header.WD)
	require.Equal(t, int32(4), rec.WD)

	rec, err = rd.Next()
	require.NoError(t, err)
	require.Equal(t, "ok", rec.Name)
}
