package snapshot

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/IvanShishkin/shadowsnap/internal/errs"
	"github.com/IvanShishkin/shadowsnap/pkg/models"
)

// dateLayout is the day-precision date stored by the binary form
const dateLayout = "2006-01-02"

// maxStringLen bounds a decoded string so corrupt input cannot force a huge allocation
const maxStringLen = 1 << 20

// Record layout, little-endian:
//
//	uint32 count
//	count x { int64 size, str date, str name, str path, uint8 kind }
//
// where str is a uvarint (7-bit groups) byte length followed by UTF-8 bytes.
type binaryWriter struct {
	w   *bufio.Writer
	buf [binary.MaxVarintLen64]byte
}

func (b *binaryWriter) uint32(v uint32) {
	binary.LittleEndian.PutUint32(b.buf[:4], v)
	b.w.Write(b.buf[:4])
}

func (b *binaryWriter) int64(v int64) {
	binary.LittleEndian.PutUint64(b.buf[:8], uint64(v))
	b.w.Write(b.buf[:8])
}

func (b *binaryWriter) string(s string) {
	n := binary.PutUvarint(b.buf[:], uint64(len(s)))
	b.w.Write(b.buf[:n])
	b.w.WriteString(s)
}

func encodeBinary(w io.Writer, entries []models.Entry) error {
	if len(entries) > math.MaxUint32 {
		return errs.Format("encode", "", fmt.Errorf("too many entries: %d", len(entries)))
	}

	bw := &binaryWriter{w: bufio.NewWriter(w)}
	bw.uint32(uint32(len(entries)))
	for _, e := range entries {
		bw.int64(e.Size)
		bw.string(e.ModifiedAt.UTC().Format(dateLayout))
		bw.string(e.Name)
		bw.string(e.Path)
		bw.w.WriteByte(byte(e.Kind))
	}
	// bufio.Writer keeps the first write error; Flush reports it
	return bw.w.Flush()
}

type binaryReader struct {
	r   *bufio.Reader
	buf [8]byte
}

func (b *binaryReader) uint32() (uint32, error) {
	if _, err := io.ReadFull(b.r, b.buf[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b.buf[:4]), nil
}

func (b *binaryReader) int64() (int64, error) {
	if _, err := io.ReadFull(b.r, b.buf[:8]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b.buf[:8])), nil
}

func (b *binaryReader) string() (string, error) {
	n, err := binary.ReadUvarint(b.r)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return "", err
		}
		return "", malformedError{err}
	}
	if n > maxStringLen {
		return "", malformedError{fmt.Errorf("string length %d exceeds limit", n)}
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(b.r, data); err != nil {
		return "", err
	}
	return string(data), nil
}

func (b *binaryReader) entry() (models.Entry, error) {
	var e models.Entry
	var err error

	if e.Size, err = b.int64(); err != nil {
		return e, err
	}
	if e.Size < 0 {
		return e, malformedError{fmt.Errorf("negative size %d", e.Size)}
	}
	date, err := b.string()
	if err != nil {
		return e, err
	}
	if e.ModifiedAt, err = time.ParseInLocation(dateLayout, date, time.UTC); err != nil {
		return e, malformedError{fmt.Errorf("invalid date %q", date)}
	}
	if e.Name, err = b.string(); err != nil {
		return e, err
	}
	if e.Path, err = b.string(); err != nil {
		return e, err
	}
	kind, err := b.r.ReadByte()
	if err != nil {
		return e, err
	}
	switch models.Kind(kind) {
	case models.KindFile, models.KindFolder:
		e.Kind = models.Kind(kind)
	default:
		return e, malformedError{fmt.Errorf("unknown kind code %d", kind)}
	}
	return e, nil
}

func decodeBinary(r io.Reader) ([]models.Entry, error) {
	br := &binaryReader{r: bufio.NewReader(r)}

	count, err := br.uint32()
	if err != nil {
		return nil, binaryError(err, 0)
	}

	// Grow as entries arrive rather than trusting the header for the allocation
	entries := make([]models.Entry, 0, min(int(count), 1<<16))
	for i := uint32(0); i < count; i++ {
		e, err := br.entry()
		if err != nil {
			return nil, binaryError(err, int(i))
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// malformedError marks a field that was read completely but holds an invalid value
type malformedError struct{ err error }

func (m malformedError) Error() string { return m.err.Error() }
func (m malformedError) Unwrap() error { return m.err }

// binaryError maps a short read or a malformed field to a format error.
// Anything else is a read failure of the underlying stream.
func binaryError(err error, index int) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errs.Format("decode", "", fmt.Errorf("truncated snapshot at entry %d", index))
	}
	var m malformedError
	if errors.As(err, &m) {
		return errs.Format("decode", "", fmt.Errorf("entry %d: %w", index, m.err))
	}
	return err
}
