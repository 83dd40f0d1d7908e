package snapshot

import (
	"errors"
	"fmt"
	"io"

	"github.com/IvanShishkin/shadowsnap/internal/errs"
	"github.com/IvanShishkin/shadowsnap/pkg/models"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

func encodeCompressed(w io.Writer, format Format, entries []models.Entry) error {
	var zw io.WriteCloser
	switch format {
	case FormatLZ4:
		zw = lz4.NewWriter(w)
	case FormatZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("failed to create zstd writer: %w", err)
		}
		zw = enc
	default:
		return errs.Format("encode", "", fmt.Errorf("format %q is not compressed", format))
	}

	if err := encodeBinary(zw, entries); err != nil {
		zw.Close()
		return err
	}
	// Close flushes the final frame
	return zw.Close()
}

func decodeCompressed(r io.Reader, format Format) ([]models.Entry, error) {
	switch format {
	case FormatLZ4:
		return decodeBinary(streamReader{lz4.NewReader(r)})
	case FormatZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, errs.Format("decode", "", fmt.Errorf("invalid zstd stream: %w", err))
		}
		defer dec.Close()
		return decodeBinary(streamReader{dec})
	default:
		return nil, errs.Format("decode", "", fmt.Errorf("format %q is not compressed", format))
	}
}

// streamReader reports a corrupt compressed stream as malformed input
type streamReader struct {
	r io.Reader
}

func (s streamReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		err = malformedError{fmt.Errorf("corrupt compressed stream: %w", err)}
	}
	return n, err
}
