package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/IvanShishkin/shadowsnap/internal/errs"
	"github.com/IvanShishkin/shadowsnap/pkg/models"
)

// Header is the first row of a tabular snapshot
var Header = []string{"size", "modifiedAt", "name", "path", "kind"}

// timeLayout renders timestamps independently of the host locale
const timeLayout = time.RFC3339Nano

func encodeCSV(w io.Writer, entries []models.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}

	record := make([]string, len(Header))
	for _, e := range entries {
		record[0] = strconv.FormatInt(e.Size, 10)
		record[1] = e.ModifiedAt.Format(timeLayout)
		record[2] = e.Name
		record[3] = e.Path
		record[4] = e.Kind.String()
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func decodeCSV(r io.Reader) ([]models.Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errs.Format("decode", "", errors.New("missing csv header"))
	}
	if err != nil {
		return nil, csvError(err)
	}
	for i, name := range Header {
		if !strings.EqualFold(strings.TrimSpace(header[i]), name) {
			return nil, errs.Format("decode", "", fmt.Errorf("unexpected csv header %v", header))
		}
	}

	entries := []models.Entry{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}

		e, err := parseRecord(record)
		if err != nil {
			return nil, errs.Format("decode", "", fmt.Errorf("line %d: %w", line, err))
		}
		entries = append(entries, e)
	}

	return entries, nil
}

func parseRecord(record []string) (models.Entry, error) {
	size, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return models.Entry{}, fmt.Errorf("invalid size %q", record[0])
	}
	if size < 0 {
		return models.Entry{}, fmt.Errorf("negative size %d", size)
	}

	modified, err := time.Parse(timeLayout, record[1])
	if err != nil {
		return models.Entry{}, fmt.Errorf("invalid modifiedAt %q", record[1])
	}

	kind, err := models.ParseKind(record[4])
	if err != nil {
		return models.Entry{}, err
	}

	return models.Entry{
		Size:       size,
		ModifiedAt: modified,
		Name:       record[2],
		Path:       record[3],
		Kind:       kind,
	}, nil
}

// csvError separates malformed rows from read failures
func csvError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return errs.Format("decode", "", err)
	}
	return err
}
