package snapshot

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/IvanShishkin/shadowsnap/internal/errs"
	"github.com/IvanShishkin/shadowsnap/pkg/models"
	"gopkg.in/yaml.v3"
)

func encodeJSON(w io.Writer, entries []models.Entry) error {
	if entries == nil {
		entries = []models.Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func decodeJSON(r io.Reader) ([]models.Entry, error) {
	entries := []models.Entry{}
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, errs.Format("decode", "", err)
	}
	return entries, nil
}

func encodeYAML(w io.Writer, entries []models.Entry) error {
	if entries == nil {
		entries = []models.Entry{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return err
	}
	return enc.Close()
}

func decodeYAML(r io.Reader) ([]models.Entry, error) {
	entries := []models.Entry{}
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errs.Format("decode", "", errors.New("empty yaml document"))
		}
		return nil, errs.Format("decode", "", err)
	}
	return entries, nil
}
