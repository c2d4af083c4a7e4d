package imagecache

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
)

var csvHeader = []string{"lookup_key", "resolved_value"}

// CSVStore keeps the cache in the flat two-column csv file the tool
// has always used. The file is rewritten in full on every Put so it
// never holds more than one row per key; row order is load order with
// new keys appended, which keeps diffs readable.
type CSVStore struct {
	path  string
	rows  map[string]string
	order []string
}

// NewCSVStore opens (or creates, header included) the cache file at
// path and hydrates it. A malformed file — wrong header, inconsistent
// rows — is logged and treated as an empty cache, not an error.
func NewCSVStore(path string) (*CSVStore, error) {
	s := &CSVStore{path: path, rows: map[string]string{}}

	contents, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		err := s.rewrite()
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	records, err := csv.NewReader(bytes.NewReader(contents)).ReadAll()
	if err != nil || len(records) == 0 || !isCSVHeader(records[0]) {
		slog.Warn(
			"existing cache file is malformed, starting from an empty cache",
			"path", path,
			"err", err,
		)
		return s, nil
	}

	for _, record := range records[1:] {
		key := record[0]
		if _, seen := s.rows[key]; !seen {
			s.order = append(s.order, key)
		}
		s.rows[key] = record[1]
	}
	return s, nil
}

func isCSVHeader(record []string) bool {
	return len(record) == 2 && record[0] == csvHeader[0] && record[1] == csvHeader[1]
}

func (s *CSVStore) Load(ctx context.Context) (map[string]string, error) {
	return maps.Clone(s.rows), nil
}

func (s *CSVStore) Put(ctx context.Context, key, value string) error {
	if _, seen := s.rows[key]; !seen {
		s.order = append(s.order, key)
	}
	s.rows[key] = value
	return s.rewrite()
}

func (s *CSVStore) Delete(ctx context.Context, key string) error {
	if _, seen := s.rows[key]; !seen {
		return nil
	}
	delete(s.rows, key)
	order := s.order[:0]
	for _, k := range s.order {
		if k != key {
			order = append(order, k)
		}
	}
	s.order = order
	return s.rewrite()
}

func (s *CSVStore) Close() error {
	return nil
}

// rewrite replaces the file via a temp file and rename, so a crash
// mid-write cannot take the whole cache with it.
func (s *CSVStore) rewrite() error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	err = w.Write(csvHeader)
	if err != nil {
		tmp.Close()
		return err
	}
	for _, key := range s.order {
		err = w.Write([]string{key, s.rows[key]})
		if err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
