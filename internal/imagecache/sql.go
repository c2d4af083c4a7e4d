package imagecache

import (
	"context"
	"database/sql"

	"amazon-suisyou/internal/imagecache/db"
)

// SQLStore keeps the cache in sqlite or a remote libsql database, for
// caches shared between machines or reports too large for a flat file.
type SQLStore struct {
	db  *sql.DB
	qry *db.Queries
}

func NewSQLStore(database *sql.DB) *SQLStore {
	return &SQLStore{
		db:  database,
		qry: db.New(database),
	}
}

func (s *SQLStore) Load(ctx context.Context) (map[string]string, error) {
	entries, err := s.qry.GetEntries(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.LookupKey] = e.ResolvedValue
	}
	return out, nil
}

func (s *SQLStore) Put(ctx context.Context, key, value string) error {
	return s.qry.PutEntry(ctx, db.PutEntryParams{
		LookupKey:     key,
		ResolvedValue: value,
	})
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	return s.qry.DeleteEntry(ctx, key)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
