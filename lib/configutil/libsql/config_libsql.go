// Package configlibsql holds the database section shared by every config
// struct that needs a sqlite/libsql handle.
package configlibsql

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

type Struct struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// OpenDB opens a local sqlite file when Url is empty, otherwise it
// connects to the remote libsql database at Url. The schema is applied
// before the handle is returned.
func (config Struct) OpenDB(schema string) (*sql.DB, error) {
	if config.Url != "" {
		return openRemote(config.Url, config.AuthToken, schema)
	}
	if config.File == "" {
		return nil, fmt.Errorf("a path was not specified")
	}

	_, statErr := os.Stat(config.File)
	isNewDb := os.IsNotExist(statErr)
	if isNewDb {
		f, err := os.Create(config.File)
		if err != nil {
			return nil, err
		}
		f.Close()
	}

	db, err := sql.Open("sqlite", config.File)
	if err != nil {
		return nil, err
	}
	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	err = applySchema(db, schema)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func openRemote(rawurl, authToken, schema string) (*sql.DB, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, fmt.Errorf("parse libsql url: %w", err)
	}
	if authToken != "" {
		q := u.Query()
		q.Set("authToken", authToken)
		u.RawQuery = q.Encode()
	}
	db, err := sql.Open("libsql", u.String())
	if err != nil {
		return nil, err
	}
	err = applySchema(db, schema)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func applySchema(db *sql.DB, schema string) error {
	if schema == "" {
		return nil
	}
	_, err := db.Exec(schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return err
	}
	return nil
}
