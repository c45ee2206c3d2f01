// Package db opens the MySQL pool used by the mysql state backend.
package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
)

// erDupEntry is the server error number for a duplicate key.
const erDupEntry = 1062

type Config struct {
	DSN string

	// Zero values fall back to 20 open connections and a 5 minute lifetime.
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Open parses the DSN with the MySQL driver and forces parseTime so DATETIME
// columns scan into time.Time. It does not connect.
func Open(cfg Config) (*sql.DB, error) {
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}
	mc.ParseTime = true
	mc.Loc = time.UTC

	conn, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(conn)

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 20
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(lifetime)

	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return db.PingContext(c)
}

// IsDuplicateKey reports whether err is a MySQL duplicate key violation.
func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == erDupEntry
}
