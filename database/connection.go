// database/connection.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/go-sql-driver/mysql" // MariaDB / MySQL driver
	_ "modernc.org/sqlite"           // pure Go SQLite driver, registers "sqlite"

	"github.com/gewnthar/verif-rotation/config"
)

// Open connects to the history database described by cfg and makes sure the
// schema exists.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.Driver {
	case "mysql":
		dsn := mysql.NewConfig()
		dsn.User = cfg.User
		dsn.Passwd = cfg.Password
		dsn.Net = "tcp"
		dsn.Addr = fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
		dsn.DBName = cfg.DBName
		db, err = sql.Open("mysql", dsn.FormatDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}
		// Configure connection pool settings
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

	case "sqlite":
		db, err = sql.Open("sqlite", cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}
		// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	// Ping the database to verify connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("Database: connected (%s)", cfg.Driver)
	return db, nil
}

// EnsureSchema creates the history tables when missing. The statements are
// valid for both MySQL and SQLite.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS trip_imports (
			id            VARCHAR(36)  NOT NULL PRIMARY KEY,
			source_name   VARCHAR(255) NOT NULL,
			total_rows    INTEGER      NOT NULL,
			ok_rows       INTEGER      NOT NULL,
			error_rows    INTEGER      NOT NULL,
			degraded_rows INTEGER      NOT NULL,
			created_at    VARCHAR(40)  NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS trip_import_errors (
			import_id VARCHAR(36)  NOT NULL,
			row_num   INTEGER      NOT NULL,
			from_id   VARCHAR(255) NOT NULL,
			to_id     VARCHAR(255) NOT NULL,
			PRIMARY KEY (import_id, row_num)
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// CloseDB closes the pool. Typically called on application shutdown.
func CloseDB(db *sql.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		log.Printf("ERROR Database: closing connection: %v", err)
		return
	}
	log.Println("Database connection closed.")
}
