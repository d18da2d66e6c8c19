package db

import (
	"database/sql"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/code-sleuth/eduverse-go/pkg/util"

	// Registers the "postgres" driver for the pgvector-backed knowledge index.
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/tursodatabase/libsql-client-go/libsql"
)

var (
	ErrDatabaseURLRequired = errors.New("TURSO_DATABASE_URL environment variable is required")
	ErrAuthTokenRequired   = errors.New("TURSO_AUTH_TOKEN environment variable is required")
	ErrPostgresURLRequired = errors.New("POSTGRES_URL environment variable is required")
)

const (
	maxOpenConns    = 10
	maxIdleConns    = 2
	connMaxIdleTime = 5 * time.Minute
	connMaxLifetime = 30 * time.Minute
)

type DB struct {
	*sql.DB
}

// NewConnection opens the primary libsql database holding indexing jobs,
// chunks, and session turns.
func NewConnection() (*DB, error) {
	dbURL := os.Getenv("TURSO_DATABASE_URL")
	logger := util.NewLogger(zerolog.ErrorLevel)
	if strings.EqualFold(dbURL, "") {
		logger.Error().Msg("TURSO_DATABASE_URL env variable not set")
		return nil, ErrDatabaseURLRequired
	}

	authToken := os.Getenv("TURSO_AUTH_TOKEN")
	if strings.EqualFold(authToken, "") {
		logger.Error().Msg("TURSO_AUTH_TOKEN env variable not set")
		return nil, ErrAuthTokenRequired
	}

	connector, err := libsql.NewConnector(dbURL, libsql.WithAuthToken(authToken))
	if err != nil {
		logger.Err(err).Msg("failed to create connector")
		return nil, err
	}

	db := sql.OpenDB(connector)
	if err := db.Ping(); err != nil {
		logger.Err(err).Msg("failed to ping database")
		return nil, err
	}

	return &DB{DB: db}, nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// Connect opens the primary database and returns the bare *sql.DB.
func Connect() (*sql.DB, error) {
	dbWrapper, err := NewConnection()
	if err != nil {
		return nil, err
	}
	return dbWrapper.DB, nil
}

// ConnectPostgres opens the optional PostgreSQL database used by the
// pgvector-backed knowledge index.
func ConnectPostgres() (*sql.DB, error) {
	logger := util.NewLogger(zerolog.ErrorLevel)
	connString := os.Getenv("POSTGRES_URL")
	if strings.EqualFold(connString, "") {
		logger.Error().Msg("POSTGRES_URL env variable not set")
		return nil, ErrPostgresURLRequired
	}

	db, err := sql.Open("postgres", connString)
	if err != nil {
		logger.Err(err).Msg("failed to open postgres connection")
		return nil, err
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxIdleTime(connMaxIdleTime)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		logger.Err(err).Msg("failed to ping postgres database")
		return nil, err
	}

	return db, nil
}
