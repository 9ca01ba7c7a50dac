// Meetrec - Reading Meeting Recommendation and Moderation Service
// Copyright 2026 Moimlab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/moimlab/meetrec

// Package database is the DuckDB-backed store for users, meetings, the
// append-only interaction log and published recommendations. It also
// implements recommend.DataProvider for the engine.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	// DuckDB driver registration.
	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/moimlab/meetrec/internal/config"
	"github.com/moimlab/meetrec/internal/logging"
)

// DB wraps the DuckDB connection.
type DB struct {
	conn *sql.DB
	cfg  config.DatabaseConfig
}

// New opens (or creates) the database file and initializes the schema.
func New(cfg config.DatabaseConfig) (*DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	// The data directory may not exist on first boot.
	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." && cfg.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}

	preserveOrder := "true"
	if !cfg.PreserveInsertionOrder {
		preserveOrder = "false"
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}

	connStr := fmt.Sprintf(
		"%s?access_mode=read_write&threads=%d&max_memory=%s&preserve_insertion_order=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, threads, maxMemory, preserveOrder)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// DuckDB is embedded; a small pool avoids writer contention.
	conn.SetMaxOpenConns(threads)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn, cfg: cfg}
	if err := db.initialize(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	logging.Info().
		Str("component", "database").
		Str("path", cfg.Path).
		Int("threads", threads).
		Msg("database opened")

	return db, nil
}

// NewMemory opens an in-memory database. Used by tests.
func NewMemory() (*DB, error) {
	return New(config.DatabaseConfig{Path: ":memory:", MaxMemory: "256MB", Threads: 2})
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id        BIGINT PRIMARY KEY,
		reading_volume VARCHAR,
		purpose_codes  VARCHAR,
		genre_codes    VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS meetings (
		id             BIGINT PRIMARY KEY,
		genre_code     VARCHAR,
		title          VARCHAR,
		description    VARCHAR,
		status         VARCHAR NOT NULL,
		capacity       INTEGER NOT NULL,
		current_count  INTEGER NOT NULL,
		leader_intro   VARCHAR,
		leader_user_id BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS log_events (
		user_id    BIGINT NOT NULL,
		meeting_id BIGINT NOT NULL,
		event_type VARCHAR NOT NULL,
		dwell_sec  BIGINT,
		ts         TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS recommendations (
		user_id         BIGINT NOT NULL,
		meeting_id      BIGINT NOT NULL,
		week_start_date VARCHAR NOT NULL,
		rank            INTEGER NOT NULL,
		created_at      TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, week_start_date, rank)
	)`,
}

func (db *DB) initialize() error {
	for _, stmt := range schema {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// Conn exposes the underlying connection for callers that need raw SQL.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.conn.PingContext(ctx)
}

// Close closes the connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
