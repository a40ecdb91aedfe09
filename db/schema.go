// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database types
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Open connects to dbType at url. The connection is not verified.
func Open(dbType, url string) (*sqlx.DB, error) {
	var driver string
	switch dbType {
	case TypeSQLite, "":
		driver = "sqlite"
	case TypePostgres:
		driver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sqlx.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == "sqlite" {
		// Single writer; also keeps :memory: databases on one connection
		conn.SetMaxOpenConns(1)
	}
	return conn, nil
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(conn *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// One statement per entry; the sqlite driver runs a single statement per Exec.
// Timestamps are written in UTC since TIMESTAMP carries no zone on postgres.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS member_group (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		position INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS group_member (
		group_id TEXT NOT NULL REFERENCES member_group(id) ON DELETE CASCADE,
		member_id TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL,
		PRIMARY KEY (group_id, member_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_group_member_member ON group_member(member_id)`,

	`CREATE TABLE IF NOT EXISTS group_directive (
		group_id TEXT NOT NULL REFERENCES member_group(id) ON DELETE CASCADE,
		topic TEXT NOT NULL,
		delegate_id TEXT NOT NULL,
		priority TEXT NOT NULL DEFAULT '0',
		provider TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (group_id, topic)
	)`,

	`CREATE TABLE IF NOT EXISTS group_policy (
		group_id TEXT PRIMARY KEY,
		election_mode TEXT NOT NULL DEFAULT 'priority' CHECK (election_mode IN ('priority', 'vote')),
		conflict_rule TEXT NOT NULL DEFAULT 'highest_priority' CHECK (conflict_rule IN ('highest_priority', 'prompt_user')),
		category_weighted BOOLEAN NOT NULL DEFAULT FALSE
	)`,

	`CREATE TABLE IF NOT EXISTS election (
		id TEXT PRIMARY KEY,
		group_id TEXT NOT NULL,
		topic TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'closed')),
		meta TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL,
		closed_at TIMESTAMP,
		position INTEGER NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_election_group ON election(group_id, status)`,

	`CREATE TABLE IF NOT EXISTS election_candidate (
		election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		candidate_id TEXT NOT NULL,
		PRIMARY KEY (election_id, position)
	)`,

	`CREATE TABLE IF NOT EXISTS ballot (
		election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
		voter_id TEXT NOT NULL,
		first_choice TEXT NOT NULL,
		second_choice TEXT NOT NULL DEFAULT '',
		third_choice TEXT NOT NULL DEFAULT '',
		cast_at TIMESTAMP NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (election_id, voter_id)
	)`,

	`CREATE TABLE IF NOT EXISTS delegation (
		owner_id TEXT NOT NULL,
		topic TEXT NOT NULL,
		delegate_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		meta TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (owner_id, topic)
	)`,
}
