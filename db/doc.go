// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the backing database and persists the state container.

# Connections

Open picks the driver from the configured database type: "sqlite" uses the
pure-Go modernc driver, "postgres" uses lib/pq. Statements are written with
? placeholders and rebound for the active driver.

	conn, err := db.Open(db.TypeSQLite, "file:quorum.db")
	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

CreateSchema is idempotent.

# Tables

  - member_group, group_member, group_directive: groups with ordered
    members, roles and per-topic delegate directives
  - group_policy: election mode and conflict rule per group
  - election, election_candidate, ballot: elections with ordered
    candidates and one ballot per voter
  - delegation: explicit delegation records, one per owner and topic

Position columns keep the container's order across a reload, since group
and election order decide ties.

# Store

Store loads the whole state at startup and writes entity lists back after
each mutation. Every Save call runs in a single transaction.
*/
package db
