// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the quorum API server.

quorum lets groups decide who speaks for their members. Groups run
ranked-choice elections with up to three ranked choices per ballot, or
name delegates directly per topic. A member who belongs to several groups
gets one reconciled recommendation, and can always override it with an
explicit choice.

# Starting the Server

	ADMIN_KEY_SALT=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -admin-salt ...

A .env file in the working directory is loaded first.

# Configuration

Required settings:

  - ADMIN_KEY_SALT (-admin-salt): Secret for group admin keys

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): Connection string (default: file:quorum.db)
  - INSTANCE_NAME (-instance): Origin recorded on new records (default: quorum)
  - DB_CONNECT_ATTEMPTS (-db-attempts): Pings before giving up (default: 5)

# Architecture

The decision logic has no I/O and works on a state container that the
caller owns:

  - rcv: Instant-runoff resolution with a weighted tie-break
  - elections: Election lifecycle and ballot normalization
  - policy: Per-group election mode and conflict rule
  - delegation: Suggestions, reconciliation, explicit selections
  - state, models: The container and entity types

Around it:

  - handlers: HTTP handlers; serialize access to the container
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers, caller identity
  - db: Schema, connection with retry, load and save of the container
  - notify: Conflict notifications
  - auth: Group admin keys
  - cliparse: Configuration parsing

The full state is loaded at start-up and each change is written back
before the request returns.
*/
package main
