// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP handlers of the quorum API.

# Core

All handlers share one *Core, which owns the state container together with
the election manager, the delegation engine, the notifier and the store:

	core := handlers.NewCore(handlers.Deps{
		State:      st,
		Store:      db.NewStore(conn),
		Elections:  manager,
		Delegation: engine,
		Notifier:   notify.LogNotifier{},
	}, cfg)

The container has no locks of its own. Core serializes requests with a
mutex that is held across the change and the save that follows it, so a
reload of the database always sees complete mutations.

# Handler Types

  - GroupHandler: groups, delegate directives, policies
  - ElectionHandler: open, vote, close, results
  - DelegationHandler: recommendations and explicit selections

# Access

Group administration (directives, policy, opening and closing elections)
needs the group's admin key in X-Admin-Key or an X-Member-ID whose role in
the group is admin. Voting needs an X-Member-ID that belongs to the
election's group. Delegation routes act for the X-Member-ID caller.

# Errors

Sentinel errors from the elections package map onto status codes: not found
is 404, not open is 409, and invalid ballots or empty candidate lists are
400. A failed save answers 500; the in-memory change is kept.

# Text Input

Group names, topics and providers pass through a bluemonday strict policy
before they are stored. Topics are then classified by the delegation
engine's extensions and normalized.
*/
package handlers
