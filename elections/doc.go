// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package elections manages the lifecycle of ranked-choice elections.

Elections progress one way: open → closed. Ballots are accepted while open,
one per voter; casting again replaces the earlier ballot. Winners are never
cached: Winner recomputes from the stored ballots each time it is called.

	m := elections.NewManager(clock, stamper, logger)
	e, err := m.Open(st, groupID, "energy", []string{"alice", "bob"})
	_, err = m.CastVote(st, e.ID, voterID, "alice", "bob", "")
	m.Close(st, e.ID)
	res, ok := m.Winner(e)

The Manager holds no state of its own. Every operation takes the caller's
*state.State, and the caller serializes mutations against it.
*/
package elections
