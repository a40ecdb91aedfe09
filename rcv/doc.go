// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package rcv resolves ranked-choice (instant-runoff) elections.

Resolve is pure: it takes the candidate list and one ballot per voter and
returns the winner, the method that decided it and the number of rounds.

	res, ok := rcv.Resolve([]string{"x", "y", "z"}, ballots)

# Rounds

Each round gives every ballot one vote for its highest-ranked remaining
candidate. A sole leader holding floor(total/2)+1 votes wins ("majority" in
round 1, "ranked" after). Otherwise every candidate tied for the lowest count
is eliminated at once. When that would eliminate all remaining candidates, or
no ballot has a remaining choice, counting stops.

# Tie-break

Remaining candidates are scored by rank position, len(ballot)-index summed over
ballots. A strict leader wins with "tie_break". A tie on that score goes to the
earliest candidate in the election's list ("fallback"); this ordering carries no
meaning beyond being deterministic.
*/
package rcv
