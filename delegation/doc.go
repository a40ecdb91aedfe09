// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package delegation decides who votes for a member who abstains.

# Suggestions

For a member and topic, every group the member belongs to contributes at most
one suggestion:

  - vote mode: the winner of the group's latest closed election on the topic
    (or on "general"), provider "group-election", priority 100
  - otherwise, or when no such election has a winner: the group's directive for
    the topic, or its "general" directive, with the stored provider and priority

Groups are visited in the order the State holds them. Registered extensions are
asked afterwards, in order, and the first answer adds one more suggestion.

# Reconciliation

Resolve sorts by priority and looks at the suggestions sharing the top
priority. More than one distinct delegate among them is a conflict. If any of
those suggestions comes from a prompt_user group, a conflict leaves the choice
to the member; otherwise the first top suggestion is chosen.

Suggestions are advisory. Only SetDelegation writes a DelegationRecord, and an
explicit record takes precedence in Effective until it is replaced or cleared.
*/
package delegation
