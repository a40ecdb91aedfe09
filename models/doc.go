// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the entities shared by the decision engines and the
request/response types of the API.

# Domain Types

  - Election: candidates, open/closed status, ballots (never serialized directly)
  - Ballot: one voter's first, second and third choices
  - Group: members, roles, per-topic delegate directives
  - GroupPolicy: election mode and conflict rule of a group
  - DelegationRecord: an explicit (owner, topic) → delegate choice

# Resolution Types

  - Result: ranked-choice winner, method and round count
  - Suggestion: one candidate delegate from a group or extension
  - Recommendation: reconciled suggestions with conflict flag
  - Notification: message for the notifier collaborator

# Constants

Election status:

	StatusOpen   = "open"
	StatusClosed = "closed"

Resolution methods:

	MethodMajority = "majority"
	MethodRanked   = "ranked"
	MethodTieBreak = "tie_break"
	MethodFallback = "fallback"

Topics are compared through NormalizeTopic; "general" is the fallback topic.
*/
package models
