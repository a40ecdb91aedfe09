// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// Election status constants
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Resolution method constants
const (
	MethodMajority = "majority"
	MethodRanked   = "ranked"
	MethodTieBreak = "tie_break"
	MethodFallback = "fallback"
)

// Group roles
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Policy values
const (
	ModePriority = "priority"
	ModeVote     = "vote"

	RuleHighestPriority = "highest_priority"
	RulePromptUser      = "prompt_user"
)

// Delegation providers
const (
	ProviderManual        = "manual"
	ProviderGroup         = "group"
	ProviderGroupElection = "group-election"
)

// TopicGeneral is the fallback topic for directives and elections.
const TopicGeneral = "general"

// ElectionPriority outranks the priorities members and admins normally use, so
// election-sourced suggestions win by default.
const ElectionPriority = 100

// ManualPriority is used for explicit selections that don't name a priority.
const ManualPriority = 10

// NotificationDelegationConflict is the notification type sent when top
// suggestions disagree.
const NotificationDelegationConflict = "delegation_conflict"

// Domain types

type Election struct {
	ID         string            `json:"id"`
	GroupID    string            `json:"group_id"`
	Topic      string            `json:"topic"`
	Candidates []string          `json:"candidates"`
	Status     string            `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	ClosedAt   *time.Time        `json:"closed_at,omitempty"`
	Ballots    []Ballot          `json:"-"` // Sealed; read through results
	Meta       map[string]string `json:"meta,omitempty"`
}

// HasCandidate reports whether id is on the election's candidate list.
func (e *Election) HasCandidate(id string) bool {
	for _, c := range e.Candidates {
		if c == id {
			return true
		}
	}
	return false
}

// LatestAt is the timestamp used to order closed elections: the closing time,
// or the creation time when the election was never stamped closed. The zero
// time means no usable timestamp.
func (e *Election) LatestAt() time.Time {
	if e.ClosedAt != nil && !e.ClosedAt.IsZero() {
		return *e.ClosedAt
	}
	return e.CreatedAt
}

// Ballot holds one voter's ranked choices. Empty Second/Third mean no choice.
type Ballot struct {
	VoterID string    `json:"voter_id"`
	First   string    `json:"first"`
	Second  string    `json:"second,omitempty"`
	Third   string    `json:"third,omitempty"`
	CastAt  time.Time `json:"cast_at"`
}

// Choices returns the non-empty choices in rank order.
func (b Ballot) Choices() []string {
	out := make([]string, 0, 3)
	for _, c := range []string{b.First, b.Second, b.Third} {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

type Group struct {
	ID         string                       `json:"id"`
	Name       string                       `json:"name"`
	Members    []string                     `json:"members"`
	Roles      map[string]string            `json:"roles,omitempty"`
	Directives map[string]DelegateDirective `json:"directives,omitempty"`
	CreatedAt  time.Time                    `json:"created_at"`
}

// HasMember reports plain membership.
func (g *Group) HasMember(memberID string) bool {
	for _, m := range g.Members {
		if m == memberID {
			return true
		}
	}
	return false
}

// RoleOf returns the member's explicit role, "member" for plain members and ""
// for non-members.
func (g *Group) RoleOf(memberID string) string {
	if role, ok := g.Roles[memberID]; ok && role != "" {
		return role
	}
	if g.HasMember(memberID) {
		return RoleMember
	}
	return ""
}

// Directive returns the topic directive, falling back to the general one.
func (g *Group) Directive(topic string) (DelegateDirective, bool) {
	if d, ok := g.Directives[NormalizeTopic(topic)]; ok && d.DelegateID != "" {
		return d, true
	}
	if d, ok := g.Directives[TopicGeneral]; ok && d.DelegateID != "" {
		return d, true
	}
	return DelegateDirective{}, false
}

// DelegateDirective is a manually configured group delegate for a topic.
// Priority is kept as stored and normalized when read.
type DelegateDirective struct {
	DelegateID string      `json:"delegate_id"`
	Priority   json.Number `json:"priority"`
	Provider   string      `json:"provider"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

type GroupPolicy struct {
	GroupID          string `json:"group_id"`
	ElectionMode     string `json:"election_mode"`
	ConflictRule     string `json:"conflict_rule"`
	CategoryWeighted bool   `json:"category_weighted"`
}

// DefaultPolicy is the policy of a group that never stored one.
func DefaultPolicy(groupID string) GroupPolicy {
	return GroupPolicy{
		GroupID:      groupID,
		ElectionMode: ModePriority,
		ConflictRule: RuleHighestPriority,
	}
}

type DelegationRecord struct {
	OwnerID    string            `json:"owner_id"`
	Topic      string            `json:"topic"`
	DelegateID string            `json:"delegate_id"`
	Provider   string            `json:"provider"`
	Priority   int               `json:"priority"`
	CreatedAt  time.Time         `json:"created_at"`
	Meta       map[string]string `json:"meta,omitempty"`
}

// Resolution types

// Round is one instant-runoff tally.
type Round struct {
	Counts     map[string]int `json:"counts"`
	Eliminated []string       `json:"eliminated,omitempty"`
}

type Result struct {
	Winner  string  `json:"winner"`
	Method  string  `json:"method"`
	Rounds  int     `json:"rounds"`
	History []Round `json:"history,omitempty"`
}

// Suggestion is one group's (or extension's) candidate delegate.
type Suggestion struct {
	GroupID      string `json:"group_id,omitempty"`
	DelegateID   string `json:"delegate_id"`
	Provider     string `json:"provider"`
	Priority     int    `json:"priority"`
	ConflictRule string `json:"conflict_rule"`
	ElectionID   string `json:"election_id,omitempty"`
	Method       string `json:"method,omitempty"`
}

type Recommendation struct {
	Topic        string       `json:"topic"`
	Suggestions  []Suggestion `json:"suggestions"`
	Chosen       *Suggestion  `json:"chosen,omitempty"`
	Conflict     bool         `json:"conflict"`
	ConflictRule string       `json:"conflict_rule,omitempty"`
}

type Notification struct {
	Type      string `json:"type"`
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

// NormalizeTopic is the comparison key for topics: trimmed, lower-cased, and
// "general" when empty.
func NormalizeTopic(topic string) string {
	t := strings.ToLower(strings.TrimSpace(topic))
	if t == "" {
		return TopicGeneral
	}
	return t
}

// NormalizePriority converts a stored priority to an int. Malformed values
// become 0, fractional values are truncated and out-of-range values saturate.
func NormalizePriority(raw json.Number) int {
	s := strings.TrimSpace(string(raw))
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	f, err := strconv.ParseFloat(s, 64)
	switch {
	case errors.Is(err, strconv.ErrRange) && math.IsInf(f, 0):
		// overflowed float64, saturate below
	case err != nil, math.IsNaN(f), math.IsInf(f, 0):
		return 0
	}
	if f >= math.MaxInt {
		return math.MaxInt
	}
	if f <= math.MinInt {
		return math.MinInt
	}
	return int(f)
}

// PriorityFromJSON extracts the raw priority from a request field. Numbers and
// strings are kept as written; anything else is empty and normalizes to 0.
func PriorityFromJSON(raw json.RawMessage) json.Number {
	text := bytes.TrimSpace(raw)
	if len(text) == 0 {
		return ""
	}
	switch c := text[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(text, &s); err != nil {
			return ""
		}
		return json.Number(strings.TrimSpace(s))
	case c == '-' || (c >= '0' && c <= '9'):
		return json.Number(text)
	}
	return ""
}

// Request types

type CreateGroupRequest struct {
	Name    string            `json:"name"`
	Members []string          `json:"members"`
	Roles   map[string]string `json:"roles"`
}

type SetDirectiveRequest struct {
	DelegateID string          `json:"delegate_id"`
	Priority   json.RawMessage `json:"priority,omitempty"`
	Provider   string          `json:"provider"`
}

type SetPolicyRequest struct {
	ElectionMode     string `json:"election_mode"`
	ConflictRule     string `json:"conflict_rule"`
	CategoryWeighted bool   `json:"category_weighted"`
}

type OpenElectionRequest struct {
	Topic      string   `json:"topic"`
	Candidates []string `json:"candidates"`
}

type CastVoteRequest struct {
	First  string `json:"first"`
	Second string `json:"second"`
	Third  string `json:"third"`
}

type SetDelegationRequest struct {
	DelegateID string `json:"delegate_id"`
	Priority   *int   `json:"priority"`
}

// Response types

type CreateGroupResponse struct {
	GroupID  string `json:"group_id"`
	AdminKey string `json:"admin_key"`
}

type CastVoteResponse struct {
	Ballot  Ballot `json:"ballot"`
	Message string `json:"message"`
}

type ElectionSummary struct {
	Election    Election `json:"election"`
	BallotCount int      `json:"ballot_count"`
	Result      *Result  `json:"result,omitempty"`
	ClosedAgo   string   `json:"closed_ago,omitempty"`
}

type ResultsResponse struct {
	ElectionID  string  `json:"election_id"`
	Status      string  `json:"status"`
	Provisional bool    `json:"provisional"`
	BallotCount int     `json:"ballot_count"`
	Result      *Result `json:"result"`
}

type DelegationResponse struct {
	Topic    string      `json:"topic"`
	Explicit bool        `json:"explicit"`
	Delegate *Suggestion `json:"delegate"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
