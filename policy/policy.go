// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package policy stores one GroupPolicy per group. Groups without a stored
// policy read as the default {priority, highest_priority, false}.
package policy

import (
	"strings"

	"github.com/danielhkuo/quorum/models"
	"github.com/danielhkuo/quorum/state"
)

// Get returns the stored policy for groupID or the default policy.
func Get(st *state.State, groupID string) models.GroupPolicy {
	for _, p := range st.Policies {
		if p.GroupID == groupID {
			return Normalize(p)
		}
	}
	return models.DefaultPolicy(groupID)
}

// Set replaces the policy of groupID and returns what was stored.
func Set(st *state.State, groupID string, p models.GroupPolicy) models.GroupPolicy {
	p.GroupID = groupID
	p = Normalize(p)

	for i := range st.Policies {
		if st.Policies[i].GroupID == groupID {
			st.Policies[i] = p
			return p
		}
	}
	st.Policies = append(st.Policies, p)
	return p
}

// Normalize maps unknown mode and rule values to their defaults.
func Normalize(p models.GroupPolicy) models.GroupPolicy {
	switch mode := strings.ToLower(strings.TrimSpace(p.ElectionMode)); mode {
	case models.ModePriority, models.ModeVote:
		p.ElectionMode = mode
	default:
		p.ElectionMode = models.ModePriority
	}

	switch rule := strings.ToLower(strings.TrimSpace(p.ConflictRule)); rule {
	case models.RuleHighestPriority, models.RulePromptUser:
		p.ConflictRule = rule
	default:
		p.ConflictRule = models.RuleHighestPriority
	}
	return p
}
