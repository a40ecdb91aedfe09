// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package state

import (
	"github.com/danielhkuo/quorum/models"
)

// State is the aggregate the decision engines read and mutate. It is owned by
// the caller and has no internal locking: mutations against one State must be
// serialized by whoever holds it.
type State struct {
	Elections   []*models.Election
	Groups      []*models.Group
	Policies    []models.GroupPolicy
	Delegations []models.DelegationRecord
}

// New returns an empty State.
func New() *State {
	return &State{}
}

// FindElection returns the election with the given id, or nil.
func (s *State) FindElection(id string) *models.Election {
	for _, e := range s.Elections {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// FindGroup returns the group with the given id, or nil.
func (s *State) FindGroup(id string) *models.Group {
	for _, g := range s.Groups {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// GroupsOf returns the groups memberID belongs to, in container order.
func (s *State) GroupsOf(memberID string) []*models.Group {
	var out []*models.Group
	for _, g := range s.Groups {
		if g.HasMember(memberID) {
			out = append(out, g)
		}
	}
	return out
}

// ElectionsOf returns the elections owned by groupID, in container order.
func (s *State) ElectionsOf(groupID string) []*models.Election {
	var out []*models.Election
	for _, e := range s.Elections {
		if e.GroupID == groupID {
			out = append(out, e)
		}
	}
	return out
}

// FindDelegation returns the index of the (owner, topic) record, or -1.
func (s *State) FindDelegation(ownerID, topic string) int {
	topic = models.NormalizeTopic(topic)
	for i, d := range s.Delegations {
		if d.OwnerID == ownerID && d.Topic == topic {
			return i
		}
	}
	return -1
}
