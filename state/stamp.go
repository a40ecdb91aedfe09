// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package state

import (
	"github.com/danielhkuo/quorum/models"
)

// Meta keys written by OriginStamper
const (
	MetaOrigin     = "origin"
	MetaVisibility = "visibility"
)

// Stamper attaches provenance metadata to entities before they are stored.
type Stamper interface {
	StampElection(e models.Election) models.Election
	StampDelegation(d models.DelegationRecord) models.DelegationRecord
}

// NopStamper returns entities unchanged.
type NopStamper struct{}

func (NopStamper) StampElection(e models.Election) models.Election { return e }

func (NopStamper) StampDelegation(d models.DelegationRecord) models.DelegationRecord { return d }

// OriginStamper records which instance created an entity and who may see it.
// Keys already present are left alone.
type OriginStamper struct {
	Origin     string
	Visibility string
}

func (o OriginStamper) StampElection(e models.Election) models.Election {
	e.Meta = o.stamp(e.Meta, "group")
	return e
}

func (o OriginStamper) StampDelegation(d models.DelegationRecord) models.DelegationRecord {
	d.Meta = o.stamp(d.Meta, "owner")
	return d
}

func (o OriginStamper) stamp(meta map[string]string, defaultVisibility string) map[string]string {
	out := make(map[string]string, len(meta)+2)
	for k, v := range meta {
		out[k] = v
	}
	if _, ok := out[MetaOrigin]; !ok && o.Origin != "" {
		out[MetaOrigin] = o.Origin
	}
	if _, ok := out[MetaVisibility]; !ok {
		vis := o.Visibility
		if vis == "" {
			vis = defaultVisibility
		}
		out[MetaVisibility] = vis
	}
	return out
}

// OrNop returns s, or NopStamper when s is nil.
func OrNop(s Stamper) Stamper {
	if s == nil {
		return NopStamper{}
	}
	return s
}
