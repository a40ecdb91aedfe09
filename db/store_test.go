// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/danielhkuo/quorum/db"
	"github.com/danielhkuo/quorum/models"
	"github.com/danielhkuo/quorum/state"
	"github.com/danielhkuo/quorum/testutil"
)

func TestCreateSchemaIdempotent(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("second CreateSchema() error = %v", err)
	}
}

func TestOpenUnsupportedType(t *testing.T) {
	if _, err := db.Open("oracle", "x"); err == nil {
		t.Error("expected an error for an unsupported database type")
	}
}

func TestConnect(t *testing.T) {
	conn, err := db.Connect(context.Background(), testutil.NewTestClock(), db.TypeSQLite, ":memory:", 1)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	conn.Close()
}

func TestLoadEmptyState(t *testing.T) {
	store := db.NewStore(testutil.SetupTestDB(t))

	st, err := store.LoadState(context.Background())
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if len(st.Groups)+len(st.Elections)+len(st.Policies)+len(st.Delegations) != 0 {
		t.Errorf("expected empty state, got %+v", st)
	}
}

func TestGroupsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := db.NewStore(testutil.SetupTestDB(t))

	st := state.New()
	g1 := testutil.AddTestGroup(t, st, "g1", "zoe", "alice", "mike")
	g1.Directives["energy"] = models.DelegateDirective{
		DelegateID: "dana",
		Priority:   json.Number("not-a-number"),
		Provider:   "council",
		UpdatedAt:  testutil.BaseTime,
	}
	testutil.SetTestDirective(g1, "general", "erin", 3)
	g2 := testutil.AddTestGroup(t, st, "g2", "bob")
	g2.CreatedAt = testutil.BaseTime.Add(time.Minute)

	if err := store.SaveGroups(ctx, st.Groups); err != nil {
		t.Fatalf("SaveGroups() error = %v", err)
	}

	loaded, err := store.LoadState(ctx)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if len(loaded.Groups) != 2 || loaded.Groups[0].ID != "g1" || loaded.Groups[1].ID != "g2" {
		t.Fatalf("expected groups [g1 g2], got %+v", loaded.Groups)
	}

	got := loaded.Groups[0]
	want := []string{"zoe", "alice", "mike"}
	for i, m := range want {
		if got.Members[i] != m {
			t.Errorf("member[%d] = %q, want %q", i, got.Members[i], m)
		}
	}
	if got.RoleOf("zoe") != models.RoleAdmin || got.RoleOf("alice") != models.RoleMember {
		t.Errorf("roles not restored: %v", got.Roles)
	}

	d := got.Directives["energy"]
	if d.DelegateID != "dana" || d.Provider != "council" {
		t.Errorf("directive not restored: %+v", d)
	}
	// Malformed priorities survive storage and normalize on read
	if string(d.Priority) != "not-a-number" || models.NormalizePriority(d.Priority) != 0 {
		t.Errorf("priority = %q, want raw value kept", d.Priority)
	}
	if !d.UpdatedAt.Equal(testutil.BaseTime) {
		t.Errorf("updated_at = %v, want %v", d.UpdatedAt, testutil.BaseTime)
	}

	// Saving again replaces members and directives
	g1.Members = []string{"alice"}
	delete(g1.Directives, "energy")
	if err := store.SaveGroups(ctx, []*models.Group{g1}); err != nil {
		t.Fatalf("SaveGroups() error = %v", err)
	}
	loaded, _ = store.LoadState(ctx)
	if got := loaded.FindGroup("g1"); len(got.Members) != 1 || len(got.Directives) != 1 {
		t.Errorf("expected replaced members and directives, got %+v", got)
	}
}

func TestElectionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := db.NewStore(testutil.SetupTestDB(t))

	closedAt := testutil.BaseTime.Add(time.Hour)
	elections := []*models.Election{
		{
			ID:         "e2",
			GroupID:    "g1",
			Topic:      "energy",
			Candidates: []string{"y", "x"},
			Status:     models.StatusClosed,
			CreatedAt:  testutil.BaseTime,
			ClosedAt:   &closedAt,
			Meta:       map[string]string{state.MetaOrigin: "eu-1"},
			Ballots: []models.Ballot{
				{VoterID: "v2", First: "x", CastAt: testutil.BaseTime},
				{VoterID: "v1", First: "y", Second: "x", CastAt: testutil.BaseTime},
			},
		},
		{
			ID:         "e1",
			GroupID:    "g1",
			Topic:      "water",
			Candidates: []string{"a"},
			Status:     models.StatusOpen,
			CreatedAt:  testutil.BaseTime,
		},
	}

	if err := store.SaveElections(ctx, elections); err != nil {
		t.Fatalf("SaveElections() error = %v", err)
	}

	st, err := store.LoadState(ctx)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if len(st.Elections) != 2 || st.Elections[0].ID != "e2" || st.Elections[1].ID != "e1" {
		t.Fatalf("expected container order [e2 e1], got %+v", st.Elections)
	}

	e := st.Elections[0]
	if e.Candidates[0] != "y" || e.Candidates[1] != "x" {
		t.Errorf("candidate order lost: %v", e.Candidates)
	}
	if e.ClosedAt == nil || !e.ClosedAt.Equal(closedAt) {
		t.Errorf("closed_at = %v, want %v", e.ClosedAt, closedAt)
	}
	if e.Meta[state.MetaOrigin] != "eu-1" {
		t.Errorf("meta not restored: %v", e.Meta)
	}
	if len(e.Ballots) != 2 || e.Ballots[0].VoterID != "v2" || e.Ballots[1].Second != "x" {
		t.Errorf("ballots not restored: %+v", e.Ballots)
	}
	if st.Elections[1].ClosedAt != nil {
		t.Errorf("open election has closed_at %v", st.Elections[1].ClosedAt)
	}

	// Winner is recomputed from stored ballots, never cached
	elections[0].Ballots = append(elections[0].Ballots, models.Ballot{VoterID: "v3", First: "x", CastAt: testutil.BaseTime})
	if err := store.SaveElections(ctx, elections); err != nil {
		t.Fatalf("SaveElections() error = %v", err)
	}
	st, _ = store.LoadState(ctx)
	if got := len(st.FindElection("e2").Ballots); got != 3 {
		t.Errorf("expected 3 ballots after resave, got %d", got)
	}
}

func TestPoliciesAndDelegationsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := db.NewStore(testutil.SetupTestDB(t))

	policies := []models.GroupPolicy{
		{GroupID: "g1", ElectionMode: models.ModeVote, ConflictRule: models.RulePromptUser, CategoryWeighted: true},
	}
	if err := store.SavePolicies(ctx, policies); err != nil {
		t.Fatalf("SavePolicies() error = %v", err)
	}
	policies[0].ConflictRule = models.RuleHighestPriority
	if err := store.SavePolicies(ctx, policies); err != nil {
		t.Fatalf("SavePolicies() update error = %v", err)
	}

	records := []models.DelegationRecord{
		{OwnerID: "bob", Topic: "energy", DelegateID: "dana", Provider: models.ProviderManual, Priority: 10, CreatedAt: testutil.BaseTime},
		{OwnerID: "alice", Topic: "general", DelegateID: "erin", Provider: "crm", Priority: -2, CreatedAt: testutil.BaseTime,
			Meta: map[string]string{state.MetaVisibility: "owner"}},
	}
	if err := store.SaveDelegations(ctx, records); err != nil {
		t.Fatalf("SaveDelegations() error = %v", err)
	}

	st, err := store.LoadState(ctx)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if len(st.Policies) != 1 || st.Policies[0] != policies[0] {
		t.Errorf("policies = %+v, want %+v", st.Policies, policies)
	}
	if len(st.Delegations) != 2 || st.Delegations[0].OwnerID != "bob" || st.Delegations[1].Priority != -2 {
		t.Errorf("delegations not restored in order: %+v", st.Delegations)
	}
	if st.Delegations[1].Meta[state.MetaVisibility] != "owner" {
		t.Errorf("delegation meta lost: %v", st.Delegations[1].Meta)
	}

	// A shorter list replaces the stored one
	if err := store.SaveDelegations(ctx, records[1:]); err != nil {
		t.Fatalf("SaveDelegations() error = %v", err)
	}
	st, _ = store.LoadState(ctx)
	if len(st.Delegations) != 1 || st.Delegations[0].OwnerID != "alice" {
		t.Errorf("expected only alice's record, got %+v", st.Delegations)
	}
}
