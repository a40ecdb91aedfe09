// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package elections

import (
	"errors"
	"testing"
	"time"

	"github.com/vimeo/go-clocks/fake"

	"github.com/danielhkuo/quorum/models"
	"github.com/danielhkuo/quorum/state"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestManager() (*Manager, *fake.Clock) {
	fc := fake.NewClock(baseTime)
	return NewManager(fc, state.OriginStamper{Origin: "test"}, nil), fc
}

func TestOpen(t *testing.T) {
	m, _ := newTestManager()
	st := state.New()

	e, err := m.Open(st, "g1", "  Energy ", []string{"x", "y"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if e.Status != models.StatusOpen {
		t.Errorf("status = %q, want open", e.Status)
	}
	if e.Topic != "Energy" {
		t.Errorf("topic = %q, want trimmed %q", e.Topic, "Energy")
	}
	if !e.CreatedAt.Equal(baseTime) {
		t.Errorf("created_at = %v, want %v", e.CreatedAt, baseTime)
	}
	if e.ID == "" {
		t.Error("expected an election id")
	}
	if e.Meta[state.MetaOrigin] != "test" {
		t.Errorf("expected stamped origin, got %v", e.Meta)
	}
	if st.FindElection(e.ID) != e {
		t.Error("election was not added to state")
	}
}

func TestOpenDefaultsTopic(t *testing.T) {
	m, _ := newTestManager()
	e, err := m.Open(state.New(), "g1", "", []string{"x"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if e.Topic != models.TopicGeneral {
		t.Errorf("topic = %q, want general", e.Topic)
	}
}

func TestOpenRequiresCandidates(t *testing.T) {
	m, _ := newTestManager()
	st := state.New()
	if _, err := m.Open(st, "g1", "energy", nil); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("Open() error = %v, want ErrNoCandidates", err)
	}
	if len(st.Elections) != 0 {
		t.Error("failed open must not add an election")
	}
}

func TestCastVoteDropsInvalidLowerChoices(t *testing.T) {
	m, _ := newTestManager()
	st := state.New()
	e, _ := m.Open(st, "g1", "energy", []string{"x", "y", "z"})

	tests := []struct {
		name          string
		first         string
		second, third string
		want          models.Ballot
	}{
		{"all valid", "x", "y", "z", models.Ballot{First: "x", Second: "y", Third: "z"}},
		{"second repeats first", "x", "x", "z", models.Ballot{First: "x", Third: "z"}},
		{"third repeats second", "x", "y", "y", models.Ballot{First: "x", Second: "y"}},
		{"third repeats first", "x", "y", "x", models.Ballot{First: "x", Second: "y"}},
		{"unknown lower choices", "y", "q", "r", models.Ballot{First: "y"}},
		{"first only", "z", "", "", models.Ballot{First: "z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := m.CastVote(st, e.ID, "voter-"+tt.name, tt.first, tt.second, tt.third)
			if err != nil {
				t.Fatalf("CastVote() error = %v", err)
			}
			if b.First != tt.want.First || b.Second != tt.want.Second || b.Third != tt.want.Third {
				t.Errorf("ballot = %+v, want %+v", b, tt.want)
			}
		})
	}
}

func TestCastVoteReplacesPriorBallot(t *testing.T) {
	m, fc := newTestManager()
	st := state.New()
	e, _ := m.Open(st, "g1", "energy", []string{"x", "y"})

	if _, err := m.CastVote(st, e.ID, "v1", "x", "y", ""); err != nil {
		t.Fatalf("first CastVote() error = %v", err)
	}
	fc.Advance(time.Minute)
	if _, err := m.CastVote(st, e.ID, "v1", "y", "", ""); err != nil {
		t.Fatalf("second CastVote() error = %v", err)
	}

	if len(e.Ballots) != 1 {
		t.Fatalf("expected 1 ballot, got %d", len(e.Ballots))
	}
	if e.Ballots[0].First != "y" || e.Ballots[0].Second != "" {
		t.Errorf("ballot = %+v, want replaced ballot", e.Ballots[0])
	}
	if !e.Ballots[0].CastAt.Equal(baseTime.Add(time.Minute)) {
		t.Errorf("cast_at = %v, want re-stamped", e.Ballots[0].CastAt)
	}
}

func TestCastVoteRejections(t *testing.T) {
	m, _ := newTestManager()
	st := state.New()
	e, _ := m.Open(st, "g1", "energy", []string{"x", "y"})

	if _, err := m.CastVote(st, "missing", "v1", "x", "", ""); !errors.Is(err, ErrElectionNotFound) {
		t.Errorf("missing election: error = %v", err)
	}
	if _, err := m.CastVote(st, e.ID, "v1", "q", "x", ""); !errors.Is(err, ErrInvalidFirstChoice) {
		t.Errorf("invalid first choice: error = %v", err)
	}
	if _, err := m.CastVote(st, e.ID, " ", "x", "", ""); !errors.Is(err, ErrMissingVoter) {
		t.Errorf("missing voter: error = %v", err)
	}

	m.Close(st, e.ID)
	if _, err := m.CastVote(st, e.ID, "v1", "x", "", ""); !errors.Is(err, ErrElectionNotOpen) {
		t.Errorf("closed election: error = %v", err)
	}
	if len(e.Ballots) != 0 {
		t.Errorf("rejected votes must not be stored, got %d ballots", len(e.Ballots))
	}
}

func TestClose(t *testing.T) {
	m, fc := newTestManager()
	st := state.New()
	e, _ := m.Open(st, "g1", "energy", []string{"x"})

	fc.Advance(time.Hour)
	if _, ok := m.Close(st, e.ID); !ok {
		t.Fatal("Close() reported no change")
	}
	if e.Status != models.StatusClosed {
		t.Errorf("status = %q, want closed", e.Status)
	}
	if e.ClosedAt == nil || !e.ClosedAt.Equal(baseTime.Add(time.Hour)) {
		t.Errorf("closed_at = %v, want %v", e.ClosedAt, baseTime.Add(time.Hour))
	}

	// Second close leaves the original stamp
	fc.Advance(time.Hour)
	if _, ok := m.Close(st, e.ID); ok {
		t.Error("closing twice should be a no-op")
	}
	if !e.ClosedAt.Equal(baseTime.Add(time.Hour)) {
		t.Errorf("closed_at changed to %v", e.ClosedAt)
	}

	if _, ok := m.Close(st, "missing"); ok {
		t.Error("closing a missing election should be a no-op")
	}
}

func TestWinner(t *testing.T) {
	m, _ := newTestManager()
	st := state.New()
	e, _ := m.Open(st, "g1", "energy", []string{"x", "y", "z"})

	if _, ok := m.Winner(e); ok {
		t.Error("expected no winner without ballots")
	}

	m.CastVote(st, e.ID, "v1", "x", "y", "")
	m.CastVote(st, e.ID, "v2", "y", "x", "")
	m.CastVote(st, e.ID, "v3", "z", "x", "")

	// Provisional results are available while open
	res, ok := m.Winner(e)
	if !ok {
		t.Fatal("expected a winner")
	}
	if res.Winner != "x" || res.Method != models.MethodTieBreak || res.Rounds != 1 {
		t.Errorf("result = %+v, want x by tie_break in 1 round", res)
	}

	m.Close(st, e.ID)
	again, _ := m.Winner(e)
	if again.Winner != res.Winner || again.Method != res.Method {
		t.Errorf("closing changed the result: %+v vs %+v", again, res)
	}
}

func TestLatestClosed(t *testing.T) {
	m, fc := newTestManager()
	st := state.New()

	older, _ := m.Open(st, "g1", "Energy", []string{"x", "y"})
	newer, _ := m.Open(st, "g1", "energy", []string{"x", "y"})
	general, _ := m.Open(st, "g1", "general", []string{"x"})
	other, _ := m.Open(st, "g2", "energy", []string{"x"})
	m.Open(st, "g1", "energy", []string{"x"}) // stays open

	// Close newer first, then older later: "latest" follows close time
	fc.Advance(time.Minute)
	m.Close(st, newer.ID)
	fc.Advance(time.Minute)
	m.Close(st, older.ID)
	m.Close(st, general.ID)
	m.Close(st, other.ID)

	if got := m.LatestClosed(st, "g1", "ENERGY"); got != older {
		t.Errorf("LatestClosed(energy) = %v, want the later-closed election", got)
	}
	if got := m.LatestClosed(st, "g1", "water"); got != general {
		t.Errorf("LatestClosed(water) = %v, want the general election", got)
	}
	if got := m.LatestClosed(st, "g3", "energy"); got != nil {
		t.Errorf("LatestClosed for unknown group = %v, want nil", got)
	}
}

func TestLatestClosedPrefersStampedElection(t *testing.T) {
	m, _ := newTestManager()
	st := state.New()

	unstamped := &models.Election{ID: "e1", GroupID: "g1", Topic: "energy", Status: models.StatusClosed, Candidates: []string{"x"}}
	stamped := &models.Election{ID: "e2", GroupID: "g1", Topic: "energy", Status: models.StatusClosed, Candidates: []string{"y"}, CreatedAt: baseTime}
	alsoUnstamped := &models.Election{ID: "e3", GroupID: "g1", Topic: "water", Status: models.StatusClosed, Candidates: []string{"x"}}
	lastUnstamped := &models.Election{ID: "e4", GroupID: "g1", Topic: "water", Status: models.StatusClosed, Candidates: []string{"y"}}
	st.Elections = []*models.Election{unstamped, stamped, alsoUnstamped, lastUnstamped}

	if got := m.LatestClosed(st, "g1", "energy"); got != stamped {
		t.Errorf("got %v, want the election with a timestamp", got)
	}
	// Neither has a timestamp: the first one in the container is kept
	if got := m.LatestClosed(st, "g1", "water"); got != alsoUnstamped {
		t.Errorf("got %v, want the first unstamped election", got)
	}
}

func TestListForGroup(t *testing.T) {
	m, _ := newTestManager()
	st := state.New()

	a, _ := m.Open(st, "g1", "energy", []string{"x"})
	m.Open(st, "g2", "energy", []string{"x"})
	b, _ := m.Open(st, "g1", "water", []string{"y"})

	got := m.ListForGroup(st, "g1")
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("ListForGroup(g1) = %v, want [%s %s]", got, a.ID, b.ID)
	}
	if got := m.ListForGroup(st, "g3"); len(got) != 0 {
		t.Errorf("ListForGroup(g3) = %v, want empty", got)
	}
}
