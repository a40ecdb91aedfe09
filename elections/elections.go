// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package elections

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	clocks "github.com/vimeo/go-clocks"

	"github.com/danielhkuo/quorum/models"
	"github.com/danielhkuo/quorum/rcv"
	"github.com/danielhkuo/quorum/state"
)

var (
	ErrElectionNotFound   = errors.New("election not found")
	ErrElectionNotOpen    = errors.New("election is not open")
	ErrNoCandidates       = errors.New("election needs at least one candidate")
	ErrInvalidFirstChoice = errors.New("first choice is not a candidate")
	ErrMissingVoter       = errors.New("voter id is required")
)

// Manager owns election lifecycle operations. It holds no election state;
// every call works on the State passed in.
type Manager struct {
	clock   clocks.Clock
	stamper state.Stamper
	logger  *slog.Logger
}

// NewManager builds a Manager. Nil arguments fall back to the wall clock, a
// no-op stamper and slog.Default().
func NewManager(clock clocks.Clock, stamper state.Stamper, logger *slog.Logger) *Manager {
	if clock == nil {
		clock = clocks.DefaultClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{clock: clock, stamper: state.OrNop(stamper), logger: logger}
}

// Open creates an open election for groupID and appends it to st.
// Candidate ids are stored as given; duplicates are the caller's concern.
func (m *Manager) Open(st *state.State, groupID, topic string, candidates []string) (*models.Election, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	e := models.Election{
		ID:         uuid.NewString(),
		GroupID:    groupID,
		Topic:      strings.TrimSpace(topic),
		Candidates: append([]string(nil), candidates...),
		Status:     models.StatusOpen,
		CreatedAt:  m.clock.Now(),
	}
	if e.Topic == "" {
		e.Topic = models.TopicGeneral
	}
	e = m.stamper.StampElection(e)

	st.Elections = append(st.Elections, &e)
	m.logger.Info("election opened",
		"election_id", e.ID,
		"group_id", groupID,
		"topic", e.Topic,
		"candidates", len(e.Candidates),
	)
	return &e, nil
}

// CastVote records voterID's ballot, replacing any earlier one. Lower choices
// that are unknown or repeat a higher choice are dropped rather than rejected.
// Nothing changes when the election is missing or closed.
func (m *Manager) CastVote(st *state.State, electionID, voterID, first, second, third string) (models.Ballot, error) {
	e := st.FindElection(electionID)
	if e == nil {
		return models.Ballot{}, ErrElectionNotFound
	}
	if e.Status != models.StatusOpen {
		return models.Ballot{}, ErrElectionNotOpen
	}
	if strings.TrimSpace(voterID) == "" {
		return models.Ballot{}, ErrMissingVoter
	}

	b, ok := Normalize(e.Candidates, first, second, third)
	if !ok {
		return models.Ballot{}, ErrInvalidFirstChoice
	}
	b.VoterID = voterID
	b.CastAt = m.clock.Now()

	replaced := false
	for i := range e.Ballots {
		if e.Ballots[i].VoterID == voterID {
			e.Ballots[i] = b
			replaced = true
			break
		}
	}
	if !replaced {
		e.Ballots = append(e.Ballots, b)
	}

	m.logger.Info("ballot cast",
		"election_id", e.ID,
		"voter_id", voterID,
		"is_update", replaced,
		"choices", len(b.Choices()),
	)
	return b, nil
}

// Normalize builds a ballot over candidates. The first choice must be a
// candidate; second and third are kept only if they are candidates distinct
// from every higher choice.
func Normalize(candidates []string, first, second, third string) (models.Ballot, bool) {
	valid := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		valid[c] = true
	}

	first = strings.TrimSpace(first)
	if !valid[first] {
		return models.Ballot{}, false
	}
	b := models.Ballot{First: first}

	second = strings.TrimSpace(second)
	if valid[second] && second != first {
		b.Second = second
	}
	third = strings.TrimSpace(third)
	if valid[third] && third != first && third != b.Second {
		b.Third = third
	}
	return b, true
}

// Close marks the election closed. It reports false when the election is
// missing or already closed.
func (m *Manager) Close(st *state.State, electionID string) (*models.Election, bool) {
	e := st.FindElection(electionID)
	if e == nil || e.Status == models.StatusClosed {
		return e, false
	}

	now := m.clock.Now()
	e.Status = models.StatusClosed
	e.ClosedAt = &now

	m.logger.Info("election closed",
		"election_id", e.ID,
		"group_id", e.GroupID,
		"ballots", len(e.Ballots),
	)
	return e, true
}

// Winner resolves the election from its current ballots. Results of open
// elections are provisional; callers that act on them should check Status.
func (m *Manager) Winner(e *models.Election) (models.Result, bool) {
	if e == nil {
		return models.Result{}, false
	}
	return rcv.Resolve(e.Candidates, e.Ballots)
}

// Find returns the election with the given id.
func (m *Manager) Find(st *state.State, electionID string) (*models.Election, error) {
	e := st.FindElection(electionID)
	if e == nil {
		return nil, ErrElectionNotFound
	}
	return e, nil
}

// ListForGroup returns groupID's elections in the order they were opened.
func (m *Manager) ListForGroup(st *state.State, groupID string) []*models.Election {
	return st.ElectionsOf(groupID)
}

// LatestClosed returns the most recently closed election of groupID whose
// topic matches, falling back to "general" elections when none match.
//
// Elections are ordered by LatestAt. An election without a usable timestamp
// sorts before any stamped one; between two unstamped elections the earlier
// one in st is kept.
func (m *Manager) LatestClosed(st *state.State, groupID, topic string) *models.Election {
	key := models.NormalizeTopic(topic)
	if e := latestClosed(st, groupID, key); e != nil {
		return e
	}
	if key == models.TopicGeneral {
		return nil
	}
	return latestClosed(st, groupID, models.TopicGeneral)
}

func latestClosed(st *state.State, groupID, key string) *models.Election {
	var best *models.Election
	for _, e := range st.ElectionsOf(groupID) {
		if e.Status != models.StatusClosed || models.NormalizeTopic(e.Topic) != key {
			continue
		}
		if best == nil || e.LatestAt().After(best.LatestAt()) {
			best = e
		}
	}
	return best
}
