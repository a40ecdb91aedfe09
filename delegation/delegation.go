// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package delegation

import (
	"log/slog"
	"sort"
	"strings"

	clocks "github.com/vimeo/go-clocks"

	"github.com/danielhkuo/quorum/elections"
	"github.com/danielhkuo/quorum/models"
	"github.com/danielhkuo/quorum/policy"
	"github.com/danielhkuo/quorum/state"
)

// Extension can supply a delegate or classify free text into a topic.
// Registered extensions are tried in order; the first one that answers wins.
type Extension interface {
	Name() string
	TryResolveDelegation(st *state.State, memberID, topic string) (models.Suggestion, bool)
	TryClassifyTopic(text string) (string, bool)
}

// Engine suggests, reconciles and records delegations.
type Engine struct {
	elections  *elections.Manager
	extensions []Extension
	clock      clocks.Clock
	stamper    state.Stamper
	logger     *slog.Logger
}

func NewEngine(m *elections.Manager, clock clocks.Clock, stamper state.Stamper, logger *slog.Logger, exts ...Extension) *Engine {
	if clock == nil {
		clock = clocks.DefaultClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = elections.NewManager(clock, stamper, logger)
	}
	return &Engine{
		elections:  m,
		extensions: exts,
		clock:      clock,
		stamper:    state.OrNop(stamper),
		logger:     logger,
	}
}

// Register appends an extension after those already registered.
func (e *Engine) Register(ext Extension) {
	e.extensions = append(e.extensions, ext)
}

// Suggest returns at most one suggestion per group memberID belongs to, in
// the container's group order, followed by the first extension suggestion.
func (e *Engine) Suggest(st *state.State, memberID, topic string) []models.Suggestion {
	var out []models.Suggestion
	for _, g := range st.GroupsOf(memberID) {
		if s, ok := e.suggestForGroup(st, g, topic); ok {
			out = append(out, s)
		}
	}
	if s, ok := e.suggestFromExtensions(st, memberID, topic); ok {
		out = append(out, s)
	}
	return out
}

func (e *Engine) suggestForGroup(st *state.State, g *models.Group, topic string) (models.Suggestion, bool) {
	pol := policy.Get(st, g.ID)

	if pol.ElectionMode == models.ModeVote {
		if el := e.elections.LatestClosed(st, g.ID, topic); el != nil {
			if res, ok := e.elections.Winner(el); ok {
				return models.Suggestion{
					GroupID:      g.ID,
					DelegateID:   res.Winner,
					Provider:     models.ProviderGroupElection,
					Priority:     models.ElectionPriority,
					ConflictRule: pol.ConflictRule,
					ElectionID:   el.ID,
					Method:       res.Method,
				}, true
			}
			e.logger.Debug("closed election has no winner, using directive",
				"group_id", g.ID,
				"election_id", el.ID,
			)
		}
	}

	d, ok := g.Directive(topic)
	if !ok {
		return models.Suggestion{}, false
	}
	provider := d.Provider
	if provider == "" {
		provider = models.ProviderGroup
	}
	return models.Suggestion{
		GroupID:      g.ID,
		DelegateID:   d.DelegateID,
		Provider:     provider,
		Priority:     models.NormalizePriority(d.Priority),
		ConflictRule: pol.ConflictRule,
	}, true
}

func (e *Engine) suggestFromExtensions(st *state.State, memberID, topic string) (models.Suggestion, bool) {
	for _, ext := range e.extensions {
		s, ok := ext.TryResolveDelegation(st, memberID, topic)
		if !ok || s.DelegateID == "" {
			continue
		}
		if s.Provider == "" {
			s.Provider = ext.Name()
		}
		if s.ConflictRule != models.RulePromptUser {
			s.ConflictRule = models.RuleHighestPriority
		}
		return s, true
	}
	return models.Suggestion{}, false
}

// Resolve reconciles suggestions. The top-priority suggestions conflict when
// they name more than one delegate. The rule is prompt_user if any of them
// comes from a group using it; a prompt_user conflict chooses nobody.
// Otherwise the first top suggestion wins, and equal priorities keep their
// input order.
func Resolve(suggestions []models.Suggestion) models.Recommendation {
	rec := models.Recommendation{Suggestions: []models.Suggestion{}}
	if len(suggestions) == 0 {
		return rec
	}

	sorted := append([]models.Suggestion(nil), suggestions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	rec.Suggestions = sorted

	top := sorted[:1]
	for len(top) < len(sorted) && sorted[len(top)].Priority == sorted[0].Priority {
		top = sorted[:len(top)+1]
	}

	rec.ConflictRule = models.RuleHighestPriority
	for _, s := range top {
		if s.DelegateID != top[0].DelegateID {
			rec.Conflict = true
		}
		if s.ConflictRule == models.RulePromptUser {
			rec.ConflictRule = models.RulePromptUser
		}
	}

	if rec.Conflict && rec.ConflictRule == models.RulePromptUser {
		return rec
	}
	chosen := top[0]
	rec.Chosen = &chosen
	return rec
}

// Recommend suggests and reconciles a delegate for memberID on topic.
func (e *Engine) Recommend(st *state.State, memberID, topic string) models.Recommendation {
	rec := Resolve(e.Suggest(st, memberID, topic))
	rec.Topic = models.NormalizeTopic(topic)

	if rec.Conflict {
		e.logger.Info("delegation conflict",
			"member_id", memberID,
			"topic", rec.Topic,
			"rule", rec.ConflictRule,
			"suggestions", len(rec.Suggestions),
			"chosen", rec.Chosen != nil,
		)
	}
	return rec
}

// SetDelegation records ownerID's explicit choice for topic, replacing any
// earlier record for the pair. It does nothing without an owner identity or a
// delegate.
func (e *Engine) SetDelegation(st *state.State, ownerID, topic, delegateID, provider string, priority int) (models.DelegationRecord, bool) {
	ownerID = strings.TrimSpace(ownerID)
	delegateID = strings.TrimSpace(delegateID)
	if ownerID == "" || delegateID == "" {
		return models.DelegationRecord{}, false
	}
	if provider == "" {
		provider = models.ProviderManual
	}

	rec := e.stamper.StampDelegation(models.DelegationRecord{
		OwnerID:    ownerID,
		Topic:      models.NormalizeTopic(topic),
		DelegateID: delegateID,
		Provider:   provider,
		Priority:   priority,
		CreatedAt:  e.clock.Now(),
	})

	if i := st.FindDelegation(ownerID, rec.Topic); i >= 0 {
		st.Delegations[i] = rec
	} else {
		st.Delegations = append(st.Delegations, rec)
	}

	e.logger.Info("delegation set",
		"owner_id", ownerID,
		"topic", rec.Topic,
		"delegate_id", delegateID,
		"provider", provider,
	)
	return rec, true
}

// ClearDelegation removes ownerID's record for topic.
func (e *Engine) ClearDelegation(st *state.State, ownerID, topic string) bool {
	i := st.FindDelegation(ownerID, topic)
	if i < 0 {
		return false
	}
	st.Delegations = append(st.Delegations[:i], st.Delegations[i+1:]...)
	return true
}

// Effective returns who votes for memberID on topic: an explicit record
// first, then the recommendation's chosen delegate.
func (e *Engine) Effective(st *state.State, memberID, topic string) (models.Suggestion, bool) {
	if i := st.FindDelegation(memberID, topic); i >= 0 {
		d := st.Delegations[i]
		return models.Suggestion{
			DelegateID:   d.DelegateID,
			Provider:     d.Provider,
			Priority:     d.Priority,
			ConflictRule: models.RuleHighestPriority,
		}, true
	}

	rec := e.Recommend(st, memberID, topic)
	if rec.Chosen == nil {
		return models.Suggestion{}, false
	}
	return *rec.Chosen, true
}

// ClassifyTopic maps free text to a topic key using the first extension that
// recognizes it, or the normalized text itself.
func (e *Engine) ClassifyTopic(text string) string {
	for _, ext := range e.extensions {
		if topic, ok := ext.TryClassifyTopic(text); ok && strings.TrimSpace(topic) != "" {
			return models.NormalizeTopic(topic)
		}
	}
	return models.NormalizeTopic(text)
}
