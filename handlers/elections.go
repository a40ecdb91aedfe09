// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/quorum/elections"
	"github.com/danielhkuo/quorum/middleware"
	"github.com/danielhkuo/quorum/models"
)

type ElectionHandler struct {
	core *Core
}

func NewElectionHandler(core *Core) *ElectionHandler {
	return &ElectionHandler{core: core}
}

// OpenElection handles POST /groups/{id}/elections
func (h *ElectionHandler) OpenElection(w http.ResponseWriter, r *http.Request) {
	var req models.OpenElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var candidates []string
	for _, c := range req.Candidates {
		if c = strings.TrimSpace(c); c != "" {
			candidates = append(candidates, c)
		}
	}
	topic := h.core.cleanTopic(req.Topic)

	h.core.mu.Lock()
	defer h.core.mu.Unlock()

	g := h.core.st.FindGroup(r.PathValue("id"))
	if g == nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Group not found")
		return
	}
	if !h.core.isAdmin(r, g) {
		writeError(w, ErrForbidden)
		return
	}

	e, err := h.core.elections.Open(h.core.st, g.ID, topic, candidates)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.core.saveElections(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, e)
}

// ListElections handles GET /groups/{id}/elections. Results are only
// included for closed elections.
func (h *ElectionHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	h.core.mu.Lock()
	defer h.core.mu.Unlock()

	g := h.core.st.FindGroup(r.PathValue("id"))
	if g == nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Group not found")
		return
	}

	now := h.core.clock.Now()
	summaries := []models.ElectionSummary{}
	for _, e := range h.core.elections.ListForGroup(h.core.st, g.ID) {
		s := models.ElectionSummary{
			Election:    *e,
			BallotCount: len(e.Ballots),
		}
		if e.Status == models.StatusClosed {
			if res, ok := h.core.elections.Winner(e); ok {
				s.Result = &res
			}
			if e.ClosedAt != nil && !e.ClosedAt.IsZero() {
				s.ClosedAgo = humanize.RelTime(*e.ClosedAt, now, "ago", "from now")
			}
		}
		summaries = append(summaries, s)
	}

	middleware.JSONResponse(w, http.StatusOK, summaries)
}

// CastVote handles POST /elections/{id}/ballots. The voter is the caller's
// member id and must belong to the election's group.
func (h *ElectionHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	voterID := middleware.MemberID(r)
	if voterID == "" {
		writeError(w, ErrNoMember)
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	h.core.mu.Lock()
	defer h.core.mu.Unlock()

	e, err := h.core.elections.Find(h.core.st, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if g := h.core.st.FindGroup(e.GroupID); g != nil && !g.HasMember(voterID) {
		writeError(w, ErrNotAMember)
		return
	}

	ballot, err := h.core.elections.CastVote(h.core.st, e.ID, voterID,
		strings.TrimSpace(req.First), strings.TrimSpace(req.Second), strings.TrimSpace(req.Third))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.core.saveElections(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CastVoteResponse{
		Ballot:  ballot,
		Message: "Ballot recorded",
	})
}

// CloseElection handles POST /elections/{id}/close
func (h *ElectionHandler) CloseElection(w http.ResponseWriter, r *http.Request) {
	h.core.mu.Lock()
	defer h.core.mu.Unlock()

	e, err := h.core.elections.Find(h.core.st, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	g := h.core.st.FindGroup(e.GroupID)
	if g == nil || !h.core.isAdmin(r, g) {
		writeError(w, ErrForbidden)
		return
	}

	if _, ok := h.core.elections.Close(h.core.st, e.ID); !ok {
		writeError(w, elections.ErrElectionNotOpen)
		return
	}
	if err := h.core.saveElections(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, h.results(e))
}

// GetResults handles GET /elections/{id}/results. Open elections report a
// provisional result.
func (h *ElectionHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	h.core.mu.Lock()
	defer h.core.mu.Unlock()

	e, err := h.core.elections.Find(h.core.st, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, h.results(e))
}

func (h *ElectionHandler) results(e *models.Election) models.ResultsResponse {
	resp := models.ResultsResponse{
		ElectionID:  e.ID,
		Status:      e.Status,
		Provisional: e.Status != models.StatusClosed,
		BallotCount: len(e.Ballots),
	}
	if res, ok := h.core.elections.Winner(e); ok {
		resp.Result = &res
	}
	slog.Debug("results computed", "election_id", e.ID, "has_result", resp.Result != nil)
	return resp
}
