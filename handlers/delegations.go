// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quorum/middleware"
	"github.com/danielhkuo/quorum/models"
	"github.com/danielhkuo/quorum/notify"
)

// recommendationTopic is shadowed by GET /delegations/recommendation, so an
// explicit delegation under it could never be read back.
const recommendationTopic = "recommendation"

type DelegationHandler struct {
	core *Core
}

func NewDelegationHandler(core *Core) *DelegationHandler {
	return &DelegationHandler{core: core}
}

// Recommend handles GET /delegations/recommendation?topic=
// A conflicted recommendation is also sent to the member as a notification.
func (h *DelegationHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	memberID := middleware.MemberID(r)
	if memberID == "" {
		writeError(w, ErrNoMember)
		return
	}
	topic := h.core.cleanTopic(r.URL.Query().Get("topic"))

	h.core.mu.Lock()
	rec := h.core.delegation.Recommend(h.core.st, memberID, topic)
	h.core.mu.Unlock()

	if rec.Conflict {
		if err := h.core.notifier.Notify(r.Context(), notify.DelegationConflict(memberID, rec)); err != nil {
			slog.Warn("failed to send conflict notification", "member_id", memberID, "error", err)
		}
	}

	middleware.JSONResponse(w, http.StatusOK, rec)
}

// SetDelegation handles PUT /delegations/{topic}
func (h *DelegationHandler) SetDelegation(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.MemberID(r)
	if ownerID == "" {
		writeError(w, ErrNoMember)
		return
	}

	var req models.SetDelegationRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	priority := models.ManualPriority
	if req.Priority != nil {
		priority = *req.Priority
	}
	topic := h.core.cleanTopic(r.PathValue("topic"))
	if topic == recommendationTopic {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Topic name is reserved")
		return
	}

	h.core.mu.Lock()
	defer h.core.mu.Unlock()

	rec, ok := h.core.delegation.SetDelegation(h.core.st, ownerID, topic, req.DelegateID, models.ProviderManual, priority)
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "delegate_id is required")
		return
	}
	if err := h.core.saveDelegations(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, rec)
}

// ClearDelegation handles DELETE /delegations/{topic}
func (h *DelegationHandler) ClearDelegation(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.MemberID(r)
	if ownerID == "" {
		writeError(w, ErrNoMember)
		return
	}
	topic := h.core.cleanTopic(r.PathValue("topic"))

	h.core.mu.Lock()
	defer h.core.mu.Unlock()

	if !h.core.delegation.ClearDelegation(h.core.st, ownerID, topic) {
		middleware.ErrorResponse(w, http.StatusNotFound, "No delegation for topic")
		return
	}
	if err := h.core.saveDelegations(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	slog.Info("delegation cleared", "owner_id", ownerID, "topic", topic)
	w.WriteHeader(http.StatusNoContent)
}

// GetDelegation handles GET /delegations/{topic}: the member's explicit
// choice if they made one, else the recommended delegate.
func (h *DelegationHandler) GetDelegation(w http.ResponseWriter, r *http.Request) {
	memberID := middleware.MemberID(r)
	if memberID == "" {
		writeError(w, ErrNoMember)
		return
	}
	topic := h.core.cleanTopic(r.PathValue("topic"))

	h.core.mu.Lock()
	defer h.core.mu.Unlock()

	resp := models.DelegationResponse{
		Topic:    topic,
		Explicit: h.core.st.FindDelegation(memberID, topic) >= 0,
	}
	s, ok := h.core.delegation.Effective(h.core.st, memberID, topic)
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "No delegate for topic")
		return
	}
	resp.Delegate = &s

	middleware.JSONResponse(w, http.StatusOK, resp)
}
