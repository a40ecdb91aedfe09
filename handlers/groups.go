// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/quorum/auth"
	"github.com/danielhkuo/quorum/middleware"
	"github.com/danielhkuo/quorum/models"
	"github.com/danielhkuo/quorum/policy"
)

type GroupHandler struct {
	core *Core
}

func NewGroupHandler(core *Core) *GroupHandler {
	return &GroupHandler{core: core}
}

// CreateGroup handles POST /groups
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req models.CreateGroupRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := h.core.cleanText(req.Name)
	if name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	groupID, err := auth.GenerateGroupID()
	if err != nil {
		slog.Error("failed to generate group ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create group")
		return
	}

	g := &models.Group{
		ID:         groupID,
		Name:       name,
		Roles:      map[string]string{},
		Directives: map[string]models.DelegateDirective{},
	}

	// The creator joins as admin
	if creator := middleware.MemberID(r); creator != "" {
		g.Members = append(g.Members, creator)
		g.Roles[creator] = models.RoleAdmin
	}
	for _, m := range req.Members {
		m = strings.TrimSpace(m)
		if m == "" || g.HasMember(m) {
			continue
		}
		g.Members = append(g.Members, m)
		if strings.EqualFold(req.Roles[m], models.RoleAdmin) {
			g.Roles[m] = models.RoleAdmin
		}
	}

	h.core.mu.Lock()
	defer h.core.mu.Unlock()

	g.CreatedAt = h.core.clock.Now()
	h.core.st.Groups = append(h.core.st.Groups, g)
	if err := h.core.saveGroups(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	slog.Info("group created", "group_id", g.ID, "members", len(g.Members))

	middleware.JSONResponse(w, http.StatusCreated, models.CreateGroupResponse{
		GroupID:  g.ID,
		AdminKey: auth.GenerateAdminKey(g.ID, h.core.cfg.AdminKeySalt),
	})
}

// GetGroup handles GET /groups/{id}
func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	h.core.mu.Lock()
	defer h.core.mu.Unlock()

	g := h.core.st.FindGroup(r.PathValue("id"))
	if g == nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Group not found")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, g)
}

// SetDirective handles PUT /groups/{id}/directives/{topic}
func (h *GroupHandler) SetDirective(w http.ResponseWriter, r *http.Request) {
	var req models.SetDirectiveRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	delegateID := strings.TrimSpace(req.DelegateID)
	if delegateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "delegate_id is required")
		return
	}
	topic := h.core.cleanTopic(r.PathValue("topic"))
	priority := models.PriorityFromJSON(req.Priority)

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

	if g.Directives == nil {
		g.Directives = map[string]models.DelegateDirective{}
	}
	d := models.DelegateDirective{
		DelegateID: delegateID,
		Priority:   priority,
		Provider:   h.core.cleanText(req.Provider),
		UpdatedAt:  h.core.clock.Now(),
	}
	g.Directives[topic] = d

	if err := h.core.saveGroups(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	slog.Info("directive set",
		"group_id", g.ID,
		"topic", topic,
		"delegate_id", delegateID,
		"priority", models.NormalizePriority(priority),
	)
	middleware.JSONResponse(w, http.StatusOK, d)
}

// GetPolicy handles GET /groups/{id}/policy
func (h *GroupHandler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	h.core.mu.Lock()
	defer h.core.mu.Unlock()

	groupID := r.PathValue("id")
	if h.core.st.FindGroup(groupID) == nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Group not found")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, policy.Get(h.core.st, groupID))
}

// SetPolicy handles PUT /groups/{id}/policy
func (h *GroupHandler) SetPolicy(w http.ResponseWriter, r *http.Request) {
	var req models.SetPolicyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

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

	p := policy.Set(h.core.st, g.ID, models.GroupPolicy{
		ElectionMode:     req.ElectionMode,
		ConflictRule:     req.ConflictRule,
		CategoryWeighted: req.CategoryWeighted,
	})
	if err := h.core.savePolicies(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	slog.Info("policy set", "group_id", g.ID, "mode", p.ElectionMode, "rule", p.ConflictRule)
	middleware.JSONResponse(w, http.StatusOK, p)
}
