// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	clocks "github.com/vimeo/go-clocks"

	"github.com/danielhkuo/quorum/auth"
	"github.com/danielhkuo/quorum/cliparse"
	"github.com/danielhkuo/quorum/delegation"
	"github.com/danielhkuo/quorum/elections"
	"github.com/danielhkuo/quorum/middleware"
	"github.com/danielhkuo/quorum/models"
	"github.com/danielhkuo/quorum/notify"
	"github.com/danielhkuo/quorum/state"
)

var (
	ErrForbidden   = errors.New("admin access required")
	ErrNoMember    = errors.New("X-Member-ID header is required")
	ErrNotAMember  = errors.New("caller is not a member of this group")
	errPersistence = errors.New("failed to persist change")
)

// Store persists the parts of the state a request changed. *db.Store
// implements it.
type Store interface {
	SaveGroups(ctx context.Context, groups []*models.Group) error
	SavePolicies(ctx context.Context, policies []models.GroupPolicy) error
	SaveElections(ctx context.Context, elections []*models.Election) error
	SaveDelegations(ctx context.Context, records []models.DelegationRecord) error
}

// Deps are the collaborators shared by all handlers. Nil fields get
// in-memory defaults.
type Deps struct {
	State      *state.State
	Store      Store
	Elections  *elections.Manager
	Delegation *delegation.Engine
	Notifier   notify.Notifier
	Clock      clocks.Clock
}

// Core owns the state container. Every request holds mu while it reads or
// changes the container and while the change is persisted, so there is a
// single writer at a time.
type Core struct {
	mu         sync.Mutex
	st         *state.State
	store      Store
	elections  *elections.Manager
	delegation *delegation.Engine
	notifier   notify.Notifier
	clock      clocks.Clock
	cfg        cliparse.Config
	sanitizer  *bluemonday.Policy
}

func NewCore(deps Deps, cfg cliparse.Config) *Core {
	c := &Core{
		st:         deps.State,
		store:      deps.Store,
		elections:  deps.Elections,
		delegation: deps.Delegation,
		notifier:   deps.Notifier,
		clock:      deps.Clock,
		cfg:        cfg,
		sanitizer:  bluemonday.StrictPolicy(),
	}
	if c.st == nil {
		c.st = state.New()
	}
	if c.clock == nil {
		c.clock = clocks.DefaultClock()
	}
	if c.elections == nil {
		c.elections = elections.NewManager(c.clock, nil, nil)
	}
	if c.delegation == nil {
		c.delegation = delegation.NewEngine(c.elections, c.clock, nil, nil)
	}
	if c.notifier == nil {
		c.notifier = notify.LogNotifier{}
	}
	return c
}

// cleanText strips markup from user-supplied text. Entities produced by the
// sanitizer are decoded again so "R&D" stays "R&D".
func (c *Core) cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(c.sanitizer.Sanitize(s)))
}

// cleanTopic sanitizes a topic and classifies it into a topic key.
func (c *Core) cleanTopic(s string) string {
	return c.delegation.ClassifyTopic(c.cleanText(s))
}

// isAdmin reports whether the request carries g's admin key or comes from a
// member with the admin role.
func (c *Core) isAdmin(r *http.Request, g *models.Group) bool {
	if key := middleware.AdminKey(r); key != "" {
		if auth.ValidateAdminKey(g.ID, key, c.cfg.AdminKeySalt) == nil {
			return true
		}
	}
	member := middleware.MemberID(r)
	return member != "" && g.RoleOf(member) == models.RoleAdmin
}

// persist runs save if a store is configured. Callers hold mu.
func (c *Core) persist(ctx context.Context, what string, save func(ctx context.Context, s Store) error) error {
	if c.store == nil {
		return nil
	}
	if err := save(ctx, c.store); err != nil {
		slog.Error("failed to persist state", "what", what, "error", err)
		return errPersistence
	}
	return nil
}

func (c *Core) saveGroups(ctx context.Context) error {
	return c.persist(ctx, "groups", func(ctx context.Context, s Store) error {
		return s.SaveGroups(ctx, c.st.Groups)
	})
}

func (c *Core) savePolicies(ctx context.Context) error {
	return c.persist(ctx, "policies", func(ctx context.Context, s Store) error {
		return s.SavePolicies(ctx, c.st.Policies)
	})
}

func (c *Core) saveElections(ctx context.Context) error {
	return c.persist(ctx, "elections", func(ctx context.Context, s Store) error {
		return s.SaveElections(ctx, c.st.Elections)
	})
}

func (c *Core) saveDelegations(ctx context.Context) error {
	return c.persist(ctx, "delegations", func(ctx context.Context, s Store) error {
		return s.SaveDelegations(ctx, c.st.Delegations)
	})
}

// writeError maps package errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, elections.ErrElectionNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
	case errors.Is(err, elections.ErrElectionNotOpen):
		middleware.ErrorResponse(w, http.StatusConflict, "Election is not open")
	case errors.Is(err, elections.ErrNoCandidates),
		errors.Is(err, elections.ErrInvalidFirstChoice),
		errors.Is(err, elections.ErrMissingVoter):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNoMember):
		middleware.ErrorResponse(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotAMember):
		middleware.ErrorResponse(w, http.StatusForbidden, err.Error())
	case errors.Is(err, errPersistence):
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save change")
	default:
		slog.Error("unhandled error", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
	}
}
