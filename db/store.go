// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/quorum/models"
	"github.com/danielhkuo/quorum/state"
)

// Store persists the state container. Each Save call writes the complete list
// it is given inside one transaction; list order is kept through position
// columns so a reload reproduces the container order.
type Store struct {
	conn *sqlx.DB
}

func NewStore(conn *sqlx.DB) *Store {
	return &Store{conn: conn}
}

type groupRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

type memberRow struct {
	GroupID  string `db:"group_id"`
	MemberID string `db:"member_id"`
	Role     string `db:"role"`
}

type directiveRow struct {
	GroupID    string    `db:"group_id"`
	Topic      string    `db:"topic"`
	DelegateID string    `db:"delegate_id"`
	Priority   string    `db:"priority"`
	Provider   string    `db:"provider"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type policyRow struct {
	GroupID          string `db:"group_id"`
	ElectionMode     string `db:"election_mode"`
	ConflictRule     string `db:"conflict_rule"`
	CategoryWeighted bool   `db:"category_weighted"`
}

type electionRow struct {
	ID        string       `db:"id"`
	GroupID   string       `db:"group_id"`
	Topic     string       `db:"topic"`
	Status    string       `db:"status"`
	Meta      string       `db:"meta"`
	CreatedAt time.Time    `db:"created_at"`
	ClosedAt  sql.NullTime `db:"closed_at"`
}

type candidateRow struct {
	ElectionID  string `db:"election_id"`
	CandidateID string `db:"candidate_id"`
}

type ballotRow struct {
	ElectionID string    `db:"election_id"`
	VoterID    string    `db:"voter_id"`
	First      string    `db:"first_choice"`
	Second     string    `db:"second_choice"`
	Third      string    `db:"third_choice"`
	CastAt     time.Time `db:"cast_at"`
}

type delegationRow struct {
	OwnerID    string    `db:"owner_id"`
	Topic      string    `db:"topic"`
	DelegateID string    `db:"delegate_id"`
	Provider   string    `db:"provider"`
	Priority   int       `db:"priority"`
	Meta       string    `db:"meta"`
	CreatedAt  time.Time `db:"created_at"`
}

// LoadState reads every entity into a new State.
func (s *Store) LoadState(ctx context.Context) (*state.State, error) {
	st := state.New()

	groups, err := s.loadGroups(ctx)
	if err != nil {
		return nil, err
	}
	st.Groups = groups

	var policies []policyRow
	if err := s.conn.SelectContext(ctx, &policies, `
		SELECT group_id, election_mode, conflict_rule, category_weighted
		FROM group_policy
		ORDER BY group_id
	`); err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}
	for _, p := range policies {
		st.Policies = append(st.Policies, models.GroupPolicy(p))
	}

	elections, err := s.loadElections(ctx)
	if err != nil {
		return nil, err
	}
	st.Elections = elections

	var delegations []delegationRow
	if err := s.conn.SelectContext(ctx, &delegations, `
		SELECT owner_id, topic, delegate_id, provider, priority, meta, created_at
		FROM delegation
		ORDER BY position
	`); err != nil {
		return nil, fmt.Errorf("failed to load delegations: %w", err)
	}
	for _, d := range delegations {
		meta, err := decodeMeta(d.Meta)
		if err != nil {
			return nil, fmt.Errorf("delegation %s/%s: %w", d.OwnerID, d.Topic, err)
		}
		st.Delegations = append(st.Delegations, models.DelegationRecord{
			OwnerID:    d.OwnerID,
			Topic:      d.Topic,
			DelegateID: d.DelegateID,
			Provider:   d.Provider,
			Priority:   d.Priority,
			CreatedAt:  d.CreatedAt,
			Meta:       meta,
		})
	}

	return st, nil
}

func (s *Store) loadGroups(ctx context.Context) ([]*models.Group, error) {
	var rows []groupRow
	if err := s.conn.SelectContext(ctx, &rows, `
		SELECT id, name, created_at FROM member_group ORDER BY position, created_at, id
	`); err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}

	groups := make([]*models.Group, 0, len(rows))
	byID := make(map[string]*models.Group, len(rows))
	for _, r := range rows {
		g := &models.Group{
			ID:         r.ID,
			Name:       r.Name,
			CreatedAt:  r.CreatedAt,
			Roles:      map[string]string{},
			Directives: map[string]models.DelegateDirective{},
		}
		groups = append(groups, g)
		byID[g.ID] = g
	}

	var members []memberRow
	if err := s.conn.SelectContext(ctx, &members, `
		SELECT group_id, member_id, role FROM group_member ORDER BY group_id, position
	`); err != nil {
		return nil, fmt.Errorf("failed to load group members: %w", err)
	}
	for _, m := range members {
		g := byID[m.GroupID]
		if g == nil {
			continue
		}
		g.Members = append(g.Members, m.MemberID)
		if m.Role != "" {
			g.Roles[m.MemberID] = m.Role
		}
	}

	var directives []directiveRow
	if err := s.conn.SelectContext(ctx, &directives, `
		SELECT group_id, topic, delegate_id, priority, provider, updated_at FROM group_directive
	`); err != nil {
		return nil, fmt.Errorf("failed to load directives: %w", err)
	}
	for _, d := range directives {
		g := byID[d.GroupID]
		if g == nil {
			continue
		}
		g.Directives[d.Topic] = models.DelegateDirective{
			DelegateID: d.DelegateID,
			Priority:   json.Number(d.Priority),
			Provider:   d.Provider,
			UpdatedAt:  d.UpdatedAt,
		}
	}

	return groups, nil
}

func (s *Store) loadElections(ctx context.Context) ([]*models.Election, error) {
	var rows []electionRow
	if err := s.conn.SelectContext(ctx, &rows, `
		SELECT id, group_id, topic, status, meta, created_at, closed_at
		FROM election
		ORDER BY position
	`); err != nil {
		return nil, fmt.Errorf("failed to load elections: %w", err)
	}

	elections := make([]*models.Election, 0, len(rows))
	byID := make(map[string]*models.Election, len(rows))
	for _, r := range rows {
		meta, err := decodeMeta(r.Meta)
		if err != nil {
			return nil, fmt.Errorf("election %s: %w", r.ID, err)
		}
		e := &models.Election{
			ID:        r.ID,
			GroupID:   r.GroupID,
			Topic:     r.Topic,
			Status:    r.Status,
			CreatedAt: r.CreatedAt,
			Meta:      meta,
		}
		if r.ClosedAt.Valid {
			closedAt := r.ClosedAt.Time
			e.ClosedAt = &closedAt
		}
		elections = append(elections, e)
		byID[e.ID] = e
	}

	var candidates []candidateRow
	if err := s.conn.SelectContext(ctx, &candidates, `
		SELECT election_id, candidate_id FROM election_candidate ORDER BY election_id, position
	`); err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}
	for _, c := range candidates {
		if e := byID[c.ElectionID]; e != nil {
			e.Candidates = append(e.Candidates, c.CandidateID)
		}
	}

	var ballots []ballotRow
	if err := s.conn.SelectContext(ctx, &ballots, `
		SELECT election_id, voter_id, first_choice, second_choice, third_choice, cast_at
		FROM ballot
		ORDER BY election_id, position
	`); err != nil {
		return nil, fmt.Errorf("failed to load ballots: %w", err)
	}
	for _, b := range ballots {
		if e := byID[b.ElectionID]; e != nil {
			e.Ballots = append(e.Ballots, models.Ballot{
				VoterID: b.VoterID,
				First:   b.First,
				Second:  b.Second,
				Third:   b.Third,
				CastAt:  b.CastAt,
			})
		}
	}

	return elections, nil
}

// SaveGroups writes groups with their members and directives.
func (s *Store) SaveGroups(ctx context.Context, groups []*models.Group) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for pos, g := range groups {
			if _, err := tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO member_group (id, name, created_at, position) VALUES (?, ?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET name = excluded.name, position = excluded.position
			`), g.ID, g.Name, g.CreatedAt.UTC(), pos); err != nil {
				return fmt.Errorf("failed to save group %s: %w", g.ID, err)
			}

			if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM group_member WHERE group_id = ?`), g.ID); err != nil {
				return fmt.Errorf("failed to clear members of %s: %w", g.ID, err)
			}
			for i, m := range g.Members {
				if _, err := tx.ExecContext(ctx, tx.Rebind(`
					INSERT INTO group_member (group_id, member_id, role, position) VALUES (?, ?, ?, ?)
				`), g.ID, m, g.Roles[m], i); err != nil {
					return fmt.Errorf("failed to save member %s of %s: %w", m, g.ID, err)
				}
			}

			if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM group_directive WHERE group_id = ?`), g.ID); err != nil {
				return fmt.Errorf("failed to clear directives of %s: %w", g.ID, err)
			}
			for topic, d := range g.Directives {
				if _, err := tx.ExecContext(ctx, tx.Rebind(`
					INSERT INTO group_directive (group_id, topic, delegate_id, priority, provider, updated_at)
					VALUES (?, ?, ?, ?, ?, ?)
				`), g.ID, topic, d.DelegateID, string(d.Priority), d.Provider, d.UpdatedAt.UTC()); err != nil {
					return fmt.Errorf("failed to save directive %s of %s: %w", topic, g.ID, err)
				}
			}
		}
		return nil
	})
}

// SavePolicies writes group policies, replacing stored ones.
func (s *Store) SavePolicies(ctx context.Context, policies []models.GroupPolicy) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, p := range policies {
			if _, err := tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO group_policy (group_id, election_mode, conflict_rule, category_weighted)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (group_id) DO UPDATE SET
					election_mode = excluded.election_mode,
					conflict_rule = excluded.conflict_rule,
					category_weighted = excluded.category_weighted
			`), p.GroupID, p.ElectionMode, p.ConflictRule, p.CategoryWeighted); err != nil {
				return fmt.Errorf("failed to save policy of %s: %w", p.GroupID, err)
			}
		}
		return nil
	})
}

// SaveElections writes the full election list with candidates and ballots.
func (s *Store) SaveElections(ctx context.Context, elections []*models.Election) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for pos, e := range elections {
			meta, err := encodeMeta(e.Meta)
			if err != nil {
				return fmt.Errorf("election %s: %w", e.ID, err)
			}
			var closedAt sql.NullTime
			if e.ClosedAt != nil {
				closedAt = sql.NullTime{Time: e.ClosedAt.UTC(), Valid: true}
			}

			if _, err := tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO election (id, group_id, topic, status, meta, created_at, closed_at, position)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (id) DO UPDATE SET
					status = excluded.status,
					meta = excluded.meta,
					closed_at = excluded.closed_at,
					position = excluded.position
			`), e.ID, e.GroupID, e.Topic, e.Status, meta, e.CreatedAt.UTC(), closedAt, pos); err != nil {
				return fmt.Errorf("failed to save election %s: %w", e.ID, err)
			}

			if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM election_candidate WHERE election_id = ?`), e.ID); err != nil {
				return fmt.Errorf("failed to clear candidates of %s: %w", e.ID, err)
			}
			for i, c := range e.Candidates {
				if _, err := tx.ExecContext(ctx, tx.Rebind(`
					INSERT INTO election_candidate (election_id, position, candidate_id) VALUES (?, ?, ?)
				`), e.ID, i, c); err != nil {
					return fmt.Errorf("failed to save candidate %s of %s: %w", c, e.ID, err)
				}
			}

			if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM ballot WHERE election_id = ?`), e.ID); err != nil {
				return fmt.Errorf("failed to clear ballots of %s: %w", e.ID, err)
			}
			for i, b := range e.Ballots {
				if _, err := tx.ExecContext(ctx, tx.Rebind(`
					INSERT INTO ballot (election_id, voter_id, first_choice, second_choice, third_choice, cast_at, position)
					VALUES (?, ?, ?, ?, ?, ?, ?)
				`), e.ID, b.VoterID, b.First, b.Second, b.Third, b.CastAt.UTC(), i); err != nil {
					return fmt.Errorf("failed to save ballot of %s in %s: %w", b.VoterID, e.ID, err)
				}
			}
		}
		return nil
	})
}

// SaveDelegations replaces every stored delegation record with records.
func (s *Store) SaveDelegations(ctx context.Context, records []models.DelegationRecord) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM delegation`); err != nil {
			return fmt.Errorf("failed to clear delegations: %w", err)
		}
		for i, d := range records {
			meta, err := encodeMeta(d.Meta)
			if err != nil {
				return fmt.Errorf("delegation %s/%s: %w", d.OwnerID, d.Topic, err)
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO delegation (owner_id, topic, delegate_id, provider, priority, meta, created_at, position)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`), d.OwnerID, d.Topic, d.DelegateID, d.Provider, d.Priority, meta, d.CreatedAt.UTC(), i); err != nil {
				return fmt.Errorf("failed to save delegation %s/%s: %w", d.OwnerID, d.Topic, err)
			}
		}
		return nil
	})
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func encodeMeta(meta map[string]string) (string, error) {
	if len(meta) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to encode meta: %w", err)
	}
	return string(b), nil
}

func decodeMeta(raw string) (map[string]string, error) {
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("failed to decode meta: %w", err)
	}
	return meta, nil
}
