// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vimeo/go-clocks/fake"

	"github.com/danielhkuo/quorum/cliparse"
	"github.com/danielhkuo/quorum/db"
	"github.com/danielhkuo/quorum/models"
	"github.com/danielhkuo/quorum/state"
)

// BaseTime is the starting time of test clocks
var BaseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// SetupTestDB opens an in-memory SQLite database with the full schema
func SetupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:              3318,
		DatabaseURL:       ":memory:",
		DatabaseType:      db.TypeSQLite,
		AdminKeySalt:      "test-admin-salt",
		InstanceName:      "quorum-test",
		DBConnectAttempts: 1,
	}
}

// NewTestClock returns a fake clock set to BaseTime
func NewTestClock() *fake.Clock {
	return fake.NewClock(BaseTime)
}

// AddTestGroup appends a group with the given members to st. The first
// member is the group's admin.
func AddTestGroup(t *testing.T, st *state.State, groupID string, members ...string) *models.Group {
	t.Helper()

	g := &models.Group{
		ID:         groupID,
		Name:       "Group " + groupID,
		Members:    members,
		Roles:      map[string]string{},
		Directives: map[string]models.DelegateDirective{},
		CreatedAt:  BaseTime,
	}
	if len(members) > 0 {
		g.Roles[members[0]] = models.RoleAdmin
	}
	st.Groups = append(st.Groups, g)
	return g
}

// SetTestDirective records a delegate directive on g for topic
func SetTestDirective(g *models.Group, topic, delegateID string, priority int) {
	g.Directives[models.NormalizeTopic(topic)] = models.DelegateDirective{
		DelegateID: delegateID,
		Priority:   json.Number(strconv.Itoa(priority)),
		UpdatedAt:  BaseTime,
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
