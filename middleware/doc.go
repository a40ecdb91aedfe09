// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

One line per request with method, path, status, client address, member id
and duration. 5xx responses log at error level.

# CORS

	server := http.Server{Handler: middleware.CORS(mux)}

Allows GET, POST, PUT, DELETE, OPTIONS with Content-Type, X-Member-ID and
X-Admin-Key.

# Caller Identity

Members are identified by the X-Member-ID header, which an upstream
identity layer fills in. Group administration additionally accepts the
group's admin key in X-Admin-Key.

	member := middleware.MemberID(r)
	key := middleware.AdminKey(r)

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

	var req models.OpenElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
*/
package middleware
