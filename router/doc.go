// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes.

	mux := router.NewRouter(core, cfg.InstanceName)

# Endpoints

Health:

	GET /health

Groups (mutations need X-Admin-Key or an admin X-Member-ID):

	POST /groups                           - Create group, returns admin_key
	GET  /groups/{id}                      - Members, roles, directives
	PUT  /groups/{id}/directives/{topic}   - Set delegate directive
	GET  /groups/{id}/policy               - Election mode and conflict rule
	PUT  /groups/{id}/policy               - Replace policy

Elections:

	POST /groups/{id}/elections   - Open election (admin)
	GET  /groups/{id}/elections   - List with results of closed ones
	POST /elections/{id}/ballots  - Cast or replace the caller's ballot
	POST /elections/{id}/close    - Close (admin)
	GET  /elections/{id}/results  - Winner, provisional while open

Delegations (X-Member-ID):

	GET    /delegations/recommendation?topic=  - Reconciled group suggestions
	GET    /delegations/{topic}                - Effective delegate
	PUT    /delegations/{topic}                - Explicit choice ("recommendation" is reserved)
	DELETE /delegations/{topic}                - Drop explicit choice

All handlers share one *handlers.Core.
*/
package router
