// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/quorum/handlers"
	"github.com/danielhkuo/quorum/middleware"
)

func NewRouter(core *handlers.Core, instance string) *http.ServeMux {
	mux := http.NewServeMux()

	groupHandler := handlers.NewGroupHandler(core)
	electionHandler := handlers.NewElectionHandler(core)
	delegationHandler := handlers.NewDelegationHandler(core)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Groups (admin operations require X-Admin-Key or an admin member)
	mux.HandleFunc("POST /groups", middleware.WithLogging(groupHandler.CreateGroup))
	mux.HandleFunc("GET /groups/{id}", middleware.WithLogging(groupHandler.GetGroup))
	mux.HandleFunc("PUT /groups/{id}/directives/{topic}", middleware.WithLogging(groupHandler.SetDirective))
	mux.HandleFunc("GET /groups/{id}/policy", middleware.WithLogging(groupHandler.GetPolicy))
	mux.HandleFunc("PUT /groups/{id}/policy", middleware.WithLogging(groupHandler.SetPolicy))

	// Elections
	mux.HandleFunc("POST /groups/{id}/elections", middleware.WithLogging(electionHandler.OpenElection))
	mux.HandleFunc("GET /groups/{id}/elections", middleware.WithLogging(electionHandler.ListElections))
	mux.HandleFunc("POST /elections/{id}/ballots", middleware.WithLogging(electionHandler.CastVote))
	mux.HandleFunc("POST /elections/{id}/close", middleware.WithLogging(electionHandler.CloseElection))
	mux.HandleFunc("GET /elections/{id}/results", middleware.WithLogging(electionHandler.GetResults))

	// Delegations (per member, X-Member-ID)
	mux.HandleFunc("GET /delegations/recommendation", middleware.WithLogging(delegationHandler.Recommend))
	mux.HandleFunc("GET /delegations/{topic}", middleware.WithLogging(delegationHandler.GetDelegation))
	mux.HandleFunc("PUT /delegations/{topic}", middleware.WithLogging(delegationHandler.SetDelegation))
	mux.HandleFunc("DELETE /delegations/{topic}", middleware.WithLogging(delegationHandler.ClearDelegation))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(instance + " API v1"))
	})

	return mux
}
