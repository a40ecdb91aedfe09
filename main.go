// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	clocks "github.com/vimeo/go-clocks"

	"github.com/danielhkuo/quorum/cliparse"
	"github.com/danielhkuo/quorum/db"
	"github.com/danielhkuo/quorum/delegation"
	"github.com/danielhkuo/quorum/elections"
	"github.com/danielhkuo/quorum/handlers"
	"github.com/danielhkuo/quorum/middleware"
	"github.com/danielhkuo/quorum/notify"
	"github.com/danielhkuo/quorum/router"
	"github.com/danielhkuo/quorum/state"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment")
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clocks.DefaultClock()

	dbConn, err := db.Connect(ctx, clock, cfg.DatabaseType, cfg.DatabaseURL, cfg.DBConnectAttempts)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}

	store := db.NewStore(dbConn)
	st, err := store.LoadState(ctx)
	if err != nil {
		slog.Error("failed to load state", "error", err)
		os.Exit(1)
	}
	slog.Info("state loaded",
		"groups", len(st.Groups),
		"elections", len(st.Elections),
		"delegations", len(st.Delegations),
	)

	logger := slog.Default()
	stamper := state.OriginStamper{Origin: cfg.InstanceName}
	manager := elections.NewManager(clock, stamper, logger)
	engine := delegation.NewEngine(manager, clock, stamper, logger)

	core := handlers.NewCore(handlers.Deps{
		State:      st,
		Store:      store,
		Elections:  manager,
		Delegation: engine,
		Notifier:   notify.LogNotifier{Logger: logger},
		Clock:      clock,
	}, cfg)

	server := http.Server{
		Handler: middleware.CORS(router.NewRouter(core, cfg.InstanceName)),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()
		server.Close()
	}()

	slog.Info("Listening", "port", cfg.Port, "instance", cfg.InstanceName, "database", cfg.DatabaseType)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed")
	}
}
