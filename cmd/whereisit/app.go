package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/erazemk/whereisit/internal/catalog"
	"github.com/erazemk/whereisit/internal/config"
	"github.com/erazemk/whereisit/internal/db"
	"github.com/erazemk/whereisit/internal/images"
	"github.com/erazemk/whereisit/internal/imaging"
	"github.com/erazemk/whereisit/internal/kv"
	"github.com/erazemk/whereisit/internal/store"
)

// app is everything a command needs, constructed once per invocation.
type app struct {
	db      *sql.DB
	store   *store.Store
	images  *images.Manager
	catalog *catalog.Catalog
}

// openApp opens the database, rehydrates the store and seeds the default
// items on first run.
func openApp(ctx context.Context, cfg config.Config) (*app, error) {
	database, err := db.Open(cfg.Database())
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, err
	}

	mgr, err := images.New(cfg.Images())
	if err != nil {
		database.Close()
		return nil, err
	}

	st, err := store.Open(ctx, kv.NewSQLite(database), mgr)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("opening item store: %w", err)
	}

	seeded, err := st.EnsureDefaults(ctx)
	if err != nil {
		st.Close()
		database.Close()
		return nil, fmt.Errorf("seeding default items: %w", err)
	}
	if seeded {
		slog.Info("catalog initialized with default items", "count", st.Len())
	}

	opts := cfg.ImagingOptions()
	cat := catalog.New(st, mgr, catalog.WithResizer(func(src string) (string, error) {
		return imaging.ResizeFile(src, opts)
	}))

	slog.Info("catalog ready", "database", cfg.Database(), "images", mgr.Dir(), "items", st.Len())

	return &app{db: database, store: st, images: mgr, catalog: cat}, nil
}

// Close drains pending image deletions before closing the database.
func (a *app) Close() error {
	a.store.Close()
	return a.db.Close()
}
