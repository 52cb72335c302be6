// Package testutil provides shared helpers for tests that need a run history
// database or canned classification results.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/atlas/internal/model"
	"github.com/Veraticus/atlas/internal/service"
	"github.com/Veraticus/atlas/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database seeded with the given runs.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t,
//		testutil.NewResult("Bayesian filtering", testutil.Label("Statistical Methodology", "State Space Models")),
//	)
func SetupTestDB(t *testing.T, runs ...*model.Result) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Runs: runs})
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, service.Storage) error
	Runs           []*model.Result
	SkipMigrations bool
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	db := &TestDB{Storage: store, t: t}
	db.Seed(opts.Runs...)

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return db
}

// Seed saves runs or fails the test.
func (db *TestDB) Seed(runs ...*model.Result) {
	db.t.Helper()
	for _, run := range runs {
		if err := db.Storage.SaveRun(context.Background(), run); err != nil {
			db.t.Fatalf("failed to seed run %q: %v", run.Request.ID, err)
		}
	}
}

// MustGetRun returns the stored run or fails the test.
func (db *TestDB) MustGetRun(id string) *model.Result {
	db.t.Helper()
	run, err := db.Storage.GetRun(context.Background(), id)
	if err != nil {
		db.t.Fatalf("failed to get run %q: %v", id, err)
	}
	return run
}
