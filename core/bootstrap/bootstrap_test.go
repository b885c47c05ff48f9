package bootstrap

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/quizbot/core/config"
	coredatabase "github.com/m3rciful/quizbot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunSkipsDatabaseWhenDisabled(t *testing.T) {
	connected := false
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			connected = true
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if connected {
		t.Fatal("connect called without a configured database")
	}
	if res.DB != nil {
		t.Fatal("expected nil DB")
	}
	if err := res.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRunAppliesMigrationsAfterConnect(t *testing.T) {
	dbCfg := coredatabase.Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "runs.db")}
	if err := dbCfg.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	migrations := fstest.MapFS{"0001_x.up.sql": &fstest.MapFile{Data: []byte("SELECT 1;")}}

	var got fs.FS
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   dbCfg,
		Migrations: migrations,
		LoggerInit: noLogger,
		Migrate: func(_ coredatabase.Config, fsys fs.FS) error {
			got = fsys
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	t.Cleanup(func() { _ = res.Close() })
	if res.DB == nil {
		t.Fatal("expected a connected DB")
	}
	if got == nil {
		t.Fatal("migrations were not applied")
	}
}

func TestRunClosesDBWhenMigrationsFail(t *testing.T) {
	dbCfg := coredatabase.Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "runs.db")}
	if err := dbCfg.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := errors.New("dirty database")
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   dbCfg,
		Migrations: fstest.MapFS{},
		LoggerInit: noLogger,
		Migrate:    func(coredatabase.Config, fs.FS) error { return want },
	})
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

func TestRunReportsLoggerFailure(t *testing.T) {
	want := errors.New("bad format")
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return want },
	})
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}
