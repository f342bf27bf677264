package config

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg.DBPath != want.DBPath || cfg.Detectors.DogmatismACrit != want.Detectors.DogmatismACrit {
		t.Fatalf("Load of missing file did not return defaults: %+v", cfg)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifold.yaml")
	cfg := Default()
	cfg.DBPath = "custom.db"
	cfg.Detectors.NarcissismSelfFracThr = 0.9

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.DBPath != "custom.db" {
		t.Fatalf("DBPath = %q, want custom.db", loaded.DBPath)
	}
	if loaded.Detectors.NarcissismSelfFracThr != 0.9 {
		t.Fatalf("NarcissismSelfFracThr = %v, want 0.9", loaded.Detectors.NarcissismSelfFracThr)
	}
}
