package testsupport

import (
	"testing"

	"pandora/internal/config"
	"pandora/internal/logging"
	"pandora/internal/rendercache"
)

// MustOpenCache opens a rendercache.Manager for tests and registers cleanup.
// The config must have the cache enabled; a nil manager fails the test.
func MustOpenCache(t testing.TB, cfg *config.Config) *rendercache.Manager {
	t.Helper()

	manager, err := rendercache.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("rendercache.Open: %v", err)
	}
	if manager == nil {
		t.Fatal("rendercache.Open returned nil manager; enable the cache on the test config")
	}
	t.Cleanup(func() {
		_ = manager.Close()
	})
	return manager
}
