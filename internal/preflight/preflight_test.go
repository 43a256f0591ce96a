package preflight_test

import (
	"os"
	"testing"

	"pandora/internal/config"
	"pandora/internal/preflight"
	"pandora/internal/testsupport"
)

func findResult(t *testing.T, results []preflight.Result, name string) preflight.Result {
	t.Helper()
	for _, r := range results {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("no %q result in %v", name, results)
	return preflight.Result{}
}

func TestCompileScopesRequirementsToDocumentNeeds(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("latex", "dvisvgm"))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	// Manim deliberately not stubbed: with no animation blocks its absence
	// must not fail the compile.
	cfg.Manim.Binary = "pandora-test-manim-missing"

	results := preflight.Compile(cfg, preflight.Needs{Latex: true, Manim: false})

	latex := findResult(t, results, "latex")
	if !latex.Passed || !latex.Required {
		t.Fatalf("latex result = %+v", latex)
	}
	manim := findResult(t, results, "manim")
	if manim.Passed {
		t.Fatalf("manim should be missing, got %+v", manim)
	}
	if manim.Required {
		t.Fatal("manim must not be required without animation blocks")
	}
	if _, failed := preflight.FirstFailure(results); failed {
		t.Fatal("no required check should fail")
	}
}

func TestCompileFailsOnMissingNeededRenderer(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("latex", "dvisvgm"))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	cfg.Manim.Binary = "pandora-test-manim-missing"

	results := preflight.Compile(cfg, preflight.Needs{Latex: true, Manim: true})
	failure, failed := preflight.FirstFailure(results)
	if !failed {
		t.Fatal("expected a required failure")
	}
	if failure.Name != "manim" {
		t.Fatalf("failure = %+v, want manim", failure)
	}
}

func TestCompileReportsMissingStagingDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	// EnsureDirectories intentionally not called.

	results := preflight.Compile(cfg, preflight.Needs{})
	staging := findResult(t, results, "Staging directory")
	if staging.Passed {
		t.Fatalf("staging check should fail, got %+v", staging)
	}
	if failure, failed := preflight.FirstFailure(results); !failed || failure.Name != "Staging directory" {
		t.Fatalf("FirstFailure = %+v, %v", failure, failed)
	}
}

func TestAllIncludesCacheDirectoryWhenEnabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries(), testsupport.WithRenderCache())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := preflight.All(cfg)
	cache := findResult(t, results, "Render cache directory")
	if !cache.Passed {
		t.Fatalf("cache directory check failed: %+v", cache)
	}
	latex := findResult(t, results, "latex")
	if !latex.Required {
		t.Fatal("doctor marks every renderer required")
	}
}

func TestAllNilConfig(t *testing.T) {
	if results := preflight.All(nil); results != nil {
		t.Fatalf("All(nil) = %v", results)
	}
}

func TestDirectoryCheckRejectsFile(t *testing.T) {
	cfg := config.Default()
	file, err := os.CreateTemp(t.TempDir(), "not-a-dir")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	file.Close()
	cfg.Paths.StagingDir = file.Name()
	cfg.Paths.LogDir = t.TempDir()
	cfg.RenderCache.Enabled = false

	results := preflight.All(&cfg)
	staging := findResult(t, results, "Staging directory")
	if staging.Passed {
		t.Fatalf("file path should fail directory check: %+v", staging)
	}
}
