// Package preflight provides readiness checks for the renderer toolchain
// and the filesystem paths a compile writes into.
//
// The checks run in two contexts:
//   - The build command calls Compile before dispatching renders, failing
//     fast when a binary the document actually needs is missing instead of
//     producing an archive full of failure placeholders.
//   - The doctor command runs All to display the full environment table,
//     including tools the current invocation would not use.
package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"pandora/internal/config"
	"pandora/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Required bool
	Detail   string
}

// Needs describes which renderer toolchains a compile will exercise, derived
// from the kinds present in the segmented document.
type Needs struct {
	Latex bool
	Manim bool
}

// Compile runs the checks a compile with the given needs depends on. A tool
// the document never uses is reported but not required, so a text-only
// document builds on a machine without Manim installed.
func Compile(cfg *config.Config, needs Needs) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		directoryCheck("Staging directory", cfg.Paths.StagingDir, true),
	}
	for _, status := range rendererDeps(cfg) {
		required := false
		switch status.Name {
		case "latex", "dvisvgm":
			required = needs.Latex
		case "manim":
			required = needs.Manim
		}
		results = append(results, fromDepStatus(status, required))
	}
	return results
}

// All runs every environment check for the doctor command. Renderer binaries
// are all marked required since doctor has no document to scope them by.
func All(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		directoryCheck("Staging directory", cfg.Paths.StagingDir, true),
		directoryCheck("Log directory", cfg.Paths.LogDir, true),
	}
	if cfg.RenderCache.Enabled {
		results = append(results, directoryCheck("Render cache directory", cfg.RenderCache.Dir, false))
	}
	for _, status := range rendererDeps(cfg) {
		results = append(results, fromDepStatus(status, true))
	}
	return results
}

// FirstFailure returns the first failed required check, if any.
func FirstFailure(results []Result) (Result, bool) {
	for _, r := range results {
		if r.Required && !r.Passed {
			return r, true
		}
	}
	return Result{}, false
}

func rendererDeps(cfg *config.Config) []deps.Status {
	statuses := deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "latex",
			Command:     cfg.Latex.Binary,
			Description: "Compiles text blocks to DVI",
		},
	})
	statuses = append(statuses, deps.CheckDvisvgmForLatex(cfg.Latex.Binary, cfg.Latex.DvisvgmBinary))
	statuses = append(statuses, deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "manim",
			Command:     cfg.Manim.Binary,
			Description: "Renders animation blocks to video",
		},
	})...)
	return statuses
}

func fromDepStatus(status deps.Status, required bool) Result {
	detail := status.Detail
	if status.Available {
		detail = status.Command
	}
	return Result{
		Name:     status.Name,
		Passed:   status.Available,
		Required: required,
		Detail:   detail,
	}
}

// directoryCheck verifies that the directory exists and is fully accessible.
func directoryCheck(name, path string, required bool) Result {
	result := Result{Name: name, Required: required}
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		result.Detail = fmt.Sprintf("%s (error: does not exist)", path)
	case err != nil:
		result.Detail = fmt.Sprintf("%s (error: stat: %v)", path, err)
	case !info.IsDir():
		result.Detail = fmt.Sprintf("%s (error: is not a directory)", path)
	case unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK) != nil:
		result.Detail = fmt.Sprintf("%s (error: insufficient permissions)", path)
	default:
		result.Passed = true
		result.Detail = fmt.Sprintf("%s (read/write ok)", path)
	}
	return result
}
