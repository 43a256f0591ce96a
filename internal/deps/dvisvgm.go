package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveDvisvgm returns the dvisvgm command the SVG conversion step should
// execute.
//
// TeX distributions install dvisvgm into the same bin directory as the latex
// binary, and that directory is not always on PATH when latex is configured
// by absolute path. Resolution tries the configured command first and falls
// back to a sibling of the resolved latex binary.
func ResolveDvisvgm(latexCommand, dvisvgmCommand string) (string, bool) {
	dvisvgm := strings.TrimSpace(dvisvgmCommand)
	if dvisvgm == "" {
		dvisvgm = "dvisvgm"
	}
	if resolved, err := exec.LookPath(dvisvgm); err == nil {
		return resolved, true
	}
	// Sibling lookup only applies to bare names; an explicit path that does
	// not resolve stays an error the renderer reports.
	if filepath.Base(dvisvgm) != dvisvgm {
		return dvisvgm, false
	}
	latexBinary := strings.TrimSpace(latexCommand)
	if latexBinary == "" {
		return dvisvgm, false
	}
	resolvedLatex, err := exec.LookPath(latexBinary)
	if err != nil {
		return dvisvgm, false
	}
	candidate := filepath.Join(filepath.Dir(resolvedLatex), executableName(dvisvgm))
	if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
		return candidate, true
	}
	return dvisvgm, false
}

// CheckDvisvgmForLatex reports the dvisvgm binary the renderer will execute.
// It shares resolution with the renderer so status output matches behaviour.
func CheckDvisvgmForLatex(latexCommand, dvisvgmCommand string) Status {
	result := Status{
		Name:        "dvisvgm",
		Description: "Converts DVI output to SVG",
	}
	command, found := ResolveDvisvgm(latexCommand, dvisvgmCommand)
	result.Command = command
	result.Available = found
	if !found {
		result.Detail = fmt.Sprintf("binary %q not found", command)
	}
	return result
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
