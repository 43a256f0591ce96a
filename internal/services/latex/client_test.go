package latex_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"pandora/internal/services"
	"pandora/internal/services/latex"
)

type stubExecutor struct {
	err   error
	lines []string
	calls int
	args  [][]string
	onRun func(dir, binary string, args []string) error
}

func (s *stubExecutor) Run(ctx context.Context, dir, binary string, args []string, onLine func(string)) error {
	s.calls++
	s.args = append(s.args, append([]string{binary}, args...))
	for _, line := range s.lines {
		if onLine != nil {
			onLine(line)
		}
	}
	if s.onRun != nil {
		return s.onRun(dir, binary, args)
	}
	return s.err
}

func TestRenderProducesSVGAtRequestedPath(t *testing.T) {
	tmp := t.TempDir()
	output := filepath.Join(tmp, "latex", "block_0.svg")

	var sawTex string
	stub := &stubExecutor{onRun: func(dir, binary string, args []string) error {
		switch binary {
		case "latex":
			data, err := os.ReadFile(filepath.Join(dir, "block.tex"))
			if err != nil {
				return err
			}
			sawTex = string(data)
			return os.WriteFile(filepath.Join(dir, "block.dvi"), []byte("dvi"), 0o644)
		case "dvisvgm":
			return os.WriteFile(args[len(args)-1], []byte("<svg/>"), 0o644)
		}
		return errors.New("unexpected binary")
	}}

	client, err := latex.New("latex", "dvisvgm", "", 5, latex.WithExecutor(stub))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if err := client.Render(context.Background(), latex.Request{Snippet: "Hello \\( x^2 \\)", OutputPath: output}); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected svg at output path: %v", err)
	}
	if stub.calls != 2 {
		t.Fatalf("expected latex then dvisvgm, got %d calls", stub.calls)
	}
	if got := stub.args[0]; got[0] != "latex" || got[1] != "-interaction=nonstopmode" || got[2] != "block.tex" {
		t.Fatalf("unexpected latex invocation: %v", got)
	}
	if got := stub.args[1]; got[0] != "dvisvgm" || got[1] != "block.dvi" || got[len(got)-1] != output {
		t.Fatalf("unexpected dvisvgm invocation: %v", got)
	}
	if !strings.Contains(sawTex, "Hello \\( x^2 \\)") {
		t.Fatalf("snippet missing from composed document:\n%s", sawTex)
	}
	if !strings.Contains(sawTex, "definitionbox") {
		t.Fatalf("default preamble missing from composed document")
	}
}

func TestRenderStripsDocumentScaffolding(t *testing.T) {
	tmp := t.TempDir()
	output := filepath.Join(tmp, "block_1.svg")

	var sawTex string
	stub := &stubExecutor{onRun: func(dir, binary string, args []string) error {
		if binary == "latex" {
			data, err := os.ReadFile(filepath.Join(dir, "block.tex"))
			if err != nil {
				return err
			}
			sawTex = string(data)
			return os.WriteFile(filepath.Join(dir, "block.dvi"), nil, 0o644)
		}
		return os.WriteFile(args[len(args)-1], nil, 0o644)
	}}

	client, err := latex.New("latex", "dvisvgm", "\\documentclass{article}", 5, latex.WithExecutor(stub))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	snippet := "\\documentclass{article}\n\\usepackage{graphicx}\n\\begin{document}\nBody text\n\\end{document}"
	if err := client.Render(context.Background(), latex.Request{Snippet: snippet, OutputPath: output}); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if strings.Contains(sawTex, "graphicx") {
		t.Fatalf("usepackage should be stripped:\n%s", sawTex)
	}
	if got := strings.Count(sawTex, "\\begin{document}"); got != 1 {
		t.Fatalf("expected exactly one begin document, got %d:\n%s", got, sawTex)
	}
	if !strings.Contains(sawTex, "Body text") {
		t.Fatalf("body missing:\n%s", sawTex)
	}
}

func TestRenderFailureIsBlockLevel(t *testing.T) {
	stub := &stubExecutor{err: errors.New("exit status 1"), lines: []string{"! Undefined control sequence."}}
	client, err := latex.New("latex", "dvisvgm", "", 5, latex.WithExecutor(stub))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	renderErr := client.Render(context.Background(), latex.Request{Snippet: "\\broken", OutputPath: filepath.Join(t.TempDir(), "out.svg")})
	if renderErr == nil {
		t.Fatal("expected render failure")
	}
	if !errors.Is(renderErr, services.ErrRenderFailure) {
		t.Fatalf("expected render failure marker, got %v", renderErr)
	}
	if !services.IsBlockFailure(renderErr) {
		t.Fatalf("render failure should be block level, got %v", renderErr)
	}
	if !strings.Contains(renderErr.Error(), "Undefined control sequence") {
		t.Fatalf("expected output tail in error, got %v", renderErr)
	}
}

func TestRenderReportsMissingDvi(t *testing.T) {
	stub := &stubExecutor{}
	client, err := latex.New("latex", "dvisvgm", "", 5, latex.WithExecutor(stub))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	renderErr := client.Render(context.Background(), latex.Request{Snippet: "x", OutputPath: filepath.Join(t.TempDir(), "out.svg")})
	if !errors.Is(renderErr, services.ErrRenderFailure) {
		t.Fatalf("expected render failure marker, got %v", renderErr)
	}
	if !strings.Contains(renderErr.Error(), "no dvi produced") {
		t.Fatalf("unexpected error: %v", renderErr)
	}
}

func TestRenderMissingBinaryClassified(t *testing.T) {
	stub := &stubExecutor{err: &exec.Error{Name: "latex", Err: exec.ErrNotFound}}
	client, err := latex.New("latex", "dvisvgm", "", 5, latex.WithExecutor(stub))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	renderErr := client.Render(context.Background(), latex.Request{Snippet: "x", OutputPath: filepath.Join(t.TempDir(), "out.svg")})
	if !errors.Is(renderErr, services.ErrToolMissing) {
		t.Fatalf("expected tool-missing marker, got %v", renderErr)
	}
	if !services.IsBlockFailure(renderErr) {
		t.Fatalf("missing tool should be block level")
	}
}

func TestRenderCancellationIsNotBlockFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &stubExecutor{err: errors.New("killed")}
	client, err := latex.New("latex", "dvisvgm", "", 5, latex.WithExecutor(stub))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	renderErr := client.Render(ctx, latex.Request{Snippet: "x", OutputPath: filepath.Join(t.TempDir(), "out.svg")})
	if !errors.Is(renderErr, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", renderErr)
	}
	if services.IsBlockFailure(renderErr) {
		t.Fatalf("cancellation must not be treated as block failure")
	}
}

func TestNewValidatesArguments(t *testing.T) {
	if _, err := latex.New("", "dvisvgm", "", 5); err == nil {
		t.Fatal("expected error for empty latex binary")
	}
	if _, err := latex.New("latex", "  ", "", 5); err == nil {
		t.Fatal("expected error for empty dvisvgm command")
	}
}

func TestNewDefaultsPreamble(t *testing.T) {
	client, err := latex.New("latex", "dvisvgm", "", 5)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if client.Preamble() != latex.DefaultPreamble {
		t.Fatal("expected built-in preamble")
	}
	if !strings.Contains(client.Preamble(), "examplebox") {
		t.Fatal("built-in preamble should define box environments")
	}
}
