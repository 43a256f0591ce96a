package serve_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"pandora/internal/archive"
	"pandora/internal/document"
	"pandora/internal/logging"
	"pandora/internal/serve"
	"pandora/internal/testsupport"
	"pandora/internal/viewer"
)

func startServer(t *testing.T) (*serve.Server, *viewer.Document, func(path string) *http.Response) {
	t.Helper()

	manifest := document.NewManifest(document.LayoutSingleColumn, []document.Block{
		{SequenceIndex: 0, Kind: document.KindText, AssetRef: "latex/block_0.svg"},
		{SequenceIndex: 1, Kind: document.KindImage, AssetRef: "images/fig.png", PageBreakBefore: true},
		{SequenceIndex: 2, Kind: document.KindVideo, AssetRef: document.AssetRefFailed},
	})
	staging := t.TempDir()
	testsupport.WriteSource(t, staging, filepath.FromSlash("latex/block_0.svg"), "<svg/>")
	testsupport.WriteSource(t, staging, filepath.FromSlash("images/fig.png"), "png-bytes")
	out := filepath.Join(t.TempDir(), "doc.pandora")
	if err := archive.Write(context.Background(), out, manifest, staging); err != nil {
		t.Fatalf("archive.Write: %v", err)
	}
	doc, err := viewer.Open(out)
	if err != nil {
		t.Fatalf("viewer.Open: %v", err)
	}
	t.Cleanup(func() { _ = doc.Close() })

	srv := serve.New("127.0.0.1:0", doc, logging.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Stop)

	client := &http.Client{Timeout: 5 * time.Second}
	get := func(path string) *http.Response {
		resp, err := client.Get(fmt.Sprintf("http://%s%s", srv.Addr(), path))
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		return resp
	}
	return srv, doc, get
}

func TestDocumentEndpoint(t *testing.T) {
	_, _, get := startServer(t)

	resp := get("/api/document")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var payload serve.DocumentResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.LayoutMode != document.LayoutSingleColumn {
		t.Fatalf("layout = %q", payload.LayoutMode)
	}
	if payload.PageCount != 2 || len(payload.Pages) != 2 {
		t.Fatalf("pages = %d/%d, want 2", payload.PageCount, len(payload.Pages))
	}
	if len(payload.Pages[1].Blocks) != 2 {
		t.Fatalf("page 2 blocks = %d, want 2", len(payload.Pages[1].Blocks))
	}
}

func TestAssetEndpointStreamsEntry(t *testing.T) {
	_, _, get := startServer(t)

	resp := get("/assets/latex/block_0.svg")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != "<svg/>" {
		t.Fatalf("body = %q", body)
	}
}

func TestAssetEndpointErrors(t *testing.T) {
	_, _, get := startServer(t)

	resp := get("/assets/images/absent.png")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown asset status = %d, want 404", resp.StatusCode)
	}

	resp = get("/assets/" + document.AssetRefFailed)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("failed asset status = %d, want 409", resp.StatusCode)
	}
}
