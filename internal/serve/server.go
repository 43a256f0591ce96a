// Package serve exposes a loaded archive over HTTP for tooling and preview
// frontends: the paginated document as JSON and each asset streamed from the
// archive on demand.
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"pandora/internal/document"
	"pandora/internal/logging"
	"pandora/internal/viewer"
)

// DocumentResponse is the /api/document payload.
type DocumentResponse struct {
	FormatVersion int                 `json:"format_version"`
	LayoutMode    document.LayoutMode `json:"layout_mode"`
	PageCount     int                 `json:"page_count"`
	Pages         []PageResponse      `json:"pages"`
}

// PageResponse is one page of the document payload.
type PageResponse struct {
	Number int              `json:"number"`
	Blocks []document.Block `json:"blocks"`
}

// Server serves one loaded archive until its context is cancelled.
type Server struct {
	bind   string
	doc    *viewer.Document
	logger *slog.Logger

	listener net.Listener
	server   *http.Server
}

// New builds a server for doc bound to bind.
func New(bind string, doc *viewer.Document, logger *slog.Logger) *Server {
	s := &Server{
		bind:   strings.TrimSpace(bind),
		doc:    doc,
		logger: logging.NewComponentLogger(logger, "serve"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/document", s.handleDocument)
	mux.HandleFunc("/assets/", s.handleAsset)

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start begins listening and serving in the background. Cancelling ctx
// shuts the server down gracefully.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("serve listen %s: %w", s.bind, err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once Start succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down without waiting for context cancellation.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	pages := make([]PageResponse, 0, s.doc.PageCount())
	for _, page := range s.doc.Pages() {
		pages = append(pages, PageResponse{Number: page.Number, Blocks: page.Blocks})
	}
	s.writeJSON(w, http.StatusOK, DocumentResponse{
		FormatVersion: s.doc.FormatVersion(),
		LayoutMode:    s.doc.LayoutMode(),
		PageCount:     s.doc.PageCount(),
		Pages:         pages,
	})
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ref := strings.TrimPrefix(r.URL.Path, "/assets/")
	rc, err := s.doc.OpenAsset(ref)
	switch {
	case errors.Is(err, viewer.ErrAssetFailed):
		s.writeError(w, http.StatusConflict, "block render failed; no asset available")
		return
	case errors.Is(err, viewer.ErrAssetUnknown):
		s.writeError(w, http.StatusNotFound, "unknown asset")
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rc.Close()

	if ct := mime.TypeByExtension(path.Ext(ref)); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Warn("asset stream interrupted",
			logging.String("asset_ref", ref),
			logging.Error(err))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
