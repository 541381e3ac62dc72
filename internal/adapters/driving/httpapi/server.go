// Package httpapi exposes the driving services over a JSON REST API.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/logger"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
	maxBodyBytes      = 1 << 20
)

// Services holds the driving ports the API serves.
type Services struct {
	Indexer   driving.IndexerService
	Documents driving.DocumentService
	Search    driving.SearchService
	Keyword   driving.KeywordService
	Graph     driving.GraphService
}

// Validate checks that every service is set.
func (s *Services) Validate() error {
	switch {
	case s.Indexer == nil:
		return errors.New("indexer service is required")
	case s.Documents == nil:
		return errors.New("document service is required")
	case s.Search == nil:
		return errors.New("search service is required")
	case s.Keyword == nil:
		return errors.New("keyword service is required")
	case s.Graph == nil:
		return errors.New("graph service is required")
	}
	return nil
}

// Server is the REST API server.
type Server struct {
	svc     Services
	handler http.Handler
}

// NewServer creates a server for the given services.
func NewServer(svc Services) (*Server, error) {
	if err := svc.Validate(); err != nil {
		return nil, fmt.Errorf("validating services: %w", err)
	}
	s := &Server{svc: svc}
	s.handler = logRequests(s.routes())
	return s, nil
}

// Handler returns the API handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /documents", s.handleIndexDocument)
	mux.HandleFunc("POST /documents/batch", s.handleIndexBatch)
	mux.HandleFunc("GET /documents", s.handleListDocuments)
	mux.HandleFunc("GET /documents/{id}", s.handleGetDocument)
	mux.HandleFunc("DELETE /documents/{id}", s.handleRemoveDocument)
	mux.HandleFunc("GET /documents/{id}/chunks/{index}/context", s.handleDocumentContext)

	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("POST /search/keyword", s.handleKeywordSearch)

	mux.HandleFunc("GET /kg/entities", s.handleListEntities)
	mux.HandleFunc("GET /kg/entities/{name}", s.handleEntityDetail)
	mux.HandleFunc("GET /kg/chunks", s.handleEntityChunks)
	mux.HandleFunc("GET /kg/chunks/{id}/entities", s.handleChunkEntities)
	mux.HandleFunc("GET /kg/stats", s.handleGraphStats)
	mux.HandleFunc("POST /kg/reprocess", s.handleReprocess)
	return mux
}

// Run listens on addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP API listening on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("%s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
