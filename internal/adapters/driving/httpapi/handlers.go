package httpapi

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleIndexDocument(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.FilePath == "" {
		writeError(w, fmt.Errorf("%w: file_path is required", domain.ErrValidation))
		return
	}

	id, err := s.svc.Indexer.IndexDocument(r.Context(), req.FilePath, req.Metadata, req.SplitterOverrides.domain())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, indexResponse{
		Status:     string(domain.IngestSuccess),
		DocumentID: id,
		Filename:   filepath.Base(req.FilePath),
	})
}

func (s *Server) handleIndexBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Files) == 0 {
		writeError(w, fmt.Errorf("%w: files must not be empty", domain.ErrValidation))
		return
	}

	reqs := make([]domain.IngestRequest, 0, len(req.Files))
	for _, f := range req.Files {
		reqs = append(reqs, domain.IngestRequest{
			FilePath:  f.FilePath,
			Metadata:  f.Metadata,
			Overrides: f.SplitterOverrides.domain(),
		})
	}
	writeJSON(w, http.StatusOK, toBatchResponse(s.svc.Indexer.IndexBatch(r.Context(), reqs, req.FailFast)))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.svc.Documents.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocument(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.svc.Documents.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocument(*doc))
}

func (s *Server) handleRemoveDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	removed, err := s.svc.Indexer.RemoveDocument(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		writeError(w, fmt.Errorf("document %s: %w", id, domain.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "deleted"})
}

func (s *Server) handleDocumentContext(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: chunk index must be an integer", domain.ErrValidation))
		return
	}
	n, err := intParam(r, "n", 1)
	if err != nil {
		writeError(w, err)
		return
	}

	dc, err := s.svc.Search.GetDocumentContext(r.Context(), r.PathValue("id"), index, n)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contextResponse{
		Document: documentRef{ID: dc.Document.ID, Filename: dc.Document.Filename},
		Target:   toChunk(dc.Target),
		Before:   toChunks(dc.Before),
		After:    toChunks(dc.After),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	results, err := s.svc.Search.Search(r.Context(), req.Query, domain.SearchOptions{
		TopK:     req.TopK,
		MinScore: req.MinScore,
		Task:     req.Task,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResults(results, true))
}

func (s *Server) handleKeywordSearch(w http.ResponseWriter, r *http.Request) {
	var req keywordRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	results, err := s.svc.Keyword.Search(r.Context(), req.domain())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResults(results, false))
}

func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	minFreq, err := intParam(r, "min_frequency", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		writeError(w, err)
		return
	}

	nodes, err := s.svc.Graph.ListEntities(r.Context(), domain.EntityQuery{
		Category:     r.URL.Query().Get("category"),
		MinFrequency: minFreq,
		Limit:        limit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntities(nodes))
}

func (s *Server) handleEntityDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.Graph.EntityDetail(r.Context(), r.PathValue("name"), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, err)
		return
	}

	related := make([]relatedResponse, 0, len(detail.RelatedEntities))
	for _, rel := range detail.RelatedEntities {
		related = append(related, relatedResponse{
			Name:              rel.Entity.Name,
			Category:          rel.Entity.Category,
			CoOccurrenceCount: rel.CoOccurrenceCount,
		})
	}
	writeJSON(w, http.StatusOK, entityDetailResponse{
		Entity:          toEntity(detail.Entity),
		ChunkIDs:        nonNil(detail.ChunkIDs),
		RelatedEntities: related,
	})
}

func (s *Server) handleEntityChunks(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("entity")
	if name == "" {
		writeError(w, fmt.Errorf("%w: entity is required", domain.ErrValidation))
		return
	}
	category := r.URL.Query().Get("category")

	ids, err := s.svc.Graph.EntityChunks(r.Context(), name, category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entityChunksResponse{Entity: name, Category: category, ChunkIDs: nonNil(ids)})
}

func (s *Server) handleChunkEntities(w http.ResponseWriter, r *http.Request) {
	entities, err := s.svc.Graph.ChunkEntities(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]chunkEntityResponse, 0, len(entities))
	for _, e := range entities {
		out = append(out, chunkEntityResponse{entityResponse: toEntity(e.Node), Weight: e.Weight, Source: e.Source})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGraphStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Graph.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	byCategory := stats.ByCategory
	if byCategory == nil {
		byCategory = map[string]int{}
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalEntities: stats.TotalEntities,
		TotalEdges:    stats.TotalEdges,
		ByCategory:    byCategory,
		TopEntities:   toEntities(stats.TopEntities),
	})
}

func (s *Server) handleReprocess(w http.ResponseWriter, r *http.Request) {
	var req reprocessRequest
	if err := decodeOptional(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := s.svc.Graph.Reprocess(r.Context(), req.DocumentID, req.Labels)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reprocessResponse{
		Status:             "completed",
		DocumentsProcessed: res.DocumentsProcessed,
		TotalEntities:      res.TotalEntities,
	})
}

// intParam parses an optional integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, name)
	}
	return v, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
