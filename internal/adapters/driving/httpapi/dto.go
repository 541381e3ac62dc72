package httpapi

import (
	"time"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

type overridesRequest struct {
	Strategy     string `json:"strategy,omitempty"`
	ChunkSize    int    `json:"chunk_size,omitempty"`
	ChunkOverlap int    `json:"chunk_overlap,omitempty"`
	MinChunkSize int    `json:"min_chunk_size,omitempty"`
	MaxChunkSize int    `json:"max_chunk_size,omitempty"`
}

func (o *overridesRequest) domain() *domain.SplitterOverrides {
	if o == nil {
		return nil
	}
	return &domain.SplitterOverrides{
		Strategy:     o.Strategy,
		ChunkSize:    o.ChunkSize,
		ChunkOverlap: o.ChunkOverlap,
		MinChunkSize: o.MinChunkSize,
		MaxChunkSize: o.MaxChunkSize,
	}
}

type indexRequest struct {
	FilePath          string            `json:"file_path"`
	Metadata          map[string]any    `json:"metadata,omitempty"`
	SplitterOverrides *overridesRequest `json:"splitter_overrides,omitempty"`
}

type indexResponse struct {
	Status     string `json:"status"`
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
}

type batchRequest struct {
	Files    []indexRequest `json:"files"`
	FailFast bool           `json:"fail_fast"`
}

type batchItem struct {
	FilePath   string `json:"file_path"`
	Status     string `json:"status"`
	DocumentID string `json:"document_id,omitempty"`
	Filename   string `json:"filename,omitempty"`
	Error      string `json:"error,omitempty"`
}

type batchSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type batchResponse struct {
	Status  string       `json:"status"`
	Results []batchItem  `json:"results"`
	Summary batchSummary `json:"summary"`
}

func toBatchResponse(res domain.BatchIngestResult) batchResponse {
	out := batchResponse{
		Status:  "completed",
		Results: make([]batchItem, 0, len(res.Results)),
		Summary: batchSummary{
			Total:     res.Summary.Total,
			Succeeded: res.Summary.Succeeded,
			Failed:    res.Summary.Failed,
		},
	}
	if res.Summary.Failed > 0 {
		out.Status = "completed_with_errors"
	}
	for _, r := range res.Results {
		item := batchItem{
			FilePath:   r.FilePath,
			Status:     string(r.Status),
			DocumentID: r.DocumentID,
			Filename:   r.Filename,
		}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		out.Results = append(out.Results, item)
	}
	return out
}

type documentResponse struct {
	ID        string         `json:"id"`
	Filename  string         `json:"filename"`
	CreatedAt time.Time      `json:"created_at"`
	Metadata  map[string]any `json:"metadata"`
	NumChunks int            `json:"num_chunks"`
	Content   string         `json:"content,omitempty"`
}

func toDocument(d domain.Document) documentResponse {
	return documentResponse{
		ID:        d.ID,
		Filename:  d.Filename,
		CreatedAt: d.CreatedAt,
		Metadata:  d.Metadata,
		NumChunks: d.NumChunks,
		Content:   d.Content,
	}
}

type statusResponse struct {
	Status string `json:"status"`
}

type searchRequest struct {
	Query    string   `json:"query"`
	TopK     int      `json:"top_k"`
	MinScore *float64 `json:"min_score,omitempty"`
	Task     string   `json:"task,omitempty"`
}

type keywordRequest struct {
	Query        string   `json:"query,omitempty"`
	ExcludeTerms []string `json:"exclude_terms,omitempty"`
	ExactMatch   bool     `json:"exact_match,omitempty"`

	RequiredKeywords []string `json:"required_keywords,omitempty"`
	OptionalKeywords []string `json:"optional_keywords,omitempty"`
	ExcludeKeywords  []string `json:"exclude_keywords,omitempty"`

	TopK      int  `json:"top_k"`
	Highlight bool `json:"highlight,omitempty"`
}

func (r keywordRequest) domain() domain.KeywordRequest {
	return domain.KeywordRequest{
		Query:        r.Query,
		ExcludeTerms: r.ExcludeTerms,
		ExactMatch:   r.ExactMatch,
		Required:     r.RequiredKeywords,
		Optional:     r.OptionalKeywords,
		Exclude:      r.ExcludeKeywords,
		TopK:         r.TopK,
		Highlight:    r.Highlight,
	}
}

type documentRef struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

type position struct {
	ChunkIndex int `json:"chunk_index"`
	StartChar  int `json:"start_char"`
	EndChar    int `json:"end_char"`
}

type searchResult struct {
	ChunkID         string         `json:"chunk_id"`
	Content         string         `json:"content"`
	SimilarityScore *float64       `json:"similarity_score,omitempty"`
	Score           *float64       `json:"score,omitempty"`
	Highlight       string         `json:"highlight,omitempty"`
	Document        documentRef    `json:"document"`
	Position        position       `json:"position"`
	Metadata        map[string]any `json:"metadata"`
}

// toResults converts hits. similarity selects which score field is set.
func toResults(results []domain.SearchResult, similarity bool) []searchResult {
	out := make([]searchResult, 0, len(results))
	for _, r := range results {
		score := r.Score
		item := searchResult{
			ChunkID:   r.Chunk.ID,
			Content:   r.Chunk.Content,
			Highlight: r.Highlight,
			Document:  documentRef{ID: r.Document.ID, Filename: r.Document.Filename},
			Position: position{
				ChunkIndex: r.Chunk.Index,
				StartChar:  r.Chunk.StartChar,
				EndChar:    r.Chunk.EndChar,
			},
			Metadata: r.Chunk.Metadata,
		}
		if similarity {
			item.SimilarityScore = &score
		} else {
			item.Score = &score
		}
		out = append(out, item)
	}
	return out
}

type chunkResponse struct {
	ID        string         `json:"id"`
	Index     int            `json:"chunk_index"`
	Content   string         `json:"content"`
	StartChar int            `json:"start_char"`
	EndChar   int            `json:"end_char"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func toChunks(chunks []domain.Chunk) []chunkResponse {
	out := make([]chunkResponse, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, toChunk(c))
	}
	return out
}

func toChunk(c domain.Chunk) chunkResponse {
	return chunkResponse{
		ID:        c.ID,
		Index:     c.Index,
		Content:   c.Content,
		StartChar: c.StartChar,
		EndChar:   c.EndChar,
		Metadata:  c.Metadata,
	}
}

type contextResponse struct {
	Document documentRef     `json:"document"`
	Target   chunkResponse   `json:"target"`
	Before   []chunkResponse `json:"before"`
	After    []chunkResponse `json:"after"`
}

type entityResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	Frequency   int    `json:"frequency"`
}

func toEntity(n domain.EntityNode) entityResponse {
	return entityResponse{
		Name:        n.Name,
		DisplayName: n.DisplayName,
		Category:    n.Category,
		Frequency:   n.Frequency,
	}
}

func toEntities(nodes []domain.EntityNode) []entityResponse {
	out := make([]entityResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, toEntity(n))
	}
	return out
}

type relatedResponse struct {
	Name              string `json:"name"`
	Category          string `json:"category"`
	CoOccurrenceCount int    `json:"co_occurrence_count"`
}

type entityDetailResponse struct {
	Entity          entityResponse    `json:"entity"`
	ChunkIDs        []string          `json:"chunk_ids"`
	RelatedEntities []relatedResponse `json:"related_entities"`
}

type entityChunksResponse struct {
	Entity   string   `json:"entity"`
	Category string   `json:"category,omitempty"`
	ChunkIDs []string `json:"chunk_ids"`
}

type chunkEntityResponse struct {
	entityResponse
	Weight float64 `json:"weight"`
	Source string  `json:"source"`
}

type statsResponse struct {
	TotalEntities int              `json:"total_entities"`
	TotalEdges    int              `json:"total_edges"`
	ByCategory    map[string]int   `json:"by_category"`
	TopEntities   []entityResponse `json:"top_entities"`
}

type reprocessRequest struct {
	DocumentID string   `json:"document_id,omitempty"`
	Labels     []string `json:"labels,omitempty"`
}

type reprocessResponse struct {
	Status             string `json:"status"`
	DocumentsProcessed int    `json:"documents_processed"`
	TotalEntities      int    `json:"total_entities"`
}
