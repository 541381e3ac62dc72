package domain

import "strings"

// Entity is a single named entity found by an extractor.
type Entity struct {
	Text  string
	Label string
	Start int
	End   int
	Score float64
}

// EntityNode is a deduplicated entity in the graph.
type EntityNode struct {
	ID          int64
	Name        string
	DisplayName string
	Category    string
	Frequency   int
}

// ChunkEdge links a chunk to an entity node.
type ChunkEdge struct {
	ChunkID string
	NodeID  int64
	Weight  float64
	Source  string
}

// ChunkEntity is an entity mentioned by a chunk, with the edge weight.
type ChunkEntity struct {
	Node   EntityNode
	Weight float64
	Source string
}

// RelatedEntity is an entity co-occurring with another.
type RelatedEntity struct {
	Entity            EntityNode
	CoOccurrenceCount int
}

// EntityQuery filters entity listings. Zero values mean no filter.
type EntityQuery struct {
	Category     string
	MinFrequency int
	Limit        int
}

// EntityDetail is an entity with the chunks mentioning it and its neighbours.
type EntityDetail struct {
	Entity          EntityNode
	ChunkIDs        []string
	RelatedEntities []RelatedEntity
}

// GraphStats summarises the entity graph.
type GraphStats struct {
	TotalEntities int
	TotalEdges    int
	ByCategory    map[string]int
	TopEntities   []EntityNode
}

// ReprocessResult reports a re-extraction pass.
type ReprocessResult struct {
	DocumentsProcessed int
	TotalEntities      int
}

// NormalizeEntityName returns the key form of an entity surface text.
func NormalizeEntityName(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// DefaultEntityLabels are used when no labels are configured.
var DefaultEntityLabels = []string{
	"person", "organization", "location", "date", "event",
	"product", "technology", "concept",
}

// EntitySourceNER tags edges written by the NER extractor.
const EntitySourceNER = "gliner"
