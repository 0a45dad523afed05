// Package retrieval implements the hybrid vector + lexical search engine:
// chunking, embedding upsert, and vector/text/hybrid query modes combined
// via Reciprocal Rank Fusion.
package retrieval

import "context"

// Document is raw content submitted for indexing.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// Chunk is a slice of a Document's content, positioned in the source and
// carrying the embedding and lexical posting computed for it on upsert.
type Chunk struct {
	ID         string
	DocumentID string
	Content    string
	Metadata   map[string]any
	Start      int
	End        int
	Embedding  []float32
	Terms      []LexicalEntry
}

// LexicalEntry is a single term-frequency posting for a chunk, the unit the
// text search mode ranks against.
type LexicalEntry struct {
	Term string
	Freq int
}

// Collection groups chunks that share an embedding dimension and similarity
// metric. All chunks upserted into a collection must carry vectors of
// Dimension length; mismatches are rejected at upsert.
type Collection struct {
	Name      string
	Dimension int
	Metric    string // "cosine" by default; checked for consistency only, similarity is scored by the VectorStore
}

// SearchMode selects which ranking signal(s) a Query uses.
type SearchMode string

const (
	ModeVector SearchMode = "vector"
	ModeText   SearchMode = "text"
	ModeHybrid SearchMode = "hybrid"
)

// HybridWeights balances the vector and text RRF terms. Must sum to the
// caller's intended total; the engine does not normalize them.
type HybridWeights struct {
	Vector float64
	Text   float64
}

// DefaultHybridWeights matches the contractual default (0.7, 0.3).
func DefaultHybridWeights() HybridWeights { return HybridWeights{Vector: 0.7, Text: 0.3} }

// Query describes one search request against a collection.
type Query struct {
	Mode          SearchMode
	TopK          int
	Vector        []float32
	Text          string
	HybridWeights *HybridWeights
	Filter        map[string]any
}

// Result is one ranked hit, with Score semantics depending on the mode that
// produced it (cosine similarity, lexical rank score, or RRF score).
type Result struct {
	ChunkID    string
	DocumentID string
	Content    string
	Score      float64
	Metadata   map[string]any
}

// Embedder produces vector embeddings. Engine.Upsert calls it for chunk
// content; Engine.Search does not call it and takes Query.Vector as given.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}
