package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns a deterministic, content-derived vector so tests don't
// need a real model: one dimension per tracked keyword, 1.0 if present.
type fakeEmbedder struct {
	keywords []string
}

func (e *fakeEmbedder) Dimension() int { return len(e.keywords) }

func (e *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, len(e.keywords))
		lower := strings.ToLower(t)
		for j, k := range e.keywords {
			if strings.Contains(lower, k) {
				v[j] = 1
			}
		}
		out[i] = v
	}
	return out, nil
}

func TestEngine_VectorSearch(t *testing.T) {
	embedder := &fakeEmbedder{keywords: []string{"cat", "dog"}}
	e := NewEngine(NewChromemStore())
	require.NoError(t, e.EnsureCollection(context.Background(), Collection{Name: "docs", Dimension: 2}))

	docs := []Document{
		{ID: "a", Content: "a cat"},
		{ID: "b", Content: "a dog"},
	}
	require.NoError(t, e.Upsert(context.Background(), "docs", docs, embedder, DefaultChunkerConfig()))

	results, err := e.Search(context.Background(), "docs", Query{Mode: ModeVector, TopK: 1, Vector: []float32{1, 0}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].DocumentID)
}

func TestEngine_TextSearch(t *testing.T) {
	embedder := &fakeEmbedder{keywords: []string{"x"}}
	e := NewEngine(NewChromemStore())
	require.NoError(t, e.EnsureCollection(context.Background(), Collection{Name: "docs", Dimension: 1}))

	docs := []Document{
		{ID: "a", Content: "the quick brown fox"},
		{ID: "b", Content: "lazy dog sleeps"},
	}
	require.NoError(t, e.Upsert(context.Background(), "docs", docs, embedder, DefaultChunkerConfig()))

	results, err := e.Search(context.Background(), "docs", Query{Mode: ModeText, TopK: 5, Text: "fox"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].DocumentID)
}

// rrfStore is a fixed-rank VectorStore fake for the hybrid fusion scenario:
// three chunks A, B, C each pre-assigned the vector rank spec §8 scenario 6
// specifies, independent of any real similarity computation.
type rrfStore struct{}

func (rrfStore) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	return nil
}
func (rrfStore) Upsert(ctx context.Context, collection string, ids []string, vectors [][]float32) error {
	return nil
}
func (rrfStore) QueryVector(ctx context.Context, collection string, vector []float32, topK int) ([]VectorHit, error) {
	return []VectorHit{
		{ChunkID: "A", Score: 0.9},
		{ChunkID: "B", Score: 0.8},
		{ChunkID: "C", Score: 0.7},
	}, nil
}
func (rrfStore) Delete(ctx context.Context, collection string, ids []string) error { return nil }

func TestEngine_HybridRRFOrdering(t *testing.T) {
	e := NewEngine(rrfStore{})
	cs := &collectionState{def: Collection{Name: "docs", Dimension: 1}, chunks: map[string]Chunk{
		"A": {ID: "A", DocumentID: "A", Content: "alpha beta", Terms: termFreq("alpha beta")},
		"B": {ID: "B", DocumentID: "B", Content: "beta gamma", Terms: termFreq("beta gamma")},
		"C": {ID: "C", DocumentID: "C", Content: "gamma alpha", Terms: termFreq("gamma alpha")},
	}}
	e.collections["docs"] = cs

	// "beta" appears in A and B, "gamma" in B and C, so lexicalScore's
	// IDF-lite weighting (1/df, df=2 for both terms) scores B 1.0 and A, C
	// 0.5 each; the A/C tie breaks on ascending chunk id, so the text
	// ranking comes out B(1) A(2) C(3).
	results, err := e.Search(context.Background(), "docs", Query{
		Mode: ModeHybrid, TopK: 3,
		Vector: []float32{1}, Text: "beta gamma",
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// RRF (k=60, weights 0.7/0.3) over vector ranks A(1) B(2) C(3) and the
	// text ranks above: A=0.7/61+0.3/62, B=0.7/62+0.3/61, C=0.7/63+0.3/63,
	// sorted descending.
	assert.Equal(t, "A", results[0].ChunkID)
	assert.Equal(t, "B", results[1].ChunkID)
	assert.Equal(t, "C", results[2].ChunkID)
	assert.InDelta(t, 0.7/61+0.3/62, results[0].Score, 1e-12)
	assert.InDelta(t, 0.7/62+0.3/61, results[1].Score, 1e-12)
	assert.InDelta(t, 0.7/63+0.3/63, results[2].Score, 1e-12)
	for i := 0; i < len(results)-1; i++ {
		assert.GreaterOrEqual(t, results[i].Score, results[i+1].Score)
	}
}

func TestEngine_DimensionMismatchRejected(t *testing.T) {
	embedder := &fakeEmbedder{keywords: []string{"a", "b", "c"}}
	e := NewEngine(NewChromemStore())
	require.NoError(t, e.EnsureCollection(context.Background(), Collection{Name: "docs", Dimension: 2}))

	err := e.Upsert(context.Background(), "docs", []Document{{ID: "a", Content: "hello"}}, embedder, DefaultChunkerConfig())
	require.Error(t, err)
}

func TestSplit_RoundTrip(t *testing.T) {
	content := "Paragraph one is here.\n\nParagraph two follows along after it.\n\nAnd a third short one."
	cfg := ChunkerConfig{Size: 30, Overlap: 5, MinSize: 5, Separators: []string{"\n\n", " "}}
	spans := Split(content, cfg)
	require.NotEmpty(t, spans)

	var rebuilt strings.Builder
	prevEnd := 0
	for _, s := range spans {
		start := s.start
		if start < prevEnd {
			start = prevEnd
		}
		if start < s.end {
			rebuilt.WriteString(content[start:s.end])
		}
		prevEnd = s.end
	}
	assert.Equal(t, content, rebuilt.String())
}

func TestDeleteByFilter(t *testing.T) {
	embedder := &fakeEmbedder{keywords: []string{"x"}}
	e := NewEngine(NewChromemStore())
	require.NoError(t, e.EnsureCollection(context.Background(), Collection{Name: "docs", Dimension: 1}))

	docs := []Document{
		{ID: "a", Content: "keep me", Metadata: map[string]any{"tag": "keep"}},
		{ID: "b", Content: "drop me", Metadata: map[string]any{"tag": "drop"}},
	}
	require.NoError(t, e.Upsert(context.Background(), "docs", docs, embedder, DefaultChunkerConfig()))
	require.NoError(t, e.Delete(context.Background(), "docs", map[string]any{"tag": "drop"}))

	results, err := e.Search(context.Background(), "docs", Query{Mode: ModeText, TopK: 5, Text: "keep drop"})
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "b", r.DocumentID)
	}
}
