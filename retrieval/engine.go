package retrieval

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/weaveai/weave/errs"
)

const rrfK = 60

// collectionState is Engine's local row store for one collection: the
// source of truth for chunk content, metadata, and lexical postings. The
// VectorStore only ever sees ids and vectors.
type collectionState struct {
	mu     sync.RWMutex
	def    Collection
	chunks map[string]Chunk
}

// Engine is the hybrid retrieval engine: chunking plus vector, text, and RRF
// hybrid query modes, scoped per collection.
//
// Grounded on the teacher's pkg/rag SearchEngine/store shape generalized to
// the spec's explicit Collection/Chunk data model, with the lexical ranking
// layer (retrieval/lexical.go) learned from the "hybrid search SQL shape"
// contract rather than any one teacher file (the teacher's own hybrid search
// is vector-only; text ranking here is this module's own addition).
type Engine struct {
	store VectorStore

	mu          sync.RWMutex
	collections map[string]*collectionState
}

// NewEngine constructs a retrieval engine against a VectorStore backend.
func NewEngine(store VectorStore) *Engine {
	return &Engine{store: store, collections: make(map[string]*collectionState)}
}

// EnsureCollection registers (and lazily provisions in the backend) a
// collection definition. Calling it again with a different Dimension or
// Metric is rejected — collection identity is fixed at first use.
func (e *Engine) EnsureCollection(ctx context.Context, def Collection) error {
	if def.Metric == "" {
		def.Metric = "cosine"
	}
	e.mu.Lock()
	cs, ok := e.collections[def.Name]
	if !ok {
		cs = &collectionState{def: def, chunks: make(map[string]Chunk)}
		e.collections[def.Name] = cs
	}
	e.mu.Unlock()

	if cs.def.Dimension != def.Dimension || cs.def.Metric != def.Metric {
		return errs.Wrapf(errs.ConfigError, "retrieval.EnsureCollection",
			"collection %q already defined with dimension=%d metric=%s", def.Name, cs.def.Dimension, cs.def.Metric)
	}
	return e.store.EnsureCollection(ctx, def.Name, def.Dimension)
}

func (e *Engine) state(collection string) (*collectionState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cs, ok := e.collections[collection]
	if !ok {
		return nil, errs.Wrapf(errs.ConfigError, "retrieval", "unknown collection %q", collection)
	}
	return cs, nil
}

// Upsert chunks a batch of documents, embeds their content, and writes the
// resulting chunks into the collection. Chunks keep the id computed by the
// chunker ("<docID>:chunk:<n>"), so re-upserting the same document id
// overwrites the chunks with the same index rather than appending
// duplicates; if the new version splits into fewer chunks, the earlier
// version's higher-index chunks stay in the collection.
func (e *Engine) Upsert(ctx context.Context, collection string, docs []Document, embedder Embedder, cfg ChunkerConfig) error {
	cs, err := e.state(collection)
	if err != nil {
		return err
	}

	var allChunks []Chunk
	var texts []string
	for _, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		chunks := NewChunks(doc, cfg)
		for i := range chunks {
			chunks[i].Terms = termFreq(chunks[i].Content)
		}
		allChunks = append(allChunks, chunks...)
		for _, c := range chunks {
			texts = append(texts, c.Content)
		}
	}
	if len(allChunks) == 0 {
		return nil
	}

	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return errs.New(errs.RetrievalError, "retrieval.Upsert", err)
	}
	if len(vectors) != len(allChunks) {
		return errs.Wrapf(errs.RetrievalError, "retrieval.Upsert", "embedder returned %d vectors for %d chunks", len(vectors), len(allChunks))
	}
	for i, v := range vectors {
		if len(v) != cs.def.Dimension {
			return errs.Wrapf(errs.RetrievalError, "retrieval.Upsert", "embedding dimension %d does not match collection %q dimension %d", len(v), collection, cs.def.Dimension)
		}
		allChunks[i].Embedding = v
	}

	ids := make([]string, len(allChunks))
	for i, c := range allChunks {
		ids[i] = c.ID
	}
	if err := e.store.Upsert(ctx, collection, ids, vectors); err != nil {
		return err
	}

	cs.mu.Lock()
	for i, c := range allChunks {
		cs.chunks[ids[i]] = c
	}
	cs.mu.Unlock()
	return nil
}

// Delete removes chunks matching filter (an exact-match AND over chunk
// metadata keys) from the collection.
func (e *Engine) Delete(ctx context.Context, collection string, filter map[string]any) error {
	cs, err := e.state(collection)
	if err != nil {
		return err
	}

	cs.mu.Lock()
	var ids []string
	for id, c := range cs.chunks {
		if matchesFilter(c.Metadata, filter) {
			ids = append(ids, id)
			delete(cs.chunks, id)
		}
	}
	cs.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}
	return e.store.Delete(ctx, collection, ids)
}

func matchesFilter(metadata map[string]any, filter map[string]any) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

// Search runs a Query against the collection per its Mode, returning at most
// TopK results.
func (e *Engine) Search(ctx context.Context, collection string, q Query) ([]Result, error) {
	cs, err := e.state(collection)
	if err != nil {
		return nil, err
	}
	if q.TopK <= 0 {
		q.TopK = 10
	}

	switch q.Mode {
	case ModeVector:
		if len(q.Vector) == 0 {
			return nil, errs.Wrapf(errs.ValidationError, "retrieval.Search", "vector mode requires Vector")
		}
		hits, err := e.store.QueryVector(ctx, collection, q.Vector, q.TopK)
		if err != nil {
			return nil, err
		}
		return e.toResults(cs, hits, q.Filter, q.TopK), nil

	case ModeText:
		if q.Text == "" {
			return nil, errs.Wrapf(errs.ValidationError, "retrieval.Search", "text mode requires Text")
		}
		hits := e.lexicalHits(cs, q.Text, q.Filter)
		sort.Slice(hits, func(i, j int) bool {
			if hits[i].score != hits[j].score {
				return hits[i].score > hits[j].score
			}
			return hits[i].chunkID < hits[j].chunkID
		})
		if len(hits) > q.TopK {
			hits = hits[:q.TopK]
		}
		out := make([]Result, len(hits))
		cs.mu.RLock()
		for i, h := range hits {
			c := cs.chunks[h.chunkID]
			out[i] = Result{ChunkID: c.ID, DocumentID: c.DocumentID, Content: c.Content, Score: h.score, Metadata: c.Metadata}
		}
		cs.mu.RUnlock()
		return out, nil

	case ModeHybrid:
		if len(q.Vector) == 0 || q.Text == "" {
			return nil, errs.Wrapf(errs.ValidationError, "retrieval.Search", "hybrid mode requires both Vector and Text")
		}
		return e.hybridSearch(ctx, cs, collection, q)

	default:
		return nil, errs.Wrapf(errs.ValidationError, "retrieval.Search", "unknown search mode %q", q.Mode)
	}
}

func (e *Engine) toResults(cs *collectionState, hits []VectorHit, filter map[string]any, topK int) []Result {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	out := make([]Result, 0, len(hits))
	for _, h := range hits {
		c, ok := cs.chunks[h.ChunkID]
		if !ok || !matchesFilter(c.Metadata, filter) {
			continue
		}
		out = append(out, Result{ChunkID: c.ID, DocumentID: c.DocumentID, Content: c.Content, Score: h.Score, Metadata: c.Metadata})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

func (e *Engine) lexicalHits(cs *collectionState, text string, filter map[string]any) []lexicalHit {
	terms := tokenize(text)
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	chunks := make([]Chunk, 0, len(cs.chunks))
	for _, c := range cs.chunks {
		if matchesFilter(c.Metadata, filter) {
			chunks = append(chunks, c)
		}
	}
	return lexicalScore(terms, chunks)
}

// hybridSearch fetches 2*topK candidates from each modality, assigns 1-based
// per-modality ranks, and fuses them via Reciprocal Rank Fusion (k=60).
// Rows present in only one modality use 0 for the missing term. Ties break
// on ascending chunk id.
func (e *Engine) hybridSearch(ctx context.Context, cs *collectionState, collection string, q Query) ([]Result, error) {
	weights := DefaultHybridWeights()
	if q.HybridWeights != nil {
		weights = *q.HybridWeights
	}
	fetchK := q.TopK * 2

	vecHits, err := e.store.QueryVector(ctx, collection, q.Vector, fetchK)
	if err != nil {
		return nil, err
	}
	lexHits := e.lexicalHits(cs, q.Text, q.Filter)
	sort.Slice(lexHits, func(i, j int) bool {
		if lexHits[i].score != lexHits[j].score {
			return lexHits[i].score > lexHits[j].score
		}
		return lexHits[i].chunkID < lexHits[j].chunkID
	})
	if len(lexHits) > fetchK {
		lexHits = lexHits[:fetchK]
	}

	cs.mu.RLock()
	vecRank := make(map[string]int, len(vecHits))
	rank := 1
	for _, h := range vecHits {
		c, ok := cs.chunks[h.ChunkID]
		if !ok || !matchesFilter(c.Metadata, q.Filter) {
			continue
		}
		vecRank[h.ChunkID] = rank
		rank++
	}
	textRank := make(map[string]int, len(lexHits))
	rank = 1
	for _, h := range lexHits {
		textRank[h.chunkID] = rank
		rank++
	}

	seen := make(map[string]bool, len(vecRank)+len(textRank))
	for id := range vecRank {
		seen[id] = true
	}
	for id := range textRank {
		seen[id] = true
	}

	out := make([]Result, 0, len(seen))
	for id := range seen {
		c := cs.chunks[id]
		var score float64
		if r, ok := vecRank[id]; ok {
			score += weights.Vector / float64(rrfK+r)
		}
		if r, ok := textRank[id]; ok {
			score += weights.Text / float64(rrfK+r)
		}
		out = append(out, Result{ChunkID: c.ID, DocumentID: c.DocumentID, Content: c.Content, Score: score, Metadata: c.Metadata})
	}
	cs.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	if len(out) > q.TopK {
		out = out[:q.TopK]
	}
	return out, nil
}
