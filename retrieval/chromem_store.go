package retrieval

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/weaveai/weave/errs"
)

// ChromemStore is the default in-process VectorStore, backed by
// philippgille/chromem-go. No external service is required; vectors live in
// memory for the life of the process.
//
// Grounded on the teacher's pkg/vector/chromem.go ChromemProvider: the same
// GetOrCreateCollection/AddDocuments/QueryEmbedding/Delete call shape, pared
// down to the vector-only responsibility Engine asks of a VectorStore (chunk
// content and metadata live in Engine's own table, not duplicated here).
type ChromemStore struct {
	db *chromem.DB

	mu          sync.RWMutex
	collections map[string]*chromem.Collection
}

// NewChromemStore creates an in-memory chromem-go-backed store.
func NewChromemStore() *ChromemStore {
	return &ChromemStore{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
	}
}

// identityEmbed satisfies chromem's EmbeddingFunc contract without ever being
// invoked: every vector this store sees is already embedded by the caller's
// Embedder, never computed by chromem itself.
func identityEmbed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("chromem embedding func invoked; vectors must be precomputed")
}

func (s *ChromemStore) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	_, err := s.getOrCreate(collection)
	if err != nil {
		return errs.New(errs.RetrievalError, "chromem.EnsureCollection", err)
	}
	return nil
}

func (s *ChromemStore) getOrCreate(name string) (*chromem.Collection, error) {
	s.mu.RLock()
	if c, ok := s.collections[name]; ok {
		s.mu.RUnlock()
		return c, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[name]; ok {
		return c, nil
	}
	c, err := s.db.GetOrCreateCollection(name, nil, identityEmbed)
	if err != nil {
		return nil, fmt.Errorf("get or create collection %q: %w", name, err)
	}
	s.collections[name] = c
	return c, nil
}

func (s *ChromemStore) Upsert(ctx context.Context, collection string, ids []string, vectors [][]float32) error {
	c, err := s.getOrCreate(collection)
	if err != nil {
		return errs.New(errs.RetrievalError, "chromem.Upsert", err)
	}
	docs := make([]chromem.Document, len(ids))
	for i, id := range ids {
		docs[i] = chromem.Document{ID: id, Embedding: vectors[i]}
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return errs.New(errs.RetrievalError, "chromem.Upsert", err)
	}
	return nil
}

func (s *ChromemStore) QueryVector(ctx context.Context, collection string, vector []float32, topK int) ([]VectorHit, error) {
	c, err := s.getOrCreate(collection)
	if err != nil {
		return nil, errs.New(errs.RetrievalError, "chromem.QueryVector", err)
	}
	n := c.Count()
	if n == 0 {
		return nil, nil
	}
	if topK > n {
		topK = n
	}
	results, err := c.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, errs.New(errs.RetrievalError, "chromem.QueryVector", err)
	}
	hits := make([]VectorHit, len(results))
	for i, r := range results {
		hits[i] = VectorHit{ChunkID: r.ID, Score: float64(r.Similarity)}
	}
	return hits, nil
}

func (s *ChromemStore) Delete(ctx context.Context, collection string, ids []string) error {
	c, err := s.getOrCreate(collection)
	if err != nil {
		return errs.New(errs.RetrievalError, "chromem.Delete", err)
	}
	if err := c.Delete(ctx, nil, nil, ids...); err != nil {
		return errs.New(errs.RetrievalError, "chromem.Delete", err)
	}
	return nil
}

var _ VectorStore = (*ChromemStore)(nil)
