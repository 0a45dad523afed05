package retrieval

import (
	"context"

	"github.com/pinecone-io/go-pinecone/pinecone"

	"github.com/weaveai/weave/errs"
)

// PineconeConfig configures a remote PineconeStore.
type PineconeConfig struct {
	APIKey    string
	Host      string
	IndexName string
}

// PineconeStore is a remote VectorStore backed by Pinecone's managed service.
// Every collection shares the index's default namespace: the collection
// argument of its methods is not used.
//
// Grounded on the teacher's pkg/vector/pinecone.go PineconeProvider, narrowed
// to the VectorStore contract: no metadata travels through Pinecone itself,
// it stays in Engine's local chunk table.
type PineconeStore struct {
	client    *pinecone.Client
	indexName string
}

// NewPineconeStore creates a client against a single Pinecone index.
func NewPineconeStore(cfg PineconeConfig) (*PineconeStore, error) {
	if cfg.APIKey == "" {
		return nil, errs.Wrapf(errs.ConfigError, "pinecone.NewPineconeStore", "API key required")
	}
	params := pinecone.NewClientParams{ApiKey: cfg.APIKey}
	if cfg.Host != "" {
		params.Host = cfg.Host
	}
	client, err := pinecone.NewClient(params)
	if err != nil {
		return nil, errs.New(errs.RetrievalError, "pinecone.NewPineconeStore", err)
	}
	indexName := cfg.IndexName
	if indexName == "" {
		indexName = "weave-index"
	}
	return &PineconeStore{client: client, indexName: indexName}, nil
}

func (s *PineconeStore) conn(ctx context.Context) (*pinecone.IndexConnection, error) {
	index, err := s.client.DescribeIndex(ctx, s.indexName)
	if err != nil {
		return nil, err
	}
	return s.client.Index(pinecone.NewIndexConnParams{Host: index.Host})
}

// EnsureCollection is a no-op: Pinecone indexes are provisioned out of band
// (dimension and metric are fixed at index-creation time in their console/API).
func (s *PineconeStore) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	return nil
}

func (s *PineconeStore) Upsert(ctx context.Context, collection string, ids []string, vectors [][]float32) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return errs.New(errs.RetrievalError, "pinecone.Upsert", err)
	}
	defer conn.Close()

	vecs := make([]*pinecone.Vector, len(ids))
	for i, id := range ids {
		vecs[i] = &pinecone.Vector{Id: id, Values: &vectors[i]}
	}
	if _, err := conn.UpsertVectors(ctx, vecs); err != nil {
		return errs.New(errs.RetrievalError, "pinecone.Upsert", err)
	}
	return nil
}

func (s *PineconeStore) QueryVector(ctx context.Context, collection string, vector []float32, topK int) ([]VectorHit, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, errs.New(errs.RetrievalError, "pinecone.QueryVector", err)
	}
	defer conn.Close()

	resp, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector: vector,
		TopK:   uint32(topK),
	})
	if err != nil {
		return nil, errs.New(errs.RetrievalError, "pinecone.QueryVector", err)
	}
	hits := make([]VectorHit, len(resp.Matches))
	for i, m := range resp.Matches {
		hits[i] = VectorHit{ChunkID: m.Vector.Id, Score: float64(m.Score)}
	}
	return hits, nil
}

func (s *PineconeStore) Delete(ctx context.Context, collection string, ids []string) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return errs.New(errs.RetrievalError, "pinecone.Delete", err)
	}
	defer conn.Close()
	if err := conn.DeleteVectorsById(ctx, ids); err != nil {
		return errs.New(errs.RetrievalError, "pinecone.Delete", err)
	}
	return nil
}

var _ VectorStore = (*PineconeStore)(nil)
