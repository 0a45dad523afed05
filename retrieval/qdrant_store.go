package retrieval

import (
	"context"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"github.com/weaveai/weave/errs"
)

// QdrantConfig configures a remote QdrantStore.
type QdrantConfig struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

// QdrantStore is a remote VectorStore backed by Qdrant, for deployments that
// outgrow the in-process ChromemStore.
//
// Grounded on the teacher's pkg/vector/qdrant.go QdrantProvider, narrowed to
// the vector-only VectorStore contract (payload/metadata stays in Engine's
// local chunk table; points here carry only id + vector).
type QdrantStore struct {
	client *qdrant.Client
}

// NewQdrantStore dials a Qdrant instance over gRPC.
func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, errs.New(errs.RetrievalError, "qdrant.Dial", err)
	}
	return &QdrantStore{client: client}, nil
}

func (s *QdrantStore) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return errs.New(errs.RetrievalError, "qdrant.EnsureCollection", err)
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return errs.New(errs.RetrievalError, "qdrant.EnsureCollection", err)
	}
	return nil
}

func (s *QdrantStore) Upsert(ctx context.Context, collection string, ids []string, vectors [][]float32) error {
	points := make([]*qdrant.PointStruct, len(ids))
	for i, id := range ids {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(id),
			Vectors: qdrant.NewVectors(vectors[i]...),
		}
	}
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
	})
	if err != nil {
		return errs.New(errs.RetrievalError, "qdrant.Upsert", err)
	}
	return nil
}

func (s *QdrantStore) QueryVector(ctx context.Context, collection string, vector []float32, topK int) ([]VectorHit, error) {
	result, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
	})
	if err != nil {
		return nil, errs.New(errs.RetrievalError, "qdrant.QueryVector", err)
	}
	hits := make([]VectorHit, len(result))
	for i, p := range result {
		hits[i] = VectorHit{ChunkID: p.Id.GetUuid(), Score: float64(p.Score)}
	}
	return hits, nil
}

func (s *QdrantStore) Delete(ctx context.Context, collection string, ids []string) error {
	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewID(id)
	}
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: pointIDs},
			},
		},
	})
	if err != nil {
		return errs.New(errs.RetrievalError, "qdrant.Delete", err)
	}
	return nil
}

var _ VectorStore = (*QdrantStore)(nil)
