package retrieval

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/weaveai/weave/errs"
)

// OpenAIEmbedderConfig configures OpenAIEmbedder.
type OpenAIEmbedderConfig struct {
	APIKey  string
	Model   string // defaults to "text-embedding-3-small"
	BaseURL string
}

// OpenAIEmbedder is an Embedder backed by the OpenAI embeddings API via
// go-openai's CreateEmbeddings, mirroring the real SDK usage the llm/openai
// adapter already relies on rather than a hand-rolled HTTP client.
type OpenAIEmbedder struct {
	sdk   *openai.Client
	model string
	dim   int
}

var embeddingDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// NewOpenAIEmbedder constructs an OpenAIEmbedder. APIKey is required.
func NewOpenAIEmbedder(cfg OpenAIEmbedderConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("retrieval: openai embedder: API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}

	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}

	dim, ok := embeddingDimensions[model]
	if !ok {
		dim = 1536
	}

	return &OpenAIEmbedder{sdk: openai.NewClientWithConfig(conf), model: model, dim: dim}, nil
}

// Dimension returns the embedding vector width for the configured model.
func (e *OpenAIEmbedder) Dimension() int { return e.dim }

// Embed calls the embeddings endpoint once for the whole batch, matching
// OpenAI's native batch-input support (up to 2048 inputs per request) rather
// than issuing one call per text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.sdk.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, errs.New(errs.RetrievalError, "retrieval.openai_embedder.embed", err)
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		out[d.Index] = d.Embedding
	}
	return out, nil
}
