package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIEmbedder_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIEmbedder(OpenAIEmbedderConfig{})
	require.Error(t, err)
}

func TestNewOpenAIEmbedder_DimensionByModel(t *testing.T) {
	small, err := NewOpenAIEmbedder(OpenAIEmbedderConfig{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, 1536, small.Dimension())

	large, err := NewOpenAIEmbedder(OpenAIEmbedderConfig{APIKey: "sk-test", Model: "text-embedding-3-large"})
	require.NoError(t, err)
	assert.Equal(t, 3072, large.Dimension())
}
