package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weaveai/weave/agent/message"
	"github.com/weaveai/weave/llm"
	"github.com/weaveai/weave/tool"
)

const sampleYAML = `
service_name: test-service
llm:
  provider: anthropic
retrieval:
  vector_store: chromem
  dimension: 8
guardrails:
  max_input_length: 500
  banned_terms: ["${BANNED_WORD}"]
observability:
  exporter: console
workflows:
  - name: outline-then-draft
    start: outline
    nodes:
      - name: outline
        type: llm
        prompt: "outline: {{.Input}}"
      - name: draft
        type: llm
        prompt: "draft from {{.outline}}"
    edges:
      - from: outline
        to: draft
`

func TestLoad_ExpandsEnvAndDefaults(t *testing.T) {
	t.Setenv("BANNED_WORD", "classified")

	dir := t.TempDir()
	path := filepath.Join(dir, "weave.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test-service", cfg.ServiceName)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.NotEmpty(t, cfg.LLM.Model)
	assert.Equal(t, 8, cfg.Retrieval.Dimension)
	assert.Equal(t, []string{"classified"}, cfg.Guardrails.BannedTerms)
	require.Len(t, cfg.Workflows, 1)
}

type stubAdapter struct{ replies []string }

func (s *stubAdapter) Name() string { return "stub" }
func (s *stubAdapter) Chat(ctx context.Context, req llm.Request) (<-chan llm.Chunk, error) {
	reply := s.replies[0]
	s.replies = s.replies[1:]
	ch := make(chan llm.Chunk, 2)
	ch <- llm.Chunk{Kind: llm.ChunkContent, Delta: reply}
	ch <- llm.Chunk{Kind: llm.ChunkDone, Usage: message.TokenUsage{Total: 1}}
	close(ch)
	return ch, nil
}

func TestCompile_LinearLLMWorkflow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weave.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	t.Setenv("BANNED_WORD", "x")

	cfg, err := Load(path)
	require.NoError(t, err)

	adapter := &stubAdapter{replies: []string{"# Intro", "Hello world."}}
	graph, err := Compile(cfg.Workflows[0], adapter, map[string]tool.Tool{})
	require.NoError(t, err)

	result, err := graph.Execute(context.Background(), "write about cats")
	require.NoError(t, err)
	assert.Contains(t, result.NodeOutputs, "outline")
	assert.Contains(t, result.NodeOutputs, "draft")
}
