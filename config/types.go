// Package config loads the runtime's declarative YAML configuration:
// adapter selection, retrieval collection/vector-store wiring, guardrail
// rule parameters, observability exporter settings, and workflow graphs
// compiled from node/edge declarations.
//
// Grounded on the teacher's config/ package (ConfigInterface's
// Validate/SetDefaults pattern, YAML unmarshal, $VAR/.env expansion) but
// rewritten against SPEC_FULL's own data model instead of hector's
// provider/reasoning/DAG-execution model — the teacher's WorkflowConfig
// describes a fundamentally different agent-name-keyed execution mode (see
// DESIGN.md's workflow entry); this file starts over against
// workflow.Graph/Node instead of adapting that shape.
package config

import "os"

// ConfigInterface is kept identical to the teacher's: every config section
// validates itself and can fill in defaults for unset fields.
type ConfigInterface interface {
	Validate() error
	SetDefaults()
}

// RuntimeConfig is the root of a loaded configuration file.
type RuntimeConfig struct {
	ServiceName   string              `yaml:"service_name"`
	LLM           LLMConfig           `yaml:"llm"`
	Retrieval     RetrievalConfig     `yaml:"retrieval"`
	Guardrails    GuardrailConfig     `yaml:"guardrails"`
	Observability ObservabilityConfig `yaml:"observability"`
	Workflows     []WorkflowConfig    `yaml:"workflows"`
}

func (c *RuntimeConfig) SetDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "weave"
	}
	c.LLM.SetDefaults()
	c.Retrieval.SetDefaults()
	c.Guardrails.SetDefaults()
	c.Observability.SetDefaults()
	for i := range c.Workflows {
		c.Workflows[i].SetDefaults()
	}
}

func (c *RuntimeConfig) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Retrieval.Validate(); err != nil {
		return err
	}
	if err := c.Guardrails.Validate(); err != nil {
		return err
	}
	if err := c.Observability.Validate(); err != nil {
		return err
	}
	for i := range c.Workflows {
		if err := c.Workflows[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// LLMConfig selects and configures the bound adapter. APIKey, when empty,
// falls back to the provider's recognized environment variable (§6).
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // "anthropic" | "openai"
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key,omitempty"`
	Temperature float64 `yaml:"temperature"`
}

func (c *LLMConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = "anthropic"
	}
	if c.Model == "" {
		switch c.Provider {
		case "openai":
			c.Model = "gpt-4o"
		default:
			c.Model = "claude-sonnet-4-20250514"
		}
	}
	if c.APIKey == "" {
		switch c.Provider {
		case "anthropic":
			c.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			c.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
}

func (c *LLMConfig) Validate() error {
	switch c.Provider {
	case "anthropic", "openai":
		return nil
	default:
		return errUnsupported("llm.provider", c.Provider)
	}
}

// RetrievalConfig selects the VectorStore backend for retrieval.Engine.
type RetrievalConfig struct {
	VectorStore string          `yaml:"vector_store"` // "chromem" | "qdrant" | "pinecone"
	Dimension   int             `yaml:"dimension"`
	Qdrant      *QdrantConfig   `yaml:"qdrant,omitempty"`
	Pinecone    *PineconeConfig `yaml:"pinecone,omitempty"`
}

// QdrantConfig mirrors retrieval.QdrantConfig for YAML loading.
type QdrantConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key,omitempty"`
	UseTLS bool   `yaml:"use_tls,omitempty"`
}

// PineconeConfig mirrors retrieval.PineconeConfig for YAML loading.
type PineconeConfig struct {
	APIKey    string `yaml:"api_key"`
	Host      string `yaml:"host,omitempty"`
	IndexName string `yaml:"index_name,omitempty"`
}

func (c *RetrievalConfig) SetDefaults() {
	if c.VectorStore == "" {
		c.VectorStore = "chromem"
	}
	if c.Dimension == 0 {
		c.Dimension = 1536
	}
}

func (c *RetrievalConfig) Validate() error {
	switch c.VectorStore {
	case "chromem", "qdrant", "pinecone":
		return nil
	default:
		return errUnsupported("retrieval.vector_store", c.VectorStore)
	}
}

// GuardrailConfig parameterizes the two reference rules (§4.8 EXPANSION).
type GuardrailConfig struct {
	MaxInputLength  int      `yaml:"max_input_length"`
	MaxOutputLength int      `yaml:"max_output_length"`
	BannedTerms     []string `yaml:"banned_terms,omitempty"`
}

func (c *GuardrailConfig) SetDefaults() {
	if c.MaxInputLength == 0 {
		c.MaxInputLength = 16000
	}
	if c.MaxOutputLength == 0 {
		c.MaxOutputLength = 16000
	}
}

func (c *GuardrailConfig) Validate() error { return nil }

// ObservabilityConfig configures the tracer provider (§4.7).
type ObservabilityConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"` // "console" | "otlp" | "none"
	OTLPEndpoint string  `yaml:"otlp_endpoint,omitempty"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

func (c *ObservabilityConfig) SetDefaults() {
	if c.Exporter == "" {
		c.Exporter = "console"
	}
	if c.SamplingRate <= 0 {
		c.SamplingRate = 1
	}
}

func (c *ObservabilityConfig) Validate() error {
	switch c.Exporter {
	case "console", "otlp", "none":
		return nil
	default:
		return errUnsupported("observability.exporter", c.Exporter)
	}
}

// WorkflowConfig declares a workflow.Graph as nodes + edges, compiled by
// Compile. This is additive sugar over the programmatic graph-building API
// (§4.4.7) — it can express llm/tool/condition nodes with static or
// template-rendered inputs, not arbitrary custom/parallel/loop bodies.
type WorkflowConfig struct {
	Name  string       `yaml:"name"`
	Start string       `yaml:"start"`
	Nodes []NodeConfig `yaml:"nodes"`
	Edges []EdgeConfig `yaml:"edges"`
}

func (c *WorkflowConfig) SetDefaults() {
	for i := range c.Nodes {
		c.Nodes[i].SetDefaults()
	}
}

func (c *WorkflowConfig) Validate() error {
	if c.Name == "" {
		return errRequired("workflow.name")
	}
	if c.Start == "" {
		return errRequired("workflow.start")
	}
	for i := range c.Nodes {
		if err := c.Nodes[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// NodeConfig is one declared node. Type selects which fields apply:
//   - "llm": SystemPrompt, Prompt (a text/template string)
//   - "tool": ToolName, Args (static; no templating)
//   - "condition": Predicate
type NodeConfig struct {
	Name         string           `yaml:"name"`
	Type         string           `yaml:"type"`
	SystemPrompt string           `yaml:"system_prompt,omitempty"`
	Prompt       string           `yaml:"prompt,omitempty"`
	ToolName     string           `yaml:"tool,omitempty"`
	Args         map[string]any   `yaml:"args,omitempty"`
	Predicate    *PredicateConfig `yaml:"predicate,omitempty"`
}

// PredicateConfig declares a condition node: the named prior node's output
// is stringified and compared for equality against Equals.
type PredicateConfig struct {
	NodeOutput string `yaml:"node_output"`
	Equals     string `yaml:"equals"`
	IfTrue     string `yaml:"if_true"`
	IfFalse    string `yaml:"if_false"`
}

func (c *NodeConfig) SetDefaults() {}

func (c *NodeConfig) Validate() error {
	if c.Name == "" {
		return errRequired("node.name")
	}
	switch c.Type {
	case "llm", "tool", "condition":
		return nil
	default:
		return errUnsupported("node.type", c.Type)
	}
}

// EdgeConfig declares one workflow.Edge.
type EdgeConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}
