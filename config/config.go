package config

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/weaveai/weave/agent/message"
	"github.com/weaveai/weave/llm"
	"github.com/weaveai/weave/tool"
	"github.com/weaveai/weave/workflow"
)

func errRequired(field string) error {
	return fmt.Errorf("config: %s is required", field)
}

func errUnsupported(field, value string) error {
	return fmt.Errorf("config: unsupported %s %q", field, value)
}

// Load reads path, expands $VAR/${VAR}/.env-style references (env.go) over
// the raw YAML tree, unmarshals into RuntimeConfig, fills defaults, and
// validates. Mirrors the teacher's own load→expand→default→validate
// pipeline, rebuilt against this module's own config shape.
func Load(path string) (*RuntimeConfig, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var generic map[string]any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	expanded := ExpandEnvVarsInData(generic)

	reencoded, err := yaml.Marshal(expanded)
	if err != nil {
		return nil, fmt.Errorf("config: re-encode %s: %w", path, err)
	}

	var cfg RuntimeConfig
	if err := yaml.Unmarshal(reencoded, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Compile builds a *workflow.Graph from a declared WorkflowConfig, against a
// tool registry (by name) and a single bound adapter shared by every "llm"
// node. This is the §4.4.7 programmatic-graph sugar: it can express linear
// and conditionally-branching llm/tool chains, not parallel/loop/custom
// bodies — those remain programmatic-API-only.
func Compile(wc WorkflowConfig, adapter llm.Adapter, tools map[string]tool.Tool) (*workflow.Graph, error) {
	nodes := make([]*workflow.Node, 0, len(wc.Nodes))

	otherNames := make([]string, 0, len(wc.Nodes))
	for _, nc := range wc.Nodes {
		otherNames = append(otherNames, nc.Name)
	}

	for _, nc := range wc.Nodes {
		switch nc.Type {
		case "llm":
			tmpl, err := template.New(nc.Name).Parse(nc.Prompt)
			if err != nil {
				return nil, fmt.Errorf("config: node %q: parse prompt template: %w", nc.Name, err)
			}
			names := otherNames
			nodes = append(nodes, workflow.NewLLMNode(workflow.LLMNodeConfig{
				Name:         nc.Name,
				Adapter:      adapter,
				SystemPrompt: nc.SystemPrompt,
				Prompt: func(wctx *workflow.Context) string {
					var buf bytes.Buffer
					_ = tmpl.Execute(&buf, templateData(wctx, names))
					return buf.String()
				},
			}))

		case "tool":
			t, ok := tools[nc.ToolName]
			if !ok {
				return nil, fmt.Errorf("config: node %q: unknown tool %q", nc.Name, nc.ToolName)
			}
			args := nc.Args
			nodes = append(nodes, workflow.NewToolNode(workflow.ToolNodeConfig{
				Name: nc.Name,
				Tool: t,
				Input: func(*workflow.Context) map[string]any {
					return args
				},
			}))

		case "condition":
			if nc.Predicate == nil {
				return nil, fmt.Errorf("config: node %q: condition requires predicate", nc.Name)
			}
			p := nc.Predicate
			nodes = append(nodes, workflow.NewConditionNode(workflow.ConditionNodeConfig{
				Name:    nc.Name,
				IfTrue:  p.IfTrue,
				IfFalse: p.IfFalse,
				Predicate: func(wctx *workflow.Context) bool {
					out, _ := wctx.NodeOutput(p.NodeOutput)
					return stringifyOutput(out) == p.Equals
				},
			}))

		default:
			return nil, fmt.Errorf("config: node %q: unsupported type %q", nc.Name, nc.Type)
		}
	}

	edges := make([]workflow.Edge, len(wc.Edges))
	for i, ec := range wc.Edges {
		edges[i] = workflow.Edge{From: ec.From, To: ec.To}
	}

	return workflow.NewGraph(nodes, edges, wc.Start)
}

// templateData flattens a workflow.Context into the map a node's text
// template renders against: .Input is the workflow's initial input, plus one
// entry per other declared node keyed by its name, rendered via
// stringifyOutput (LLM node outputs render as their Content). Nodes not yet
// executed when this template runs (impossible for a validated DAG, since a
// node only ever renders after its predecessors complete) would render as
// the empty string.
func templateData(wctx *workflow.Context, names []string) map[string]any {
	data := map[string]any{"Input": wctx.InitialInput()}
	for _, name := range names {
		out, ok := wctx.NodeOutput(name)
		if !ok {
			data[name] = ""
			continue
		}
		data[name] = stringifyOutput(out)
	}
	return data
}

func stringifyOutput(out any) string {
	switch v := out.(type) {
	case workflow.LLMOutput:
		return v.Content
	case message.TokenUsage:
		return fmt.Sprintf("%d", v.Total)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
