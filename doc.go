// Package weave provides an agent development framework: a bounded ReAct
// agent loop, a typed-node workflow DAG executor, and a hybrid vector+
// lexical retrieval engine, wrapped in a guardrail pipeline and an
// OpenTelemetry/Prometheus observability spine.
//
// # Components
//
// llm defines the Adapter boundary consumed by the agent loop and workflow
// executor; llm/anthropic and llm/openai are the two wired providers. tool
// defines the registry entry contract (schema, dispatch, retry, approval);
// tool/functiontool adapts a typed Go function into one. agent implements
// the Thought→Action→Observation loop bounded by a max-iteration count.
// workflow implements a typed-node-kind DAG executor (llm/tool/condition/
// switch/parallel/custom/loop nodes) with a streamed event vocabulary.
// retrieval implements chunking plus vector, lexical, and RRF-fused hybrid
// search over a pluggable VectorStore (chromem-go in-process, Qdrant,
// Pinecone). guardrail implements an ordered input/output rule pipeline.
// observability wraps the OpenTelemetry SDK and Prometheus client for
// spans, token/cost accounting, and call metrics. config loads a
// declarative YAML configuration and compiles declared workflows into
// *workflow.Graph values.
//
// # Using as a Go library
//
//	import (
//	    "github.com/weaveai/weave/agent"
//	    "github.com/weaveai/weave/workflow"
//	    "github.com/weaveai/weave/retrieval"
//	)
//
// # Alpha status
//
// APIs may change; some features are experimental.
package weave
