// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package functiontool builds a tool.Tool from a typed Go function, deriving
// its JSON schema from struct tags instead of requiring callers to write one
// by hand.
//
// Example:
//
//	type SearchArgs struct {
//	    Query string `json:"query" jsonschema:"required,description=Search query"`
//	    Limit int    `json:"limit,omitempty" jsonschema:"description=Max results,default=10"`
//	}
//
//	searchTool, err := functiontool.New(functiontool.Config{
//	    Name:        "search",
//	    Description: "Search documents",
//	}, func(ctx tool.Context, args SearchArgs) (any, error) {
//	    return doSearch(args.Query, args.Limit)
//	})
package functiontool

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"

	"github.com/weaveai/weave/tool"
)

// Config declares the fixed metadata of a function tool.
type Config struct {
	Name        string
	Description string
	Timeout     time.Duration
	Retry       *tool.RetryPolicy
	Approval    bool
}

// New builds a tool.Tool from a typed function. Args must be a struct; its
// json and jsonschema tags drive schema generation.
func New[Args any](cfg Config, fn func(tool.Context, Args) (any, error)) (tool.Tool, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("functiontool: name is required")
	}
	if cfg.Description == "" {
		return nil, fmt.Errorf("functiontool: description is required")
	}

	params, err := generateSchema[Args]()
	if err != nil {
		return nil, fmt.Errorf("functiontool %s: %w", cfg.Name, err)
	}

	return &functionTool[Args]{cfg: cfg, fn: fn, params: params}, nil
}

type functionTool[Args any] struct {
	cfg    Config
	fn     func(tool.Context, Args) (any, error)
	params map[string]any
}

func (t *functionTool[Args]) Name() string        { return t.cfg.Name }
func (t *functionTool[Args]) Description() string { return t.cfg.Description }
func (t *functionTool[Args]) Timeout() time.Duration   { return t.cfg.Timeout }
func (t *functionTool[Args]) Retry() *tool.RetryPolicy { return t.cfg.Retry }
func (t *functionTool[Args]) RequiresApproval() bool   { return t.cfg.Approval }

func (t *functionTool[Args]) Schema() tool.Schema {
	return tool.Schema{Name: t.cfg.Name, Description: t.cfg.Description, Parameters: t.params}
}

func (t *functionTool[Args]) Validate(args map[string]any) bool {
	var a Args
	return decode(args, &a) == nil
}

func (t *functionTool[Args]) Parse(args map[string]any) (map[string]any, error) {
	var a Args
	if err := decode(args, &a); err != nil {
		return nil, err
	}
	return args, nil
}

func (t *functionTool[Args]) Execute(ctx tool.Context, args map[string]any) tool.Result {
	return tool.Dispatch(ctx, t, args, func(ctx tool.Context, args map[string]any) (any, error) {
		var a Args
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		return t.fn(ctx, a)
	})
}

func decode(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "json",
	})
	if err != nil {
		return err
	}
	return dec.Decode(args)
}

// generateSchema reflects Args into a JSON-Schema-shaped map using the same
// struct tags a caller would use to document a request body.
func generateSchema[Args any]() (map[string]any, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}

	schema := reflector.Reflect(new(Args))

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	delete(result, "$schema")
	delete(result, "$id")

	if result["type"] == "object" {
		out := map[string]any{"type": "object", "properties": result["properties"]}
		if req, ok := result["required"]; ok {
			out["required"] = req
		}
		return out, nil
	}
	return result, nil
}

var _ tool.Tool = (*functionTool[struct{}])(nil)
