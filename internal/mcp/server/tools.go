// Copyright 2025 Tom Barlow
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

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hrmless/adapter/internal/log"
	"github.com/hrmless/adapter/internal/operation"
	"github.com/hrmless/adapter/internal/schema"
	"github.com/hrmless/adapter/internal/tracing"
	pkgerrors "github.com/hrmless/adapter/pkg/errors"
)

// ToolName returns the MCP tool name for an action key.
func ToolName(actionKey string) string {
	return ToolPrefix + actionKey
}

// actionTool builds the tool definition for action.
func actionTool(action *operation.Action) mcp.Tool {
	description := action.Display.Description
	if description == "" {
		description = action.Display.Label
	}
	properties, required := inputSchema(action.InputFields)
	return mcp.Tool{
		Name:        ToolName(action.Key),
		Description: fmt.Sprintf("%s (%s %s)", description, action.Kind, action.Noun),
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
	}
}

// inputSchema converts form fields into JSON Schema properties. Groups
// become arrays of objects keyed by the flat child keys.
func inputSchema(fields []schema.Field) (map[string]any, []string) {
	properties := make(map[string]any, len(fields))
	var required []string

	for _, f := range fields {
		prop := map[string]any{}
		if desc := fieldDescription(f); desc != "" {
			prop["description"] = desc
		}

		if f.IsGroup() {
			childProps, childRequired := inputSchema(f.Children)
			items := map[string]any{"type": "object", "properties": childProps}
			if len(childRequired) > 0 {
				items["required"] = childRequired
			}
			prop["type"] = "array"
			prop["items"] = items
		} else {
			prop["type"] = jsonType(f.Type)
			if len(f.Choices) > 0 {
				prop["enum"] = f.Choices
			}
			if f.Default != nil {
				prop["default"] = f.Default
			}
		}

		properties[f.Key] = prop
		if f.Required {
			required = append(required, f.Key)
		}
	}
	return properties, required
}

func fieldDescription(f schema.Field) string {
	parts := []string{}
	if f.Label != "" {
		parts = append(parts, f.Label)
	}
	if f.HelpText != "" {
		parts = append(parts, f.HelpText)
	}
	if f.Dynamic != "" {
		action, _, _ := strings.Cut(f.Dynamic, ".")
		parts = append(parts, fmt.Sprintf("Choices come from %s.", ToolName(action)))
	}
	return strings.Join(parts, ". ")
}

func jsonType(t schema.FieldType) string {
	switch t {
	case schema.TypeInteger:
		return "integer"
	case schema.TypeBoolean:
		return "boolean"
	default:
		return "string"
	}
}

// actionHandler creates an MCP tool handler that performs action.
func (s *Server) actionHandler(action *operation.Action) server.ToolHandlerFunc {
	logger := log.WithAction(s.logger, action.Key, string(action.Kind))

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input := request.GetArguments()
		if input == nil {
			input = map[string]any{}
		}

		input, err := schema.Coerce(action.InputFields, schema.ApplyDefaults(action.InputFields, input))
		if err != nil {
			return errorResponse(err.Error()), nil
		}
		if missing := schema.MissingRequired(action.InputFields, input); len(missing) > 0 {
			return errorResponse(fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", "))), nil
		}

		auth, err := s.session(ctx)
		if err != nil {
			logger.Error("failed to load session", log.Error(err))
			return errorResponse(userMessage(err)), nil
		}

		ctx, cid := tracing.Ensure(ctx)
		inv := &log.Invocation{
			Action:        action.Key,
			Source:        "mcp",
			CorrelationID: cid.String(),
			Metadata:      map[string]any{"fields": len(input)},
		}
		var result any
		err = s.calls.Handler(ctx, inv, func(ctx context.Context) error {
			var perr error
			result, perr = s.performer.Perform(ctx, action, operation.NewBundle(auth, input))
			return perr
		})
		if err != nil {
			logger.Warn("action failed",
				slog.String("outcome", operation.Outcome(err)),
				log.Error(err))
			return errorResponse(userMessage(err)), nil
		}

		return jsonResponse(result)
	}
}

// handleConnectionTest implements the connection test tool.
func (s *Server) handleConnectionTest(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	auth, err := s.session(ctx)
	if err != nil {
		return errorResponse(userMessage(err)), nil
	}
	result, err := s.tester.Test(ctx, auth)
	if err != nil {
		return errorResponse(userMessage(err)), nil
	}
	return jsonResponse(result)
}

func jsonResponse(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResponse(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return textResponse(string(data)), nil
}

// userMessage renders err with its suggestion when it carries one.
func userMessage(err error) string {
	var uv pkgerrors.UserVisibleError
	if pkgerrors.As(err, &uv) && uv.IsUserVisible() {
		if suggestion := uv.Suggestion(); suggestion != "" {
			return uv.UserMessage() + "\n\n" + suggestion
		}
		return uv.UserMessage()
	}
	return err.Error()
}
