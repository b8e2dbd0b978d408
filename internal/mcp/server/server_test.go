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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrmless/adapter/internal/auth"
	"github.com/hrmless/adapter/internal/integration/hrmless"
	"github.com/hrmless/adapter/internal/log"
	"github.com/hrmless/adapter/internal/operation"
	"github.com/hrmless/adapter/internal/operation/transport"
	"github.com/hrmless/adapter/internal/testing/fakeapi"
	pkgerrors "github.com/hrmless/adapter/pkg/errors"
)

type fakeTester struct {
	result map[string]any
	err    error
	got    operation.AuthData
}

func (f *fakeTester) Test(_ context.Context, a operation.AuthData) (map[string]any, error) {
	f.got = a
	return f.result, f.err
}

func session(a operation.AuthData, err error) SessionLoader {
	return func(context.Context) (operation.AuthData, error) { return a, err }
}

func newTestServer(t *testing.T, loader SessionLoader, tester ConnectionTester) (*Server, *fakeapi.Server) {
	t.Helper()
	api := fakeapi.New()
	t.Cleanup(api.Close)
	api.RequireToken("tok")

	tr, err := transport.NewHTTPTransport(nil)
	require.NoError(t, err)
	performer, err := operation.NewPerformer(operation.PerformerConfig{
		BaseURL:   api.URL,
		Transport: tr,
		Before:    []operation.BeforeRequest{auth.IncludeBearerToken},
		Logger:    log.Discard(),
	})
	require.NoError(t, err)

	registry, err := hrmless.NewRegistry(log.Discard(), true)
	require.NoError(t, err)

	srv, err := NewServer(ServerConfig{
		Version:   "1.0.0",
		Registry:  registry,
		Performer: performer,
		Session:   loader,
		Tester:    tester,
	})
	require.NoError(t, err)
	return srv, api
}

func call(t *testing.T, srv *Server, action *operation.Action, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = ToolName(action.Key)
	req.Params.Arguments = args
	result, err := srv.actionHandler(action)(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	content, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return content.Text
}

func validSession() SessionLoader {
	return session(operation.AuthData{AccessToken: "tok", OrgID: fakeapi.DefaultOrgID}, nil)
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	registry := operation.NewRegistry(log.Discard())

	tests := []struct {
		name   string
		config ServerConfig
	}{
		{"no registry", ServerConfig{Performer: &operation.Performer{}, Session: validSession()}},
		{"no performer", ServerConfig{Registry: registry, Session: validSession()}},
		{"no session", ServerConfig{Registry: registry, Performer: &operation.Performer{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, err := NewServer(tt.config)
			assert.Error(t, err)
			assert.Nil(t, srv)
		})
	}
}

func TestNewServer_Defaults(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Registry:  operation.NewRegistry(log.Discard()),
		Performer: &operation.Performer{},
		Session:   validSession(),
	})
	require.NoError(t, err)
	assert.Equal(t, "hrmless", srv.name)
	assert.Equal(t, "dev", srv.version)
	assert.Empty(t, srv.Tools(), "no actions and no tester means no tools")
}

func TestTools_OnePerAction(t *testing.T) {
	srv, _ := newTestServer(t, validSession(), &fakeTester{})

	var names []string
	for _, tool := range srv.Tools() {
		names = append(names, tool.Name)
	}

	assert.Len(t, names, len(hrmless.AllActions())+1)
	assert.Contains(t, names, ConnectionTestTool)
	for _, action := range hrmless.AllActions() {
		assert.Contains(t, names, ToolName(action.Key))
	}
	assert.IsIncreasing(t, names)
}

func TestActionTool_MarksRequiredFields(t *testing.T) {
	tool := actionTool(hrmless.CandidateCreateAction())

	assert.Equal(t, "object", tool.InputSchema.Type)
	assert.ElementsMatch(t, []string{"position_id", "name", "email", "phone", "language"}, tool.InputSchema.Required)

	language, ok := tool.InputSchema.Properties["language"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", language["type"])
	assert.Equal(t, "en", language["default"])

	position, ok := tool.InputSchema.Properties["position_id"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, position["description"], ToolName(hrmless.KeyPositionChoices))
}

func TestActionTool_GroupsBecomeArrays(t *testing.T) {
	tool := actionTool(hrmless.PositionUpdate())

	group, ok := tool.InputSchema.Properties["questionaire"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "array", group["type"])

	items, ok := group["items"].(map[string]any)
	require.True(t, ok)
	props, ok := items["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "questionaire[].value")

	minScore, ok := tool.InputSchema.Properties["min_score"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "integer", minScore["type"])

	state, ok := tool.InputSchema.Properties["state"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, hrmless.PositionStates, state["enum"])
}

func TestActionHandler_Performs(t *testing.T) {
	srv, api := newTestServer(t, validSession(), nil)

	result := call(t, srv, hrmless.PositionRead(), map[string]any{"position_id": fakeapi.DefaultPositionID})
	require.False(t, result.IsError, text(t, result))

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(text(t, result)), &got))
	assert.Equal(t, "Delivery Driver", got["name"])

	req, ok := api.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
}

func TestActionHandler_LogsInvocation(t *testing.T) {
	srv, _ := newTestServer(t, validSession(), nil)
	var buf bytes.Buffer
	srv.calls = log.NewInvocationMiddleware(slog.New(slog.NewJSONHandler(&buf, nil)))

	call(t, srv, hrmless.PositionRead(), map[string]any{"position_id": "missing"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var started, finished map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &started))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &finished))

	assert.Equal(t, "action_invoked", started[log.EventKey])
	assert.Equal(t, "orgPositionRead", started[log.ActionKey])
	assert.Equal(t, "mcp", started["source"])
	assert.NotEmpty(t, started["correlation_id"])

	assert.Equal(t, "action failed", finished["msg"])
	assert.Equal(t, false, finished["success"])
	assert.Equal(t, started["correlation_id"], finished["correlation_id"])
}

func TestActionHandler_AppliesDefaults(t *testing.T) {
	srv, api := newTestServer(t, validSession(), nil)

	result := call(t, srv, hrmless.CandidateCreateAction(), map[string]any{
		"position_id": fakeapi.DefaultPositionID,
		"name":        "New Person",
		"email":       "new@example.com",
		"phone":       "555",
	})
	require.False(t, result.IsError, text(t, result))

	req, ok := api.LastRequest()
	require.True(t, ok)
	body, err := req.JSON()
	require.NoError(t, err)
	assert.Equal(t, "en", body["language"])
}

func TestActionHandler_CoercesDefaults(t *testing.T) {
	srv, api := newTestServer(t, validSession(), nil)

	result := call(t, srv, hrmless.PositionUpdate(), map[string]any{
		"position_id": fakeapi.DefaultPositionID,
		"name":        "Delivery Driver",
	})
	require.False(t, result.IsError, text(t, result))

	req, ok := api.LastRequest()
	require.True(t, ok)
	body, err := req.JSON()
	require.NoError(t, err)
	// JSON numbers decode as float64.
	assert.Equal(t, float64(5), body["min_score"])
}

func TestActionHandler_MissingRequired(t *testing.T) {
	srv, api := newTestServer(t, validSession(), nil)

	result := call(t, srv, hrmless.CandidateRead(), map[string]any{"position_id": fakeapi.DefaultPositionID})

	assert.True(t, result.IsError)
	assert.Contains(t, text(t, result), "candidate_id")
	assert.Empty(t, api.Requests(), "no request is sent")
}

func TestActionHandler_CoercionError(t *testing.T) {
	srv, _ := newTestServer(t, validSession(), nil)

	result := call(t, srv, hrmless.PositionUpdate(), map[string]any{
		"position_id": fakeapi.DefaultPositionID,
		"min_score":   "high",
	})

	assert.True(t, result.IsError)
	assert.Contains(t, text(t, result), "min_score")
}

func TestActionHandler_Unauthorized(t *testing.T) {
	srv, _ := newTestServer(t, session(operation.AuthData{AccessToken: "stale", OrgID: fakeapi.DefaultOrgID}, nil), nil)

	result := call(t, srv, hrmless.SettingsRead(), nil)

	assert.True(t, result.IsError)
	assert.Contains(t, text(t, result), "Unauthorized")
}

func TestActionHandler_NotFoundMessage(t *testing.T) {
	srv, _ := newTestServer(t, validSession(), nil)

	result := call(t, srv, hrmless.PositionRead(), map[string]any{"position_id": "missing"})

	assert.True(t, result.IsError)
	assert.Contains(t, text(t, result), hrmless.MsgPositionNotFound)
}

func TestActionHandler_SessionError(t *testing.T) {
	srv, api := newTestServer(t, session(operation.AuthData{}, &pkgerrors.SessionError{Reason: "no stored tokens"}), nil)

	result := call(t, srv, hrmless.SettingsRead(), nil)

	assert.True(t, result.IsError)
	assert.Contains(t, text(t, result), "no stored tokens")
	assert.Empty(t, api.Requests())
}

func TestConnectionTest(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		tester := &fakeTester{result: map[string]any{"org_id": "org-1"}}
		srv, _ := newTestServer(t, validSession(), tester)

		result, err := srv.handleConnectionTest(context.Background(), mcp.CallToolRequest{})
		require.NoError(t, err)
		assert.False(t, result.IsError)
		assert.JSONEq(t, `{"org_id":"org-1"}`, text(t, result))
		assert.Equal(t, "tok", tester.got.AccessToken)
	})

	t.Run("failure", func(t *testing.T) {
		tester := &fakeTester{err: &auth.AuthTestError{Cause: errors.New("boom")}}
		srv, _ := newTestServer(t, validSession(), tester)

		result, err := srv.handleConnectionTest(context.Background(), mcp.CallToolRequest{})
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, text(t, result), "Authentication test failed: boom")
	})
}
