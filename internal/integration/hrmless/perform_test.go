package hrmless

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrmless/adapter/internal/log"
	"github.com/hrmless/adapter/internal/operation"
	"github.com/hrmless/adapter/internal/operation/transport"
	"github.com/hrmless/adapter/internal/testing/fakeapi"
)

func setup(t *testing.T) (*fakeapi.Server, *operation.Performer) {
	t.Helper()
	srv := fakeapi.New()
	t.Cleanup(srv.Close)

	tr, err := transport.NewHTTPTransport(nil)
	require.NoError(t, err)

	p, err := operation.NewPerformer(operation.PerformerConfig{
		BaseURL:   srv.URL,
		Transport: tr,
		Logger:    log.Discard(),
	})
	require.NoError(t, err)
	return srv, p
}

func auth() operation.AuthData {
	return operation.AuthData{AccessToken: "tok", OrgID: fakeapi.DefaultOrgID}
}

func perform(t *testing.T, p *operation.Performer, a *operation.Action, input map[string]any) (any, error) {
	t.Helper()
	return p.Perform(context.Background(), a, operation.NewBundle(auth(), input))
}

func TestPerform_PositionChoicesProjection(t *testing.T) {
	_, p := setup(t)

	got, err := perform(t, p, PositionChoices(), nil)
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"id": "pos-1", "name": "Delivery Driver"},
		map[string]any{"id": "pos-2", "name": "Dispatcher"},
	}, got)
}

func TestPerform_PositionRead(t *testing.T) {
	srv, p := setup(t)

	got, err := perform(t, p, PositionRead(), map[string]any{"position_id": fakeapi.DefaultPositionID})
	require.NoError(t, err)
	m, ok := got.(map[string]any)
	require.True(t, ok, "position read returns the bare object")
	assert.Equal(t, "Delivery Driver", m["name"])

	req, _ := srv.LastRequest()
	assert.Equal(t, "/org/org-1/position/pos-1", req.Path)
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.Empty(t, req.Header.Get("Content-Type"))

	_, err = perform(t, p, PositionRead(), map[string]any{"position_id": "nope"})
	require.Error(t, err)
	assert.Equal(t, MsgPositionNotFound, err.Error())
}

func TestPerform_CandidateListStripsInternalMembers(t *testing.T) {
	_, p := setup(t)

	got, err := perform(t, p, CandidateList(), map[string]any{"position_id": fakeapi.DefaultPositionID})
	require.NoError(t, err)
	list, ok := got.([]any)
	require.True(t, ok)
	require.Len(t, list, 1)

	c := list[0].(map[string]any)
	assert.Equal(t, "cand-1", c["id"])
	for _, k := range []string{"communications", "hired", "tags"} {
		assert.NotContains(t, c, k)
	}
}

func TestPerform_CandidateListEmptyPosition(t *testing.T) {
	_, p := setup(t)

	got, err := perform(t, p, CandidateList(), map[string]any{"position_id": "pos-2"})
	require.NoError(t, err)
	assert.Equal(t, []any{}, got)
}

func TestPerform_CreateCandidate(t *testing.T) {
	srv, p := setup(t)

	got, err := perform(t, p, CandidateCreateAction(), map[string]any{
		"position_id": fakeapi.DefaultPositionID,
		"name":        "Jane Doe",
		"email":       "jane@example.com",
		"phone":       "+1234567890",
		"language":    "en",
	})
	require.NoError(t, err)

	c, ok := got.(map[string]any)
	require.True(t, ok, "create returns the first element of the sequence")
	assert.Equal(t, "Jane Doe", c["name"])
	assert.NotContains(t, c, "hired")

	req, _ := srv.LastRequest()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	body, err := req.JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name": "Jane Doe", "email": "jane@example.com", "phone": "+1234567890", "language": "en",
	}, body)
}

func TestPerform_CreateCandidateUnknownPosition(t *testing.T) {
	_, p := setup(t)

	_, err := perform(t, p, CandidateCreateAction(), map[string]any{"position_id": "missing", "name": "x"})
	var opErr *operation.Error
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, operation.ErrorTypeNotFound, opErr.Type)
	assert.Equal(t, MsgCreateCandidateNotFound, opErr.Message)
}

func TestPerform_UpdateCandidate(t *testing.T) {
	srv, p := setup(t)

	got, err := perform(t, p, CandidateUpdateAction(), map[string]any{
		"position_id":  fakeapi.DefaultPositionID,
		"candidate_id": fakeapi.DefaultCandidateID,
		"phone":        "555",
		"email":        nil,
	})
	require.NoError(t, err)
	assert.Equal(t, "555", got.(map[string]any)["phone"])

	req, _ := srv.LastRequest()
	body, err := req.JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"phone":           "555",
		"position_id":     fakeapi.DefaultPositionID,
		"organization_id": fakeapi.DefaultOrgID,
	}, body)
}

func TestPerform_GetCandidate(t *testing.T) {
	_, p := setup(t)

	got, err := perform(t, p, CandidateRead(), map[string]any{
		"position_id": fakeapi.DefaultPositionID, "candidate_id": fakeapi.DefaultCandidateID,
	})
	require.NoError(t, err)
	assert.NotContains(t, got, "communications")

	_, err = perform(t, p, CandidateRead(), map[string]any{
		"position_id": fakeapi.DefaultPositionID, "candidate_id": "nope",
	})
	require.Error(t, err)
	assert.Equal(t, "Candidate not found. Please verify the candidate ID and position ID.", err.Error())
}

func TestPerform_DeleteCandidate(t *testing.T) {
	srv, p := setup(t)

	got, err := perform(t, p, CandidateDelete(), map[string]any{
		"position_id": fakeapi.DefaultPositionID, "candidate_id": fakeapi.DefaultCandidateID,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"success": true}, got)

	req, _ := srv.LastRequest()
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Empty(t, req.Header.Get("Accept"))

	_, ok := srv.Candidate(fakeapi.DefaultPositionID, fakeapi.DefaultCandidateID)
	assert.False(t, ok)
}

func TestPerform_Interview(t *testing.T) {
	_, p := setup(t)

	got, err := perform(t, p, CandidateInterview(), map[string]any{
		"position_id": fakeapi.DefaultPositionID, "candidate_id": fakeapi.DefaultCandidateID,
	})
	require.NoError(t, err)
	assert.Equal(t, "int-1", got.(map[string]any)["id"])

	created, err := perform(t, p, CandidateCreateAction(), map[string]any{"position_id": fakeapi.DefaultPositionID, "name": "New"})
	require.NoError(t, err)

	none, err := perform(t, p, CandidateInterview(), map[string]any{
		"position_id": fakeapi.DefaultPositionID, "candidate_id": created.(map[string]any)["id"],
	})
	require.NoError(t, err)
	assert.Equal(t, []any{}, none)
}

func TestPerform_UnauthorizedOnEveryAction(t *testing.T) {
	srv, p := setup(t)
	srv.RequireToken("server-token")

	input := map[string]any{
		"position_id":  fakeapi.DefaultPositionID,
		"candidate_id": fakeapi.DefaultCandidateID,
	}
	for _, a := range AllActions() {
		t.Run(a.Key, func(t *testing.T) {
			_, err := perform(t, p, a, input)
			require.Error(t, err)
			assert.Equal(t, operation.UnauthorizedMessage, err.Error())
		})
	}
}

func TestPerform_TriggerNotFoundIsHTTPFailure(t *testing.T) {
	srv, p := setup(t)
	srv.ForceStatus("/org/org-1/position", http.StatusNotFound)

	_, err := perform(t, p, PositionChoices(), nil)
	var opErr *operation.Error
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, operation.ErrorTypeHTTP, opErr.Type)
	assert.Equal(t, http.StatusNotFound, opErr.StatusCode)
}

func TestPerform_Settings(t *testing.T) {
	srv, p := setup(t)

	got, err := perform(t, p, SettingsRead(), nil)
	require.NoError(t, err)
	org := got.(map[string]any)["org"].(map[string]any)
	assert.Equal(t, "Acme Corp", org["name"])

	_, err = perform(t, p, SettingsUpdate(), map[string]any{"calendar_link": "https://cal.example.com", "address": ""})
	require.NoError(t, err)

	req, _ := srv.LastRequest()
	assert.Equal(t, http.MethodPut, req.Method)
	body, err := req.JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"calendar_link": "https://cal.example.com"}, body)
}

func TestPerform_PositionUpdate(t *testing.T) {
	srv, p := setup(t)

	_, err := perform(t, p, PositionUpdate(), map[string]any{
		"position_id": fakeapi.DefaultPositionID,
		"name":        "Senior Driver",
		"questionaire": []any{
			map[string]any{"questionaire[].name": "Q1", "questionaire[].value": "Why?"},
		},
	})
	require.NoError(t, err)

	req, _ := srv.LastRequest()
	body, err := req.JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":         "Senior Driver",
		"questionaire": []any{map[string]any{"name": "Q1", "value": "Why?"}},
	}, body)
}

func TestPerform_MissingOrganization(t *testing.T) {
	srv, p := setup(t)

	_, err := p.Perform(context.Background(), PositionChoices(), operation.NewBundle(operation.AuthData{AccessToken: "x"}, nil))
	var opErr *operation.Error
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, operation.ErrorTypeValidation, opErr.Type)
	assert.Empty(t, srv.Requests())
}
