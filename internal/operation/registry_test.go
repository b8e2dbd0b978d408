package operation

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrmless/adapter/internal/log"
	"github.com/hrmless/adapter/internal/schema"
	"github.com/hrmless/adapter/pkg/errors"
)

func action(key string, kind Kind, inputs ...string) *Action {
	a := &Action{Key: key, Kind: kind, Endpoint: Endpoint{Method: http.MethodGet, Path: "/" + key}}
	for _, in := range inputs {
		a.InputFields = append(a.InputFields, schema.Field{Key: in, Type: schema.TypeString})
	}
	return a
}

func TestRegistry_Buckets(t *testing.T) {
	r := NewRegistry(log.Discard())
	require.NoError(t, r.Register(
		action("read", KindSearch, "id"),
		action("create", KindCreate),
		action("list", KindTrigger),
		action("bareSearch", KindSearch),
		action("update", KindCreate, "id"),
	))

	keys := func(actions []*Action) []string {
		var out []string
		for _, a := range actions {
			out = append(out, a.Key)
		}
		return out
	}

	assert.Equal(t, []string{"read"}, keys(r.Searches()))
	assert.Equal(t, []string{"create", "update"}, keys(r.Creates()))
	assert.Equal(t, []string{"list"}, keys(r.Triggers()))
	assert.Len(t, r.List(), 5)
	assert.Equal(t, []string{"bareSearch", "create", "list", "read", "update"}, r.Keys())
}

func TestRegistry_Register_Errors(t *testing.T) {
	tests := []struct {
		name   string
		action *Action
	}{
		{"nil", nil},
		{"missing key", action("", KindCreate)},
		{"zero kind", action("noKind", "")},
		{"unknown kind", action("odd", Kind("other"))},
		{"bad method", &Action{Key: "m", Kind: KindCreate, Endpoint: Endpoint{Method: "TRACE", Path: "/"}}},
		{"relative path", &Action{Key: "p", Kind: KindCreate, Endpoint: Endpoint{Method: http.MethodGet, Path: "x"}}},
		{"duplicate input", action("dup", KindSearch, "id", "id")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(log.Discard())
			assert.Error(t, r.Register(tt.action))
			assert.Empty(t, r.List())
		})
	}

	r := NewRegistry(log.Discard())
	require.NoError(t, r.Register(action("a", KindCreate)))
	assert.Error(t, r.Register(action("a", KindSearch, "id")))
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(action("read", KindSearch, "id")))

	a, err := r.Get("read")
	require.NoError(t, err)
	assert.Equal(t, "read", a.Key)

	_, err = r.Get("missing")
	var nf *errors.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.ID)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Search ")
	require.NoError(t, err)
	assert.Equal(t, KindSearch, k)

	_, err = ParseKind("write")
	assert.Error(t, err)
}

func TestAction_PathParameters(t *testing.T) {
	a := action("x", KindSearch)
	a.Endpoint.Path = "/org/{org_id}/positions/{position_id}/candidates/{candidate_id}/"
	assert.Equal(t, []string{"org_id", "position_id", "candidate_id"}, a.PathParameters())
}
