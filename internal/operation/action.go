package operation

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/hrmless/adapter/internal/schema"
)

// Kind tags an action with the host collection it belongs to.
type Kind string

const (
	// KindSearch finds existing records. Requires at least one input field.
	KindSearch Kind = "search"

	// KindCreate creates or updates records.
	KindCreate Kind = "create"

	// KindTrigger feeds dynamic dropdowns and is usually hidden.
	KindTrigger Kind = "trigger"
)

// Kinds lists every valid kind in display order.
var Kinds = []Kind{KindSearch, KindCreate, KindTrigger}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSearch, KindCreate, KindTrigger:
		return true
	default:
		return false
	}
}

// ParseKind converts s into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown action kind %q (want search, create, or trigger)", s)
	}
	return k, nil
}

// Display holds the host-facing presentation of an action.
type Display struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Hidden      bool   `json:"hidden"`
}

// PayloadFunc builds query parameters or a request body from a bundle.
type PayloadFunc func(Bundle) map[string]any

// Endpoint describes the single request an action performs and how its
// response is interpreted.
type Endpoint struct {
	// Method is the HTTP verb.
	Method string

	// Path is appended to the base URL. "{name}" placeholders resolve
	// against the input data, except {org_id} which comes from AuthData.
	Path string

	Params PayloadFunc
	Body   PayloadFunc

	// NotFoundMessage is returned for 404 responses. Empty means a 404 is
	// treated like any other failing status.
	NotFoundMessage string

	// Transform is a jq expression applied to the decoded body before the
	// result shape.
	Transform string

	Shape Shape

	// EmptyAsSuccess resolves 204 and empty responses to {"success": true}.
	EmptyAsSuccess bool
}

// Action is an immutable descriptor for one remote operation.
type Action struct {
	Key          string
	Noun         string
	Kind         Kind
	Display      Display
	InputFields  []schema.Field
	OutputFields []schema.Field
	Endpoint     Endpoint
	Sample       any
}

// Validate checks the descriptor is complete.
func (a *Action) Validate() error {
	if a.Key == "" {
		return fmt.Errorf("action key is required")
	}
	if !a.Kind.Valid() {
		return fmt.Errorf("action %q: invalid kind %q", a.Key, a.Kind)
	}

	switch a.Endpoint.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return fmt.Errorf("action %q: unsupported method %q", a.Key, a.Endpoint.Method)
	}
	if !strings.HasPrefix(a.Endpoint.Path, "/") {
		return fmt.Errorf("action %q: path must start with /", a.Key)
	}

	seen := make(map[string]bool)
	for _, key := range schema.Keys(a.InputFields) {
		if seen[key] {
			return fmt.Errorf("action %q: duplicate input field %q", a.Key, key)
		}
		seen[key] = true
	}

	return nil
}

// PathParameters returns the placeholder names in the endpoint path, in
// order of appearance.
func (a *Action) PathParameters() []string {
	var names []string
	path := a.Endpoint.Path
	for {
		start := strings.Index(path, "{")
		if start == -1 {
			return names
		}
		end := strings.Index(path[start:], "}")
		if end == -1 {
			return names
		}
		names = append(names, path[start+1:start+end])
		path = path[start+end+1:]
	}
}
