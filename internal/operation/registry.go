package operation

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/hrmless/adapter/pkg/errors"
)

// Registry holds action descriptors in registration order and exposes them
// by kind.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]*Action
	order   []string
	logger  *slog.Logger
}

// NewRegistry creates an empty registry. A nil logger uses slog.Default().
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		actions: make(map[string]*Action),
		logger:  logger,
	}
}

// Register adds actions. Registration stops at the first invalid or
// duplicate descriptor.
func (r *Registry) Register(actions ...*Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range actions {
		if a == nil {
			return fmt.Errorf("cannot register nil action")
		}
		if err := a.Validate(); err != nil {
			return err
		}
		if _, exists := r.actions[a.Key]; exists {
			return fmt.Errorf("action %q already registered", a.Key)
		}
		if a.Kind == KindSearch && len(a.InputFields) == 0 {
			r.logger.Warn("search action has no input fields and will not be listed as a search",
				slog.String("action", a.Key))
		}

		r.actions[a.Key] = a
		r.order = append(r.order, a.Key)
	}
	return nil
}

// Get retrieves an action by key.
func (r *Registry) Get(key string) (*Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.actions[key]
	if !ok {
		return nil, &errors.NotFoundError{Resource: "action", ID: key}
	}
	return a, nil
}

// List returns every action in registration order.
func (r *Registry) List() []*Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Action, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.actions[key])
	}
	return out
}

// Keys returns every action key, sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	keys := append([]string(nil), r.order...)
	r.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// ByKind returns the actions tagged k, in registration order. Search actions
// without input fields are left out.
func (r *Registry) ByKind(k Kind) []*Action {
	var out []*Action
	for _, a := range r.List() {
		if a.Kind != k {
			continue
		}
		if k == KindSearch && len(a.InputFields) == 0 {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Searches returns the search collection.
func (r *Registry) Searches() []*Action { return r.ByKind(KindSearch) }

// Creates returns the create/update collection.
func (r *Registry) Creates() []*Action { return r.ByKind(KindCreate) }

// Triggers returns the trigger collection.
func (r *Registry) Triggers() []*Action { return r.ByKind(KindTrigger) }
