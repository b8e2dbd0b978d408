// Package operation defines actions and runs them.
//
// An Action pairs field schemas with an Endpoint: an HTTP method, a path
// template, payload mappers, a response transform, and a result Shape.
// A Performer turns an Action plus a Bundle into exactly one outbound
// request and maps the response into the host's result shape:
//
//	performer, err := operation.NewPerformer(operation.PerformerConfig{
//	    BaseURL:   cfg.BaseURL,
//	    Transport: tr,
//	    Before:    []operation.BeforeRequest{auth.IncludeBearerToken},
//	})
//	result, err := performer.Perform(ctx, action, bundle)
//
// The Registry groups actions into the search, create, and trigger
// collections a host exposes. Every action carries its Kind from
// construction; there is no implicit default bucket.
//
// Nothing in this package retries, caches, or paginates.
package operation
