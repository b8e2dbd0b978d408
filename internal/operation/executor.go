package operation

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hrmless/adapter/internal/jq"
	"github.com/hrmless/adapter/internal/log"
	"github.com/hrmless/adapter/internal/operation/transport"
	"github.com/hrmless/adapter/internal/tracing"
	"github.com/hrmless/adapter/pkg/errors"
)

// SpanName is the name of the span wrapping each perform.
const SpanName = "hrmless.perform"

// orgIDParameter is the path placeholder resolved from AuthData.
const orgIDParameter = "org_id"

// BeforeRequest runs after the request is built and before it is sent.
// Hooks may modify req. A returned error aborts the perform.
type BeforeRequest func(ctx context.Context, req *transport.Request, bundle Bundle) error

// PerformerConfig configures a Performer.
type PerformerConfig struct {
	// BaseURL is the API root, e.g. https://api.hrmless.com. Required.
	BaseURL string

	// Transport sends requests. Required.
	Transport transport.Transport

	// Before hooks run in order on every request.
	Before []BeforeRequest

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics may be nil to disable metrics.
	Metrics *Metrics

	// Tracer defaults to the global adapter tracer.
	Tracer trace.Tracer

	// JQ defaults to an executor with default limits.
	JQ *jq.Executor
}

// Performer executes actions. It holds no per-invocation state and is safe
// for concurrent use.
type Performer struct {
	baseURL   string
	transport transport.Transport
	before    []BeforeRequest
	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer
	jq        *jq.Executor
}

// NewPerformer validates cfg and creates a Performer.
func NewPerformer(cfg PerformerConfig) (*Performer, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &errors.ConfigError{
			Key:    "base_url",
			Reason: fmt.Sprintf("must be an absolute http(s) URL, got %q", cfg.BaseURL),
			Cause:  err,
		}
	}
	if cfg.Transport == nil {
		return nil, &errors.ConfigError{Key: "transport", Reason: "is required"}
	}

	p := &Performer{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		transport: cfg.Transport,
		before:    append([]BeforeRequest(nil), cfg.Before...),
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		tracer:    cfg.Tracer,
		jq:        cfg.JQ,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = log.WithComponent(p.logger, "performer")
	if p.tracer == nil {
		p.tracer = tracing.Tracer()
	}
	if p.jq == nil {
		p.jq = jq.NewExecutor(jq.DefaultTimeout, jq.DefaultMaxInputSize)
	}
	return p, nil
}

// Perform runs action against bundle: one request, status mapping,
// transform, and result shape.
func (p *Performer) Perform(ctx context.Context, action *Action, bundle Bundle) (result any, err error) {
	if action == nil {
		return nil, fmt.Errorf("action is required")
	}

	start := time.Now()
	ctx, cid := tracing.Ensure(ctx)
	logger := log.WithAction(log.WithCorrelationID(p.logger, cid.String()), action.Key, string(action.Kind))

	ctx, span := tracing.StartSpan(ctx, p.tracer, SpanName,
		attribute.String("hrmless.action", action.Key),
		attribute.String("hrmless.kind", string(action.Kind)),
		attribute.String("http.request.method", action.Endpoint.Method),
	)
	defer func() {
		elapsed := time.Since(start)
		tracing.EndSpan(span, err)
		p.metrics.Observe(action.Key, action.Kind, err, elapsed)
		if err != nil {
			logger.DebugContext(ctx, "perform failed",
				log.Error(err),
				slog.String("outcome", Outcome(err)),
				slog.Int64(log.DurationKey, elapsed.Milliseconds()))
			return
		}
		logger.DebugContext(ctx, "perform completed", slog.Int64(log.DurationKey, elapsed.Milliseconds()))
	}()

	req, err := p.BuildRequest(action, bundle)
	if err != nil {
		return nil, err
	}
	for _, hook := range p.before {
		if err = hook(ctx, req, bundle); err != nil {
			return nil, err
		}
	}

	resp, err := p.transport.Execute(ctx, req)
	if err != nil {
		return nil, NewConnectionError(action.Key, err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	log.Trace(ctx, logger, "response received",
		slog.Int(log.StatusKey, resp.StatusCode),
		slog.String("body", string(resp.Body)))

	return p.interpret(ctx, action, req, resp)
}

// BuildRequest resolves the endpoint of action against bundle without
// sending anything.
func (p *Performer) BuildRequest(action *Action, bundle Bundle) (*transport.Request, error) {
	ep := action.Endpoint

	target, err := p.resolveURL(action, bundle)
	if err != nil {
		return nil, err
	}

	opts := transport.Options{
		Method:  ep.Method,
		URL:     target,
		Headers: defaultHeaders(ep.Method),
	}
	if ep.Params != nil {
		opts.Params = ep.Params(bundle)
	}
	if ep.Body != nil {
		opts.Body = ep.Body(bundle)
	}

	req, err := transport.NewRequest(opts)
	if err != nil {
		return nil, NewValidationError(action.Key, err.Error())
	}
	req.Metadata["action"] = action.Key
	return req, nil
}

func (p *Performer) resolveURL(action *Action, bundle Bundle) (string, error) {
	path := action.Endpoint.Path
	for _, name := range action.PathParameters() {
		var value string
		if name == orgIDParameter {
			value = bundle.AuthData.OrgID
		} else if v, ok := bundle.Value(name); ok && v != nil {
			value = fmt.Sprint(v)
		}
		value = strings.TrimSpace(value)

		if value == "" {
			verr := NewValidationError(action.Key, fmt.Sprintf("missing required path parameter %q", name))
			if name == orgIDParameter {
				verr.SuggestText = "The session has no organization ID; run 'hrmless auth login' again"
			}
			return "", verr
		}
		if strings.Contains(value, "..") || strings.ContainsAny(value, "/\\") {
			return "", NewValidationError(action.Key, fmt.Sprintf("path parameter %q contains invalid characters", name))
		}

		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}
	return p.baseURL + path, nil
}

func (p *Performer) interpret(ctx context.Context, action *Action, req *transport.Request, resp *transport.Response) (any, error) {
	ep := action.Endpoint

	switch {
	case resp.StatusCode == http.StatusNotFound && ep.NotFoundMessage != "":
		return nil, NewNotFoundError(action.Key, ep.NotFoundMessage)
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, NewUnauthorizedError(action.Key)
	}
	if terr := resp.ThrowForStatus(); terr != nil {
		herr := NewHTTPError(action.Key, req.Method, req.URL, resp.StatusCode, resp.Body)
		if id, ok := resp.Metadata[transport.MetadataRequestID].(string); ok {
			herr.RequestID = id
		}
		return nil, herr
	}

	if ep.EmptyAsSuccess && (resp.StatusCode == http.StatusNoContent || resp.IsEmpty()) {
		return successResult(), nil
	}

	var data any
	if !resp.IsEmpty() {
		decoded, err := resp.JSON()
		if err != nil {
			return nil, NewTransformError(action.Key, err)
		}
		data = decoded
	}

	if ep.Transform != "" {
		transformed, err := p.jq.Execute(ctx, ep.Transform, data)
		if err != nil {
			return nil, NewTransformError(action.Key, err)
		}
		data = transformed
	}

	out, err := applyShape(ctx, p.jq, ep.Shape, data)
	if err != nil {
		return nil, NewTransformError(action.Key, err)
	}
	if out == nil && ep.EmptyAsSuccess {
		return successResult(), nil
	}
	return out, nil
}

func successResult() map[string]any {
	return map[string]any{"success": true}
}

// defaultHeaders returns the Content-Type and Accept headers for method.
// Empty values are not sent.
func defaultHeaders(method string) map[string]string {
	switch method {
	case http.MethodGet:
		return map[string]string{"Content-Type": "", "Accept": "application/json"}
	case http.MethodDelete:
		return map[string]string{"Content-Type": "", "Accept": ""}
	default:
		return map[string]string{"Content-Type": "application/json", "Accept": "application/json"}
	}
}
