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

package tracing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName is the tracer scope used for adapter spans.
const InstrumentationName = "github.com/hrmless/adapter"

// Tracer returns the adapter tracer from the global provider. Without a
// configured provider this is a no-op tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// StartSpan starts a span, recovering from exporter panics so tracing never
// breaks an action.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (spanCtx context.Context, span trace.Span) {
	spanCtx, span = ctx, trace.SpanFromContext(ctx)
	if tracer == nil {
		return spanCtx, span
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Warn("panic during span start", "error", r, "span_name", name)
			spanCtx, span = ctx, trace.SpanFromContext(ctx)
		}
	}()

	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err (if any) on span and ends it.
func EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Warn("panic during span end", "error", r)
		}
	}()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
