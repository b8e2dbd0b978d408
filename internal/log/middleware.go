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

package log

import (
	"context"
	"log/slog"
	"time"
)

// Invocation describes one host-initiated action call for logging purposes.
type Invocation struct {
	// Action is the action key being invoked.
	Action string

	// Source identifies the host surface (e.g. "cli", "mcp").
	Source string

	// CorrelationID is the correlation ID for tracing the invocation.
	CorrelationID string

	// Metadata contains additional invocation metadata.
	Metadata map[string]any
}

// Outcome describes how an invocation finished.
type Outcome struct {
	Success    bool
	Error      string
	DurationMs int64
}

// LogInvocation logs the start of an action call.
func LogInvocation(ctx context.Context, logger *slog.Logger, inv *Invocation) {
	logger.InfoContext(ctx, "action invoked", inv.attrs("action_invoked")...)
}

// LogOutcome logs the completion of an action call.
func LogOutcome(ctx context.Context, logger *slog.Logger, inv *Invocation, out *Outcome) {
	attrs := inv.attrs("action_completed")
	attrs = append(attrs, "success", out.Success, DurationKey, out.DurationMs)
	if out.Error != "" {
		attrs = append(attrs, "error", out.Error)
	}

	level := slog.LevelInfo
	message := "action completed"
	if !out.Success {
		level = slog.LevelError
		message = "action failed"
	}

	logger.Log(ctx, level, message, attrs...)
}

func (inv *Invocation) attrs(event string) []any {
	attrs := []any{
		EventKey, event,
		ActionKey, inv.Action,
		"source", inv.Source,
	}
	if inv.CorrelationID != "" {
		attrs = append(attrs, "correlation_id", inv.CorrelationID)
	}
	for k, v := range inv.Metadata {
		attrs = append(attrs, k, v)
	}
	return attrs
}

// InvocationMiddleware wraps action calls with request/outcome logging.
type InvocationMiddleware struct {
	logger *slog.Logger
}

// NewInvocationMiddleware creates a new invocation logging middleware.
func NewInvocationMiddleware(logger *slog.Logger) *InvocationMiddleware {
	return &InvocationMiddleware{logger: logger}
}

// Handler logs inv, runs handler, and logs the outcome.
func (m *InvocationMiddleware) Handler(ctx context.Context, inv *Invocation, handler func(context.Context) error) error {
	start := time.Now()
	LogInvocation(ctx, m.logger, inv)

	err := handler(ctx)

	out := &Outcome{
		Success:    err == nil,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		out.Error = err.Error()
	}
	LogOutcome(ctx, m.logger, inv, out)

	return err
}
