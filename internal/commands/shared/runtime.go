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

package shared

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hrmless/adapter/internal/auth"
	"github.com/hrmless/adapter/internal/config"
	"github.com/hrmless/adapter/internal/integration/hrmless"
	"github.com/hrmless/adapter/internal/log"
	"github.com/hrmless/adapter/internal/operation"
	"github.com/hrmless/adapter/internal/operation/transport"
	"github.com/hrmless/adapter/internal/secrets"
	"github.com/hrmless/adapter/internal/tracing"
	pkgerrors "github.com/hrmless/adapter/pkg/errors"
	"github.com/hrmless/adapter/pkg/httpclient"
)

// RuntimeOptions select the sources a Runtime is built from.
type RuntimeOptions struct {
	ConfigPath string
	EnvFile    string
	Verbose    bool

	// Trace overrides the configured span exporter.
	Trace string

	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// Backends default to the environment followed by the system keychain.
	Backends []secrets.Backend

	// Stderr receives logs and console spans. Default: os.Stderr.
	Stderr io.Writer
}

// OptionsFromFlags returns options for the global flag values.
func OptionsFromFlags(stderr io.Writer) RuntimeOptions {
	return RuntimeOptions{
		ConfigPath: GetConfigPath(),
		EnvFile:    GetEnvFile(),
		Verbose:    GetVerbose(),
		Trace:      GetTrace(),
		Stderr:     stderr,
	}
}

// Runtime is the wiring shared by commands: configuration, logging,
// tracing, session storage, and the clients built from them.
type Runtime struct {
	Config     *config.Config
	Logger     *slog.Logger
	Store      *secrets.Store
	Auth       *auth.Client
	HTTP       *http.Client
	Prometheus *prometheus.Registry
	Metrics    *operation.Metrics

	shutdownTracing tracing.ShutdownFunc
}

// NewRuntime loads configuration and builds the shared clients. Close
// flushes spans.
func NewRuntime(ctx context.Context, opts RuntimeOptions) (*Runtime, error) {
	cfg, err := config.LoadWith(config.Options{
		ConfigPath: opts.ConfigPath,
		EnvFile:    opts.EnvFile,
		LookupEnv:  opts.LookupEnv,
	})
	if err != nil {
		return nil, err
	}
	if opts.Trace != "" {
		cfg.Tracing.Exporter = opts.Trace
		if err := cfg.Validate(); err != nil {
			return nil, &pkgerrors.ConfigError{Key: "trace", Reason: "invalid --trace value", Cause: err}
		}
	}

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	logCfg := cfg.LoggerConfig()
	logCfg.Output = stderr
	if opts.Verbose {
		logCfg.Level = "debug"
	}
	logger := log.New(logCfg)

	traceCfg := cfg.TracingSetup(version)
	traceCfg.Writer = stderr
	shutdown, err := tracing.Setup(ctx, traceCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.API.Timeout
	httpCfg.UserAgent = cfg.API.UserAgent
	httpCfg.Logger = logger
	client, err := httpclient.New(httpCfg)
	if err != nil {
		return nil, &pkgerrors.ConfigError{Key: "http", Reason: "invalid HTTP client settings", Cause: err}
	}

	authClient, err := auth.New(auth.Config{
		BaseURL:    cfg.API.BaseURL,
		LoginURL:   cfg.API.LoginURL,
		Realm:      cfg.API.Realm,
		ClientID:   cfg.API.ClientID,
		HTTPClient: client,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	backends := opts.Backends
	if len(backends) == 0 {
		backends = []secrets.Backend{secrets.NewEnvBackend(), secrets.NewKeychainBackend()}
	}

	promReg := prometheus.NewRegistry()
	return &Runtime{
		Config:          cfg,
		Logger:          logger,
		Store:           secrets.NewStore(backends...).WithLogger(logger),
		Auth:            authClient,
		HTTP:            client,
		Prometheus:      promReg,
		Metrics:         operation.NewMetrics(promReg),
		shutdownTracing: shutdown,
	}, nil
}

// Close flushes and stops tracing.
func (r *Runtime) Close(ctx context.Context) error {
	if r.shutdownTracing == nil {
		return nil
	}
	return r.shutdownTracing(ctx)
}

// Registry returns the action catalog, including maintenance actions when
// all is set.
func (r *Runtime) Registry(all bool) (*operation.Registry, error) {
	return hrmless.NewRegistry(r.Logger, all)
}

// Performer builds a performer that sends the bearer token on every
// request.
func (r *Runtime) Performer() (*operation.Performer, error) {
	tr, err := transport.NewHTTPTransport(&transport.HTTPTransportConfig{Client: r.HTTP})
	if err != nil {
		return nil, err
	}
	return operation.NewPerformer(operation.PerformerConfig{
		BaseURL:   r.Config.API.BaseURL,
		Transport: tr,
		Before:    []operation.BeforeRequest{auth.IncludeBearerToken},
		Logger:    r.Logger,
		Metrics:   r.Metrics,
	})
}

// Session loads the stored session. An expired access token is refreshed
// and the new pair is stored before returning.
func (r *Runtime) Session(ctx context.Context) (operation.AuthData, error) {
	data, err := r.Store.Load(ctx)
	if err != nil {
		return operation.AuthData{}, &pkgerrors.SessionError{Reason: "failed to read stored session", Cause: err}
	}

	switch auth.SessionState(data, time.Now()) {
	case auth.StateUnauthenticated:
		return operation.AuthData{}, &pkgerrors.SessionError{Reason: "no stored session"}
	case auth.StateExpired:
		return r.refresh(ctx, data)
	default:
		return data, nil
	}
}

// Refresh trades the stored refresh token for a new pair and stores it.
func (r *Runtime) Refresh(ctx context.Context) (operation.AuthData, error) {
	data, err := r.Store.Load(ctx)
	if err != nil {
		return operation.AuthData{}, &pkgerrors.SessionError{Reason: "failed to read stored session", Cause: err}
	}
	return r.refresh(ctx, data)
}

func (r *Runtime) refresh(ctx context.Context, data operation.AuthData) (operation.AuthData, error) {
	if data.RefreshToken == "" {
		return operation.AuthData{}, &pkgerrors.SessionError{Reason: "access token expired and no refresh token is stored"}
	}

	r.Logger.InfoContext(ctx, "refreshing access token")
	session, err := r.Auth.Refresh(ctx, data.RefreshToken)
	if err != nil {
		return operation.AuthData{}, &pkgerrors.SessionError{Reason: "token refresh failed", Cause: err}
	}

	next := session.AuthData()
	if next.OrgID == "" {
		next.OrgID = data.OrgID
	}
	if next.RefreshToken == "" {
		next.RefreshToken = data.RefreshToken
	}
	if err := r.Store.Save(ctx, next); err != nil {
		r.Logger.WarnContext(ctx, "failed to store refreshed session", log.Error(err))
	}
	return next, nil
}
