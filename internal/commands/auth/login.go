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

package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	hrmauth "github.com/hrmless/adapter/internal/auth"
	"github.com/hrmless/adapter/internal/commands/shared"
	"github.com/hrmless/adapter/internal/log"
)

// DefaultLoginTimeout bounds the wait for the browser callback.
const DefaultLoginTimeout = 5 * time.Minute

func newLoginCommand() *cobra.Command {
	var (
		port    int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in through the browser",
		Long: `Log in with the authorization code flow.

A callback server listens on 127.0.0.1 and the authorize URL is printed.
Open it in a browser, sign in, and the code is exchanged for a session
which is stored in the keychain. The organization ID is looked up with
the new token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := shared.ParseFormat(shared.GetOutput())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rt, err := shared.NewRuntime(ctx, shared.OptionsFromFlags(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(context.WithoutCancel(ctx)) }()

			flow := loginFlow{
				addr:    net.JoinHostPort("127.0.0.1", strconv.Itoa(port)),
				timeout: timeout,
				stderr:  cmd.ErrOrStderr(),
			}
			session, err := flow.run(ctx, rt)
			if err != nil {
				return err
			}
			return shared.Render(cmd.OutOrStdout(), format, summary(session.AuthData(), session.Expiry))
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Callback port on 127.0.0.1 (0 picks a free port)")
	cmd.Flags().DurationVar(&timeout, "timeout", DefaultLoginTimeout, "How long to wait for the browser callback")
	return cmd
}

// loginFlow runs one interactive login.
type loginFlow struct {
	addr    string
	timeout time.Duration
	stderr  io.Writer

	// visit, when set, is called with the authorize URL in its own
	// goroutine.
	visit func(authorizeURL string)
}

func (f loginFlow) run(ctx context.Context, rt *shared.Runtime) (*hrmauth.Session, error) {
	state := hrmauth.NewState()
	verifier := hrmauth.NewVerifier()

	srv, err := hrmauth.NewLoginServer(f.addr, state, rt.Logger)
	if err != nil {
		return nil, shared.NewExecutionError("failed to start login callback server", err)
	}
	srv.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	redirectURI := srv.RedirectURI()
	authorizeURL := rt.Auth.AuthorizeURL(state, redirectURI, verifier)
	fmt.Fprintf(f.stderr, "Open this URL in your browser to log in:\n\n  %s\n\n", authorizeURL)
	if f.visit != nil {
		go f.visit(authorizeURL)
	}

	waitCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	spinner := shared.NewSpinnerTo(f.stderr)
	spinner.Start("Waiting for login")
	code, err := srv.Wait(waitCtx)
	spinner.Stop()
	if err != nil {
		return nil, shared.NewExecutionError("login did not complete", err)
	}

	session, err := rt.Auth.Exchange(ctx, code, redirectURI, verifier)
	if err != nil {
		return nil, shared.NewExecutionError("login failed", err)
	}
	if err := rt.Store.Save(ctx, session.AuthData()); err != nil {
		return nil, shared.NewExecutionError("failed to store session", err)
	}

	rt.Logger.InfoContext(ctx, "logged in",
		slog.String("org_id", session.OrgID),
		slog.String("access_token", log.SanitizeToken(session.AccessToken)))
	fmt.Fprintln(f.stderr, shared.RenderOK("Logged in as "+hrmauth.ConnectionLabel(session.AuthData())))
	return session, nil
}
