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
	"time"

	"github.com/spf13/cobra"

	hrmauth "github.com/hrmless/adapter/internal/auth"
	"github.com/hrmless/adapter/internal/commands/shared"
	"github.com/hrmless/adapter/internal/log"
	"github.com/hrmless/adapter/internal/operation"
)

// withRuntime parses the output format and opens a runtime for fn.
func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *shared.Runtime, format shared.Format) error) error {
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
	return fn(ctx, rt, format)
}

func newURLCommand() *cobra.Command {
	var redirectURI string

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print an authorize URL for a manual login",
		Long: `Print an authorize URL together with the state and PKCE code
verifier it was built with. Complete the login elsewhere and pass the
returned code to 'hrmless auth exchange' with the same redirect URI and
verifier.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if redirectURI == "" {
				return shared.NewInvalidUsageError("--redirect-uri is required", nil)
			}
			return withRuntime(cmd, func(_ context.Context, rt *shared.Runtime, format shared.Format) error {
				state := hrmauth.NewState()
				verifier := hrmauth.NewVerifier()
				return shared.Render(cmd.OutOrStdout(), format, map[string]any{
					"authorize_url": rt.Auth.AuthorizeURL(state, redirectURI, verifier),
					"state":         state,
					"code_verifier": verifier,
					"redirect_uri":  redirectURI,
				})
			})
		},
	}

	cmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "Redirect URI registered for the client")
	return cmd
}

func newExchangeCommand() *cobra.Command {
	var code, redirectURI, verifier string

	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Exchange an authorization code for a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, req := range []struct{ flag, value string }{
				{"code", code},
				{"redirect-uri", redirectURI},
				{"verifier", verifier},
			} {
				if req.value == "" {
					return shared.NewInvalidUsageError("--"+req.flag+" is required", nil)
				}
			}
			return withRuntime(cmd, func(ctx context.Context, rt *shared.Runtime, format shared.Format) error {
				session, err := rt.Auth.Exchange(ctx, code, redirectURI, verifier)
				if err != nil {
					return shared.NewExecutionError("code exchange failed", err)
				}
				if err := rt.Store.Save(ctx, session.AuthData()); err != nil {
					return shared.NewExecutionError("failed to store session", err)
				}
				return shared.Render(cmd.OutOrStdout(), format, summary(session.AuthData(), session.Expiry))
			})
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the callback")
	cmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "Redirect URI used for the authorize request")
	cmd.Flags().StringVar(&verifier, "verifier", "", "PKCE code verifier printed by 'auth url'")
	return cmd
}

func newRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *shared.Runtime, format shared.Format) error {
				data, err := rt.Refresh(ctx)
				if err != nil {
					return err
				}
				var expiry time.Time
				if info, err := hrmauth.Inspect(data.AccessToken); err == nil {
					expiry = info.ExpiresAt
				}
				return shared.Render(cmd.OutOrStdout(), format, summary(data, expiry))
			})
		},
	}
}

func newTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Verify the stored session against the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *shared.Runtime, format shared.Format) error {
				data, err := rt.Session(ctx)
				if err != nil {
					return err
				}
				body, err := rt.Auth.Test(ctx, data)
				if err != nil {
					return err
				}
				return shared.Render(cmd.OutOrStdout(), format, body)
			})
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Long: `Show where the stored session is in its lifecycle. Tokens are
never printed in full. No request is sent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *shared.Runtime, format shared.Format) error {
				data, err := rt.Store.Load(ctx)
				if err != nil {
					return shared.NewExecutionError("failed to read stored session", err)
				}
				return shared.Render(cmd.OutOrStdout(), format, status(data, time.Now()))
			})
		},
	}
}

// status describes data at now.
func status(data operation.AuthData, now time.Time) map[string]any {
	out := map[string]any{"state": string(hrmauth.SessionState(data, now))}
	if !data.HasToken() {
		return out
	}
	out["access_token"] = log.SanitizeToken(data.AccessToken)
	out["refresh_token"] = data.RefreshToken != ""
	out["org_id"] = data.OrgID
	if info, err := hrmauth.Inspect(data.AccessToken); err == nil {
		if info.Subject != "" {
			out["subject"] = info.Subject
		}
		if info.Email != "" {
			out["email"] = info.Email
		}
		if !info.ExpiresAt.IsZero() {
			out["expires_at"] = info.ExpiresAt.UTC().Format(time.RFC3339)
		}
	}
	return out
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *shared.Runtime, _ shared.Format) error {
				if err := rt.Store.Delete(ctx); err != nil {
					return shared.NewExecutionError("failed to remove stored session", err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), shared.RenderOK("Logged out"))
				return nil
			})
		},
	}
}
