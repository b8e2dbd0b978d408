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

// Package auth implements the commands that manage the stored HRMLESS
// session.
package auth

import (
	"time"

	"github.com/spf13/cobra"

	hrmauth "github.com/hrmless/adapter/internal/auth"
	"github.com/hrmless/adapter/internal/operation"
)

// NewCommand creates the auth command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the HRMLESS session",
		Long: `Log in to HRMLESS and manage the stored session.

The session is kept in the system keychain. HRMLESS_ACCESS_TOKEN,
HRMLESS_REFRESH_TOKEN and HRMLESS_ORG_ID take precedence when set, which
is useful in CI where no keychain is available.`,
	}

	cmd.AddCommand(
		newLoginCommand(),
		newURLCommand(),
		newExchangeCommand(),
		newRefreshCommand(),
		newTestCommand(),
		newStatusCommand(),
		newLogoutCommand(),
	)
	return cmd
}

// summary describes a session without exposing its tokens.
func summary(data operation.AuthData, expiry time.Time) map[string]any {
	out := map[string]any{
		"connection":    hrmauth.ConnectionLabel(data),
		"org_id":        data.OrgID,
		"refresh_token": data.RefreshToken != "",
	}
	if !expiry.IsZero() {
		out["expires_at"] = expiry.UTC().Format(time.RFC3339)
	}
	return out
}
