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


package main

import (
	"github.com/hrmless/adapter/internal/cli"
	"github.com/hrmless/adapter/internal/commands/actions"
	"github.com/hrmless/adapter/internal/commands/auth"
	"github.com/hrmless/adapter/internal/commands/completion"
	"github.com/hrmless/adapter/internal/commands/config"
	"github.com/hrmless/adapter/internal/commands/mcpserver"
	"github.com/hrmless/adapter/internal/commands/perform"
	versioncmd "github.com/hrmless/adapter/internal/commands/version"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// Set version information from build-time ldflags
	cli.SetVersion(version, commit, buildDate)

	rootCmd := cli.NewRootCommand()

	// Action commands
	rootCmd.AddCommand(actions.NewCommand())
	rootCmd.AddCommand(perform.NewCommand())

	// Session
	rootCmd.AddCommand(auth.NewCommand())

	// MCP
	rootCmd.AddCommand(mcpserver.NewCommand())

	// Configuration and diagnostics
	rootCmd.AddCommand(config.NewConfigCommand())
	rootCmd.AddCommand(completion.NewCommand())
	rootCmd.AddCommand(versioncmd.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		cli.HandleExitError(err)
	}
}
