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

package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hrmless/adapter/internal/commands/completion"
	"github.com/hrmless/adapter/internal/commands/shared"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for hrmless
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hrmless",
		Short: "hrmless - HRMLESS recruiting API adapter",
		Long: `hrmless performs HRMLESS recruiting actions from the command line and
exposes them to AI assistants over MCP.

Run 'hrmless auth login' to connect an account.
Run 'hrmless actions list' to see what can be performed.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	verbose, output, config, envFile, trace := shared.RegisterFlagPointers()

	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVarP(output, "output", "o", "", "Output format: text, json, or yaml (default: text on a terminal, json otherwise)")
	cmd.PersistentFlags().StringVar(config, "config", "", "Path to config file (default: ~/.config/hrmless/config.yaml)")
	cmd.PersistentFlags().StringVar(envFile, "env-file", "", "Path to a dotenv file (default: ./.env when present)")
	cmd.PersistentFlags().StringVar(trace, "trace", "", "Span exporter override: none, console, or otlp-http")

	cmd.SetGlobalNormalizationFunc(normalizeFlagName)

	_ = cmd.RegisterFlagCompletionFunc("output", completion.CompleteOutputFormats)
	_ = cmd.RegisterFlagCompletionFunc("trace", completion.CompleteTraceExporters)

	return cmd
}

// normalizeFlagName accepts underscores in flag names, so --env_file and
// --redirect_uri work like --env-file and --redirect-uri.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
