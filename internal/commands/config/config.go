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

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hrmless/adapter/internal/commands/shared"
	"github.com/hrmless/adapter/internal/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and manage configuration",
		Long: `View and manage hrmless configuration.

Settings come from, lowest precedence first: built-in defaults, the
config file, a dotenv file, and the environment.

Subcommands:
  show     - Display the effective configuration
  path     - Show config file location
  init     - Write a config file with the defaults
  validate - Check the effective configuration`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigPathCommand())
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigValidateCommand())

	// If no subcommand provided, default to 'show'
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runConfigShow(cmd, args)
	}

	return cmd
}

// newConfigShowCommand creates the 'config show' subcommand
func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long: `Display the configuration after defaults, the config file, the dotenv
file and the environment have been applied. The configuration holds no
secrets; the session lives in the keychain.`,
		Args: cobra.NoArgs,
		RunE: runConfigShow,
	}
}

// newConfigPathCommand creates the 'config path' subcommand
func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file location",
		Long:  `Display the path to the configuration file.`,
		Args:  cobra.NoArgs,
		RunE:  runConfigPath,
	}
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return shared.NewInvalidUsageError(fmt.Sprintf("%s already exists (use --force to overwrite)", path), nil)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return shared.NewExecutionError("failed to check config file", err)
			}

			if err := config.Default().Write(path); err != nil {
				return shared.NewExecutionError("failed to write config file", err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), shared.RenderOK("Wrote "+path))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the effective configuration",
		Long: `Load and validate the configuration. Exits with status 2 when it is
invalid.`,
		Example: `  # Validate configuration
  hrmless config validate

  # Validate a specific file
  hrmless config validate --config ./hrmless.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := shared.ParseFormat(shared.GetOutput())
			if err != nil {
				return err
			}
			if _, err := load(); err != nil {
				return err
			}
			return shared.Render(cmd.OutOrStdout(), format, map[string]any{"valid": true})
		},
	}
}

// runConfigShow displays the effective configuration
func runConfigShow(cmd *cobra.Command, _ []string) error {
	format, err := shared.ParseFormat(shared.GetOutput())
	if err != nil {
		return err
	}
	cfg, err := load()
	if err != nil {
		return err
	}
	view, err := asMap(cfg)
	if err != nil {
		return err
	}
	return shared.Render(cmd.OutOrStdout(), format, view)
}

// runConfigPath displays the config file path
func runConfigPath(cmd *cobra.Command, _ []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	cmd.Println(path)
	return nil
}

func configPath() (string, error) {
	if path := shared.GetConfigPath(); path != "" {
		return path, nil
	}
	path, err := config.ConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to determine config path: %w", err)
	}
	return path, nil
}

func load() (*config.Config, error) {
	return config.LoadWith(config.Options{
		ConfigPath: shared.GetConfigPath(),
		EnvFile:    shared.GetEnvFile(),
	})
}

// asMap converts cfg to its YAML field names so every output format uses
// the same keys.
func asMap(cfg *config.Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return out, nil
}
