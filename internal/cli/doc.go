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

/*
Package cli provides the root command and shared configuration for the hrmless CLI.

This package creates the main Cobra command tree and handles global concerns like
version information, persistent flags, and error handling. Individual commands
are implemented in the internal/commands subpackages.

# Command Tree

	hrmless
	├── actions       list, schema
	├── perform       Perform one action
	├── auth          login, url, exchange, refresh, test, status, logout
	├── mcp           serve
	└── version       Show version

# Global Flags

	--verbose, -v    Enable debug logging
	--output, -o     text, json, or yaml
	--config         Path to config file
	--env-file       Path to a dotenv file
	--trace          Span exporter override

# Exit Codes

  - 0: Success
  - 1: General error
  - 2: Invalid usage or configuration
  - 3: Missing input
  - 4: Authentication required
  - 5: Record not found

Use HandleExitError for consistent error handling:

	if err := cmd.Execute(); err != nil {
	    cli.HandleExitError(err)
	}
*/
package cli
