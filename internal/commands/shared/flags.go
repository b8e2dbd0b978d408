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

var (
	verboseFlag bool
	outputFlag  string
	configFlag  string
	envFileFlag string
	traceFlag   string

	// Build-time version information
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// RegisterFlagPointers returns pointers to the global flag values so the
// root command can bind them.
func RegisterFlagPointers() (verbose *bool, output, config, envFile, trace *string) {
	return &verboseFlag, &outputFlag, &configFlag, &envFileFlag, &traceFlag
}

// SetVersion records build information.
func SetVersion(v, c, b string) {
	version = v
	commit = c
	buildDate = b
}

// GetVerbose reports whether --verbose was set.
func GetVerbose() bool {
	return verboseFlag
}

// GetOutput returns the --output value.
func GetOutput() string {
	return outputFlag
}

// GetConfigPath returns the --config value.
func GetConfigPath() string {
	return configFlag
}

// GetEnvFile returns the --env-file value.
func GetEnvFile() string {
	return envFileFlag
}

// GetTrace returns the --trace exporter override.
func GetTrace() string {
	return traceFlag
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return version, commit, buildDate
}

// ResetFlagsForTest clears the global flag values.
func ResetFlagsForTest() {
	verboseFlag = false
	outputFlag = ""
	configFlag = ""
	envFileFlag = ""
	traceFlag = ""
}
