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

package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

const envPrefix = "HRMLESS_"

// EnvBackend provides read-only access to session values via environment
// variables. Key "access_token" is read from HRMLESS_ACCESS_TOKEN.
type EnvBackend struct {
	lookup func(string) (string, bool)
}

// NewEnvBackend creates a backend over the process environment.
func NewEnvBackend() *EnvBackend {
	return &EnvBackend{lookup: os.LookupEnv}
}

// Name returns the backend identifier.
func (e *EnvBackend) Name() string {
	return "env"
}

// Get retrieves a value from the environment.
func (e *EnvBackend) Get(_ context.Context, key string) (string, error) {
	name := EnvName(key)
	if value, ok := e.lookup(name); ok && value != "" {
		return value, nil
	}
	return "", fmt.Errorf("%w: %s not set", ErrSecretNotFound, name)
}

// Set returns ErrReadOnlyBackend.
func (e *EnvBackend) Set(context.Context, string, string) error {
	return ErrReadOnlyBackend
}

// Delete returns ErrReadOnlyBackend.
func (e *EnvBackend) Delete(context.Context, string) error {
	return ErrReadOnlyBackend
}

// Available returns true.
func (e *EnvBackend) Available() bool {
	return true
}

// ReadOnly returns true.
func (e *EnvBackend) ReadOnly() bool {
	return true
}

// EnvName returns the variable consulted for key.
func EnvName(key string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(key, "/", "_"))
}
