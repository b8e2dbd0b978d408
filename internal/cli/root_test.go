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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrmless/adapter/internal/commands/shared"
)

func TestNewRootCommand_Flags(t *testing.T) {
	t.Cleanup(shared.ResetFlagsForTest)
	cmd := NewRootCommand()

	for _, name := range []string{"verbose", "output", "config", "env-file", "trace"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}

	cmd.SetArgs([]string{"-v", "-o", "yaml", "--config", "/tmp/c.yaml", "--env-file", "/tmp/.env", "--trace", "console"})
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())

	assert.True(t, shared.GetVerbose())
	assert.Equal(t, "yaml", shared.GetOutput())
	assert.Equal(t, "/tmp/c.yaml", shared.GetConfigPath())
	assert.Equal(t, "/tmp/.env", shared.GetEnvFile())
	assert.Equal(t, "console", shared.GetTrace())
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3", "abc", "today")
	v, c, b := GetVersion()
	assert.Equal(t, "1.2.3", v)
	assert.Equal(t, "abc", c)
	assert.Equal(t, "today", b)
}

func TestNewRootCommand_UnderscoreFlags(t *testing.T) {
	t.Cleanup(shared.ResetFlagsForTest)
	cmd := NewRootCommand()

	cmd.SetArgs([]string{"--env_file", "/tmp/.env"})
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "/tmp/.env", shared.GetEnvFile())
}
