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

package perform

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hrmless/adapter/internal/commands/shared"
	"github.com/hrmless/adapter/internal/schema"
)

// readInput loads the --json document. A nested document is flattened
// against fields.
func readInput(stdin io.Reader, path string, nested bool, fields []schema.Field) (map[string]any, error) {
	if path == "" {
		if nested {
			return nil, shared.NewInvalidUsageError("--nested requires --json", nil)
		}
		return map[string]any{}, nil
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, shared.NewInvalidUsageError("failed to read --json input", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, shared.NewInvalidUsageError("--json input must be a JSON object", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	if nested {
		return schema.Flatten(fields, "", doc), nil
	}
	return doc, nil
}

// applyPairs sets each key=value pair on input. Later pairs win.
func applyPairs(input map[string]any, pairs []string) error {
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return shared.NewInvalidUsageError(fmt.Sprintf("invalid --input %q (want key=value)", pair), nil)
		}
		input[key] = value
	}
	return nil
}
