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

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Format is a result rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates an --output value. Empty selects text on a
// terminal and JSON otherwise.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "":
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return FormatText, nil
		}
		return FormatJSON, nil
	case FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", NewInvalidUsageError(fmt.Sprintf("unknown output format %q (want text, json, or yaml)", s), nil)
	}
}

// Render writes v to w in format.
func Render(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintln(w, renderText(v))
		return err
	}
}

// renderText prints objects as a two column table and sequences of
// objects as one table with a column per key.
func renderText(v any) string {
	switch val := v.(type) {
	case map[string]any:
		t := newTable().Headers("FIELD", "VALUE")
		for _, k := range sortedKeys(val) {
			t.Row(k, scalar(val[k]))
		}
		return t.String()
	case []any:
		if len(val) == 0 {
			return Muted.Render("(no results)")
		}
		columns := columnsOf(val)
		if len(columns) == 0 {
			lines := make([]string, 0, len(val))
			for _, item := range val {
				lines = append(lines, scalar(item))
			}
			return strings.Join(lines, "\n")
		}
		t := newTable().Headers(upper(columns)...)
		for _, item := range val {
			obj, _ := item.(map[string]any)
			row := make([]string, len(columns))
			for i, c := range columns {
				row[i] = scalar(obj[c])
			}
			t.Row(row...)
		}
		return t.String()
	default:
		return scalar(v)
	}
}

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(Muted).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return Bold.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// columnsOf returns the union of object keys in items, in first-seen
// order.
func columnsOf(items []any) []string {
	seen := map[string]bool{}
	var columns []string
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for _, k := range sortedKeys(obj) {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	return columns
}

func scalar(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func upper(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(s)
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
