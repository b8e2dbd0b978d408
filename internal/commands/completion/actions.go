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

package completion

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hrmless/adapter/internal/integration/hrmless"
	"github.com/hrmless/adapter/internal/operation"
	"github.com/hrmless/adapter/internal/schema"
)

// CompletionFunc is the signature cobra expects for argument and flag
// completion.
type CompletionFunc func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective)

// SafeCompletionWrapper runs fn and turns a panic or nil result into an
// empty completion list.
func SafeCompletionWrapper(fn func() ([]string, cobra.ShellCompDirective)) (results []string, directive cobra.ShellCompDirective) {
	results = []string{}
	directive = cobra.ShellCompDirectiveNoFileComp

	defer func() {
		if r := recover(); r != nil {
			results = []string{}
			directive = cobra.ShellCompDirectiveNoFileComp
		}
	}()

	results, directive = fn()
	if results == nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}
	return results, directive
}

// CompleteActionKeys completes the first positional argument with action
// keys and their labels. Hidden and maintenance actions are included.
func CompleteActionKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		var out []string
		for _, a := range hrmless.AllActions() {
			if strings.HasPrefix(a.Key, toComplete) {
				out = append(out, a.Key+"\t"+a.Display.Label)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})
}

// CompleteInputKeys completes --input with "key=" for each scalar input
// field of the action named by the first argument. Fields already given
// are left out.
func CompleteInputKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		action := findAction(args[0])
		if action == nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		given := map[string]bool{}
		if cmd != nil {
			if values, err := cmd.Flags().GetStringArray("input"); err == nil {
				for _, v := range values {
					key, _, _ := strings.Cut(v, "=")
					given[key] = true
				}
			}
		}

		var out []string
		for _, f := range action.InputFields {
			if f.IsGroup() || given[f.Key] || !strings.HasPrefix(f.Key, toComplete) {
				continue
			}
			out = append(out, f.Key+"=\t"+describe(f))
		}
		return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
	})
}

// CompleteKinds completes --kind.
func CompleteKinds(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		descriptions := map[operation.Kind]string{
			operation.KindSearch:  "Find existing records",
			operation.KindCreate:  "Create or update records",
			operation.KindTrigger: "Dropdown sources",
		}
		out := make([]string, 0, len(operation.Kinds))
		for _, k := range operation.Kinds {
			out = append(out, string(k)+"\t"+descriptions[k])
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})
}

// CompleteOutputFormats completes --output.
func CompleteOutputFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		return []string{
			"text\tTables for humans",
			"json\tIndented JSON",
			"yaml\tYAML",
		}, cobra.ShellCompDirectiveNoFileComp
	})
}

// CompleteTraceExporters completes --trace.
func CompleteTraceExporters(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		return []string{
			"none\tNo spans",
			"console\tPrint spans to stderr",
			"otlp-http\tExport to OTEL_EXPORTER_OTLP_ENDPOINT",
		}, cobra.ShellCompDirectiveNoFileComp
	})
}

// Values returns a completion function offering the given fixed values.
func Values(values ...string) CompletionFunc {
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
			return sorted, cobra.ShellCompDirectiveNoFileComp
		})
	}
}

func findAction(key string) *operation.Action {
	for _, a := range hrmless.AllActions() {
		if a.Key == key {
			return a
		}
	}
	return nil
}

func describe(f schema.Field) string {
	desc := f.Label
	if desc == "" {
		desc = f.Key
	}
	if f.Required {
		desc += " (required)"
	}
	return desc
}
