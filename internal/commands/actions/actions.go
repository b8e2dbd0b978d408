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

// Package actions implements the commands that describe the action catalog.
package actions

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hrmless/adapter/internal/commands/completion"
	"github.com/hrmless/adapter/internal/commands/shared"
	"github.com/hrmless/adapter/internal/integration/hrmless"
	"github.com/hrmless/adapter/internal/log"
	"github.com/hrmless/adapter/internal/operation"
	"github.com/hrmless/adapter/internal/schema"
)

// NewCommand creates the actions command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "Inspect the HRMLESS action catalog",
		Long: `Inspect the actions the adapter can perform.

Actions are grouped by kind: searches find records, creates create or
update them, and triggers feed the dropdowns of other actions.`,
	}
	cmd.AddCommand(newListCommand(), newSchemaCommand())
	return cmd
}

// Summary is one row of the action list.
type Summary struct {
	Key         string `json:"key" yaml:"key"`
	Kind        string `json:"kind" yaml:"kind"`
	Noun        string `json:"noun" yaml:"noun"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
	Hidden      bool   `json:"hidden" yaml:"hidden"`
}

func newListCommand() *cobra.Command {
	var (
		all  bool
		kind string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List actions",
		Example: `  hrmless actions list
  hrmless actions list --kind search
  hrmless actions list --all --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := shared.ParseFormat(shared.GetOutput())
			if err != nil {
				return err
			}
			reg, err := hrmless.NewRegistry(log.Discard(), all)
			if err != nil {
				return err
			}

			var selected []*operation.Action
			if kind == "" {
				for _, k := range operation.Kinds {
					selected = append(selected, reg.ByKind(k)...)
				}
			} else {
				k, err := operation.ParseKind(kind)
				if err != nil {
					return shared.NewInvalidUsageError("invalid --kind", err)
				}
				selected = reg.ByKind(k)
			}

			rows := make([]Summary, 0, len(selected))
			for _, a := range selected {
				rows = append(rows, summarize(a))
			}

			if format != shared.FormatText {
				return shared.Render(cmd.OutOrStdout(), format, rows)
			}
			return shared.Render(cmd.OutOrStdout(), format, textRows(rows))
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include position and settings maintenance actions")
	cmd.Flags().StringVar(&kind, "kind", "", "Only list actions of this kind (search, create, trigger)")
	_ = cmd.RegisterFlagCompletionFunc("kind", completion.CompleteKinds)
	return cmd
}

func summarize(a *operation.Action) Summary {
	return Summary{
		Key:         a.Key,
		Kind:        string(a.Kind),
		Noun:        a.Noun,
		Label:       a.Display.Label,
		Description: a.Display.Description,
		Hidden:      a.Display.Hidden,
	}
}

func textRows(rows []Summary) []any {
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, map[string]any{
			"key":    r.Key,
			"kind":   r.Kind,
			"label":  r.Label,
			"hidden": r.Hidden,
		})
	}
	return out
}

// SchemaView is the schema command result.
type SchemaView struct {
	Key    string         `json:"key" yaml:"key"`
	Kind   string         `json:"kind" yaml:"kind"`
	Input  []schema.Field `json:"input,omitempty" yaml:"input,omitempty"`
	Output []schema.Field `json:"output,omitempty" yaml:"output,omitempty"`
	Sample any            `json:"sample,omitempty" yaml:"sample,omitempty"`
}

func newSchemaCommand() *cobra.Command {
	var (
		side   string
		sample bool
	)

	cmd := &cobra.Command{
		Use:   "schema <key>",
		Short: "Show the input and output fields of an action",
		Example: `  hrmless actions schema orgPositionsCreate
  hrmless actions schema orgPositionRead --side output --output yaml
  hrmless actions schema orgPositionsCandidatesRead --sample`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completion.CompleteActionKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := shared.ParseFormat(shared.GetOutput())
			if err != nil {
				return err
			}
			reg, err := hrmless.NewRegistry(log.Discard(), true)
			if err != nil {
				return err
			}
			action, err := reg.Get(args[0])
			if err != nil {
				return shared.NewInvalidUsageError(fmt.Sprintf("unknown action %q", args[0]), err)
			}

			view := SchemaView{Key: action.Key, Kind: string(action.Kind)}
			switch side {
			case "input":
				view.Input = action.InputFields
			case "output":
				view.Output = action.OutputFields
			case "both", "":
				view.Input = action.InputFields
				view.Output = action.OutputFields
			default:
				return shared.NewInvalidUsageError(fmt.Sprintf("invalid --side %q (want input, output, or both)", side), nil)
			}
			if sample {
				view.Sample = action.Sample
			}

			if format != shared.FormatText {
				return shared.Render(cmd.OutOrStdout(), format, view)
			}
			return renderSchemaText(cmd, view)
		},
	}

	cmd.Flags().StringVar(&side, "side", "both", "Fields to show: input, output, or both")
	cmd.Flags().BoolVar(&sample, "sample", false, "Include the sample result")
	_ = cmd.RegisterFlagCompletionFunc("side", completion.Values("input", "output", "both"))
	return cmd
}

func renderSchemaText(cmd *cobra.Command, view SchemaView) error {
	out := cmd.OutOrStdout()
	for _, part := range []struct {
		title  string
		fields []schema.Field
	}{{"Input fields", view.Input}, {"Output fields", view.Output}} {
		if part.fields == nil {
			continue
		}
		fmt.Fprintln(out, shared.Header.Render(part.title))
		if err := shared.Render(out, shared.FormatText, fieldRows(part.fields)); err != nil {
			return err
		}
	}
	if view.Sample != nil {
		fmt.Fprintln(out, shared.Header.Render("Sample"))
		return shared.Render(out, shared.FormatJSON, view.Sample)
	}
	return nil
}

// fieldRows flattens fields depth first for table display.
func fieldRows(fields []schema.Field) []any {
	var rows []any
	for _, f := range fields {
		typ := string(f.Type)
		if f.IsGroup() {
			typ = "group"
		}
		rows = append(rows, map[string]any{
			"key":      f.Key,
			"label":    f.Label,
			"type":     typ,
			"required": f.Required,
		})
		rows = append(rows, fieldRows(f.Children)...)
	}
	return rows
}
