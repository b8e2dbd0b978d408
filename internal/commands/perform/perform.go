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

// Package perform implements the command that runs one action.
package perform

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hrmless/adapter/internal/commands/completion"
	"github.com/hrmless/adapter/internal/commands/shared"
	"github.com/hrmless/adapter/internal/operation"
	"github.com/hrmless/adapter/internal/schema"
)

// NewCommand creates the perform command.
func NewCommand() *cobra.Command {
	var (
		inputs      []string
		jsonFile    string
		nested      bool
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "perform <key>",
		Short: "Perform an action",
		Long: `Perform one action against the HRMLESS API and print its result.

Input values are merged in order: the --json file, then each --input
pair. Field keys are the flat keys shown by 'hrmless actions schema'.
With --nested the --json file holds the API payload shape instead and is
flattened against the action's input fields.

Integer and boolean fields accept their string forms. Declared defaults
fill absent fields. Required fields still missing after that are
prompted for with --interactive, otherwise the command fails.`,
		Example: `  hrmless perform orgPositionAction
  hrmless perform orgPositionsCandidatesRead --input position_id=pos-1 --input candidate_id=cand-1
  hrmless perform orgPositionsCreate --json candidate.json --input position_id=pos-1
  hrmless perform orgPositionUpdate --json position.json --nested
  hrmless perform orgPositionsCreate --interactive`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completion.CompleteActionKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := shared.ParseFormat(shared.GetOutput())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			rt, err := shared.NewRuntime(ctx, shared.OptionsFromFlags(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(context.WithoutCancel(ctx)) }()

			reg, err := rt.Registry(true)
			if err != nil {
				return err
			}
			action, err := reg.Get(args[0])
			if err != nil {
				return shared.NewInvalidUsageError(fmt.Sprintf("unknown action %q", args[0]), err)
			}

			input, err := readInput(cmd.InOrStdin(), jsonFile, nested, action.InputFields)
			if err != nil {
				return err
			}
			if err := applyPairs(input, inputs); err != nil {
				return err
			}
			input = schema.ApplyDefaults(action.InputFields, input)

			performer, err := rt.Performer()
			if err != nil {
				return err
			}

			if interactive {
				if shared.IsNonInteractive() {
					return shared.NewInvalidUsageError("--interactive needs a terminal", nil)
				}
				loader := dynamicLoader(reg, performer, rt.Session)
				if input, err = promptFields(ctx, action.InputFields, input, loader); err != nil {
					return shared.NewExecutionError("input form failed", err)
				}
			}

			input, err = schema.Coerce(action.InputFields, input)
			if err != nil {
				return shared.NewInvalidUsageError("invalid input", err)
			}
			if missing := schema.MissingRequired(action.InputFields, input); len(missing) > 0 {
				return shared.NewMissingInputError(
					fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")),
					nil)
			}

			auth, err := rt.Session(ctx)
			if err != nil {
				return err
			}

			result, err := performer.Perform(ctx, action, operation.NewBundle(auth, input))
			if err != nil {
				return err
			}
			return shared.Render(cmd.OutOrStdout(), format, result)
		},
	}

	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "Input value as key=value (repeatable)")
	cmd.Flags().StringVar(&jsonFile, "json", "", "Read input from a JSON file, or - for stdin")
	cmd.Flags().BoolVar(&nested, "nested", false, "Treat the --json document as a nested API payload")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Prompt for input fields")
	_ = cmd.RegisterFlagCompletionFunc("input", completion.CompleteInputKeys)
	return cmd
}
