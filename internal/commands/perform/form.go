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
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/hrmless/adapter/internal/operation"
	"github.com/hrmless/adapter/internal/schema"
)

// Brand colors for the input form.
var (
	colorPrimary = lipgloss.Color("39")
	colorMuted   = lipgloss.Color("245")
	colorError   = lipgloss.Color("196")
)

// theme is the Charm theme with the CLI palette.
func theme() *huh.Theme {
	t := huh.ThemeCharm()
	t.Focused.Title = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(colorMuted)
	t.Focused.ErrorIndicator = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(colorError)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	t.Blurred.Title = lipgloss.NewStyle().Foreground(colorMuted)
	t.Blurred.Description = lipgloss.NewStyle().Foreground(colorMuted)
	return t
}

// choiceLoader resolves a field's dynamic reference into select options.
type choiceLoader func(ctx context.Context, dynamic string) ([]huh.Option[string], error)

// binding holds the form value of one field.
type binding struct {
	field schema.Field
	text  string
	flag  bool
}

// value returns the collected value and whether it should be set.
func (b *binding) value() (any, bool) {
	if b.field.Type == schema.TypeBoolean {
		return b.flag, true
	}
	if b.text == "" {
		return nil, false
	}
	return b.text, true
}

// newBindings seeds one binding per scalar field from input. Groups are
// left to --json.
func newBindings(fields []schema.Field, input map[string]any) []*binding {
	var out []*binding
	for _, f := range fields {
		if f.IsGroup() {
			continue
		}
		b := &binding{field: f}
		if v, ok := input[f.Key]; ok && v != nil {
			switch val := v.(type) {
			case bool:
				b.flag = val
			case string:
				b.text = val
				b.flag, _ = strconv.ParseBool(val)
			default:
				b.text = fmt.Sprintf("%v", val)
			}
		}
		out = append(out, b)
	}
	return out
}

// collect returns a copy of input updated with the bound values.
func collect(bindings []*binding, input map[string]any) map[string]any {
	out := make(map[string]any, len(input))
	for k, v := range input {
		out[k] = v
	}
	for _, b := range bindings {
		if v, ok := b.value(); ok {
			out[b.field.Key] = v
		}
	}
	return out
}

// formField builds the huh field for b.
func formField(ctx context.Context, b *binding, load choiceLoader) (huh.Field, error) {
	f := b.field
	title := f.Label
	if title == "" {
		title = f.Key
	}
	if f.Required {
		title += " *"
	}

	switch {
	case f.Type == schema.TypeBoolean:
		return huh.NewConfirm().Title(title).Description(f.HelpText).Value(&b.flag), nil

	case f.Dynamic != "" && load != nil:
		options, err := load(ctx, f.Dynamic)
		if err != nil {
			return nil, fmt.Errorf("load choices for %s: %w", f.Key, err)
		}
		if len(options) > 0 {
			return huh.NewSelect[string]().Title(title).Description(f.HelpText).Options(options...).Value(&b.text), nil
		}

	case len(f.Choices) > 0:
		options := huh.NewOptions(f.Choices...)
		if !f.Required {
			options = append([]huh.Option[string]{huh.NewOption("(unset)", "")}, options...)
		}
		return huh.NewSelect[string]().Title(title).Description(f.HelpText).Options(options...).Value(&b.text), nil
	}

	return huh.NewInput().Title(title).Description(f.HelpText).Value(&b.text).Validate(validator(f)), nil
}

// validator checks required and integer fields as they are typed.
func validator(f schema.Field) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			if f.Required {
				return fmt.Errorf("%s is required", f.Key)
			}
			return nil
		}
		if f.Type == schema.TypeInteger {
			if _, err := strconv.Atoi(s); err != nil {
				return fmt.Errorf("%s must be a whole number", f.Key)
			}
		}
		return nil
	}
}

// promptFields shows a form for the scalar input fields and returns input
// updated with the answers.
func promptFields(ctx context.Context, fields []schema.Field, input map[string]any, load choiceLoader) (map[string]any, error) {
	bindings := newBindings(fields, input)
	if len(bindings) == 0 {
		return input, nil
	}

	huhFields := make([]huh.Field, 0, len(bindings))
	for _, b := range bindings {
		field, err := formField(ctx, b, load)
		if err != nil {
			return nil, err
		}
		huhFields = append(huhFields, field)
	}

	form := huh.NewForm(huh.NewGroup(huhFields...)).WithTheme(theme())
	if err := form.RunWithContext(ctx); err != nil {
		return nil, err
	}
	return collect(bindings, input), nil
}

// actionPerformer is the subset of operation.Performer used for choices.
type actionPerformer interface {
	Perform(ctx context.Context, action *operation.Action, bundle operation.Bundle) (any, error)
}

// dynamicLoader performs the trigger named by a dynamic reference of the
// form "<actionKey>.<valueField>.<labelField>".
func dynamicLoader(reg *operation.Registry, p actionPerformer, session func(context.Context) (operation.AuthData, error)) choiceLoader {
	return func(ctx context.Context, dynamic string) ([]huh.Option[string], error) {
		parts := strings.Split(dynamic, ".")
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed dynamic reference %q", dynamic)
		}
		action, err := reg.Get(parts[0])
		if err != nil {
			return nil, err
		}
		auth, err := session(ctx)
		if err != nil {
			return nil, err
		}
		result, err := p.Perform(ctx, action, operation.NewBundle(auth, nil))
		if err != nil {
			return nil, err
		}
		return options(result, parts[1], parts[2]), nil
	}
}

// options turns a sequence of objects into select options.
func options(result any, valueField, labelField string) []huh.Option[string] {
	items, _ := result.([]any)
	out := make([]huh.Option[string], 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if obj[valueField] == nil {
			continue
		}
		value := fmt.Sprintf("%v", obj[valueField])
		label := value
		if l, ok := obj[labelField]; ok && l != nil {
			label = fmt.Sprintf("%v (%s)", l, value)
		}
		out = append(out, huh.NewOption(label, value))
	}
	return out
}
