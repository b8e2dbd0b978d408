package hrmless

import (
	"github.com/hrmless/adapter/internal/operation"
	"github.com/hrmless/adapter/internal/schema"
)

// Model describes one remote resource.
type Model interface {
	// Fields returns the ordered field schema under ctx.
	Fields(ctx schema.Context) []schema.Field

	// Mapping reads the resource from the bundle's flat input under prefix
	// and returns the request payload. Absent keys are left out.
	Mapping(b operation.Bundle, prefix string) map[string]any
}

// fieldDef is the static description of one leaf field. HelpText, Choices
// and Default only reach input schemas.
type fieldDef struct {
	Name     string
	Label    string // empty renders the bracketed key label, e.g. "[org.id]"
	Type     schema.FieldType
	Required bool
	HelpText string
	Choices  []string
	Default  any
}

func build(ctx schema.Context, defs []fieldDef) []schema.Field {
	out := make([]schema.Field, 0, len(defs))
	for _, d := range defs {
		f := schema.Field{
			Key:      ctx.Key(d.Name),
			Label:    d.Label,
			Type:     d.Type,
			Required: d.Required,
		}
		if f.Label == "" {
			f.Label = ctx.Label(d.Name)
		}
		if ctx.IsInput {
			f.HelpText = d.HelpText
			f.Choices = d.Choices
			f.Default = d.Default
		}
		out = append(out, f)
	}
	return out
}

func names(defs []fieldDef) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Name
	}
	return out
}

// Flatten renders a nested resource as the flat input m's Fields expect.
func Flatten(m Model, nested map[string]any) map[string]any {
	return schema.Flatten(m.Fields(schema.Input("")), "", nested)
}
