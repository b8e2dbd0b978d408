package hrmless

import (
	"github.com/hrmless/adapter/internal/operation"
	"github.com/hrmless/adapter/internal/schema"
)

// PositionStates are the publication states of a position.
var PositionStates = []string{"active", "draft", "inactive"}

const questionnaireKey = "questionaire"

var positionDefs = []fieldDef{
	{Name: "name", Label: "Position name", Type: schema.TypeString, Required: true,
		HelpText: "The name of the position."},
	{Name: "state", Label: "Position state", Type: schema.TypeString,
		HelpText: "The state of the position.", Choices: PositionStates},
	{Name: "department", Label: "Position department", Type: schema.TypeString,
		HelpText: "The department for the position."},
	{Name: "location", Label: "Position location", Type: schema.TypeString,
		HelpText: "The location of the position."},
	{Name: "min_score", Label: "Minimum passing", Type: schema.TypeInteger,
		HelpText: "The minimum passing score for the position (0-10).", Default: "5"},
	{Name: "role_description", Label: "Position role description", Type: schema.TypeString,
		HelpText: "The role description of the position."},
	{Name: "position_calender_link", Label: "Position calendar link", Type: schema.TypeString,
		HelpText: "The calendar link of the position."},
}

// Server generated; output schemas only.
var (
	positionIDDef     = []fieldDef{{Name: "id", Type: schema.TypeString}}
	positionAuditDefs = []fieldDef{
		{Name: "created_at", Type: schema.TypeString},
		{Name: "updated_at", Type: schema.TypeString},
		{Name: "agent_id", Type: schema.TypeString},
	}
)

var positionPayload = schemaDefs(positionIDDef, positionDefs, positionAuditDefs)

// Position is an open role candidates are screened for.
type Position struct{}

// Fields implements Model.
func (Position) Fields(ctx schema.Context) []schema.Field {
	var fields []schema.Field
	if !ctx.IsInput {
		fields = append(fields, build(ctx, positionIDDef)...)
	}
	fields = append(fields, build(ctx, positionDefs)...)
	fields = append(fields, schema.Field{
		Key:      ctx.Key(questionnaireKey),
		Label:    "Position questions",
		Children: Questionnaire{}.Fields(ctx.Child(questionnaireKey)),
	})
	if !ctx.IsInput {
		fields = append(fields, build(ctx, positionAuditDefs)...)
	}
	return fields
}

// Mapping implements Model. The questionnaire is mapped element by element
// and left out when the input has none.
func (Position) Mapping(b operation.Bundle, prefix string) map[string]any {
	keyPrefix := schema.MappingPrefix(prefix)
	out := schema.Pick(b.InputData, keyPrefix, names(positionPayload)...)

	groupKey := keyPrefix + questionnaireKey
	items, ok := schema.ChildMapping(b.InputData[groupKey], func(item map[string]any) map[string]any {
		return Questionnaire{}.Mapping(operation.NewBundle(b.AuthData, item), schema.ChildPrefix(groupKey))
	})
	if ok {
		out[questionnaireKey] = items
	}
	return out
}

var questionnaireDefs = []fieldDef{
	{Name: "name", Label: "Question name", Type: schema.TypeString,
		HelpText: "A short name to identify the question. (e.g. 'Question 1')"},
	{Name: "value", Label: "Question", Type: schema.TypeString,
		HelpText: "The text of the question being asked. (e.g. 'What is your greatest strength?')"},
}

// Questionnaire is one screening question attached to a position.
type Questionnaire struct{}

// Fields implements Model.
func (Questionnaire) Fields(ctx schema.Context) []schema.Field {
	var fields []schema.Field
	if !ctx.IsInput {
		fields = append(fields, build(ctx, positionIDDef)...)
	}
	return append(fields, build(ctx, questionnaireDefs)...)
}

// Mapping implements Model.
func (Questionnaire) Mapping(b operation.Bundle, prefix string) map[string]any {
	return schema.Pick(b.InputData, schema.MappingPrefix(prefix), "id", "name", "value")
}
