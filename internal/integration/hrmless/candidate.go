package hrmless

import (
	"github.com/hrmless/adapter/internal/operation"
	"github.com/hrmless/adapter/internal/schema"
)

// CandidateStates are the interview pipeline states a candidate moves through.
var CandidateStates = []string{
	"not_invited_yet",
	"invited",
	"attempted",
	"completed",
	"rejected",
	"graded",
	"passed",
	"calendar_link_sent",
}

var candidateContactDefs = []fieldDef{
	{Name: "name", Label: "Candidate name", Type: schema.TypeString, Required: true,
		HelpText: "The full name of the candidate. (e.g. 'John Doe')"},
	{Name: "email", Label: "Candidate email", Type: schema.TypeString, Required: true,
		HelpText: "The email address of the candidate. (e.g. 'john.doe@example.com')"},
	{Name: "phone", Label: "Candidate phone", Type: schema.TypeString, Required: true,
		HelpText: "The phone number of the candidate. (e.g. '+1234567890')"},
}

var candidateLanguageDef = fieldDef{
	Name: "language", Label: "Candidate language", Type: schema.TypeString, Required: true,
	Default: "en", HelpText: "The language preference of the candidate. (e.g. 'en' for English)",
}

var candidateDefs = schemaDefs(
	[]fieldDef{{Name: "id", Label: "ID", Type: schema.TypeString}},
	candidateContactDefs,
	[]fieldDef{
		{Name: "state", Label: "Candidate state", Type: schema.TypeString,
			HelpText: "The current state of the candidate in the interview process.", Choices: CandidateStates},
		{Name: "score", Label: "Candidate score", Type: schema.TypeInteger,
			HelpText: "The score of the candidate's interview"},
		{Name: "feedback", Label: "Candidate feedback", Type: schema.TypeString,
			HelpText: "Feedback provided for the candidate by HRMLESS AI."},
		candidateLanguageDef,
		{Name: "invited_at", Type: schema.TypeString,
			HelpText: "INTERNAL USE: The timestamp when the candidate was invited."},
		{Name: "completed_at", Type: schema.TypeString,
			HelpText: "INTERNAL USE: The timestamp when the candidate completed the interview."},
		{Name: "created_at", Type: schema.TypeString,
			HelpText: "INTERNAL USE: The timestamp when the candidate record was created."},
		{Name: "updated_at", Type: schema.TypeString,
			HelpText: "INTERNAL USE: The timestamp when the candidate record was last updated."},
		{Name: "position_id", Type: schema.TypeString, Required: true,
			HelpText: "The ID of the position the candidate is applied for."},
		{Name: "organization_id", Type: schema.TypeString, Required: true,
			HelpText: "The ID of the organization the candidate belongs to."},
	},
)

var candidateCreateDefs = schemaDefs(candidateContactDefs, []fieldDef{candidateLanguageDef})

func schemaDefs(groups ...[]fieldDef) []fieldDef {
	var out []fieldDef
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Candidate is a person applying for a position.
type Candidate struct{}

// Fields implements Model.
func (Candidate) Fields(ctx schema.Context) []schema.Field {
	return build(ctx, candidateDefs)
}

// Mapping implements Model.
func (Candidate) Mapping(b operation.Bundle, prefix string) map[string]any {
	return schema.Pick(b.InputData, schema.MappingPrefix(prefix), names(candidateDefs)...)
}

// CandidateCreate is the caller-supplied subset used to create a candidate.
type CandidateCreate struct{}

// Fields implements Model.
func (CandidateCreate) Fields(ctx schema.Context) []schema.Field {
	return build(ctx, candidateCreateDefs)
}

// Mapping implements Model.
func (CandidateCreate) Mapping(b operation.Bundle, prefix string) map[string]any {
	return schema.Pick(b.InputData, schema.MappingPrefix(prefix), names(candidateCreateDefs)...)
}

// CandidateUpdate shares the create fields. Its payload also carries the
// position from the input and the organization from the session.
type CandidateUpdate struct{}

// Fields implements Model.
func (CandidateUpdate) Fields(ctx schema.Context) []schema.Field {
	return build(ctx, candidateCreateDefs)
}

// Mapping implements Model.
func (CandidateUpdate) Mapping(b operation.Bundle, prefix string) map[string]any {
	out := schema.Pick(b.InputData, schema.MappingPrefix(prefix), names(candidateCreateDefs)...)
	if v, ok := b.Value("position_id"); ok {
		out["position_id"] = v
	}
	if b.AuthData.OrgID != "" {
		out["organization_id"] = b.AuthData.OrgID
	}
	return out
}
