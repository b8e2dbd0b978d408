package hrmless

import (
	"github.com/hrmless/adapter/internal/operation"
	"github.com/hrmless/adapter/internal/schema"
)

var interviewDefs = []fieldDef{
	{Name: "id", Type: schema.TypeString,
		HelpText: "The unique identifier of the interview."},
	{Name: "conversation_id", Label: "Conversation ID", Type: schema.TypeString,
		HelpText: "INTERNAL USE: The unique identifier of the conversation associated with the interview."},
	{Name: "transcript_link", Label: "Transcript link", Type: schema.TypeString,
		HelpText: "The link to the transcript of the interview."},
	{Name: "recording_link", Label: "Recording link", Type: schema.TypeString,
		HelpText: "The link to the recording of the interview."},
	{Name: "start_time", Label: "Start time", Type: schema.TypeString,
		HelpText: "The start time of the interview."},
	{Name: "end_time", Label: "End time", Type: schema.TypeString,
		HelpText: "The end time of the interview."},
	{Name: "graded_at", Label: "Graded at", Type: schema.TypeString,
		HelpText: "The time when the interview was graded."},
	{Name: "last_attempted_at", Label: "Last attempted at", Type: schema.TypeString,
		HelpText: "The time when the interview was last attempted."},
	{Name: "ip_address", Label: "IP address", Type: schema.TypeString,
		HelpText: "INTERNAL USE: The IP address from which the interview was conducted (used for GEO load balancing)."},
	{Name: "location", Label: "Location", Type: schema.TypeString,
		HelpText: "INTERNAL USE: The general location where the interview took place (used for GEO load balancing)."},
	{Name: "interview_link", Label: "Interview link", Type: schema.TypeString,
		HelpText: "The link to the interview."},
	{Name: "status", Label: "Status", Type: schema.TypeString,
		HelpText: "The status of the interview."},
	{Name: "score", Label: "Score", Type: schema.TypeInteger,
		HelpText: "The score of the interview."},
	{Name: "feedback", Label: "Feedback", Type: schema.TypeString,
		HelpText: "The feedback for the interview."},
	{Name: "interview_transcript", Label: "Interview transcript", Type: schema.TypeString,
		HelpText: "The transcript of the interview."},
	{Name: "candidate", Label: "Candidate ID", Type: schema.TypeString,
		HelpText: "The unique identifier of the candidate associated with the interview."},
}

// Interview is the AI screening interview of one candidate.
type Interview struct{}

// Fields implements Model.
func (Interview) Fields(ctx schema.Context) []schema.Field {
	return build(ctx, interviewDefs)
}

// Mapping implements Model.
func (Interview) Mapping(b operation.Bundle, prefix string) map[string]any {
	return schema.Pick(b.InputData, schema.MappingPrefix(prefix), names(interviewDefs)...)
}
