package hrmless

import (
	"net/http"

	"github.com/hrmless/adapter/internal/operation"
	"github.com/hrmless/adapter/internal/schema"
)

// Action keys.
const (
	KeyPositionChoices    = "orgPositionAction"
	KeyPositionList       = "orgPositionList"
	KeyPositionRead       = "orgPositionRead"
	KeyPositionUpdate     = "orgPositionUpdate"
	KeyCandidateList      = "orgPositionsRead"
	KeyCandidateCreate    = "orgPositionsCreate"
	KeyCandidateRead      = "orgPositionsCandidatesRead"
	KeyCandidateUpdate    = "orgPositionsCandidatesUpdate"
	KeyCandidateDelete    = "orgPositionsCandidatesDelete"
	KeyCandidateInterview = "orgPositionsCandidatesInterview"
	KeySettingsRead       = "orgSettingsList"
	KeySettingsUpdate     = "orgSettingsUpdate"
)

const (
	nounPosition     = "Position"
	nounCandidates   = "Candidates"
	nounOrganization = "Organization"
)

// Not-found messages shown to the user per resource.
const (
	MsgPositionsNotFound       = "Positions not found. Please verify the organization ID."
	MsgPositionNotFound        = "Positions not found. Please verify the position ID."
	MsgCandidatesNotFound      = "Candidates not found. Please verify the position ID."
	MsgCreateCandidateNotFound = "Candidates not found. Please verify the position ID you are trying to create the candidate under"
	MsgCandidateNotFound       = "Candidate not found. Please verify the candidate ID and position ID."
	MsgInterviewNotFound       = "Candidate not found. Please verify the position ID and Candidate ID"
	MsgOrganizationNotFound    = "Organization not found. Please verify the organization ID."
)

// StripCandidateTransform removes internal candidate members from an object
// or from every object of a sequence.
const StripCandidateTransform = `def strip: if type == "object" then del(.communications, .hired, .tags) else . end;
if type == "array" then map(strip) else strip end`

const (
	positionPath  = "/org/{org_id}/position"
	candidatePath = "/org/{org_id}/positions/{position_id}/candidates/{candidate_id}/"
)

func positionIDField() schema.Field {
	return schema.Field{
		Key:      "position_id",
		Label:    "Position",
		Type:     schema.TypeString,
		Required: true,
		Dynamic:  KeyPositionChoices + ".id.name",
	}
}

func candidateIDField() schema.Field {
	return schema.Field{Key: "candidate_id", Label: "Candidate ID", Type: schema.TypeString, Required: true}
}

func candidateOutput() []schema.Field {
	return Candidate{}.Fields(schema.Output(""))
}

func body(m Model) operation.PayloadFunc {
	return func(b operation.Bundle) map[string]any {
		return m.Mapping(b, "")
	}
}

// PositionChoices feeds the position dropdown used by every candidate
// action.
func PositionChoices() *operation.Action {
	return &operation.Action{
		Key:  KeyPositionChoices,
		Noun: nounPosition,
		Kind: operation.KindTrigger,
		Display: operation.Display{
			Label:       "List Positions",
			Description: "Get All Positions",
			Hidden:      true,
		},
		OutputFields: []schema.Field{
			{Key: "id", Label: "Position ID"},
			{Key: "name", Label: "Position Name"},
		},
		Endpoint: operation.Endpoint{
			Method: http.MethodGet,
			Path:   positionPath,
			Shape:  operation.ShapeProjection,
		},
		Sample: mustSample("positions"),
	}
}

// PositionList returns the raw position listing.
func PositionList() *operation.Action {
	return &operation.Action{
		Key:  KeyPositionList,
		Noun: nounPosition,
		Kind: operation.KindCreate,
		Display: operation.Display{
			Label:       "Get Positions",
			Description: "Get All Positions",
		},
		Endpoint: operation.Endpoint{
			Method:          http.MethodGet,
			Path:            positionPath,
			NotFoundMessage: MsgPositionsNotFound,
		},
		Sample: mustSample("positions"),
	}
}

// PositionRead fetches one position.
func PositionRead() *operation.Action {
	return &operation.Action{
		Key:  KeyPositionRead,
		Noun: nounPosition,
		Kind: operation.KindSearch,
		Display: operation.Display{
			Label:       "Get a Position",
			Description: "Gets a single position by its ID.",
		},
		InputFields:  []schema.Field{positionIDField()},
		OutputFields: Position{}.Fields(schema.Output("")),
		Endpoint: operation.Endpoint{
			Method:          http.MethodGet,
			Path:            positionPath + "/{position_id}",
			NotFoundMessage: MsgPositionNotFound,
		},
		Sample: mustSample("position"),
	}
}

// PositionUpdate replaces or partially updates a position.
func PositionUpdate() *operation.Action {
	return &operation.Action{
		Key:  KeyPositionUpdate,
		Noun: nounPosition,
		Kind: operation.KindCreate,
		Display: operation.Display{
			Label:       "Update Position by ID",
			Description: "Update/Partial-Update Position Object By ID",
		},
		InputFields:  schema.Concat([]schema.Field{positionIDField()}, Position{}.Fields(schema.Input(""))),
		OutputFields: Position{}.Fields(schema.Output("")),
		Endpoint: operation.Endpoint{
			Method:          http.MethodPut,
			Path:            positionPath + "/{position_id}",
			Body:            body(Position{}),
			NotFoundMessage: MsgPositionNotFound,
		},
		Sample: mustSample("position"),
	}
}

// CandidateList lists the candidates of a position.
func CandidateList() *operation.Action {
	return &operation.Action{
		Key:  KeyCandidateList,
		Noun: nounCandidates,
		Kind: operation.KindSearch,
		Display: operation.Display{
			Label:       "Get All Candidates in a Position",
			Description: "Gets a list of candidates for a specific position.",
		},
		InputFields:  []schema.Field{positionIDField()},
		OutputFields: candidateOutput(),
		Endpoint: operation.Endpoint{
			Method:          http.MethodGet,
			Path:            "/org/{org_id}/positions/{position_id}/",
			NotFoundMessage: MsgCandidatesNotFound,
			Transform:       StripCandidateTransform,
			Shape:           operation.ShapeSequence,
		},
		Sample: mustSample("candidate"),
	}
}

// CandidateCreateAction adds a candidate to a position. The API answers with a
// sequence holding the created record.
func CandidateCreateAction() *operation.Action {
	return &operation.Action{
		Key:  KeyCandidateCreate,
		Noun: nounCandidates,
		Kind: operation.KindCreate,
		Display: operation.Display{
			Label:       "Create a Candidate",
			Description: "Create/Add a new candidate to a position.",
		},
		InputFields:  schema.Concat([]schema.Field{positionIDField()}, CandidateCreate{}.Fields(schema.Input(""))),
		OutputFields: candidateOutput(),
		Endpoint: operation.Endpoint{
			Method:          http.MethodPost,
			Path:            "/org/{org_id}/positions/{position_id}/",
			Body:            body(CandidateCreate{}),
			NotFoundMessage: MsgCreateCandidateNotFound,
			Transform:       StripCandidateTransform,
			Shape:           operation.ShapeFirst,
		},
		Sample: mustSample("candidate_create"),
	}
}

// CandidateRead fetches one candidate.
func CandidateRead() *operation.Action {
	return &operation.Action{
		Key:  KeyCandidateRead,
		Noun: nounCandidates,
		Kind: operation.KindSearch,
		Display: operation.Display{
			Label:       "Get a Candidates Details",
			Description: "Gets details of a specific candidate by their ID.",
		},
		InputFields:  []schema.Field{positionIDField(), candidateIDField()},
		OutputFields: candidateOutput(),
		Endpoint: operation.Endpoint{
			Method:          http.MethodGet,
			Path:            candidatePath,
			NotFoundMessage: MsgCandidateNotFound,
			Transform:       StripCandidateTransform,
		},
		Sample: mustSample("candidate"),
	}
}

// CandidateUpdateAction updates a candidate's contact details.
func CandidateUpdateAction() *operation.Action {
	return &operation.Action{
		Key:  KeyCandidateUpdate,
		Noun: nounCandidates,
		Kind: operation.KindCreate,
		Display: operation.Display{
			Label:       "Update a Candidate",
			Description: "Updates details of a specific candidate by their ID.",
		},
		InputFields: schema.Concat(
			[]schema.Field{positionIDField(), candidateIDField()},
			CandidateCreate{}.Fields(schema.Input("")),
		),
		OutputFields: candidateOutput(),
		Endpoint: operation.Endpoint{
			Method:          http.MethodPut,
			Path:            candidatePath,
			Body:            body(CandidateUpdate{}),
			NotFoundMessage: MsgCandidateNotFound,
			Transform:       StripCandidateTransform,
		},
		Sample: mustSample("candidate_create"),
	}
}

// CandidateDelete removes a candidate from a position.
func CandidateDelete() *operation.Action {
	return &operation.Action{
		Key:  KeyCandidateDelete,
		Noun: nounCandidates,
		Kind: operation.KindCreate,
		Display: operation.Display{
			Label:       "Delete a Candidate",
			Description: "Deletes a specific candidate by their ID.",
		},
		InputFields: []schema.Field{positionIDField(), candidateIDField()},
		Endpoint: operation.Endpoint{
			Method:          http.MethodDelete,
			Path:            candidatePath,
			NotFoundMessage: MsgCandidateNotFound,
			EmptyAsSuccess:  true,
		},
		Sample: map[string]any{"success": true},
	}
}

// CandidateInterview fetches the interview of a candidate.
func CandidateInterview() *operation.Action {
	return &operation.Action{
		Key:  KeyCandidateInterview,
		Noun: nounCandidates,
		Kind: operation.KindSearch,
		Display: operation.Display{
			Label:       "Get Interview Details",
			Description: "Gets interview details for a specific candidate.",
		},
		InputFields:  []schema.Field{positionIDField(), candidateIDField()},
		OutputFields: Interview{}.Fields(schema.Output("")),
		Endpoint: operation.Endpoint{
			Method:          http.MethodGet,
			Path:            candidatePath + "interview/",
			NotFoundMessage: MsgInterviewNotFound,
			Shape:           operation.ShapeFirstOrSingleton,
		},
		Sample: mustSample("interview"),
	}
}

// SettingsRead returns the organization settings.
func SettingsRead() *operation.Action {
	return &operation.Action{
		Key:  KeySettingsRead,
		Noun: nounOrganization,
		Kind: operation.KindCreate,
		Display: operation.Display{
			Label:       "Get Org Settings",
			Description: "Get all settings for your organization",
		},
		OutputFields: OrgSettings{}.Fields(schema.Output("")),
		Endpoint: operation.Endpoint{
			Method:          http.MethodGet,
			Path:            "/org/{org_id}/settings/",
			NotFoundMessage: MsgOrganizationNotFound,
		},
		Sample: mustSample("org_settings"),
	}
}

// SettingsUpdate updates the organization name, contact details and
// calendar link.
func SettingsUpdate() *operation.Action {
	return &operation.Action{
		Key:  KeySettingsUpdate,
		Noun: nounOrganization,
		Kind: operation.KindCreate,
		Display: operation.Display{
			Label:       "Update Org Settings",
			Description: "Update organization settings including name, contact info, and calendar link",
		},
		InputFields:  Organization{}.Fields(schema.Input("")),
		OutputFields: Organization{}.Fields(schema.Output("")),
		Endpoint: operation.Endpoint{
			Method:          http.MethodPut,
			Path:            "/org/{org_id}/settings/",
			Body:            body(Organization{}),
			NotFoundMessage: MsgOrganizationNotFound,
		},
		Sample: mustSample("organization"),
	}
}
