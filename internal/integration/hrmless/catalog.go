package hrmless

import (
	"log/slog"

	"github.com/hrmless/adapter/internal/operation"
)

// Actions returns the published catalog, in host display order.
func Actions() []*operation.Action {
	return []*operation.Action{
		PositionChoices(),
		PositionRead(),
		CandidateList(),
		CandidateCreateAction(),
		CandidateRead(),
		CandidateUpdateAction(),
		CandidateDelete(),
		CandidateInterview(),
	}
}

// AllActions returns the published catalog followed by the position and
// settings maintenance actions.
func AllActions() []*operation.Action {
	return append(Actions(),
		PositionList(),
		PositionUpdate(),
		SettingsRead(),
		SettingsUpdate(),
	)
}

// NewRegistry builds a registry holding Actions, or AllActions when all is
// set.
func NewRegistry(logger *slog.Logger, all bool) (*operation.Registry, error) {
	actions := Actions()
	if all {
		actions = AllActions()
	}
	reg := operation.NewRegistry(logger)
	if err := reg.Register(actions...); err != nil {
		return nil, err
	}
	return reg, nil
}
