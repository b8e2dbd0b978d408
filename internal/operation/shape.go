package operation

import (
	"context"
	"fmt"

	"github.com/hrmless/adapter/internal/jq"
)

// Shape is the result contract of an endpoint. It is fixed per action so the
// response is never probed to decide what the host receives.
type Shape int

const (
	// ShapeObject returns the decoded body unchanged.
	ShapeObject Shape = iota

	// ShapeFirst returns the first element of a returned sequence.
	ShapeFirst

	// ShapeSequence returns a sequence. A bare object becomes a one-element
	// sequence.
	ShapeSequence

	// ShapeFirstOrSingleton returns the first element of a non-empty
	// sequence, wraps a bare object into a one-element sequence, and keeps
	// an empty sequence empty.
	ShapeFirstOrSingleton

	// ShapeProjection reduces {items: [...]} to [{id, name}, ...]. Anything
	// without an items list projects to an empty sequence, and keys missing
	// from an item stay missing.
	ShapeProjection
)

// ProjectionExpression is the jq program behind ShapeProjection.
const ProjectionExpression = `(if type == "object" then .items else null end // []) | map(with_entries(select(.key == "id" or .key == "name")))`

var shapeNames = map[Shape]string{
	ShapeObject:           "object",
	ShapeFirst:            "first",
	ShapeSequence:         "sequence",
	ShapeFirstOrSingleton: "first_or_singleton",
	ShapeProjection:       "projection",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

func applyShape(ctx context.Context, exec *jq.Executor, shape Shape, v any) (any, error) {
	switch shape {
	case ShapeObject:
		return v, nil

	case ShapeFirst:
		list, ok := v.([]any)
		if !ok {
			return v, nil
		}
		if len(list) == 0 {
			return nil, fmt.Errorf("expected at least one item in response, got none")
		}
		return list[0], nil

	case ShapeSequence:
		switch val := v.(type) {
		case []any:
			return val, nil
		case nil:
			return []any{}, nil
		default:
			return []any{val}, nil
		}

	case ShapeFirstOrSingleton:
		list, ok := v.([]any)
		if !ok {
			return []any{v}, nil
		}
		if len(list) == 0 {
			return []any{}, nil
		}
		return list[0], nil

	case ShapeProjection:
		out, err := exec.Execute(ctx, ProjectionExpression, v)
		if err != nil {
			return nil, err
		}
		if out == nil {
			return []any{}, nil
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown result shape %s", shape)
	}
}
