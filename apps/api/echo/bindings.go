package echoapi

import (
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/enrollment"
)

var (
	orderingParam = "ordering"

	errInvalidDestination = "must be a section id or \"unassigned\""
	errInvalidStudentID   = "must be a student id"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) {
	ord.Orderings = core.ParseOrderings(ctx.QueryParam(orderingParam), allowed...)
}

// pathID reads a uuid path parameter. Malformed ids cannot exist, they are reported as not found.
func pathID(ctx echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		return uuid.Nil, errHttpNotFound
	}
	return id, nil
}

// parseDestination accepts a section id, or "unassigned" (or nothing) for staging.
func parseDestination(s string) (uuid.UUID, error) {
	s = core.CleanString(s, true /* lower */)
	if s == "" || s == "unassigned" {
		return enrollment.Unassigned, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, core.NewValidationError(
			errors.Wrap(err, "parsing destination"),
			core.FieldError{Field: "destination", Error: errInvalidDestination},
		)
	}
	return id, nil
}

func parseStudentIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, core.NewValidationError(
				errors.Wrap(err, "parsing student id"),
				core.FieldError{Field: "student_ids", Error: errInvalidStudentID},
			)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
