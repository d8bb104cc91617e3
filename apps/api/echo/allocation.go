package echoapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/enrollment"
)

type (
	allocationRequest struct {
		StudentIDs  []string `json:"student_ids"`
		Destination string   `json:"destination"`
	}

	dragRequest struct {
		StudentID   string `json:"student_id"`
		Destination string `json:"destination"`
	}

	pickerRequest struct {
		Destination string `json:"destination"`
	}

	allocationResponse struct {
		enrollment.AllocationResult
		Selection []uuid.UUID `json:"selection"`
	}
)

func newAllocationResponse(res enrollment.AllocationResult, sel enrollment.Selection) allocationResponse {
	if res.Moved == nil {
		res.Moved = []uuid.UUID{}
	}
	if res.Skipped == nil {
		res.Skipped = []uuid.UUID{}
	}
	return allocationResponse{AllocationResult: res, Selection: sel.IDs()}
}

type allocationApi struct {
	svc        *enrollment.Service
	selections *SelectionStore
}

func registerAllocationAPI(g *echo.Group, svc *enrollment.Service, selections *SelectionStore) {
	api := allocationApi{svc: svc, selections: selections}

	ag := g.Group("/allocations")
	ag.POST("", api.allocate)
	ag.POST("/drag", api.drag)
	ag.POST("/picker", api.picker)
}

// Handlers

func (api *allocationApi) allocate(ctx echo.Context) error {
	var data allocationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to allocationRequest")
	}
	ids, err := parseStudentIDs(data.StudentIDs)
	if err != nil {
		return err
	}
	dest, err := parseDestination(data.Destination)
	if err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	var res enrollment.AllocationResult
	sel, err := api.selections.Update(contextOperator(ctx).ID, func(current enrollment.Selection) (enrollment.Selection, error) {
		if res, err = api.svc.Allocate(reqCtx, ids, dest); err != nil {
			return nil, err
		}
		return current.Without(res.Moved...), nil
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newAllocationResponse(res, sel))
}

// drag moves the operator's selection when the dragged student is part of it.
func (api *allocationApi) drag(ctx echo.Context) error {
	var data dragRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to dragRequest")
	}
	dragged, err := uuid.Parse(core.CleanString(data.StudentID))
	if err != nil {
		return core.NewValidationError(
			errors.Wrap(err, "parsing student id"),
			core.FieldError{Field: "student_id", Error: errInvalidStudentID},
		)
	}
	dest, err := parseDestination(data.Destination)
	if err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	var res enrollment.AllocationResult
	sel, err := api.selections.Update(contextOperator(ctx).ID, func(current enrollment.Selection) (enrollment.Selection, error) {
		var rest enrollment.Selection
		res, rest, err = api.svc.AllocateByDrag(reqCtx, dragged, current, dest)
		if err != nil {
			return nil, err
		}
		return rest, nil
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newAllocationResponse(res, sel))
}

// picker moves the operator's whole selection.
func (api *allocationApi) picker(ctx echo.Context) error {
	var data pickerRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to pickerRequest")
	}
	dest, err := parseDestination(data.Destination)
	if err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	var res enrollment.AllocationResult
	sel, err := api.selections.Update(contextOperator(ctx).ID, func(current enrollment.Selection) (enrollment.Selection, error) {
		var rest enrollment.Selection
		res, rest, err = api.svc.AllocateByPicker(reqCtx, dest, current)
		if err != nil {
			return nil, err
		}
		return rest, nil
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newAllocationResponse(res, sel))
}
