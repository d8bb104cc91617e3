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
	selectionResponse struct {
		StudentIDs []uuid.UUID `json:"student_ids"`
	}

	toggleRequest struct {
		StudentID string `json:"student_id"`
	}
)

func newSelectionResponse(sel enrollment.Selection) selectionResponse {
	return selectionResponse{StudentIDs: sel.IDs()}
}

type stagingApi struct {
	svc        *enrollment.Service
	selections *SelectionStore
}

func registerStagingAPI(g *echo.Group, svc *enrollment.Service, selections *SelectionStore) {
	api := stagingApi{svc: svc, selections: selections}

	sg := g.Group("/staging")
	sg.GET("", api.list)
	sg.GET("/groups", api.groups)
	sg.GET("/missing-origins", api.missingOrigins)

	selg := g.Group("/selection")
	selg.GET("", api.selection)
	selg.POST("/toggle", api.toggle)
	selg.DELETE("", api.clearSelection)
}

// Handlers

func (api *stagingApi) list(ctx echo.Context) error {
	pool, err := api.svc.Staging(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "loading staging")
	}
	records := pool.Records()
	if records == nil {
		records = []enrollment.StudentRecord{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *stagingApi) groups(ctx echo.Context) error {
	pool, err := api.svc.Staging(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "loading staging")
	}
	groups := pool.Groups()
	if groups == nil {
		groups = []enrollment.StagingGroup{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *stagingApi) missingOrigins(ctx echo.Context) error {
	origins, err := api.svc.MissingOrigins(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing missing origins")
	}
	if origins == nil {
		origins = []string{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"missing_origins": origins})
}

func (api *stagingApi) selection(ctx echo.Context) error {
	sel := api.selections.Get(contextOperator(ctx).ID)
	return ctx.JSON(http.StatusOK, newSelectionResponse(sel))
}

func (api *stagingApi) toggle(ctx echo.Context) error {
	var data toggleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to toggleRequest")
	}
	clicked, err := uuid.Parse(core.CleanString(data.StudentID))
	if err != nil {
		return core.NewValidationError(
			errors.Wrap(err, "parsing student id"),
			core.FieldError{Field: "student_id", Error: errInvalidStudentID},
		)
	}

	reqCtx := ctx.Request().Context()
	sel, err := api.selections.Update(contextOperator(ctx).ID, func(current enrollment.Selection) (enrollment.Selection, error) {
		return api.svc.ToggleSelection(reqCtx, clicked, current)
	})
	if err != nil {
		return errors.Wrap(err, "toggling selection")
	}
	return ctx.JSON(http.StatusOK, newSelectionResponse(sel))
}

func (api *stagingApi) clearSelection(ctx echo.Context) error {
	api.selections.Clear(contextOperator(ctx).ID)
	return ctx.NoContent(http.StatusNoContent)
}
