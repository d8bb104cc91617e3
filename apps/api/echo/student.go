package echoapi

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/enrollment"
)

type (
	importRequest struct {
		Rows []enrollment.ExternalRosterRow `json:"rows"`
	}

	importResponse struct {
		enrollment.ImportReport
		Overflows []capacityExceededResponse `json:"overflows"`
	}
)

type studentApi struct {
	svc *enrollment.Service
}

func registerStudentAPI(g *echo.Group, svc *enrollment.Service) {
	api := studentApi{svc: svc}

	sg := g.Group("/students")
	sg.GET("", api.query)
	sg.POST("", api.create)

	ig := g.Group("/imports")
	ig.POST("", api.importRows)
	ig.POST("/preview", api.previewRows)
}

// Handlers

func (api *studentApi) create(ctx echo.Context) error {
	var data enrollment.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}

	rec, err := api.svc.AddStudent(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *studentApi) query(ctx echo.Context) error {
	var filter enrollment.StudentFilter
	if raw := ctx.QueryParam("staged"); raw != "" {
		staged, err := strconv.ParseBool(raw)
		if err != nil {
			return core.NewValidationError(errors.Wrap(err, "parsing staged"), core.FieldError{
				Field: "staged",
				Error: "must be true or false",
			})
		}
		filter.Staged = &staged
	}
	if raw := ctx.QueryParam("section"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return core.NewValidationError(errors.Wrap(err, "parsing section"), core.FieldError{
				Field: "section",
				Error: "must be a section id",
			})
		}
		filter.SectionID = id
	}

	students, err := api.svc.QueryStudents(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []enrollment.StudentRecord{}
	}
	return ctx.JSON(http.StatusOK, students)
}

// previewRows resolves rows against the current sections without writing anything.
func (api *studentApi) previewRows(ctx echo.Context) error {
	var data importRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to importRequest")
	}

	resolutions, err := api.svc.ResolveRows(ctx.Request().Context(), data.Rows)
	if err != nil {
		return err
	}
	if resolutions == nil {
		resolutions = []enrollment.RowResolution{}
	}
	return ctx.JSON(http.StatusOK, resolutions)
}

func (api *studentApi) importRows(ctx echo.Context) error {
	var data importRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to importRequest")
	}

	report, err := api.svc.Import(ctx.Request().Context(), data.Rows)
	if err != nil {
		return err
	}

	resp := importResponse{ImportReport: report, Overflows: []capacityExceededResponse{}}
	if resp.Records == nil {
		resp.Records = []enrollment.StudentRecord{}
	}
	if resp.MissingOrigins == nil {
		resp.MissingOrigins = []string{}
	}
	for _, ce := range report.Overflows {
		resp.Overflows = append(resp.Overflows, newCapacityExceededResponse(ce))
	}
	return ctx.JSON(http.StatusCreated, resp)
}
