package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/placement/core/enrollment"
)

type sectionApi struct {
	svc *enrollment.Service
}

func registerSectionAPI(g *echo.Group, svc *enrollment.Service) {
	api := sectionApi{svc: svc}

	sg := g.Group("/sections")
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.GET("/:id/students", api.students)
}

// Handlers

func (api *sectionApi) create(ctx echo.Context) error {
	var data enrollment.NewSection
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSection")
	}

	sec, err := api.svc.CreateSection(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sec)
}

func (api *sectionApi) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx, enrollment.SectionOrderingFields...)

	sections, err := api.svc.QuerySections(ctx.Request().Context(), ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying sections")
	}
	if sections == nil {
		sections = []enrollment.Section{}
	}
	return ctx.JSON(http.StatusOK, sections)
}

func (api *sectionApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	sec, err := api.svc.GetSection(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sec)
}

func (api *sectionApi) update(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	var data enrollment.UpdateSection
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSection")
	}

	sec, err := api.svc.UpdateSection(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sec)
}

func (api *sectionApi) students(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if _, err := api.svc.GetSection(ctx.Request().Context(), id); err != nil {
		return err
	}

	students, err := api.svc.QueryStudents(ctx.Request().Context(), enrollment.StudentFilter{SectionID: id})
	if err != nil {
		return errors.Wrap(err, "querying section students")
	}
	if students == nil {
		students = []enrollment.StudentRecord{}
	}
	return ctx.JSON(http.StatusOK, students)
}
