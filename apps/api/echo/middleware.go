package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/placement/core"
)

const (
	operatorIDHeader   = "X-Operator-ID"
	operatorNameHeader = "X-Operator-Name"
)

// operatorMiddleware puts the calling operator in the request context.
// Requests without an operator header share the default operator.
func operatorMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			op := core.Operator{
				ID:   core.CleanString(ctx.Request().Header.Get(operatorIDHeader)),
				Name: core.CleanString(ctx.Request().Header.Get(operatorNameHeader)),
			}
			if op.ID == "" {
				op.ID = core.DefaultOperatorID
			}
			req := ctx.Request()
			ctx.SetRequest(req.WithContext(core.WithOperator(req.Context(), op)))
			return next(ctx)
		}
	}
}

func contextOperator(ctx echo.Context) core.Operator {
	return core.OperatorFrom(ctx.Request().Context())
}
