package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/enrollment"
)

var errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "not found")

type capacityExceededResponse struct {
	Error     string          `json:"error"`
	SectionID string          `json:"section_id"`
	Unit      enrollment.Unit `json:"unit"`
	FreeSeats int             `json:"free_seats"`
	Requested int             `json:"requested"`
}

func newCapacityExceededResponse(ce *enrollment.CapacityExceededError) capacityExceededResponse {
	return capacityExceededResponse{
		Error:     ce.Error(),
		SectionID: ce.SectionID.String(),
		Unit:      ce.Unit,
		FreeSeats: ce.FreeSeats,
		Requested: ce.Requested,
	}
}

type invalidBatchResponse struct {
	Error      string   `json:"error"`
	UnknownIDs []string `json:"unknown_ids,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *enrollment.InvalidBatchError:
			resp := invalidBatchResponse{Error: origErr.Error()}
			for _, id := range origErr.UnknownIDs {
				resp.UnknownIDs = append(resp.UnknownIDs, id.String())
			}
			code = http.StatusBadRequest
			message = resp
		case *enrollment.CapacityExceededError:
			code = http.StatusConflict
			message = newCapacityExceededResponse(origErr)
		default:
			if origErr == enrollment.ErrSectionNotFound || origErr == enrollment.ErrStudentNotFound {
				code = http.StatusNotFound
				message = origErr.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logger.Error(msg, errors.Wrap(err, msg), contextOperator(ctx))

			if ctx.Echo().Debug {
				message = err.Error()
			}
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
