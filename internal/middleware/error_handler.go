package middleware

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"finance-tracker/internal/errors"
	"finance-tracker/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var apiErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "api_errors_total",
		Help: "API error responses by code, route and status",
	},
	[]string{"code", "endpoint", "status"},
)

// codeForStatus picks an error code for echo errors raised outside handlers
// (router misses, body limit, binder failures).
var codeForStatus = map[int]errors.ErrorCode{
	http.StatusBadRequest:            errors.ValidationGeneral,
	http.StatusNotFound:              errors.ValidationGeneral,
	http.StatusMethodNotAllowed:      errors.ValidationGeneral,
	http.StatusUnprocessableEntity:   errors.ValidationGeneral,
	http.StatusUnauthorized:          errors.AuthMissingToken,
	http.StatusForbidden:             errors.AuthAccountInactive,
	http.StatusRequestEntityTooLarge: errors.ValidationOutOfRange,
	http.StatusUnsupportedMediaType:  errors.ValidationInvalidFormat,
	http.StatusTooManyRequests:       errors.SystemRateLimitExceeded,
	http.StatusInternalServerError:   errors.SystemInternalError,
	http.StatusServiceUnavailable:    errors.SystemServiceUnavailable,
}

func mapHTTPStatusToErrorCode(status int) errors.ErrorCode {
	if code, ok := codeForStatus[status]; ok {
		return code
	}
	return errors.SystemUnexpectedError
}

// CustomHTTPErrorHandler renders errors that escape handlers as ErrorResponse
// bodies. Validation failures returned raw from c.Validate end up here.
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	traceID := GetTraceID(c)
	if traceID == "" {
		traceID = "unknown"
	}

	resp, status := toErrorResponse(err, traceID)

	level := slog.LevelWarn
	if resp.IsServerError() || status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(c.Request().Context(), level, "Request failed",
		"trace_id", traceID,
		"error_code", resp.Error.Code,
		"status", status,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"error", err.Error(),
	)

	apiErrorsTotal.WithLabelValues(resp.Error.Code, c.Path(), strconv.Itoa(status)).Inc()

	if sendErr := c.JSON(status, resp); sendErr != nil {
		slog.Error("Writing error response failed", "trace_id", traceID, "error", sendErr.Error())
	}
}

func toErrorResponse(err error, traceID string) (*errors.ErrorResponse, int) {
	var httpErr *echo.HTTPError
	var fieldErrs validator.ValidationErrors

	switch {
	case stderrors.As(err, &httpErr):
		resp := errors.NewErrorResponse(
			mapHTTPStatusToErrorCode(httpErr.Code),
			traceID,
			errors.WithMessage(fmt.Sprint(httpErr.Message)),
		)
		return resp, httpErr.Code
	case stderrors.As(err, &fieldErrs):
		return errors.NewValidationError(validation.FieldErrors(fieldErrs), traceID), http.StatusBadRequest
	default:
		resp, _ := errors.WrapSystemError(err, traceID)
		return resp, resp.GetHTTPStatus()
	}
}
