package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// SuccessResponse writes the payload as-is with HTTP 200. Payload shapes are
// endpoint-specific in the bridge protocol, so no envelope is imposed here.
func SuccessResponse(c echo.Context, payload interface{}) error {
	return c.JSON(http.StatusOK, payload)
}

// StatusOK writes the bare {status: ok} body used by the health route.
func StatusOK(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok", Message: message})
}

// FailResponse writes the {status: error, message} envelope with the given
// HTTP status code.
func FailResponse(c echo.Context, code int, message string) error {
	return c.JSON(code, ErrorResponse{Status: "error", Message: message})
}

// BadRequestResponse writes a client error.
func BadRequestResponse(c echo.Context, message string) error {
	return FailResponse(c, http.StatusBadRequest, message)
}

// NotFoundResponse writes a not-found error.
func NotFoundResponse(c echo.Context, message string) error {
	return FailResponse(c, http.StatusNotFound, message)
}

// AppErrorResponse maps an error to the wire envelope. Unrecognized errors
// report a generic client error; nothing here is ever fatal to the process.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return FailResponse(c, appErr.Status, appErr.Message)
	}
	return FailResponse(c, http.StatusBadRequest, err.Error())
}
