package gateway

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stemsplit/stemsplit-be/src/server/api_error"
	"github.com/stemsplit/stemsplit-be/src/server/internal/errors/api"
	runerrors "github.com/stemsplit/stemsplit-be/src/server/internal/run/errors"
)

var httpStatusCodeMap = map[api.ErrorCode]int{
	api.DefaultErrorCode:            http.StatusInternalServerError,
	runerrors.RunNotFoundCode:       http.StatusNotFound,
	runerrors.BadRunDataCode:        http.StatusBadRequest,
	runerrors.UnknownAlgorithmCode:  http.StatusBadRequest,
	runerrors.RunNotCancellableCode: http.StatusConflict,
}

func ErrorResponse(c echo.Context, err *api.Error) error {
	statusCode, ok := httpStatusCodeMap[err.ErrorCode]
	if !ok {
		msg := fmt.Sprintf("Error code %s has no HTTP status code mapping", err.ErrorCode)
		panic(msg)
	}

	return c.JSON(statusCode, api_error.JSONAPIError{
		Code:         string(err.ErrorCode),
		Msg:          err.UserMessage,
		ErrorDetails: err.Error(),
	})
}
