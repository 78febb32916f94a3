package request

import (
	"context"

	"github.com/labstack/echo/v4"
)

func Context(c echo.Context) context.Context {
	return c.Request().Context()
}
