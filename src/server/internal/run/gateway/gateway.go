package rungateway

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/stemsplit/stemsplit-be/src/server/internal/errors/api"
	"github.com/stemsplit/stemsplit-be/src/server/internal/errors/gateway"
	"github.com/stemsplit/stemsplit-be/src/server/internal/lib/request"
	runerrors "github.com/stemsplit/stemsplit-be/src/server/internal/run/errors"
	runusecase "github.com/stemsplit/stemsplit-be/src/server/internal/run/usecase"
)

type CreateRunRequest struct {
	Algorithm    string `json:"algorithm"`
	Audio        string `json:"audio"`
	OutputFormat string `json:"outputFormat"`
	Quality      string `json:"quality"`
}

type Gateway struct {
	usecase runusecase.Usecase
}

func NewGateway(usecase runusecase.Usecase) Gateway {
	return Gateway{
		usecase: usecase,
	}
}

func (g Gateway) CreateRun(c echo.Context) error {
	ctx := request.Context(c)

	createRequest := CreateRunRequest{}
	err := c.Bind(&createRequest)
	if err != nil {
		err = errors.Wrap(err, "Failed to bind request body to run creation object")
		apiErr := api.CommitError(err,
			runerrors.BadRunDataCode,
			"The run request received was malformed")
		return gateway.ErrorResponse(c, apiErr)
	}

	run, apiErr := g.usecase.CreateRun(ctx,
		createRequest.Algorithm,
		createRequest.Audio,
		createRequest.OutputFormat,
		createRequest.Quality)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to create a new run")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusCreated, run)
}

func (g Gateway) GetRun(c echo.Context, runID string) error {
	ctx := request.Context(c)

	run, apiErr := g.usecase.GetRun(ctx, runID)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to get run")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, run)
}

func (g Gateway) CancelRun(c echo.Context, runID string) error {
	ctx := request.Context(c)

	run, apiErr := g.usecase.CancelRun(ctx, runID)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to cancel run")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, run)
}
