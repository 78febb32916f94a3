package start

import (
	"context"
	"encoding/json"

	runentity "github.com/stemsplit/stemsplit-be/src/shared/run/entity"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/application/jobs/job_message"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/lib/cerr"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const JobType string = "start_run"
const ErrorMessage string = "Failed to start processing the audio separation"

//counterfeiter:generate . StartJobHandler
type StartJobHandler interface {
	HandleStartJob(message []byte) (JobParams, error)
}

type JobParams struct {
	job_message.RunIdentifier
}

func NewJobHandler(runStore runentity.Store) JobHandler {
	return JobHandler{
		runStore: runStore,
	}
}

type JobHandler struct {
	runStore runentity.Store
}

func (d JobHandler) HandleStartJob(message []byte) (JobParams, error) {
	params, err := unmarshalMessage(message)
	if err != nil {
		return JobParams{}, cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	errctx := cerr.Field("run_id", params.RunID)

	updater := func(run runentity.Run) (runentity.Run, error) {
		if run.Status != runentity.RequestedStatus {
			return runentity.Run{}, errctx.Error("Run is not in requested status, abort processing to be safe")
		}

		run.Status = runentity.ProcessingStatus

		return run, nil
	}

	err = d.runStore.UpdateRun(context.Background(), params.RunID, updater)
	if err != nil {
		return JobParams{}, errctx.Wrap(err).Error("Failed to set the run status")
	}

	return params, nil
}

func unmarshalMessage(message []byte) (JobParams, error) {
	params := JobParams{}
	err := json.Unmarshal(message, &params)
	if err != nil {
		return JobParams{}, cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	if params.RunID == "" {
		return JobParams{}, cerr.Field("job_params", params).Error("Missing run ID")
	}

	return params, nil
}
