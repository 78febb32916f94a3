package save_stems

import (
	"context"
	"encoding/json"

	runentity "github.com/stemsplit/stemsplit-be/src/shared/run/entity"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/application/jobs/job_message"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/lib/cerr"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const JobType string = "save_stems"
const ErrorMessage string = "Failed to save the separated stems"

//counterfeiter:generate . SaveStemsJobHandler
type SaveStemsJobHandler interface {
	HandleSaveStemsJob(message []byte) error
}

type JobParams struct {
	job_message.RunIdentifier
	StemURLs map[string]string `json:"stem_urls"`
}

func NewJobHandler(runStore runentity.Store) JobHandler {
	return JobHandler{runStore: runStore}
}

type JobHandler struct {
	runStore runentity.Store
}

// HandleSaveStemsJob finishes the run record: both stem URLs are
// attached, progress goes to 100 and the status turns complete.
func (h JobHandler) HandleSaveStemsJob(message []byte) error {
	params, err := unmarshalMessage(message)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	errctx := cerr.Field("job_params", params)

	updater := func(run runentity.Run) (runentity.Run, error) {
		if run.Status == runentity.CancelledStatus {
			return run, nil
		}

		run.Status = runentity.CompleteStatus
		run.Progress = 100
		run.StemURLs = params.StemURLs
		return run, nil
	}

	err = h.runStore.UpdateRun(context.Background(), params.RunID, updater)
	if err != nil {
		return errctx.Wrap(err).Error("Failed to update run to complete")
	}

	return nil
}

func unmarshalMessage(message []byte) (JobParams, error) {
	params := JobParams{}
	err := json.Unmarshal(message, &params)
	if err != nil {
		return JobParams{}, cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	errctx := cerr.Field("job_params", params)

	if params.RunID == "" {
		return JobParams{}, errctx.Error("Missing run ID")
	}

	if len(params.StemURLs) == 0 {
		return JobParams{}, errctx.Error("Missing stem URLs")
	}

	return params, nil
}
