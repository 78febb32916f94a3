package process

import (
	"context"
	"encoding/json"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/stemsplit/stemsplit-be/src/engine/pipeline"
	"github.com/stemsplit/stemsplit-be/src/shared/cloud_storage/store"
	"github.com/stemsplit/stemsplit-be/src/shared/lib/storagepath"
	runentity "github.com/stemsplit/stemsplit-be/src/shared/run/entity"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/application/jobs/job_message"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/lib/cerr"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

const JobType string = "process_run"
const ErrorMessage string = "Failed to separate the audio track"

// ErrRunCancelled marks a run that was cancelled while this job held
// it. The router treats it as a clean stop, not a failure.
var ErrRunCancelled = errors.New("Run was cancelled during processing")

type StemURLs = map[string]string

//counterfeiter:generate . ProcessJobHandler
type ProcessJobHandler interface {
	HandleProcessJob(message []byte) (JobParams, StemURLs, error)
}

type JobParams struct {
	job_message.RunIdentifier
}

func NewJobHandler(runStore runentity.Store, fileStore store.FileStore, pathGenerator storagepath.Generator) JobHandler {
	return JobHandler{
		runStore:      runStore,
		fileStore:     fileStore,
		pathGenerator: pathGenerator,
	}
}

type JobHandler struct {
	runStore      runentity.Store
	fileStore     store.FileStore
	pathGenerator storagepath.Generator
}

// HandleProcessJob runs the whole separation for one run: fetch the
// original audio, drive the engine pipeline while relaying progress
// into the run record, then upload both stems.
func (h JobHandler) HandleProcessJob(message []byte) (JobParams, StemURLs, error) {
	ctx := context.Background()

	params, err := unmarshalMessage(message)
	if err != nil {
		return JobParams{}, nil, cerr.Wrap(err).Error("Failed to unmarshal message JSON")
	}

	errctx := cerr.Field("run_id", params.RunID)

	run, err := h.runStore.GetRun(ctx, params.RunID)
	if err != nil {
		return params, nil, errctx.Wrap(err).Error("Failed to get run from run store")
	}

	if run.Status == runentity.CancelledStatus {
		return params, nil, errors.Mark(errctx.Error("Run was already cancelled"), ErrRunCancelled)
	}

	originalBytes, err := h.fileStore.GetFile(ctx, run.OriginalURL)
	if err != nil {
		return params, nil, errctx.Field("original_url", run.OriginalURL).
			Wrap(err).Error("Failed to fetch the original audio")
	}

	result, err := h.runEngine(ctx, run, originalBytes)
	if err != nil {
		return params, nil, err
	}

	stemURLs, err := h.uploadStems(ctx, params.RunID, result)
	if err != nil {
		return params, nil, errctx.Wrap(err).Error("Failed to upload the separated stems")
	}

	return params, stemURLs, nil
}

func (h JobHandler) runEngine(ctx context.Context, run runentity.Run, originalBytes []byte) (pipeline.Result, error) {
	errctx := cerr.Field("run_id", run.ID).Field("algorithm", run.Algorithm)

	handle, err := pipeline.New().Submit(originalBytes, pipeline.Options{
		Algorithm:       run.Algorithm,
		OutputContainer: run.OutputFormat,
		Quality:         run.Quality,
	})
	if err != nil {
		return pipeline.Result{}, errctx.Wrap(err).Error("Failed to submit the run to the engine")
	}

	logger := log.WithField("run_id", run.ID)

	var result *pipeline.Result
	var failure *pipeline.Failure
	cancelled := false

	for message := range handle.Messages() {
		switch m := message.(type) {
		case pipeline.Progress:
			if cancelled {
				continue
			}

			wasCancelled, err := h.recordProgress(ctx, run.ID, m.Percent)
			if err != nil {
				// keep going: a missed progress write shouldn't
				// kill the run
				logger.WithError(err).Warn("Failed to record run progress")
				continue
			}

			if wasCancelled {
				logger.Info("Cancellation requested, discarding the engine run")
				cancelled = true
				handle.Cancel()
			}

		case pipeline.Result:
			result = &m

		case pipeline.Failure:
			failure = &m
		}
	}

	switch {
	case cancelled:
		return pipeline.Result{}, errors.Mark(errctx.Error("Run was cancelled"), ErrRunCancelled)
	case failure != nil:
		return pipeline.Result{}, errctx.Field("error_kind", failure.Kind).
			Error(failure.Message)
	case result == nil:
		return pipeline.Result{}, errctx.Error("Engine run ended without a terminal message")
	default:
		return *result, nil
	}
}

// recordProgress writes the engine's percent into the run record,
// reporting back whether a cancellation was requested meanwhile.
// Progress never moves backwards and stays below 100 until the stems
// are saved.
func (h JobHandler) recordProgress(ctx context.Context, runID string, percent float64) (wasCancelled bool, err error) {
	cancelled := false

	updater := func(run runentity.Run) (runentity.Run, error) {
		if run.Status == runentity.CancelledStatus {
			cancelled = true
			return run, nil
		}

		progress := int(percent)
		if progress > 99 {
			progress = 99
		}
		if progress < run.Progress {
			progress = run.Progress
		}

		run.Progress = progress
		return run, nil
	}

	if err := h.runStore.UpdateRun(ctx, runID, updater); err != nil {
		return false, err
	}

	return cancelled, nil
}

func (h JobHandler) uploadStems(ctx context.Context, runID string, result pipeline.Result) (StemURLs, error) {
	stems := map[string][]byte{
		runentity.VocalsStem:       result.Vocals,
		runentity.InstrumentalStem: result.Instrumental,
	}

	stemURLs := StemURLs{}
	for stemName, stemBytes := range stems {
		stemURL := h.pathGenerator.GeneratePath(runID, stemName+".wav")

		if err := h.fileStore.WriteFile(ctx, stemURL, stemBytes); err != nil {
			return nil, cerr.Field("stem_url", stemURL).
				Wrap(err).Error("Failed to write stem file")
		}

		stemURLs[stemName] = stemURL
	}

	return stemURLs, nil
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
