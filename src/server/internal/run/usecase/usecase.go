package runusecase

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stemsplit/stemsplit-be/src/engine/separate"
	"github.com/stemsplit/stemsplit-be/src/server/internal/errors/api"
	runerrors "github.com/stemsplit/stemsplit-be/src/server/internal/run/errors"
	"github.com/stemsplit/stemsplit-be/src/shared/cloud_storage/store"
	"github.com/stemsplit/stemsplit-be/src/shared/lib/rabbitmq"
	"github.com/stemsplit/stemsplit-be/src/shared/lib/storagepath"
	runentity "github.com/stemsplit/stemsplit-be/src/shared/run/entity"
	runstorage "github.com/stemsplit/stemsplit-be/src/shared/run/storage"
)

const startJobType = "start_run"

const originalFileName = "original"

type Usecase struct {
	db            runentity.Store
	fileStore     store.FileStore
	pathGenerator storagepath.Generator
	publisher     rabbitmq.Publisher
}

func NewUsecase(db runentity.Store, fileStore store.FileStore, pathGenerator storagepath.Generator, publisher rabbitmq.Publisher) Usecase {
	return Usecase{
		db:            db,
		fileStore:     fileStore,
		pathGenerator: pathGenerator,
		publisher:     publisher,
	}
}

// CreateRun accepts the submitted audio, persists the run record in
// requested status and queues the first job. The heavy lifting happens
// on the worker, the caller gets the run record back right away and
// polls it for progress.
func (u Usecase) CreateRun(ctx context.Context, algorithm string, audioBase64 string, outputFormat string, quality string) (runentity.Run, *api.Error) {
	if _, err := separate.ParseAlgorithm(algorithm); err != nil {
		return runentity.Run{}, api.CommitError(err,
			runerrors.UnknownAlgorithmCode,
			"The requested separation algorithm doesn't exist")
	}

	audioBytes, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		err = errors.Wrap(err, "Failed to decode the base64 audio payload")
		return runentity.Run{}, api.CommitError(err,
			runerrors.BadRunDataCode,
			"The audio data received was malformed")
	}

	if len(audioBytes) == 0 {
		return runentity.Run{}, api.CommitError(
			errors.New("Submitted audio payload is empty"),
			runerrors.BadRunDataCode,
			"No audio data was submitted")
	}

	run := runentity.New(algorithm, outputFormat, quality)

	originalURL := u.pathGenerator.GeneratePath(run.ID, originalFileName)
	if err := u.fileStore.WriteFile(ctx, originalURL, audioBytes); err != nil {
		err = errors.Wrap(err, "Failed to store the original audio")
		return runentity.Run{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to store the submitted audio")
	}

	run.OriginalURL = originalURL

	if err := u.db.SetRun(ctx, run); err != nil {
		err = errors.Wrap(err, "Failed to save the new run record")
		return runentity.Run{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to save the run")
	}

	// non-blocking, a failed publish is surfaced on the record instead
	go u.publishStartJob(run.ID)

	return run, nil
}

func (u Usecase) GetRun(ctx context.Context, runID string) (runentity.Run, *api.Error) {
	run, err := u.db.GetRun(ctx, runID)
	if err != nil {
		err = errors.Wrap(err, "Failed to get run from DB")
		switch {
		case markers.Is(err, runstorage.RunNotFound):
			return runentity.Run{}, api.CommitError(err,
				runerrors.RunNotFoundCode,
				"This separation run doesn't exist")

		case markers.Is(err, runstorage.UnmarshalMark):
			fallthrough
		case markers.Is(err, runstorage.DefaultErrorMark):
			fallthrough
		default:
			return runentity.Run{}, api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown error: Failed to fetch the run")
		}
	}

	return run, nil
}

// CancelRun flips the record to cancelled. The worker picks the status
// change up at its next progress write and abandons the engine run.
func (u Usecase) CancelRun(ctx context.Context, runID string) (runentity.Run, *api.Error) {
	var cancelled runentity.Run

	updater := func(run runentity.Run) (runentity.Run, error) {
		if run.Status == runentity.CancelledStatus {
			// cancelling twice is fine, leave the record alone
			cancelled = run
			return run, nil
		}

		if run.IsTerminal() {
			return runentity.Run{}, errors.Mark(
				errors.Newf("Run is already in status %s", run.Status),
				runNotCancellable)
		}

		run.Status = runentity.CancelledStatus
		cancelled = run
		return run, nil
	}

	err := u.db.UpdateRun(ctx, runID, updater)
	if err != nil {
		err = errors.Wrap(err, "Failed to cancel run")
		switch {
		case markers.Is(err, runstorage.RunNotFound):
			return runentity.Run{}, api.CommitError(err,
				runerrors.RunNotFoundCode,
				"This separation run doesn't exist")

		case markers.Is(err, runNotCancellable):
			return runentity.Run{}, api.CommitError(err,
				runerrors.RunNotCancellableCode,
				"This run has already finished and can't be cancelled")

		default:
			return runentity.Run{}, api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown error: Failed to cancel the run")
		}
	}

	return cancelled, nil
}

var runNotCancellable = errors.New("Run is not cancellable")

func (u Usecase) publishStartJob(runID string) {
	err := func() error {
		jsonBytes, err := json.Marshal(map[string]string{
			"run_id": runID,
		})
		if err != nil {
			return errors.Wrap(err, "Failed to marshal run ID for queue msg")
		}

		publishMsg := amqp091.Publishing{
			Type: startJobType,
			Body: jsonBytes,
		}

		if err := u.publisher.Publish(publishMsg); err != nil {
			return errors.Wrap(err, "Failed to publish message to rabbitmq")
		}

		return nil
	}()

	if err != nil {
		u.markRunFailed(runID, err)
	}
}

func (u Usecase) markRunFailed(runID string, cause error) {
	updater := func(run runentity.Run) (runentity.Run, error) {
		run.Status = runentity.ErrorStatus
		run.StatusMessage = "Failed to queue the run for processing"
		return run, nil
	}

	err := u.db.UpdateRun(context.Background(), runID, updater)
	if err != nil {
		log.WithField("run_id", runID).
			WithError(cause).
			Error("Failed to mark run as errored in DB")
		return
	}
}
