package job_router

import (
	"context"
	"encoding/json"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stemsplit/stemsplit-be/src/shared/lib/rabbitmq"
	runentity "github.com/stemsplit/stemsplit-be/src/shared/run/entity"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/application/jobs/job_message"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/application/jobs/process"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/application/jobs/save_stems"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/application/jobs/start"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/lib/cerr"
)

func NewJobRouter(
	runStore runentity.Store,
	publisher rabbitmq.Publisher,
	startHandler start.StartJobHandler,
	processHandler process.ProcessJobHandler,
	saveStemsHandler save_stems.SaveStemsJobHandler,
) JobRouter {
	return JobRouter{
		runStore:         runStore,
		publisher:        publisher,
		startHandler:     startHandler,
		processHandler:   processHandler,
		saveStemsHandler: saveStemsHandler,
	}
}

// JobRouter dispatches queue messages to the job handlers and chains
// the next job on success. A failed job marks the run record as
// errored before the error is returned to the worker for a nack.
type JobRouter struct {
	runStore         runentity.Store
	publisher        rabbitmq.Publisher
	startHandler     start.StartJobHandler
	processHandler   process.ProcessJobHandler
	saveStemsHandler save_stems.SaveStemsJobHandler
}

func (j JobRouter) HandleMessage(message amqp091.Delivery) error {
	err := j.routeMessage(message)
	if err != nil {
		if errors.Is(err, process.ErrRunCancelled) {
			log.WithField("message_type", message.Type).
				Info("Job stopped for a cancelled run")
			return nil
		}

		j.markRunError(message, errorMessageFor(message.Type))
		return cerr.Field("message_type", message.Type).
			Wrap(err).Error("Failed to handle message")
	}

	return nil
}

func (j JobRouter) routeMessage(message amqp091.Delivery) error {
	switch message.Type {
	case start.JobType:
		return j.handleStartJob(message)
	case process.JobType:
		return j.handleProcessJob(message)
	case save_stems.JobType:
		return j.handleSaveStemsJob(message)
	default:
		return cerr.Field("message_type", message.Type).
			Error("Unrecognized message type")
	}
}

func (j JobRouter) handleStartJob(message amqp091.Delivery) error {
	params, err := j.startHandler.HandleStartJob(message.Body)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to handle the start job")
	}

	nextParams := process.JobParams{
		RunIdentifier: params.RunIdentifier,
	}

	return j.publishNextJob(process.JobType, nextParams)
}

func (j JobRouter) handleProcessJob(message amqp091.Delivery) error {
	params, stemURLs, err := j.processHandler.HandleProcessJob(message.Body)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to handle the process job")
	}

	nextParams := save_stems.JobParams{
		RunIdentifier: params.RunIdentifier,
		StemURLs:      stemURLs,
	}

	return j.publishNextJob(save_stems.JobType, nextParams)
}

func (j JobRouter) handleSaveStemsJob(message amqp091.Delivery) error {
	err := j.saveStemsHandler.HandleSaveStemsJob(message.Body)
	if err != nil {
		return cerr.Wrap(err).Error("Failed to handle the save stems job")
	}

	return nil
}

func (j JobRouter) publishNextJob(jobType string, params any) error {
	jsonBytes, err := json.Marshal(params)
	if err != nil {
		return cerr.Field("job_params", params).
			Wrap(err).Error("Failed to marshal next job params")
	}

	publishMessage := amqp091.Publishing{
		Type: jobType,
		Body: jsonBytes,
	}

	err = j.publisher.Publish(publishMessage)
	if err != nil {
		return cerr.Field("job_type", jobType).
			Wrap(err).Error("Failed to publish the next job message")
	}

	return nil
}

// markRunError makes a best effort attempt to surface the failure on
// the run record so that clients stop polling a run that died.
func (j JobRouter) markRunError(message amqp091.Delivery, statusMessage string) {
	identifier := job_message.RunIdentifier{}
	if err := json.Unmarshal(message.Body, &identifier); err != nil || identifier.RunID == "" {
		log.WithField("message_type", message.Type).
			Error("Can't mark run as errored, no run ID in the message")
		return
	}

	updater := func(run runentity.Run) (runentity.Run, error) {
		if run.Status == runentity.CancelledStatus {
			return run, nil
		}

		run.Status = runentity.ErrorStatus
		run.StatusMessage = statusMessage
		return run, nil
	}

	err := j.runStore.UpdateRun(context.Background(), identifier.RunID, updater)
	if err != nil {
		cerr.Log(cerr.Field("run_id", identifier.RunID).
			Wrap(err).Error("Failed to mark run as errored"))
	}
}

func errorMessageFor(messageType string) string {
	switch messageType {
	case start.JobType:
		return start.ErrorMessage
	case process.JobType:
		return process.ErrorMessage
	case save_stems.JobType:
		return save_stems.ErrorMessage
	default:
		return "Failed to process the run"
	}
}
