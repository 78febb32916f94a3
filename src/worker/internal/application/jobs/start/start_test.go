package start_test

import (
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stemsplit/stemsplit-be/src/engine/separate"
	runentity "github.com/stemsplit/stemsplit-be/src/shared/run/entity"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/application/integration_test/dummy"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/application/jobs/job_message"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/application/jobs/start"
)

var _ = Describe("Start", func() {
	var (
		dummyRunStore *dummy.RunStore

		handler start.JobHandler

		message []byte

		runID string
	)

	BeforeEach(func() {
		By("Initializing all variables", func() {
			message = nil

			dummyRunStore = dummy.NewDummyRunStore()
		})

		By("Setting up the dummy run store data", func() {
			newRun := runentity.New(string(separate.AlgorithmCenterChannel), "wav", "high")
			runID = newRun.ID

			err := dummyRunStore.SetRun(context.Background(), newRun)
			Expect(err).NotTo(HaveOccurred())
		})

		By("Instantiating the handler", func() {
			handler = start.NewJobHandler(dummyRunStore)
		})
	})

	Describe("Well formed message", func() {
		var job start.JobParams

		BeforeEach(func() {
			job = start.JobParams{
				RunIdentifier: job_message.RunIdentifier{
					RunID: runID,
				},
			}

			var err error
			message, err = json.Marshal(job)
			Expect(err).NotTo(HaveOccurred())
		})

		Describe("Happy path", func() {
			var err error
			var jobParams start.JobParams

			BeforeEach(func() {
				jobParams, err = handler.HandleStartJob(message)
			})

			It("doesn't return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("updates the run status", func() {
				record, err := dummyRunStore.GetRun(context.Background(), runID)
				Expect(err).NotTo(HaveOccurred())
				Expect(record.Status).To(Equal(runentity.ProcessingStatus))
			})

			It("returns the processed data", func() {
				Expect(jobParams.RunID).To(Equal(job.RunID))
			})
		})

		Describe("Run is not in requested status", func() {
			BeforeEach(func() {
				err := dummyRunStore.UpdateRun(context.Background(), runID, func(record runentity.Run) (runentity.Run, error) {
					record.Status = runentity.CompleteStatus
					return record, nil
				})
				Expect(err).NotTo(HaveOccurred())
			})

			It("returns an error", func() {
				_, err := handler.HandleStartJob(message)
				Expect(err).To(HaveOccurred())
			})
		})

		Describe("Can't reach run store", func() {
			BeforeEach(func() {
				dummyRunStore.Unavailable = true
			})

			It("returns an error", func() {
				_, err := handler.HandleStartJob(message)
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Poorly formed message", func() {
		BeforeEach(func() {
			message = []byte(`{"run_id":""}`)
		})

		It("returns an error", func() {
			_, err := handler.HandleStartJob(message)
			Expect(err).To(HaveOccurred())
		})
	})
})
