package save_stems_test

import (
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stemsplit/stemsplit-be/src/engine/separate"
	runentity "github.com/stemsplit/stemsplit-be/src/shared/run/entity"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/application/integration_test/dummy"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/application/jobs/job_message"
	"github.com/stemsplit/stemsplit-be/src/worker/internal/application/jobs/save_stems"
)

var _ = Describe("SaveStems", func() {
	var (
		dummyRunStore *dummy.RunStore

		handler save_stems.JobHandler

		message []byte

		runID    string
		stemURLs map[string]string
	)

	BeforeEach(func() {
		By("Initializing all variables", func() {
			message = nil

			dummyRunStore = dummy.NewDummyRunStore()

			stemURLs = map[string]string{
				runentity.VocalsStem:       "https://storage.example.com/bucket/run/vocals.wav",
				runentity.InstrumentalStem: "https://storage.example.com/bucket/run/instrumental.wav",
			}
		})

		By("Setting up the dummy run store data", func() {
			newRun := runentity.New(string(separate.AlgorithmDualHeuristic), "wav", "high")
			newRun.Status = runentity.ProcessingStatus
			newRun.Progress = 99
			runID = newRun.ID

			err := dummyRunStore.SetRun(context.Background(), newRun)
			Expect(err).NotTo(HaveOccurred())
		})

		By("Instantiating the handler", func() {
			handler = save_stems.NewJobHandler(dummyRunStore)
		})
	})

	Describe("Well formed message", func() {
		BeforeEach(func() {
			var err error
			message, err = json.Marshal(save_stems.JobParams{
				RunIdentifier: job_message.RunIdentifier{RunID: runID},
				StemURLs:      stemURLs,
			})
			Expect(err).NotTo(HaveOccurred())
		})

		Describe("Happy path", func() {
			var err error

			BeforeEach(func() {
				err = handler.HandleSaveStemsJob(message)
			})

			It("doesn't return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("completes the run record", func() {
				record, err := dummyRunStore.GetRun(context.Background(), runID)
				Expect(err).NotTo(HaveOccurred())

				Expect(record.Status).To(Equal(runentity.CompleteStatus))
				Expect(record.Progress).To(Equal(100))
				Expect(record.StemURLs).To(Equal(stemURLs))
			})
		})

		Describe("Run was cancelled in the meantime", func() {
			BeforeEach(func() {
				err := dummyRunStore.UpdateRun(context.Background(), runID, func(record runentity.Run) (runentity.Run, error) {
					record.Status = runentity.CancelledStatus
					return record, nil
				})
				Expect(err).NotTo(HaveOccurred())
			})

			It("leaves the record cancelled", func() {
				err := handler.HandleSaveStemsJob(message)
				Expect(err).NotTo(HaveOccurred())

				record, err := dummyRunStore.GetRun(context.Background(), runID)
				Expect(err).NotTo(HaveOccurred())
				Expect(record.Status).To(Equal(runentity.CancelledStatus))
			})
		})

		Describe("Can't reach run store", func() {
			BeforeEach(func() {
				dummyRunStore.Unavailable = true
			})

			It("returns an error", func() {
				err := handler.HandleSaveStemsJob(message)
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Message is missing the stem URLs", func() {
		BeforeEach(func() {
			var err error
			message, err = json.Marshal(save_stems.JobParams{
				RunIdentifier: job_message.RunIdentifier{RunID: runID},
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns an error", func() {
			err := handler.HandleSaveStemsJob(message)
			Expect(err).To(HaveOccurred())
		})
	})
})
