package run_test

import (
	"context"
	"encoding/base64"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stemsplit/stemsplit-be/src/engine/separate"
	"github.com/stemsplit/stemsplit-be/src/server/internal/errors/api"
	runerrors "github.com/stemsplit/stemsplit-be/src/server/internal/run/errors"
	runusecase "github.com/stemsplit/stemsplit-be/src/server/internal/run/usecase"
	"github.com/stemsplit/stemsplit-be/src/shared/lib/storagepath"
	runentity "github.com/stemsplit/stemsplit-be/src/shared/run/entity"
)

var _ = Describe("Run usecase", func() {
	var (
		runStore  *fakeRunStore
		fileStore *fakeFileStore
		publisher *fakePublisher

		usecase runusecase.Usecase

		audioBase64 string
	)

	BeforeEach(func() {
		runStore = newFakeRunStore()
		fileStore = newFakeFileStore()
		publisher = newFakePublisher()

		pathGenerator := storagepath.Generator{
			Host:   "https://storage.example.com",
			Bucket: "stem-bucket",
		}

		usecase = runusecase.NewUsecase(runStore, fileStore, pathGenerator, publisher)

		audioBase64 = base64.StdEncoding.EncodeToString([]byte("pretend audio bytes"))
	})

	Describe("CreateRun", func() {
		Describe("Happy path", func() {
			var created runentity.Run

			BeforeEach(func() {
				var apiErr *api.Error
				created, apiErr = usecase.CreateRun(context.Background(),
					string(separate.AlgorithmCenterChannel), audioBase64, "wav", "high")
				Expect(apiErr).To(BeNil())
			})

			It("returns a requested run with initial progress", func() {
				Expect(created.ID).NotTo(BeEmpty())
				Expect(created.Status).To(Equal(runentity.RequestedStatus))
				Expect(created.Progress).To(Equal(runentity.InitialProgressPercentage))
			})

			It("persists the run record", func() {
				stored, err := runStore.GetRun(context.Background(), created.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(stored).To(Equal(created))
			})

			It("uploads the original audio", func() {
				contents, err := fileStore.GetFile(context.Background(), created.OriginalURL)
				Expect(err).NotTo(HaveOccurred())
				Expect(contents).To(Equal([]byte("pretend audio bytes")))
			})

			It("queues a start job for the run", func() {
				Eventually(func() int {
					return len(publisher.publishedMessages())
				}).Should(Equal(1))

				message := publisher.publishedMessages()[0]
				Expect(message.Type).To(Equal("start_run"))

				body := map[string]string{}
				Expect(json.Unmarshal(message.Body, &body)).To(Succeed())
				Expect(body).To(HaveKeyWithValue("run_id", created.ID))
			})
		})

		Describe("Unknown algorithm", func() {
			It("rejects the request", func() {
				_, apiErr := usecase.CreateRun(context.Background(),
					"psychic", audioBase64, "wav", "high")
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(runerrors.UnknownAlgorithmCode))
			})
		})

		Describe("Malformed base64 audio", func() {
			It("rejects the request", func() {
				_, apiErr := usecase.CreateRun(context.Background(),
					string(separate.AlgorithmCenterChannel), "!!!not-base64!!!", "wav", "high")
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(runerrors.BadRunDataCode))
			})
		})

		Describe("Empty audio payload", func() {
			It("rejects the request", func() {
				_, apiErr := usecase.CreateRun(context.Background(),
					string(separate.AlgorithmCenterChannel), "", "wav", "high")
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(runerrors.BadRunDataCode))
			})
		})

		Describe("File store is down", func() {
			BeforeEach(func() {
				fileStore.unavailable = true
			})

			It("fails with the default error code", func() {
				_, apiErr := usecase.CreateRun(context.Background(),
					string(separate.AlgorithmCenterChannel), audioBase64, "wav", "high")
				Expect(apiErr).NotTo(BeNil())
				Expect(apiErr.ErrorCode).To(Equal(api.DefaultErrorCode))
			})
		})

		Describe("Queue is down", func() {
			BeforeEach(func() {
				publisher.unavailable = true
			})

			It("surfaces the failure on the run record", func() {
				created, apiErr := usecase.CreateRun(context.Background(),
					string(separate.AlgorithmCenterChannel), audioBase64, "wav", "high")
				Expect(apiErr).To(BeNil())

				Eventually(func() runentity.Status {
					record, err := runStore.GetRun(context.Background(), created.ID)
					if err != nil {
						return ""
					}
					return record.Status
				}).Should(Equal(runentity.ErrorStatus))
			})
		})
	})

	Describe("GetRun", func() {
		var existing runentity.Run

		BeforeEach(func() {
			existing = runentity.New(string(separate.AlgorithmCorrelation), "wav", "high")
			Expect(runStore.SetRun(context.Background(), existing)).To(Succeed())
		})

		It("returns the stored record", func() {
			fetched, apiErr := usecase.GetRun(context.Background(), existing.ID)
			Expect(apiErr).To(BeNil())
			Expect(fetched).To(Equal(existing))
		})

		It("reports a missing run as not found", func() {
			_, apiErr := usecase.GetRun(context.Background(), "no-such-run")
			Expect(apiErr).NotTo(BeNil())
			Expect(apiErr.ErrorCode).To(Equal(runerrors.RunNotFoundCode))
		})
	})

	Describe("CancelRun", func() {
		var existing runentity.Run

		BeforeEach(func() {
			existing = runentity.New(string(separate.AlgorithmCorrelation), "wav", "high")
			existing.Status = runentity.ProcessingStatus
			Expect(runStore.SetRun(context.Background(), existing)).To(Succeed())
		})

		It("flips an active run to cancelled", func() {
			cancelled, apiErr := usecase.CancelRun(context.Background(), existing.ID)
			Expect(apiErr).To(BeNil())
			Expect(cancelled.Status).To(Equal(runentity.CancelledStatus))

			record, err := runStore.GetRun(context.Background(), existing.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.Status).To(Equal(runentity.CancelledStatus))
		})

		It("tolerates cancelling the same run twice", func() {
			_, apiErr := usecase.CancelRun(context.Background(), existing.ID)
			Expect(apiErr).To(BeNil())

			cancelled, apiErr := usecase.CancelRun(context.Background(), existing.ID)
			Expect(apiErr).To(BeNil())
			Expect(cancelled.Status).To(Equal(runentity.CancelledStatus))
		})

		It("rejects cancelling a finished run", func() {
			Expect(runStore.UpdateRun(context.Background(), existing.ID, func(record runentity.Run) (runentity.Run, error) {
				record.Status = runentity.CompleteStatus
				return record, nil
			})).To(Succeed())

			_, apiErr := usecase.CancelRun(context.Background(), existing.ID)
			Expect(apiErr).NotTo(BeNil())
			Expect(apiErr.ErrorCode).To(Equal(runerrors.RunNotCancellableCode))
		})

		It("reports a missing run as not found", func() {
			_, apiErr := usecase.CancelRun(context.Background(), "no-such-run")
			Expect(apiErr).NotTo(BeNil())
			Expect(apiErr.ErrorCode).To(Equal(runerrors.RunNotFoundCode))
		})
	})
})
