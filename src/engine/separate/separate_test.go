package separate_test

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stemsplit/stemsplit-be/src/engine/audio"
	"github.com/stemsplit/stemsplit-be/src/engine/separate"
)

const tolerance = 1e-9

func makeBuffer(sampleRate int, planes ...[]float64) audio.Buffer {
	buffer, err := audio.NewBuffer(sampleRate, planes)
	Expect(err).NotTo(HaveOccurred())
	return buffer
}

func run(algorithm separate.Algorithm, input audio.Buffer) separate.Outputs {
	outputs, err := separate.Run(context.Background(), algorithm, input, nil)
	Expect(err).NotTo(HaveOccurred())
	return outputs
}

var _ = Describe("Run", func() {
	Describe("Output shapes", func() {
		var outputs separate.Outputs

		BeforeEach(func() {
			input := makeBuffer(44100,
				[]float64{0.1, 0.2, 0.3},
				[]float64{0.4, 0.5, 0.6})
			outputs = run(separate.AlgorithmCenterChannel, input)
		})

		It("produces a mono vocal stem", func() {
			Expect(outputs.Vocals.Channels()).To(Equal(1))
			Expect(outputs.Vocals.Frames()).To(Equal(3))
		})

		It("mirrors the input's channel layout on the instrumental stem", func() {
			Expect(outputs.Instrumental.Channels()).To(Equal(2))
			Expect(outputs.Instrumental.Frames()).To(Equal(3))
		})

		It("preserves the sample rate on both stems", func() {
			Expect(outputs.Vocals.SampleRate()).To(Equal(44100))
			Expect(outputs.Instrumental.SampleRate()).To(Equal(44100))
		})
	})

	Describe("Center channel extraction", func() {
		It("takes the L/R average as the vocal and subtracts half of it from each channel", func() {
			input := makeBuffer(8000, []float64{0.8}, []float64{0.4})
			outputs := run(separate.AlgorithmCenterChannel, input)

			center := (0.8 + 0.4) / 2
			Expect(outputs.Vocals.Sample(0, 0)).To(BeNumerically("~", center, tolerance))
			Expect(outputs.Instrumental.Sample(0, 0)).To(BeNumerically("~", 0.8-0.5*center, tolerance))
			Expect(outputs.Instrumental.Sample(1, 0)).To(BeNumerically("~", 0.4-0.5*center, tolerance))
		})

		Describe("Mono fallback", func() {
			It("passes the signal through as vocals and attenuates the instrumental", func() {
				input := makeBuffer(8000, []float64{0.4})
				outputs := run(separate.AlgorithmCenterChannel, input)

				Expect(outputs.Vocals.Channels()).To(Equal(1))
				Expect(outputs.Instrumental.Channels()).To(Equal(1))
				Expect(outputs.Vocals.Sample(0, 0)).To(BeNumerically("~", 0.4, tolerance))
				Expect(outputs.Instrumental.Sample(0, 0)).To(BeNumerically("~", 0.12, tolerance))
			})
		})
	})

	Describe("Correlation heuristic", func() {
		It("treats decorrelated frames as vocal and bleeds the estimate out of both channels", func() {
			input := makeBuffer(8000, []float64{0.5}, []float64{0.3})
			outputs := run(separate.AlgorithmCorrelation, input)

			vocal := (0.5 + 0.3) / 2
			Expect(outputs.Vocals.Sample(0, 0)).To(BeNumerically("~", vocal, tolerance))
			Expect(outputs.Instrumental.Sample(0, 0)).To(BeNumerically("~", 0.5-0.7*vocal, tolerance))
			Expect(outputs.Instrumental.Sample(1, 0)).To(BeNumerically("~", 0.3-0.7*vocal, tolerance))
		})

		It("leaves correlated frames untouched", func() {
			input := makeBuffer(8000, []float64{0.5}, []float64{0.45})
			outputs := run(separate.AlgorithmCorrelation, input)

			Expect(outputs.Vocals.Sample(0, 0)).To(BeZero())
			Expect(outputs.Instrumental.Sample(0, 0)).To(BeNumerically("~", 0.5, tolerance))
			Expect(outputs.Instrumental.Sample(1, 0)).To(BeNumerically("~", 0.45, tolerance))
		})

		It("yields a zero vocal on anticorrelated frames that cancel out", func() {
			input := makeBuffer(8000, []float64{1.0}, []float64{-1.0})
			outputs := run(separate.AlgorithmCorrelation, input)

			Expect(outputs.Vocals.Sample(0, 0)).To(BeZero())
			Expect(outputs.Instrumental.Sample(0, 0)).To(BeNumerically("~", 1.0, tolerance))
			Expect(outputs.Instrumental.Sample(1, 0)).To(BeNumerically("~", -1.0, tolerance))
		})
	})

	Describe("Dual heuristic", func() {
		It("ducks the instrumental on center-dominant frames", func() {
			input := makeBuffer(8000, []float64{0.5}, []float64{0.5})
			outputs := run(separate.AlgorithmDualHeuristic, input)

			Expect(outputs.Vocals.Sample(0, 0)).To(BeNumerically("~", 0.5, tolerance))
			Expect(outputs.Instrumental.Sample(0, 0)).To(BeNumerically("~", 0.15, tolerance))
			Expect(outputs.Instrumental.Sample(1, 0)).To(BeNumerically("~", 0.15, tolerance))
		})

		It("passes side-dominant frames through untouched", func() {
			input := makeBuffer(8000, []float64{0.5}, []float64{-0.5})
			outputs := run(separate.AlgorithmDualHeuristic, input)

			Expect(outputs.Vocals.Sample(0, 0)).To(BeZero())
			Expect(outputs.Instrumental.Sample(0, 0)).To(BeNumerically("~", 0.5, tolerance))
			Expect(outputs.Instrumental.Sample(1, 0)).To(BeNumerically("~", -0.5, tolerance))
		})
	})

	Describe("Inputs with more than two channels", func() {
		It("passes the extra channels through to the instrumental unchanged", func() {
			third := []float64{0.9, -0.9}
			input := makeBuffer(8000,
				[]float64{0.5, 0.5},
				[]float64{0.5, 0.5},
				third)
			outputs := run(separate.AlgorithmCenterChannel, input)

			Expect(outputs.Instrumental.Channels()).To(Equal(3))
			Expect(outputs.Instrumental.Sample(2, 0)).To(Equal(third[0]))
			Expect(outputs.Instrumental.Sample(2, 1)).To(Equal(third[1]))
		})
	})

	Describe("Progress reporting", func() {
		var percents []float64

		BeforeEach(func() {
			percents = nil

			frames := make([]float64, 10)
			input := makeBuffer(4, frames, frames)

			_, err := separate.Run(context.Background(), separate.AlgorithmCenterChannel, input,
				func(processedFrames int, totalFrames int, percent float64) {
					Expect(totalFrames).To(Equal(10))
					percents = append(percents, percent)
				})
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports once per second of audio plus a final completion", func() {
			Expect(percents).To(HaveLen(3))
			Expect(percents[0]).To(BeNumerically("~", 40, tolerance))
			Expect(percents[1]).To(BeNumerically("~", 80, tolerance))
		})

		It("ends at exactly 100", func() {
			Expect(percents[len(percents)-1]).To(Equal(100.0))
		})

		It("only ever moves forward", func() {
			for i := 1; i < len(percents); i++ {
				Expect(percents[i]).To(BeNumerically(">=", percents[i-1]))
			}
		})
	})

	Describe("Cancellation", func() {
		It("aborts at the next progress interval", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			frames := make([]float64, 8)
			input := makeBuffer(4, frames, frames)

			_, err := separate.Run(ctx, separate.AlgorithmCenterChannel, input, nil)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	Describe("Unknown algorithm", func() {
		It("returns a marked error", func() {
			input := makeBuffer(8000, []float64{0.1}, []float64{0.2})

			_, err := separate.Run(context.Background(), separate.Algorithm("psychic"), input, nil)
			Expect(err).To(HaveOccurred())
			Expect(markers.Is(err, separate.ErrUnknownAlgorithm)).To(BeTrue())
		})
	})
})
