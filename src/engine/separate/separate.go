// Package separate splits a sample buffer into a mono vocal stem and an
// instrumental stem that mirrors the input's channel layout.
//
// Every algorithm is a pure per-frame transform: no cross-frame state,
// no FFT. Input buffers are never mutated.
package separate

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/stemsplit/stemsplit-be/src/engine/audio"
)

type Outputs struct {
	// always one channel
	Vocals audio.Buffer
	// same channel count as the input
	Instrumental audio.Buffer
}

// ProgressFunc receives frame counts once per second of processed audio
// (every sampleRate frames) and once more at completion with 100%.
type ProgressFunc func(processedFrames int, totalFrames int, percent float64)

type frameFunc func(left, right float64) (vocal, instrLeft, instrRight float64)

func frameFuncFor(algorithm Algorithm) (frameFunc, error) {
	switch algorithm {
	case AlgorithmCenterChannel:
		return centerChannelFrame, nil
	case AlgorithmCorrelation:
		return correlationFrame, nil
	case AlgorithmDualHeuristic:
		return dualHeuristicFrame, nil
	default:
		return nil, errors.Mark(
			errors.Newf("No frame transform for algorithm %q", algorithm),
			ErrUnknownAlgorithm)
	}
}

// Run executes one separation over the whole input. The context is
// checked at every progress interval; a cancelled context aborts the
// run with ctx's error and no outputs.
func Run(ctx context.Context, algorithm Algorithm, input audio.Buffer, onProgress ProgressFunc) (Outputs, error) {
	if algorithm == AlgorithmCenterChannel && input.Channels() == 1 {
		return runMonoFallback(ctx, input, onProgress)
	}

	perFrame, err := frameFuncFor(algorithm)
	if err != nil {
		return Outputs{}, err
	}

	frames := input.Frames()
	channels := input.Channels()

	left := input.Plane(0)
	right := left
	if channels >= 2 {
		// stereo pair drives the vocal estimate
		right = input.Plane(1)
	}

	vocals := make([]float64, frames)
	instrLeft := make([]float64, frames)
	var instrRight []float64
	if channels >= 2 {
		instrRight = make([]float64, frames)
	}

	report := newProgressReporter(onProgress, frames, input.SampleRate())

	for i := 0; i < frames; i++ {
		vocal, outLeft, outRight := perFrame(left[i], right[i])
		vocals[i] = vocal
		instrLeft[i] = outLeft
		if channels >= 2 {
			instrRight[i] = outRight
		}

		if report.atInterval(i + 1) {
			if err := ctx.Err(); err != nil {
				return Outputs{}, errors.Wrap(err, "Separation cancelled mid-run")
			}
			report.emit(i + 1)
		}
	}

	report.finish()

	instrumentalPlanes := make([][]float64, 0, channels)
	instrumentalPlanes = append(instrumentalPlanes, instrLeft)
	if channels >= 2 {
		instrumentalPlanes = append(instrumentalPlanes, instrRight)
	}
	// channels beyond the stereo pair carry no vocal estimate and pass
	// through unchanged
	for ch := 2; ch < channels; ch++ {
		passthrough := make([]float64, frames)
		copy(passthrough, input.Plane(ch))
		instrumentalPlanes = append(instrumentalPlanes, passthrough)
	}

	return assembleOutputs(input.SampleRate(), vocals, instrumentalPlanes)
}

// runMonoFallback handles center channel extraction on mono input:
// the whole signal is the vocal estimate and the instrumental is the
// same signal attenuated.
func runMonoFallback(ctx context.Context, input audio.Buffer, onProgress ProgressFunc) (Outputs, error) {
	frames := input.Frames()
	mono := input.Plane(0)

	vocals := make([]float64, frames)
	instrumental := make([]float64, frames)

	report := newProgressReporter(onProgress, frames, input.SampleRate())

	for i := 0; i < frames; i++ {
		vocals[i] = mono[i]
		instrumental[i] = mono[i] * monoInstrumentalGain

		if report.atInterval(i + 1) {
			if err := ctx.Err(); err != nil {
				return Outputs{}, errors.Wrap(err, "Separation cancelled mid-run")
			}
			report.emit(i + 1)
		}
	}

	report.finish()

	return assembleOutputs(input.SampleRate(), vocals, [][]float64{instrumental})
}

func assembleOutputs(sampleRate int, vocals []float64, instrumentalPlanes [][]float64) (Outputs, error) {
	vocalsBuffer, err := audio.NewBuffer(sampleRate, [][]float64{vocals})
	if err != nil {
		return Outputs{}, errors.Wrap(err, "Failed to assemble vocals buffer")
	}

	instrumentalBuffer, err := audio.NewBuffer(sampleRate, instrumentalPlanes)
	if err != nil {
		return Outputs{}, errors.Wrap(err, "Failed to assemble instrumental buffer")
	}

	return Outputs{
		Vocals:       vocalsBuffer,
		Instrumental: instrumentalBuffer,
	}, nil
}
