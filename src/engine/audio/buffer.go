// Package audio holds the sample buffer type that flows through the
// separation engine: decoded input, separated stems, encoder input.
package audio

import "github.com/cockroachdb/errors"

// Buffer is a multichannel block of PCM audio, one float64 plane per
// channel, all planes the same length. Samples are nominally in [-1, 1]
// but are not clamped until encode time.
//
// A Buffer is treated as immutable once constructed. Transforms allocate
// new planes instead of writing into their input.
type Buffer struct {
	sampleRate int
	planes     [][]float64
	frames     int
}

func NewBuffer(sampleRate int, planes [][]float64) (Buffer, error) {
	if sampleRate <= 0 {
		return Buffer{}, errors.Newf("Sample rate must be positive, got %d", sampleRate)
	}

	if len(planes) == 0 {
		return Buffer{}, errors.New("A buffer requires at least one channel")
	}

	frames := len(planes[0])
	for ch, plane := range planes {
		if len(plane) != frames {
			return Buffer{}, errors.Newf(
				"Channel %d has %d frames but channel 0 has %d",
				ch, len(plane), frames)
		}
	}

	return Buffer{
		sampleRate: sampleRate,
		planes:     planes,
		frames:     frames,
	}, nil
}

func (b Buffer) Channels() int {
	return len(b.planes)
}

func (b Buffer) Frames() int {
	return b.frames
}

func (b Buffer) SampleRate() int {
	return b.sampleRate
}

func (b Buffer) Sample(channel int, frame int) float64 {
	return b.planes[channel][frame]
}

// Plane returns the sample slice for one channel. Callers must not
// mutate the returned slice.
func (b Buffer) Plane(channel int) []float64 {
	return b.planes[channel]
}
