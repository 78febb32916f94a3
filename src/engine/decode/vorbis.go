package decode

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/jfreymuth/oggvorbis"
	"github.com/stemsplit/stemsplit-be/src/engine/audio"
)

func sniffVorbis(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[0:4], []byte("OggS"))
}

func decodeVorbis(data []byte) (audio.Buffer, error) {
	samples, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return audio.Buffer{}, errors.Wrap(err, "Failed to read ogg vorbis stream")
	}

	channels := format.Channels
	if channels < 1 {
		return audio.Buffer{}, errors.New("Ogg vorbis stream reports zero channels")
	}

	frames := len(samples) / channels
	planes := make([][]float64, channels)
	for ch := range planes {
		planes[ch] = make([]float64, frames)
	}

	for frame := 0; frame < frames; frame++ {
		for ch := 0; ch < channels; ch++ {
			planes[ch][frame] = float64(samples[frame*channels+ch])
		}
	}

	return audio.NewBuffer(format.SampleRate, planes)
}
