package decode

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/go-audio/wav"
	"github.com/stemsplit/stemsplit-be/src/engine/audio"
)

func sniffWAV(data []byte) bool {
	return len(data) >= 12 &&
		bytes.Equal(data[0:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WAVE"))
}

func decodeWAV(data []byte) (audio.Buffer, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return audio.Buffer{}, errors.New("Not a valid WAV file")
	}

	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return audio.Buffer{}, errors.Wrap(err, "Failed to read PCM data from WAV")
	}

	channels := pcm.Format.NumChannels
	if channels < 1 {
		return audio.Buffer{}, errors.New("WAV file reports zero channels")
	}

	bitDepth := int(decoder.BitDepth)
	scale, offset, err := pcmScale(bitDepth)
	if err != nil {
		return audio.Buffer{}, err
	}

	frames := len(pcm.Data) / channels
	planes := make([][]float64, channels)
	for ch := range planes {
		planes[ch] = make([]float64, frames)
	}

	for frame := 0; frame < frames; frame++ {
		for ch := 0; ch < channels; ch++ {
			sample := float64(pcm.Data[frame*channels+ch])
			planes[ch][frame] = clampUnit((sample - offset) / scale)
		}
	}

	return audio.NewBuffer(pcm.Format.SampleRate, planes)
}

// pcmScale returns the divisor and DC offset that map integer PCM of the
// given bit depth onto [-1, 1]. 8-bit WAV is unsigned, everything else is
// signed. The divisor mirrors the encoder's ×32767 so a WAV round trip
// stays within one quantization step.
func pcmScale(bitDepth int) (scale float64, offset float64, err error) {
	switch bitDepth {
	case 8:
		return 127, 128, nil
	case 16:
		return 32767, 0, nil
	case 24:
		return 8388607, 0, nil
	case 32:
		return 2147483647, 0, nil
	default:
		return 0, 0, errors.Newf("Unsupported WAV bit depth: %d", bitDepth)
	}
}
