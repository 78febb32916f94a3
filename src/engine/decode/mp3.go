package decode

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/stemsplit/stemsplit-be/src/engine/audio"
)

// go-mp3 always produces two channels of 16-bit little-endian PCM.
const mp3Channels = 2

func sniffMP3(data []byte) bool {
	if len(data) < 3 {
		return false
	}

	if bytes.Equal(data[0:3], []byte("ID3")) {
		return true
	}

	// frame sync: eleven set bits at the start of the first frame
	return data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

func decodeMP3(data []byte) (audio.Buffer, error) {
	decoder, err := gomp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return audio.Buffer{}, errors.Wrap(err, "Failed to open MP3 stream")
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return audio.Buffer{}, errors.Wrap(err, "Failed to read PCM data from MP3 stream")
	}

	bytesPerFrame := mp3Channels * 2
	frames := len(pcm) / bytesPerFrame

	planes := make([][]float64, mp3Channels)
	for ch := range planes {
		planes[ch] = make([]float64, frames)
	}

	for frame := 0; frame < frames; frame++ {
		base := frame * bytesPerFrame
		for ch := 0; ch < mp3Channels; ch++ {
			low := uint16(pcm[base+2*ch])
			high := uint16(pcm[base+2*ch+1])
			sample := int16(low | high<<8)
			planes[ch][frame] = clampUnit(float64(sample) / 32767)
		}
	}

	return audio.NewBuffer(decoder.SampleRate(), planes)
}
