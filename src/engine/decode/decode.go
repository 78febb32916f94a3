// Package decode turns an encoded audio byte blob into an audio.Buffer.
//
// Formats are recognized by their magic bytes: RIFF/WAVE, MP3
// (ID3 tag or frame sync), and Ogg Vorbis. Channel count, frame count
// and sample rate are taken from the container as-is: no resampling and
// no channel mixing happens here.
package decode

import (
	"github.com/stemsplit/stemsplit-be/src/engine/audio"
	"github.com/stemsplit/stemsplit-be/src/shared/lib/errors/mark"
)

type format struct {
	name   string
	sniff  func(data []byte) bool
	decode func(data []byte) (audio.Buffer, error)
}

// sniffing order matters: an MP3 frame sync is a much weaker signal than
// the RIFF or OggS magic, so it goes last
var formats = []format{
	{name: "wav", sniff: sniffWAV, decode: decodeWAV},
	{name: "ogg vorbis", sniff: sniffVorbis, decode: decodeVorbis},
	{name: "mp3", sniff: sniffMP3, decode: decodeMP3},
}

func Decode(data []byte) (audio.Buffer, error) {
	for _, f := range formats {
		if !f.sniff(data) {
			continue
		}

		buffer, err := f.decode(data)
		if err != nil {
			return audio.Buffer{}, mark.Wrap(err, ErrBadContainer, "Failed to decode "+f.name+" data")
		}

		return buffer, nil
	}

	return audio.Buffer{}, mark.Message(ErrBadContainer, "Input does not look like any supported audio container")
}

// clampUnit keeps quantization edge cases (e.g. an int16 -32768) inside
// the engine's nominal sample range.
func clampUnit(sample float64) float64 {
	if sample > 1 {
		return 1
	}
	if sample < -1 {
		return -1
	}
	return sample
}
