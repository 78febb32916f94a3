// Package encode serializes sample buffers into the canonical PCM16
// little-endian WAV layout. The byte layout is fixed: a 44-byte
// RIFF/fmt/data header followed by interleaved int16 samples, so output
// is reproducible byte for byte.
package encode

import (
	"encoding/binary"
	"math"

	"github.com/stemsplit/stemsplit-be/src/engine/audio"
	"github.com/stemsplit/stemsplit-be/src/shared/lib/errors/mark"
)

const (
	headerSize     = 44
	bytesPerSample = 2
	bitsPerSample  = 16
)

func WAV(buffer audio.Buffer) ([]byte, error) {
	channels := buffer.Channels()
	frames := buffer.Frames()
	sampleRate := buffer.SampleRate()

	if channels < 1 {
		return nil, mark.Message(ErrInvariant, "Buffer has no channels to encode")
	}

	dataSize := uint64(frames) * uint64(channels) * bytesPerSample
	if dataSize > math.MaxUint32-36 {
		return nil, mark.Message(ErrTooLarge, "Sample data exceeds the WAV size field")
	}

	out := make([]byte, headerSize+int(dataSize))

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], 36+uint32(dataSize))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(sampleRate*channels*bytesPerSample))
	binary.LittleEndian.PutUint16(out[32:34], uint16(channels*bytesPerSample))
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample)

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataSize))

	offset := headerSize
	for frame := 0; frame < frames; frame++ {
		for ch := 0; ch < channels; ch++ {
			sample := pcm16(buffer.Sample(ch, frame))
			binary.LittleEndian.PutUint16(out[offset:offset+2], uint16(sample))
			offset += 2
		}
	}

	return out, nil
}

// pcm16 clamps to [-1, 1] and scales by 32767, truncating toward zero.
func pcm16(sample float64) int16 {
	if sample > 1 {
		sample = 1
	} else if sample < -1 {
		sample = -1
	}

	return int16(sample * 32767)
}
