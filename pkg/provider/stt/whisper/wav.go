package whisper

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// decodeWAVFile reads a RIFF/WAV file containing 16-bit signed little-endian
// PCM and returns mono float32 samples at the 16 kHz rate whisper.cpp expects.
// Multi-channel audio is downmixed by averaging; other sample rates are
// linearly resampled.
func decodeWAVFile(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pcm, sampleRate, channels, err := parseWAV(data)
	if err != nil {
		return nil, err
	}
	samples := pcmToFloat32Mono(pcm, channels)
	if sampleRate != whisperSampleRate {
		samples = resampleLinear(samples, sampleRate, whisperSampleRate)
	}
	return samples, nil
}

// parseWAV walks the RIFF chunk list and extracts the raw PCM payload together
// with its sample rate and channel count. Only uncompressed 16-bit PCM
// (format tag 1) is supported.
func parseWAV(data []byte) (pcm []byte, sampleRate, channels int, err error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, 0, errors.New("not a RIFF/WAVE file")
	}

	var (
		haveFmt       bool
		bitsPerSample int
	)
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			size = len(data) - body // tolerate truncated final chunk
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, 0, errors.New("fmt chunk too short")
			}
			format := int(binary.LittleEndian.Uint16(data[body : body+2]))
			if format != 1 {
				return nil, 0, 0, fmt.Errorf("unsupported WAV format tag %d (only PCM)", format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			pcm = data[body : body+size]
		}

		// Chunks are word-aligned.
		off = body + size
		if size%2 == 1 {
			off++
		}
	}

	if !haveFmt {
		return nil, 0, 0, errors.New("missing fmt chunk")
	}
	if pcm == nil {
		return nil, 0, 0, errors.New("missing data chunk")
	}
	if bitsPerSample != 16 {
		return nil, 0, 0, fmt.Errorf("unsupported bit depth %d (only 16-bit PCM)", bitsPerSample)
	}
	if channels <= 0 || sampleRate <= 0 {
		return nil, 0, 0, fmt.Errorf("invalid WAV header: channels=%d rate=%d", channels, sampleRate)
	}
	return pcm, sampleRate, channels, nil
}

// pcmToFloat32Mono converts 16-bit signed little-endian PCM to mono float32
// samples normalised to [-1.0, 1.0], averaging all channels per frame.
func pcmToFloat32Mono(pcm []byte, channels int) []float32 {
	frames := len(pcm) / (2 * channels)
	mono := make([]float32, frames)
	for i := range frames {
		var sum float32
		for ch := range channels {
			idx := (i*channels + ch) * 2
			sample := int16(binary.LittleEndian.Uint16(pcm[idx : idx+2]))
			sum += float32(sample) / 32768.0
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

// resampleLinear converts samples from srcRate to dstRate using linear
// interpolation. Adequate for speech input; whisper is tolerant of the minor
// aliasing this introduces.
func resampleLinear(samples []float32, srcRate, dstRate int) []float32 {
	if srcRate == dstRate || len(samples) == 0 {
		return samples
	}
	outLen := int(int64(len(samples)) * int64(dstRate) / int64(srcRate))
	if outLen == 0 {
		return nil
	}
	out := make([]float32, outLen)
	ratio := float64(srcRate) / float64(dstRate)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = samples[j]*(1-frac) + samples[j+1]*frac
	}
	return out
}
