package whisper

import (
	"encoding/binary"
	"math"
	"os"
	"testing"
)

// buildWAV assembles a minimal RIFF/WAVE file around the given 16-bit PCM
// frames (interleaved when channels > 1).
func buildWAV(sampleRate, channels int, frames []int16) []byte {
	pcm := make([]byte, len(frames)*2)
	for i, s := range frames {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}

	var buf []byte
	put16 := func(v int) { buf = binary.LittleEndian.AppendUint16(buf, uint16(v)) }
	put32 := func(v int) { buf = binary.LittleEndian.AppendUint32(buf, uint32(v)) }

	buf = append(buf, "RIFF"...)
	put32(36 + len(pcm))
	buf = append(buf, "WAVE"...)

	buf = append(buf, "fmt "...)
	put32(16)
	put16(1) // PCM
	put16(channels)
	put32(sampleRate)
	put32(sampleRate * channels * 2) // byte rate
	put16(channels * 2)              // block align
	put16(16)                        // bits per sample

	buf = append(buf, "data"...)
	put32(len(pcm))
	buf = append(buf, pcm...)
	return buf
}

func TestParseWAV(t *testing.T) {
	wav := buildWAV(16000, 1, []int16{0, 16384, -16384, 32767})

	pcm, rate, channels, err := parseWAV(wav)
	if err != nil {
		t.Fatalf("parseWAV: %v", err)
	}
	if rate != 16000 || channels != 1 {
		t.Errorf("rate=%d channels=%d", rate, channels)
	}
	if len(pcm) != 8 {
		t.Errorf("pcm length = %d, want 8", len(pcm))
	}
}

func TestParseWAV_Rejects(t *testing.T) {
	cases := map[string][]byte{
		"empty":       nil,
		"not riff":    []byte("OggS....vorbis data here"),
		"no chunks":   []byte("RIFF\x04\x00\x00\x00WAVE"),
		"format tag":  buildNonPCM(),
		"missing fmt": append([]byte("RIFF\x10\x00\x00\x00WAVE"), "data\x02\x00\x00\x00\x00\x00"...),
	}
	for name, data := range cases {
		if _, _, _, err := parseWAV(data); err == nil {
			t.Errorf("%s: accepted", name)
		}
	}
}

// buildNonPCM returns a WAV with a non-PCM format tag (3 = IEEE float).
func buildNonPCM() []byte {
	wav := buildWAV(16000, 1, []int16{0})
	// format tag sits at offset 20 (RIFF header 12 + chunk header 8).
	binary.LittleEndian.PutUint16(wav[20:], 3)
	return wav
}

func TestPCMToFloat32Mono(t *testing.T) {
	pcm := make([]byte, 8)
	binary.LittleEndian.PutUint16(pcm[0:], uint16(int16(16384)))  // 0.5 left
	binary.LittleEndian.PutUint16(pcm[2:], uint16(int16(-16384))) // -0.5 right
	binary.LittleEndian.PutUint16(pcm[4:], uint16(int16(32767)))
	binary.LittleEndian.PutUint16(pcm[6:], uint16(int16(32767)))

	mono := pcmToFloat32Mono(pcm, 2)
	if len(mono) != 2 {
		t.Fatalf("frames = %d, want 2", len(mono))
	}
	if math.Abs(float64(mono[0])) > 1e-6 {
		t.Errorf("frame 0 = %f, want 0 (channels cancel)", mono[0])
	}
	if math.Abs(float64(mono[1])-32767.0/32768.0) > 1e-6 {
		t.Errorf("frame 1 = %f", mono[1])
	}
}

func TestResampleLinear(t *testing.T) {
	in := []float32{0, 1, 0, -1}

	out := resampleLinear(in, 32000, 16000)
	if len(out) != 2 {
		t.Fatalf("downsample length = %d, want 2", len(out))
	}
	if out[0] != 0 || out[1] != 0 {
		t.Errorf("downsampled = %v", out)
	}

	up := resampleLinear(in, 8000, 16000)
	if len(up) != 8 {
		t.Fatalf("upsample length = %d, want 8", len(up))
	}
	// Midpoint between 0 and 1 interpolates to 0.5.
	if math.Abs(float64(up[1])-0.5) > 1e-6 {
		t.Errorf("up[1] = %f, want 0.5", up[1])
	}

	same := resampleLinear(in, 16000, 16000)
	if len(same) != len(in) {
		t.Errorf("identity resample changed length: %d", len(same))
	}
}

func TestDecodeWAVFile_Resamples(t *testing.T) {
	path := t.TempDir() + "/tone.wav"
	wav := buildWAV(8000, 2, []int16{100, 100, 200, 200, 300, 300, 400, 400})
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		t.Fatal(err)
	}

	samples, err := decodeWAVFile(path)
	if err != nil {
		t.Fatalf("decodeWAVFile: %v", err)
	}
	// 4 frames at 8 kHz become 8 samples at 16 kHz.
	if len(samples) != 8 {
		t.Errorf("samples = %d, want 8", len(samples))
	}
}
