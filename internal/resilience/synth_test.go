package resilience

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/voxhire/voxhire/pkg/provider/tts"
	ttsmock "github.com/voxhire/voxhire/pkg/provider/tts/mock"
)

var (
	voiceA = tts.VoiceProfile{ID: "voice-a", Name: "Primary"}
	voiceB = tts.VoiceProfile{ID: "voice-b", Name: "Secondary"}
)

func TestNewSynthFallback_RejectsSameVoice(t *testing.T) {
	if _, err := NewSynthFallback(&ttsmock.Provider{}, voiceA, voiceA); err == nil {
		t.Fatal("expected error for identical voices")
	}
	if _, err := NewSynthFallback(&ttsmock.Provider{}, tts.VoiceProfile{}, voiceB); err == nil {
		t.Fatal("expected error for empty primary voice ID")
	}
}

func TestSynthesize_PrimaryVoiceWritesFile(t *testing.T) {
	p := &ttsmock.Provider{Audio: []byte("mp3-bytes")}
	f, err := NewSynthFallback(p, voiceA, voiceB)
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "answers", "faq1.mp3")
	if err := f.Synthesize(context.Background(), "the answer", out); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "mp3-bytes" {
		t.Errorf("output = %q, want mp3-bytes", data)
	}
	if len(p.Calls) != 1 || p.Calls[0].Voice.ID != "voice-a" {
		t.Errorf("calls = %+v, want single primary-voice call", p.Calls)
	}
}

func TestSynthesize_RetriesOnceWithSecondary(t *testing.T) {
	p := &ttsmock.Provider{
		Audio:      []byte("mp3-bytes"),
		FailVoices: map[string]error{"voice-a": errors.New("voice unavailable")},
	}
	f, err := NewSynthFallback(p, voiceA, voiceB)
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "faq.mp3")
	if err := f.Synthesize(context.Background(), "the answer", out); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if len(p.Calls) != 2 {
		t.Fatalf("provider called %d times, want 2", len(p.Calls))
	}
	if p.Calls[0].Voice.ID != "voice-a" || p.Calls[1].Voice.ID != "voice-b" {
		t.Errorf("voice order = %q, %q; want voice-a then voice-b", p.Calls[0].Voice.ID, p.Calls[1].Voice.ID)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestSynthesize_BothFailNoPartialFile(t *testing.T) {
	p := &ttsmock.Provider{FailVoices: map[string]error{
		"voice-a": errors.New("down"),
		"voice-b": errors.New("also down"),
	}}
	f, err := NewSynthFallback(p, voiceA, voiceB)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	out := filepath.Join(dir, "faq.mp3")
	err = f.Synthesize(context.Background(), "the answer", out)
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
	if len(p.Calls) != 2 {
		t.Fatalf("provider called %d times, want exactly 2", len(p.Calls))
	}

	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(entries) != 0 {
		t.Errorf("output dir not empty after double failure: %v", entries)
	}
}
