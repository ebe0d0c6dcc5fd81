package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/voxhire/voxhire/pkg/provider/stt"
	sttmock "github.com/voxhire/voxhire/pkg/provider/stt/mock"
)

var errDecode = errors.New("decode error")

func segs(texts ...string) []stt.Segment {
	out := make([]stt.Segment, len(texts))
	for i, t := range texts {
		out[i] = stt.Segment{Text: t, Start: time.Duration(i) * time.Second}
	}
	return out
}

func TestTranscribe_FirstStrategyWins(t *testing.T) {
	p := &sttmock.Provider{Results: []sttmock.Result{
		{Segments: segs("Hello,", "my name is Asha.")},
	}}
	f := NewTranscribeFallback(p)

	res := f.Transcribe(context.Background(), "interview.wav")
	if res.Failed {
		t.Fatal("Failed = true, want false")
	}
	if res.Strategy != "auto" {
		t.Errorf("Strategy = %q, want auto", res.Strategy)
	}
	if want := "Hello, my name is Asha."; res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
	if len(p.Calls) != 1 {
		t.Fatalf("provider called %d times, want 1", len(p.Calls))
	}
	if p.Calls[0].Opts != (stt.DecodeOptions{}) {
		t.Errorf("first attempt opts = %+v, want zero DecodeOptions", p.Calls[0].Opts)
	}
}

func TestTranscribe_SecondStrategyAfterFailure(t *testing.T) {
	p := &sttmock.Provider{Results: []sttmock.Result{
		{Err: errDecode},
		{Segments: segs("forced decode worked")},
	}}
	f := NewTranscribeFallback(p)

	res := f.Transcribe(context.Background(), "interview.wav")
	if res.Failed {
		t.Fatal("Failed = true, want false")
	}
	if res.Strategy != "forced-language" {
		t.Errorf("Strategy = %q, want forced-language", res.Strategy)
	}
	if res.Text != "forced decode worked" {
		t.Errorf("Text = %q", res.Text)
	}
	if len(p.Calls) != 2 {
		t.Fatalf("provider called %d times, want 2", len(p.Calls))
	}
	if p.Calls[1].Opts.Language != "en" {
		t.Errorf("second attempt language = %q, want en", p.Calls[1].Opts.Language)
	}
}

func TestTranscribe_ThirdStrategyUsesWideBeam(t *testing.T) {
	p := &sttmock.Provider{Results: []sttmock.Result{
		{Err: errDecode},
		{Err: errDecode},
		{Segments: segs("wide beam worked")},
	}}
	f := NewTranscribeFallback(p, WithBeamSize(10))

	res := f.Transcribe(context.Background(), "interview.wav")
	if res.Failed || res.Strategy != "wide-beam" {
		t.Fatalf("result = %+v, want wide-beam success", res)
	}
	if len(p.Calls) != 3 {
		t.Fatalf("provider called %d times, want 3", len(p.Calls))
	}
	if p.Calls[2].Opts.BeamSize != 10 {
		t.Errorf("third attempt beam size = %d, want 10", p.Calls[2].Opts.BeamSize)
	}
}

func TestTranscribe_AllStrategiesFailReturnsSentinel(t *testing.T) {
	p := &sttmock.Provider{Results: []sttmock.Result{{Err: errDecode}}}
	f := NewTranscribeFallback(p)

	res := f.Transcribe(context.Background(), "broken.wav")
	if !res.Failed {
		t.Fatal("Failed = false, want true")
	}
	if res.Text != FailureText {
		t.Errorf("Text = %q, want sentinel", res.Text)
	}
	if res.Strategy != "" {
		t.Errorf("Strategy = %q, want empty", res.Strategy)
	}
	if len(p.Calls) != 3 {
		t.Fatalf("provider called %d times, want 3", len(p.Calls))
	}
}

func TestTranscribe_CustomLanguage(t *testing.T) {
	p := &sttmock.Provider{Results: []sttmock.Result{
		{Err: errDecode},
		{Segments: segs("hallo")},
	}}
	f := NewTranscribeFallback(p, WithFallbackLanguage("de"))

	res := f.Transcribe(context.Background(), "interview.wav")
	if res.Failed {
		t.Fatal("unexpected failure")
	}
	if p.Calls[1].Opts.Language != "de" {
		t.Errorf("forced language = %q, want de", p.Calls[1].Opts.Language)
	}
}

func TestJoinSegments_SkipsEmpties(t *testing.T) {
	got := stt.JoinSegments([]stt.Segment{
		{Text: "  Hello,  "},
		{Text: ""},
		{Text: "world."},
	})
	if want := "Hello, world."; got != want {
		t.Errorf("JoinSegments = %q, want %q", got, want)
	}
}
