package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/empathlab/empath-gateway/internal/emotion"
	"github.com/empathlab/empath-gateway/internal/sentiment"
	"github.com/empathlab/empath-gateway/internal/session"
	"github.com/empathlab/empath-gateway/internal/transcribe"
)

type stubTranscriber struct {
	text  string
	err   error
	calls int
}

func (s *stubTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	s.calls++
	return s.text, s.err
}

type stubAnalyzer struct {
	profile emotion.Profile
	calls   int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, path string) emotion.Profile {
	s.calls++
	return s.profile
}

type stubReplier struct {
	reply string
	calls int
}

func (s *stubReplier) Reply(ctx context.Context, emotions emotion.Profile, sent sentiment.Label, text string, history []session.Turn) string {
	s.calls++
	return s.reply
}

func newOrchestrator(t *stubTranscriber, a *stubAnalyzer, r *stubReplier, store *session.Store) *Orchestrator {
	return New(t, sentiment.NewScorer(), a, r, store, slog.Default())
}

func TestProcessFullArtifact(t *testing.T) {
	store := session.New()
	tr := &stubTranscriber{text: "I feel so happy today"}
	an := &stubAnalyzer{profile: emotion.Profile{"happy", "surprise"}}
	re := &stubReplier{reply: "wonderful to hear"}
	o := newOrchestrator(tr, an, re, store)

	res, err := o.Process(context.Background(), "s1", Artifact{VideoPath: "v.mjpeg", AudioPath: "a.wav"})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if res.Text != "I feel so happy today" {
		t.Errorf("Unexpected transcript: %q", res.Text)
	}
	if res.Sentiment != sentiment.Positive {
		t.Errorf("Expected positive sentiment, got %s", res.Sentiment)
	}
	if len(res.Emotions) != 2 {
		t.Errorf("Expected emotion profile, got %v", res.Emotions)
	}
	if res.Response != "wonderful to hear" {
		t.Errorf("Unexpected reply: %q", res.Response)
	}

	h := store.History("s1")
	if len(h) != 2 {
		t.Fatalf("Expected user+assistant turns, got %d", len(h))
	}
	if h[0].Role != session.RoleUser || h[1].Role != session.RoleAssistant {
		t.Errorf("Unexpected turn roles: %s, %s", h[0].Role, h[1].Role)
	}
	if h[0].Meta == nil || h[0].Meta.Sentiment != "positive" {
		t.Errorf("Expected structured meta on user turn, got %+v", h[0].Meta)
	}
}

func TestProcessTextSkipsTranscription(t *testing.T) {
	store := session.New()
	tr := &stubTranscriber{text: "should not be used"}
	re := &stubReplier{reply: "ok"}
	o := newOrchestrator(tr, &stubAnalyzer{}, re, store)

	res, err := o.Process(context.Background(), "s1", Artifact{Text: "typed message"})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if tr.calls != 0 {
		t.Errorf("Transcriber must not run when text is given, ran %d times", tr.calls)
	}
	if res.Text != "typed message" {
		t.Errorf("Unexpected text: %q", res.Text)
	}
}

func TestProcessNoVideoSkipsEmotion(t *testing.T) {
	store := session.New()
	an := &stubAnalyzer{profile: emotion.Profile{"sad"}}
	o := newOrchestrator(&stubTranscriber{text: "hi"}, an, &stubReplier{reply: "ok"}, store)

	res, err := o.Process(context.Background(), "s1", Artifact{AudioPath: "a.wav"})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if an.calls != 0 {
		t.Errorf("Analyzer must not run without video, ran %d times", an.calls)
	}
	if len(res.Emotions) != 0 {
		t.Errorf("Expected empty profile, got %v", res.Emotions)
	}
}

func TestProcessEmptyArtifact(t *testing.T) {
	o := newOrchestrator(&stubTranscriber{}, &stubAnalyzer{}, &stubReplier{}, session.New())

	_, err := o.Process(context.Background(), "s1", Artifact{})
	var serr *StageError
	if !errors.As(err, &serr) {
		t.Fatalf("Expected *StageError, got %T", err)
	}
	if serr.Stage != StageReceived {
		t.Errorf("Expected stage received, got %s", serr.Stage)
	}
}

func TestProcessTranscriptionErrorAborts(t *testing.T) {
	store := session.New()
	tr := &stubTranscriber{err: &transcribe.Error{Detail: "bad audio"}}
	an := &stubAnalyzer{}
	re := &stubReplier{}
	o := newOrchestrator(tr, an, re, store)

	_, err := o.Process(context.Background(), "s1", Artifact{VideoPath: "v.mjpeg", AudioPath: "a.wav"})
	var serr *StageError
	if !errors.As(err, &serr) {
		t.Fatalf("Expected *StageError, got %T: %v", err, err)
	}
	if serr.Stage != StageTranscribing {
		t.Errorf("Expected stage transcribing, got %s", serr.Stage)
	}
	var terr *transcribe.Error
	if !errors.As(err, &terr) || terr.Detail != "bad audio" {
		t.Errorf("Expected wrapped transcription detail, got %v", err)
	}

	// Downstream stages must not have run and no turns were recorded.
	if an.calls != 0 || re.calls != 0 {
		t.Errorf("Downstream stages ran after abort: analyzer=%d replier=%d", an.calls, re.calls)
	}
	if len(store.History("s1")) != 0 {
		t.Error("Expected no turns after aborted pipeline")
	}
}

func TestProcessRoundTripHistoryGrowth(t *testing.T) {
	store := session.New()
	o := newOrchestrator(&stubTranscriber{}, &stubAnalyzer{}, &stubReplier{reply: "ok"}, store)

	const n = 5
	for i := 0; i < n; i++ {
		_, err := o.Process(context.Background(), "s1", Artifact{Text: fmt.Sprintf("message %d", i)})
		if err != nil {
			t.Fatalf("Process %d failed: %v", i, err)
		}
	}
	h := store.History("s1")
	if len(h) != n*2 {
		t.Fatalf("Expected %d turns, got %d", n*2, len(h))
	}
	for i := 0; i < n; i++ {
		if want := fmt.Sprintf("message %d", i); h[i*2].Content != want {
			t.Errorf("Turn %d = %q, want %q (submission order broken)", i*2, h[i*2].Content, want)
		}
	}
}

func TestProcessReplyFailureStillAppendsAssistantTurn(t *testing.T) {
	// A replier that simulates the generator's in-band error behavior.
	store := session.New()
	re := &stubReplier{reply: "[chatbot error: connection refused]"}
	o := newOrchestrator(&stubTranscriber{}, &stubAnalyzer{}, re, store)

	res, err := o.Process(context.Background(), "s1", Artifact{Text: "hello"})
	if err != nil {
		t.Fatalf("Process must not fail on reply errors: %v", err)
	}
	if !strings.Contains(res.Response, "chatbot error") {
		t.Errorf("Expected marked error reply, got %q", res.Response)
	}
	h := store.History("s1")
	if len(h) != 2 || h[1].Role != session.RoleAssistant {
		t.Fatalf("Expected assistant turn appended, history: %+v", h)
	}
}
