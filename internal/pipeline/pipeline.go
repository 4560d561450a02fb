// Package pipeline sequences the multimodal analysis of one submitted
// artifact: transcribe the audio, score the transcript's sentiment,
// analyze the video's facial emotions, and generate the reply.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/empathlab/empath-gateway/internal/emotion"
	"github.com/empathlab/empath-gateway/internal/metrics"
	"github.com/empathlab/empath-gateway/internal/sentiment"
	"github.com/empathlab/empath-gateway/internal/session"
)

// Stage identifies where in the pipeline an invocation is, or where it
// failed.
type Stage string

const (
	StageReceived         Stage = "received"
	StageTranscribing     Stage = "transcribing"
	StageScoringSentiment Stage = "scoring_sentiment"
	StageAnalyzingEmotion Stage = "analyzing_emotion"
	StageGeneratingReply  Stage = "generating_reply"
	StageDone             Stage = "done"
)

// StageError is a pipeline failure tagged with the stage it happened in.
// Only stages before reply generation can produce one; reply failures are
// absorbed into the reply text.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Artifact is the submitted input. At least one of Audio or Text must be
// present; Video is optional.
type Artifact struct {
	VideoPath string
	AudioPath string
	Text      string
}

// Result is the immutable outcome of one pipeline invocation.
type Result struct {
	Text      string          `json:"text"`
	Sentiment sentiment.Label `json:"sentiment"`
	Emotions  emotion.Profile `json:"emotions"`
	Response  string          `json:"response"`
}

// Transcriber converts an audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Analyzer extracts the dominant facial emotions of a clip.
type Analyzer interface {
	Analyze(ctx context.Context, videoPath string) emotion.Profile
}

// Replier generates the assistant reply; it never fails (failures are
// returned as marked reply text).
type Replier interface {
	Reply(ctx context.Context, emotions emotion.Profile, sent sentiment.Label, text string, history []session.Turn) string
}

// Orchestrator runs the stages in order for one artifact at a time.
// Distinct invocations may run concurrently; the session store serializes
// access per key.
type Orchestrator struct {
	transcriber Transcriber
	scorer      *sentiment.Scorer
	analyzer    Analyzer
	replier     Replier
	store       *session.Store
	logger      *slog.Logger
}

// New wires an orchestrator.
func New(t Transcriber, scorer *sentiment.Scorer, a Analyzer, r Replier, store *session.Store, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		transcriber: t,
		scorer:      scorer,
		analyzer:    a,
		replier:     r,
		store:       store,
		logger:      logger,
	}
}

// Process runs the full pipeline for one artifact and appends the user
// and assistant turns to the session. Failures before reply generation
// return a *StageError and leave the session untouched.
func (o *Orchestrator) Process(ctx context.Context, sessionKey string, art Artifact) (*Result, error) {
	if art.Text == "" && art.AudioPath == "" {
		return nil, &StageError{Stage: StageReceived, Err: fmt.Errorf("no text or audio provided")}
	}

	text := art.Text
	if text == "" {
		var err error
		text, err = o.timed(StageTranscribing, func() (string, error) {
			return o.transcriber.Transcribe(ctx, art.AudioPath)
		})
		if err != nil {
			return nil, &StageError{Stage: StageTranscribing, Err: err}
		}
	}

	start := time.Now()
	sent := o.scorer.Score(text)
	metrics.StageDuration.WithLabelValues(string(StageScoringSentiment)).Observe(time.Since(start).Seconds())

	emotions := emotion.Profile{}
	if art.VideoPath != "" {
		start = time.Now()
		emotions = o.analyzer.Analyze(ctx, art.VideoPath)
		metrics.StageDuration.WithLabelValues(string(StageAnalyzingEmotion)).Observe(time.Since(start).Seconds())
	}

	history := o.store.History(sessionKey)

	start = time.Now()
	reply := o.replier.Reply(ctx, emotions, sent, text, history)
	metrics.StageDuration.WithLabelValues(string(StageGeneratingReply)).Observe(time.Since(start).Seconds())

	userTurn := session.NewTurn(session.RoleUser, text)
	userTurn.Meta = &session.Meta{Sentiment: string(sent), Emotions: emotions}
	o.store.Append(sessionKey, userTurn)
	o.store.Append(sessionKey, session.NewTurn(session.RoleAssistant, reply))

	o.logger.Info("pipeline done",
		"session", sessionKey,
		"sentiment", sent,
		"emotions", emotions,
		"transcript_chars", len(text),
	)

	return &Result{
		Text:      text,
		Sentiment: sent,
		Emotions:  emotions,
		Response:  reply,
	}, nil
}

func (o *Orchestrator) timed(stage Stage, fn func() (string, error)) (string, error) {
	start := time.Now()
	out, err := fn()
	metrics.StageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
	return out, err
}
