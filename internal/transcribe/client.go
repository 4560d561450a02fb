// Package transcribe uploads recorded audio to a remote speech-to-text
// service and polls the resulting job until it reaches a terminal state.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/empathlab/empath-gateway/internal/config"
	"github.com/empathlab/empath-gateway/internal/metrics"
)

// Status is the remote job lifecycle state. Transitions are monotonic and
// the terminal states are final.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Error is returned when the upload fails or the remote job terminates in
// the error state. Detail preserves the remote service's explanation.
type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcription failed: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("transcription failed: %s", e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// Client talks to an upload-then-poll speech-to-text service.
type Client struct {
	baseURL      string
	apiKey       string
	speechModel  string
	pollInterval time.Duration
	httpClient   *http.Client
	sleep        func(ctx context.Context, d time.Duration) error
	logger       *slog.Logger
}

// NewClient creates a transcription client from config.
func NewClient(cfg *config.TranscriptionConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		speechModel:  cfg.SpeechModel,
		pollInterval: cfg.PollInterval,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		sleep:  sleepCtx,
		logger: logger,
	}
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type jobRequest struct {
	AudioURL    string `json:"audio_url"`
	SpeechModel string `json:"speech_model,omitempty"`
}

type jobResponse struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error,omitempty"`
}

// Transcribe uploads the audio file, creates a transcript job, and polls
// until completion. It blocks for as long as the remote job runs; callers
// needing bounded latency must cancel ctx. No request is retried.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	audioURL, err := c.upload(ctx, audioPath)
	if err != nil {
		return "", &Error{Detail: "upload failed", Err: err}
	}

	job, err := c.createJob(ctx, audioURL)
	if err != nil {
		return "", &Error{Detail: "job creation failed", Err: err}
	}
	c.logger.Info("transcript job created", "id", job.ID, "status", job.Status)

	for !job.Status.Terminal() {
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return "", &Error{Detail: "polling canceled", Err: err}
		}
		job, err = c.pollJob(ctx, job.ID)
		if err != nil {
			return "", &Error{Detail: "poll failed", Err: err}
		}
		metrics.TranscriptionPolls.Inc()
	}

	if job.Status == StatusError {
		return "", &Error{Detail: job.Error}
	}
	c.logger.Info("transcription completed", "id", job.ID, "chars", len(job.Text))
	return job.Text, nil
}

// upload POSTs the raw audio bytes and returns the opaque upload URL.
func (c *Client) upload(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/upload", f)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var out uploadResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.UploadURL == "" {
		return "", fmt.Errorf("upload response had no upload_url")
	}
	return out.UploadURL, nil
}

func (c *Client) createJob(ctx context.Context, audioURL string) (*jobResponse, error) {
	body, err := json.Marshal(jobRequest{AudioURL: audioURL, SpeechModel: c.speechModel})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/transcript", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var out jobResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("job response had no id")
	}
	return &out, nil
}

func (c *Client) pollJob(ctx context.Context, id string) (*jobResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/transcript/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)

	var out jobResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: %s", req.Method, resp.Status, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
