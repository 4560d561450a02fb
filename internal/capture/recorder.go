// Package capture records webcam video and microphone audio into two
// files at once. The two device loops run concurrently and share a single
// monotonic stop flag; stopping joins both loops before any file is
// finalized.
package capture

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"

	"github.com/empathlab/empath-gateway/internal/config"
)

// FrameSource reads one encoded video frame per call. io.EOF (or any
// other error) means the device is gone and the video loop should end.
type FrameSource interface {
	ReadFrame() ([]byte, error)
	Close() error
}

// SampleSource reads one chunk of raw PCM samples per call.
type SampleSource interface {
	ReadChunk() ([]byte, error)
	Close() error
}

// Recorder starts capture sessions with the configured audio format and
// frame rate.
type Recorder struct {
	cfg    config.CaptureConfig
	camera FrameSource
	mic    SampleSource
	logger *slog.Logger
}

// NewRecorder wires a recorder to its devices.
func NewRecorder(cfg config.CaptureConfig, camera FrameSource, mic SampleSource, logger *slog.Logger) *Recorder {
	return &Recorder{cfg: cfg, camera: camera, mic: mic, logger: logger}
}

// Session is one in-flight recording. It is owned by the Recorder that
// started it and is done once Stop returns.
type Session struct {
	ID        string
	VideoPath string
	AudioPath string

	cfg    config.CaptureConfig
	camera FrameSource
	mic    SampleSource
	logger *slog.Logger

	stopped atomic.Bool
	wg      sync.WaitGroup

	pcm      []byte
	videoErr error
	audioErr error
}

// Start opens both output files and launches the video and audio loops.
func (r *Recorder) Start(videoPath, audioPath string) (*Session, error) {
	sink, err := NewFrameWriter(videoPath)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        uuid.NewString(),
		VideoPath: videoPath,
		AudioPath: audioPath,
		cfg:       r.cfg,
		camera:    r.camera,
		mic:       r.mic,
	}
	s.logger = r.logger.With("capture_session", s.ID)

	s.wg.Add(2)
	go s.videoLoop(sink)
	go s.audioLoop()

	s.logger.Info("capture started", "video", videoPath, "audio", audioPath)
	return s, nil
}

// Stop signals both loops, waits for them to release their devices, then
// flushes the buffered audio to a WAV file. The stop flag is monotonic:
// once set it is never cleared for the session's lifetime.
func (s *Session) Stop() error {
	s.stopped.Store(true)
	s.wg.Wait()

	if err := s.flushAudio(); err != nil {
		return fmt.Errorf("failed to flush audio: %w", err)
	}
	if s.videoErr != nil {
		s.logger.Warn("video loop ended early", "error", s.videoErr)
	}
	return s.audioErr
}

// videoLoop appends camera frames at the target frame rate. A camera read
// failure ends the loop on its own and still releases the sink; the audio
// loop keeps running until Stop.
func (s *Session) videoLoop(sink *FrameWriter) {
	defer s.wg.Done()
	defer sink.Close()
	defer s.camera.Close()

	interval := time.Second / time.Duration(s.cfg.FrameRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for !s.stopped.Load() {
		frame, err := s.camera.ReadFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.videoErr = err
			}
			return
		}
		if err := sink.WriteFrame(frame); err != nil {
			s.videoErr = err
			return
		}
		<-ticker.C
	}
}

// audioLoop appends microphone chunks to the in-memory PCM buffer until
// the stop flag is observed.
func (s *Session) audioLoop() {
	defer s.wg.Done()
	defer s.mic.Close()

	for !s.stopped.Load() {
		chunk, err := s.mic.ReadChunk()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.audioErr = err
			}
			return
		}
		s.pcm = append(s.pcm, chunk...)
	}
}

// flushAudio writes the recorded PCM to a 16-bit WAV file with the
// session's channel count and sample rate. Runs strictly after the audio
// loop has exited, so the buffer is no longer shared.
func (s *Session) flushAudio() error {
	out, err := os.Create(s.AudioPath)
	if err != nil {
		return err
	}
	defer out.Close()

	enc := wav.NewEncoder(out, s.cfg.SampleRate, 16, s.cfg.Channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: s.cfg.Channels,
			SampleRate:  s.cfg.SampleRate,
		},
		Data:           pcmToInts(s.pcm),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

// pcmToInts converts little-endian 16-bit PCM bytes to samples. A
// trailing odd byte is dropped.
func pcmToInts(pcm []byte) []int {
	n := len(pcm) / 2
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = int(int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8))
	}
	return out
}
