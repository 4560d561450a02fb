// Package emotion derives the dominant facial emotions of a recorded clip
// by running a pretrained detector over sampled frames. Absence of a face
// is an expected outcome, not an error: analysis never fails the caller.
package emotion

import (
	"context"
	"io"
	"log/slog"
	"sort"

	"github.com/empathlab/empath-gateway/internal/capture"
	"github.com/empathlab/empath-gateway/internal/config"
)

// Profile is the ranked list of dominant emotion labels for a clip, at
// most two entries, strongest first. Empty means no face was detected in
// any sampled frame.
type Profile []string

const maxLabels = 2

// Detection is the per-frame detector output.
type Detection struct {
	Face     bool               `json:"face"`
	Emotions map[string]float64 `json:"emotions"`
}

// Detector classifies the emotions visible in one JPEG frame.
type Detector interface {
	Detect(ctx context.Context, frame []byte) (*Detection, error)
}

// Analyzer samples video frames at a fixed stride and aggregates the
// detector's per-frame scores.
type Analyzer struct {
	detector Detector
	stride   int
	logger   *slog.Logger
}

// NewAnalyzer creates an analyzer from config.
func NewAnalyzer(cfg *config.EmotionConfig, detector Detector, logger *slog.Logger) *Analyzer {
	return &Analyzer{detector: detector, stride: cfg.FrameStride, logger: logger}
}

// Analyze scores every Nth frame of the clip and returns the top labels
// by mean probability over the frames that contained a face. Internal
// failures (unreadable clip, detector errors) degrade to an empty profile
// with a diagnostic log, never an error.
func (a *Analyzer) Analyze(ctx context.Context, videoPath string) Profile {
	frames, err := capture.OpenFrames(videoPath)
	if err != nil {
		a.logger.Warn("emotion analysis skipped", "video", videoPath, "error", err)
		return Profile{}
	}

	sums := map[string]float64{}
	faceFrames := 0

	for i := 0; ; i++ {
		frame, err := frames.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			a.logger.Warn("frame read failed", "video", videoPath, "error", err)
			break
		}
		if i%a.stride != 0 {
			continue
		}

		det, err := a.detector.Detect(ctx, frame)
		if err != nil {
			a.logger.Warn("frame detection failed", "frame", i, "error", err)
			continue
		}
		if !det.Face {
			continue
		}
		faceFrames++
		for label, score := range det.Emotions {
			sums[label] += score
		}
	}

	if faceFrames == 0 {
		a.logger.Debug("no face detected in clip", "video", videoPath)
		return Profile{}
	}
	return rank(sums, faceFrames)
}

// rank orders labels by mean score descending, ties broken by label so
// the result is stable, and keeps the top two.
func rank(sums map[string]float64, frames int) Profile {
	type scored struct {
		label string
		mean  float64
	}
	all := make([]scored, 0, len(sums))
	for label, sum := range sums {
		all = append(all, scored{label: label, mean: sum / float64(frames)})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].mean != all[j].mean {
			return all[i].mean > all[j].mean
		}
		return all[i].label < all[j].label
	})

	p := Profile{}
	for i := 0; i < len(all) && i < maxLabels; i++ {
		p = append(p, all[i].label)
	}
	return p
}
