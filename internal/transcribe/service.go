// Package transcribe turns a raw audio file into plain text: normalize,
// resolve the model, run inference, clean up the intermediate waveform.
package transcribe

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"

	"voicetask/internal/audio"
	"voicetask/internal/whisper"
)

// silenceThresholdDBFS gates near-silent waveforms before they reach the
// engine; matches the normalizer's 16-bit output floor.
const silenceThresholdDBFS = -65

// blankTokens are engine markers for non-speech output.
var blankTokens = map[string]struct{}{
	"[blank_audio]": {},
	"(silence)":     {},
	"[silence]":     {},
}

type Options struct {
	// ModelKey overrides the process default model for this request.
	ModelKey string
	// KeepWave leaves the normalized waveform on disk.
	KeepWave bool
}

type Service struct {
	language string
	logger   *zap.Logger

	normalizeFn func(ctx context.Context, path string) (string, error)
	resolveFn   func(ctx context.Context, key string) (*whisper.LoadedModel, error)
	inferFn     func(ctx context.Context, req whisper.Request) (string, error)
	silentFn    func(path string) bool
}

func NewService(conv *audio.Converter, cache *whisper.Cache, engine whisper.Engine, language string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		language:    language,
		logger:      logger,
		normalizeFn: conv.ToWAV,
		resolveFn:   cache.Resolve,
		inferFn:     engine.Transcribe,
	}
	s.silentFn = func(path string) bool {
		silent, metrics, err := audio.IsNearSilent(path, silenceThresholdDBFS)
		if err != nil {
			// Gate failures never block transcription.
			logger.Debug("silence gate skipped", zap.String("wav", path), zap.Error(err))
			return false
		}
		if silent {
			logger.Info("near-silent waveform, skipping inference",
				zap.Float64("rms_dbfs", metrics.RMSdBFS),
				zap.Float64("peak_dbfs", metrics.PeakdBFS))
		}
		return silent
	}
	return s
}

// Transcribe runs the full pipeline for one audio file. An empty transcript
// is a valid outcome, not an error.
func (s *Service) Transcribe(ctx context.Context, audioPath string, opts Options) (string, error) {
	wav, err := s.normalizeFn(ctx, audioPath)
	if err != nil {
		return "", err
	}
	if !opts.KeepWave {
		defer func() { _ = os.Remove(wav) }()
	}

	if s.silentFn != nil && s.silentFn(wav) {
		return "", nil
	}

	model, err := s.resolveFn(ctx, opts.ModelKey)
	if err != nil {
		return "", err
	}

	text, err := s.inferFn(ctx, whisper.Request{
		AudioPath: wav,
		ModelDir:  model.Dir,
		Language:  s.language,
		VADFilter: true,
	})
	if err != nil {
		return "", err
	}

	return cleanTranscript(text), nil
}

func cleanTranscript(text string) string {
	trimmed := strings.TrimSpace(text)
	if _, blank := blankTokens[strings.ToLower(trimmed)]; blank {
		return ""
	}
	return trimmed
}
