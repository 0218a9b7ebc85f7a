// Package audio normalizes inbound audio into the canonical waveform the
// inference engine consumes: mono, 16 kHz, 16-bit little-endian PCM.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// ConversionError marks decode failures so callers can tell them apart from
// transcription failures.
type ConversionError struct {
	Path string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s: %v", e.Path, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

type runFunc func(ctx context.Context, name string, args ...string) (stderr string, err error)

// Converter decodes any container/codec ffmpeg supports into a sibling .wav
// file next to the input.
type Converter struct {
	FFmpeg string
	Logger *zap.Logger

	run runFunc
}

func NewConverter(logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{FFmpeg: "ffmpeg", Logger: logger, run: runCommand}
}

// Available reports whether the decoding toolchain is on PATH.
func (c *Converter) Available() error {
	if _, err := exec.LookPath(c.FFmpeg); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH; install it and add its bin directory to PATH: %w", err)
	}
	return nil
}

// ToWAV writes the normalized waveform next to inputPath, replacing the
// extension with .wav, and returns the output path.
func (c *Converter) ToWAV(ctx context.Context, inputPath string) (string, error) {
	outputPath := stripExt(inputPath) + ".wav"

	args := []string{
		"-nostdin", "-hide_banner", "-loglevel", "error", "-y",
		"-i", inputPath,
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		outputPath,
	}

	c.Logger.Debug("normalizing audio", zap.String("input", inputPath), zap.String("output", outputPath))
	if stderr, err := c.run(ctx, c.FFmpeg, args...); err != nil {
		if stderr != "" {
			err = fmt.Errorf("%w: %s", err, stderr)
		}
		return "", &ConversionError{Path: inputPath, Err: err}
	}

	return outputPath, nil
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return strings.TrimSpace(stderr.String()), err
}

func stripExt(path string) string {
	if idx := strings.LastIndexByte(path, '.'); idx > strings.LastIndexAny(path, `/\`) {
		return path[:idx]
	}
	return path
}
