package whisper

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// CTEngine runs inference through the whisper-ctranslate2 executable, which
// consumes the CTranslate2 model directories this package materializes.
type CTEngine struct {
	Executable  string
	Device      string
	ComputeType string
	Logger      *zap.Logger
}

func NewCTEngine(executable, device, computeType string, logger *zap.Logger) *CTEngine {
	if executable == "" {
		executable = "whisper-ctranslate2"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CTEngine{
		Executable:  executable,
		Device:      device,
		ComputeType: computeType,
		Logger:      logger,
	}
}

// Available reports whether the engine executable can be found.
func (e *CTEngine) Available() error {
	if _, err := exec.LookPath(e.Executable); err != nil {
		return fmt.Errorf("whisper engine %q not found in PATH: %w", e.Executable, err)
	}
	return nil
}

func (e *CTEngine) Transcribe(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.AudioPath) == "" {
		return "", fmt.Errorf("audio path is required")
	}
	if strings.TrimSpace(req.ModelDir) == "" {
		return "", fmt.Errorf("model directory is required")
	}

	outDir, err := os.MkdirTemp("", "voicetask-engine-")
	if err != nil {
		return "", fmt.Errorf("create engine output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	args := []string{
		req.AudioPath,
		"--model_directory", req.ModelDir,
		"--output_format", "txt",
		"--output_dir", outDir,
		"--verbose", "False",
	}
	if lang := strings.TrimSpace(req.Language); lang != "" && lang != "auto" {
		args = append(args, "--language", lang)
	}
	if req.VADFilter {
		args = append(args, "--vad_filter", "True")
	}
	if e.Device != "" {
		args = append(args, "--device", e.Device)
	}
	if e.ComputeType != "" {
		args = append(args, "--compute_type", e.ComputeType)
	}

	cmd := exec.CommandContext(ctx, e.Executable, args...)
	var stderr bytes.Buffer
	cmd.Stdout = &bytes.Buffer{}
	cmd.Stderr = &stderr

	e.Logger.Debug("running whisper engine", zap.String("engine", e.Executable), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("whisper engine failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	stem := strings.TrimSuffix(filepath.Base(req.AudioPath), filepath.Ext(req.AudioPath))
	content, err := os.ReadFile(filepath.Join(outDir, stem+".txt"))
	if err != nil {
		return "", fmt.Errorf("read engine output: %w", err)
	}

	return strings.TrimSpace(string(content)), nil
}
