package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voicetask/internal/todoist"
	"voicetask/internal/transcribe"
)

// Report is the outcome of one ingestion request, ready to be rendered for
// the user.
type Report struct {
	NoAudio     bool
	Failed      bool
	Transcript  string
	Status      string
	ProjectID   string
	ProjectName string
}

// Handler drives one inbound audio message through download, transcription,
// project resolution and task submission. The step functions are injectable;
// defaults are wired by the bot constructor.
type Handler struct {
	Resolver *ProjectResolver
	Logger   *zap.Logger
	TempDir  string
	ModelKey string

	downloadFn   func(ctx context.Context, ref AudioRef, dest string) error
	transcribeFn func(ctx context.Context, path string, opts transcribe.Options) (string, error)
	submitFn     func(ctx context.Context, content, projectID string) (*todoist.Task, error)
}

// Process runs the ingestion pipeline. Every temporary file created along
// the way is removed on every exit path; errors below this boundary are
// logged in full and surfaced only as a generic failure.
func (h *Handler) Process(ctx context.Context, userID int64, ref *AudioRef) Report {
	logger := h.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if ref == nil {
		return Report{NoAudio: true}
	}

	tempDir := h.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	tempPath := filepath.Join(tempDir, "voicetask-"+uuid.NewString()+ref.Suffix)
	defer func() { _ = os.Remove(tempPath) }()

	if err := h.downloadFn(ctx, *ref, tempPath); err != nil {
		logger.Error("downloading audio failed", zap.String("file_id", ref.FileID), zap.Error(err))
		return Report{Failed: true}
	}

	transcript, err := h.transcribeFn(ctx, tempPath, transcribe.Options{ModelKey: h.ModelKey})
	if err != nil {
		logger.Error("transcription failed", zap.String("file_id", ref.FileID), zap.Error(err))
		return Report{Failed: true}
	}

	projectID, projectName := h.Resolver.Resolve(userID)

	report := Report{
		Transcript:  transcript,
		ProjectID:   projectID,
		ProjectName: projectName,
	}
	if transcript == "" {
		report.Status = "Empty transcription, nothing to send to Todoist."
		return report
	}

	task, err := h.submitFn(ctx, transcript, projectID)
	switch {
	case err == nil:
		report.Status = fmt.Sprintf("Task created in Todoist (id: %s).", task.ID)
	case errors.Is(err, todoist.ErrNoToken):
		report.Status = "Todoist token not configured."
	default:
		// Submission failure does not invalidate the transcription.
		logger.Error("creating todoist task failed", zap.Error(err))
		var statusErr *todoist.StatusError
		if errors.As(err, &statusErr) {
			report.Status = fmt.Sprintf("Todoist replied with error %d.", statusErr.Code)
		} else {
			report.Status = "Sending to Todoist failed."
		}
	}

	return report
}
