package whisper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"voicetask/internal/hub"
)

// markerFile signals that a model directory is fully materialized.
const markerFile = "model.bin"

// allowedExts is the file set pulled from a model repo: weights,
// configuration and vocabulary.
var allowedExts = []string{".bin", ".json", ".txt", ".model"}

var presets = map[string]string{
	"tiny":     "Systran/faster-whisper-tiny",
	"base":     "Systran/faster-whisper-base",
	"small":    "Systran/faster-whisper-small",
	"medium":   "Systran/faster-whisper-medium",
	"large-v2": "Systran/faster-whisper-large-v2",
	"large-v3": "Systran/faster-whisper-large-v3",
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolution is the outcome of mapping a model key to a local directory.
type Resolution struct {
	Reference   string // remote repo reference; empty for a local path
	Dir         string
	IsLocalPath bool
	NeedsFetch  bool
}

// Resolver maps a model key (preset name, "namespace/name" reference, or
// filesystem path) to a materialization directory.
type Resolver struct {
	DefaultRepo string
	DefaultDir  string
	ModelsRoot  string
}

// Resolve applies the resolution order: existing local path, preset table,
// raw reference. A reference without the "namespace/name" shape falls back
// to the process default.
func (r *Resolver) Resolve(key string) (Resolution, error) {
	if r.DefaultRepo == "" || r.DefaultDir == "" {
		return Resolution{}, errors.New("resolver default repo and dir must be configured")
	}

	key = strings.TrimSpace(key)
	if key != "" {
		if _, err := os.Stat(key); err == nil {
			return Resolution{Dir: filepath.Clean(key), IsLocalPath: true}, nil
		}
	}

	ref := r.DefaultRepo
	if key != "" {
		if preset, ok := presets[key]; ok {
			ref = preset
		} else {
			ref = key
		}
	}
	if !strings.Contains(ref, "/") {
		ref = r.DefaultRepo
	}

	dir := r.DefaultDir
	if ref != r.DefaultRepo {
		root := r.ModelsRoot
		if root == "" {
			root = "models"
		}
		dir = filepath.Join(root, ref[strings.LastIndex(ref, "/")+1:])
	}

	_, err := os.Stat(filepath.Join(dir, markerFile))
	needsFetch := err != nil
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Resolution{}, fmt.Errorf("stat model marker: %w", err)
	}

	return Resolution{Reference: ref, Dir: dir, NeedsFetch: needsFetch}, nil
}

// Store materializes resolved models on disk, downloading the repo file set
// on first use. Presence of the marker file means the directory is reused
// as-is, with no integrity re-check.
type Store struct {
	Resolver *Resolver
	Hub      *hub.Client
	Logger   *zap.Logger
}

// Ensure returns the local directory for key, downloading it if needed.
func (s *Store) Ensure(ctx context.Context, key string) (string, error) {
	resolved, err := s.Resolver.Resolve(key)
	if err != nil {
		return "", err
	}

	if resolved.IsLocalPath || !resolved.NeedsFetch {
		return resolved.Dir, nil
	}

	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("materializing model",
		zap.String("reference", resolved.Reference),
		zap.String("dir", resolved.Dir))

	if err := s.Hub.Snapshot(ctx, resolved.Reference, resolved.Dir, allowedExts); err != nil {
		return "", fmt.Errorf("materialize model %s: %w", resolved.Reference, err)
	}

	return resolved.Dir, nil
}
