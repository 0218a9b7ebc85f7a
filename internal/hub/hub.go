// Package hub talks to the model artifact repository: it lists the files of
// a "namespace/name" model repo and pulls an allow-listed snapshot of them
// into a local directory.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"voicetask/internal/download"
)

const DefaultBaseURL = "https://huggingface.co"

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
	NoProgress bool
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
		Logger:     logger,
	}
}

type modelManifest struct {
	Siblings []struct {
		RFilename string `json:"rfilename"`
	} `json:"siblings"`
}

// ListFiles returns the file names published by a model repo.
func (c *Client) ListFiles(ctx context.Context, repo string) ([]string, error) {
	url := fmt.Sprintf("%s/api/models/%s", c.BaseURL, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create manifest request: %w", err)
	}
	req.Header.Set("User-Agent", "voicetask/1")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch model manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model manifest for %s: unexpected status %d", repo, resp.StatusCode)
	}

	var manifest modelManifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("decode model manifest: %w", err)
	}

	files := make([]string, 0, len(manifest.Siblings))
	for _, s := range manifest.Siblings {
		if s.RFilename != "" {
			files = append(files, s.RFilename)
		}
	}
	return files, nil
}

// Snapshot pulls every repo file whose extension is in allowExts into dir.
// Files already present are downloaded again; callers gate on their own
// marker file to avoid that.
func (c *Client) Snapshot(ctx context.Context, repo, dir string, allowExts []string) error {
	files, err := c.ListFiles(ctx, repo)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}

	allowed := make(map[string]struct{}, len(allowExts))
	for _, ext := range allowExts {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	pulled := 0
	for _, name := range files {
		if _, ok := allowed[strings.ToLower(path.Ext(name))]; !ok {
			continue
		}

		c.Logger.Info("downloading model file", zap.String("repo", repo), zap.String("file", name))
		err := download.Fetch(ctx, download.Options{
			URL:         fmt.Sprintf("%s/%s/resolve/main/%s", c.BaseURL, repo, name),
			Destination: filepath.Join(dir, filepath.FromSlash(name)),
			NoProgress:  c.NoProgress,
			Logger:      c.Logger,
		})
		if err != nil {
			return fmt.Errorf("download %s from %s: %w", name, repo, err)
		}
		pulled++
	}

	if pulled == 0 {
		return fmt.Errorf("model repo %s published no files matching %v", repo, allowExts)
	}

	return nil
}
