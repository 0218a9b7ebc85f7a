package whisper

import "context"

type Request struct {
	AudioPath string
	ModelDir  string
	Language  string
	VADFilter bool
}

type Engine interface {
	Transcribe(ctx context.Context, req Request) (string, error)
}
