package transcribe

import (
	"context"

	"go.uber.org/zap"
)

type job struct {
	ctx  context.Context
	path string
	opts Options
	resp chan result
}

type result struct {
	text string
	err  error
}

// Worker serializes the CPU-bound inference step on a dedicated goroutine so
// message handling and the chat transport's long poll stay responsive.
type Worker struct {
	svc    *Service
	jobs   chan job
	logger *zap.Logger
}

func NewWorker(svc *Service, queueSize int, logger *zap.Logger) *Worker {
	if queueSize <= 0 {
		queueSize = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Worker{
		svc:    svc,
		jobs:   make(chan job, queueSize),
		logger: logger,
	}
	go w.loop()
	return w
}

func (w *Worker) loop() {
	for j := range w.jobs {
		if err := j.ctx.Err(); err != nil {
			j.resp <- result{err: err}
			continue
		}
		text, err := w.svc.Transcribe(j.ctx, j.path, j.opts)
		j.resp <- result{text: text, err: err}
	}
}

// Transcribe enqueues one request and blocks the calling goroutine until the
// worker finishes it.
func (w *Worker) Transcribe(ctx context.Context, path string, opts Options) (string, error) {
	resp := make(chan result, 1)

	select {
	case w.jobs <- job{ctx: ctx, path: path, opts: opts, resp: resp}:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case res := <-resp:
		return res.text, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close stops the worker once queued jobs drain.
func (w *Worker) Close() {
	close(w.jobs)
}
