// Package jobs runs PDF synthesis as asynq background tasks.
//
// A task names an input file, its format and an output path. The worker
// loads the document, synthesizes it and writes the PDF to the output path.
// Payloads are JSON so producers in other languages can enqueue them.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/gardar/ocrsynth/internal/input"
	"github.com/gardar/ocrsynth/internal/logging"
	"github.com/gardar/ocrsynth/pkg/synth"
)

// TypeSynthesize is the asynq task type handled by Handler.
const TypeSynthesize = "ocrsynth:synthesize"

// ErrInvalidPayload is wrapped with asynq.SkipRetry for payloads that can
// never succeed.
var ErrInvalidPayload = errors.New("jobs: invalid payload")

// Payload describes one synthesis job.
type Payload struct {
	Input       string        `json:"input"`
	InputFormat input.Format  `json:"input_format,omitempty"` // empty: detect
	Output      string        `json:"output"`
	Options     synth.Options `json:"options"`
}

func (p *Payload) validate() error {
	if p.Input == "" || p.Output == "" {
		return fmt.Errorf("%w: input and output are required", ErrInvalidPayload)
	}
	if _, err := input.ParseFormat(string(p.InputFormat)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.Options.RotateText && p.Options.RotateBackground {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, synth.ErrRotationConflict)
	}
	return nil
}

// NewSynthesizeTask creates a task with a random ID.
func NewSynthesizeTask(p Payload, opts ...asynq.Option) (*asynq.Task, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("jobs: failed to marshal payload: %w", err)
	}
	opts = append([]asynq.Option{asynq.TaskID(uuid.NewString())}, opts...)
	return asynq.NewTask(TypeSynthesize, data, opts...), nil
}

// Handler processes TypeSynthesize tasks.
type Handler struct {
	Fonts   synth.FontSource
	Oracle  synth.Oracle
	Input   input.Options
	Timeout time.Duration // 0 = no limit beyond the task context
	Logger  *logging.Logger
}

// ProcessTask implements asynq.Handler.
func (h *Handler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var p Payload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("%w: %v: %w", ErrInvalidPayload, err, asynq.SkipRetry)
	}
	if err := p.validate(); err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	start := time.Now()
	h.Logger.Info("synthesis started", "input", p.Input, "format", p.InputFormat)

	doc, err := input.Load(p.Input, p.InputFormat, h.Input)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("jobs: %w: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("jobs: failed to load %s: %w", p.Input, err)
	}

	pdf, err := synth.Synthesize(ctx, doc.Pages, h.Fonts, h.Oracle, p.Options)
	if err != nil {
		if errors.Is(err, synth.ErrInvalidPageCount) || errors.Is(err, synth.ErrNoPages) {
			return fmt.Errorf("jobs: %w: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("jobs: synthesis failed: %w", err)
	}
	if err := os.WriteFile(p.Output, pdf, 0o644); err != nil {
		return fmt.Errorf("jobs: failed to write %s: %w", p.Output, err)
	}

	h.Logger.Info("synthesis completed", "output", p.Output, "pages", len(doc.Pages),
		"bytes", len(pdf), "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// NewServeMux registers h for TypeSynthesize.
func NewServeMux(h *Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeSynthesize, h)
	return mux
}

// NewServer creates an asynq server consuming queue with the given
// concurrency. Failed tasks are retried with a linear backoff.
func NewServer(redis asynq.RedisConnOpt, queue string, concurrency int, log *logging.Logger) *asynq.Server {
	return asynq.NewServer(redis, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			return time.Duration(n) * 10 * time.Second
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error("task failed", "type", task.Type(), "error", err)
		}),
	})
}
