package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/poiesic/datalens/core"
)

// Orchestrator runs ingestion jobs end to end. Each submission gets a
// fresh token and a detached goroutine; job state moves through
// Queued -> Embedding -> Writing -> Completed | Failed and is only ever
// mutated here.
type Orchestrator struct {
	registry *Registry
	encoder  *Encoder
	writer   *Writer
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithOrchestratorLogger sets the logger used by the orchestrator.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator wires the registry, encoder and writer into a
// pipeline. The writer's progress callback is claimed by the
// orchestrator to map chunk completion onto job progress.
func NewOrchestrator(registry *Registry, encoder *Encoder, writer *Writer, opts ...OrchestratorOption) (*Orchestrator, error) {
	if registry == nil || encoder == nil || writer == nil {
		return nil, fmt.Errorf("registry, encoder and writer required")
	}

	o := &Orchestrator{
		registry: registry,
		encoder:  encoder,
		writer:   writer,
		logger:   slog.Default().With("component", "orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}

	writer.onProgress = func(token string, chunksDone, totalChunks int) {
		o.registry.Update(token, func(job *core.IngestionJob) {
			// Writing spans the 50-100 progress band.
			job.Progress = 50 + 50*chunksDone/totalChunks
		})
	}

	return o, nil
}

// Start validates the submission, registers a job and launches the
// pipeline in the background. The returned token identifies the job for
// status polling and later retrieval.
//
// The pipeline runs on a context detached from ctx: callers typically
// hold request-scoped contexts that outlive the submission call only by
// milliseconds, while the job may run for minutes.
func (o *Orchestrator) Start(ctx context.Context, filename string, texts []string) (string, error) {
	if err := core.ValidateSubmission(filename, texts); err != nil {
		return "", err
	}

	token := uuid.NewString()
	if err := o.registry.Create(token); err != nil {
		return "", err
	}
	o.registry.Update(token, func(job *core.IngestionJob) {
		job.TotalRows = len(texts)
		job.Message = "queued"
	})

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	o.registry.BindCancel(token, cancel)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer cancel()
		o.run(jobCtx, token, filename, texts)
	}()

	o.logger.Info("ingestion started", "token", token, "filename", filename, "rows", len(texts))
	return token, nil
}

// Wait blocks until all in-flight jobs have reached a terminal state.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) run(ctx context.Context, token, filename string, texts []string) {
	o.registry.Update(token, func(job *core.IngestionJob) {
		job.Status = core.StatusEmbedding
		job.Progress = 20
		job.Message = "computing embeddings"
	})

	vectors, err := o.encoder.Encode(ctx, texts)
	if err != nil {
		o.fail(token, fmt.Errorf("embedding: %w", err))
		return
	}

	o.registry.Update(token, func(job *core.IngestionJob) {
		job.Status = core.StatusWriting
		job.Progress = 50
		job.Message = "writing records"
	})

	report, err := o.writer.Write(ctx, token, filename, texts, vectors)
	if err != nil {
		o.fail(token, fmt.Errorf("writing: %w", err))
		return
	}

	if !report.Complete(len(texts)) {
		o.registry.Update(token, func(job *core.IngestionJob) {
			job.Status = core.StatusFailed
			job.Message = fmt.Sprintf("%d of %d chunks failed", len(report.FailedChunks), report.TotalChunks)
			job.ChunksSucceeded = report.TotalChunks - len(report.FailedChunks)
			job.ChunksFailed = len(report.FailedChunks)
		})
		o.logger.Error("ingestion failed", "token", token,
			"failedChunks", len(report.FailedChunks), "totalChunks", report.TotalChunks)
		return
	}

	o.registry.Update(token, func(job *core.IngestionJob) {
		job.Status = core.StatusCompleted
		job.Progress = 100
		job.Message = "completed"
		job.ChunksSucceeded = report.TotalChunks
	})
	o.logger.Info("ingestion completed", "token", token, "records", report.Succeeded)
}

func (o *Orchestrator) fail(token string, err error) {
	o.registry.Update(token, func(job *core.IngestionJob) {
		job.Status = core.StatusFailed
		job.Message = err.Error()
	})
	o.logger.Error("ingestion failed", "token", token, "error", err)
}
