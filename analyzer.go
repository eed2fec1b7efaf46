package datalens

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/datalens/ai"
	"github.com/poiesic/datalens/analytics"
	"github.com/poiesic/datalens/core"
	"github.com/poiesic/datalens/dataset"
	"github.com/poiesic/datalens/ingestion"
	"github.com/poiesic/datalens/rag"
	"github.com/poiesic/datalens/storage"
)

// sampleSnippetCount is how many stored snippets feed a summary prompt.
const sampleSnippetCount = 10

// Submission describes an accepted dataset upload.
type Submission struct {
	Token   string
	Rows    int
	Columns []string
}

// Analyzer is the facade over the full pipeline: submission, job status,
// retrieval, analytics and generation. Parsed tables are cached per
// token so analytics and prompt building never re-read the raw file.
type Analyzer struct {
	provider     ai.Provider
	repo         storage.RecordRepository
	registry     *ingestion.Registry
	orchestrator *ingestion.Orchestrator
	retriever    *rag.Retriever
	gateway      *rag.Gateway
	schema       dataset.Schema
	logger       *slog.Logger

	mu     sync.RWMutex
	tables map[string]*core.Table
}

// Option configures an Analyzer.
type Option func(*analyzerConfig)

type analyzerConfig struct {
	schema      dataset.Schema
	logger      *slog.Logger
	encoderOpts []ingestion.EncoderOption
	writerOpts  []ingestion.WriterOption
}

// WithSchema overrides the column schema used for snippets and analytics.
func WithSchema(schema dataset.Schema) Option {
	return func(c *analyzerConfig) {
		c.schema = schema
	}
}

// WithLogger sets the logger used across the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(c *analyzerConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEncoderOptions passes options through to the embedding encoder.
func WithEncoderOptions(opts ...ingestion.EncoderOption) Option {
	return func(c *analyzerConfig) {
		c.encoderOpts = append(c.encoderOpts, opts...)
	}
}

// WithWriterOptions passes options through to the bulk writer.
func WithWriterOptions(opts ...ingestion.WriterOption) Option {
	return func(c *analyzerConfig) {
		c.writerOpts = append(c.writerOpts, opts...)
	}
}

// New creates an Analyzer over the given AI provider and record
// repository. The repository is not closed by the analyzer; callers own
// both dependencies.
func New(provider ai.Provider, repo storage.RecordRepository, opts ...Option) (*Analyzer, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider required")
	}
	if repo == nil {
		return nil, fmt.Errorf("repository required")
	}

	cfg := &analyzerConfig{
		schema: dataset.DefaultSchema(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	encoder, err := ingestion.NewEncoder(provider.Embedder(),
		append([]ingestion.EncoderOption{ingestion.WithEncoderLogger(cfg.logger)}, cfg.encoderOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("create encoder: %w", err)
	}
	writer, err := ingestion.NewWriter(repo,
		append([]ingestion.WriterOption{ingestion.WithWriterLogger(cfg.logger)}, cfg.writerOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("create writer: %w", err)
	}

	registry := ingestion.NewRegistry()
	orchestrator, err := ingestion.NewOrchestrator(registry, encoder, writer,
		ingestion.WithOrchestratorLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("create orchestrator: %w", err)
	}

	retriever, err := rag.NewRetriever(repo, provider.Embedder(),
		rag.WithRetrieverLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("create retriever: %w", err)
	}

	return &Analyzer{
		provider:     provider,
		repo:         repo,
		registry:     registry,
		orchestrator: orchestrator,
		retriever:    retriever,
		gateway:      rag.NewGateway(provider.Generator(), rag.WithGatewayLogger(cfg.logger)),
		schema:       cfg.schema,
		logger:       cfg.logger,
		tables:       make(map[string]*core.Table),
	}, nil
}

// Submit parses the uploaded file, derives snippets and starts the
// ingestion job. The returned token keys all later operations.
func (a *Analyzer) Submit(ctx context.Context, filename string, data []byte) (*Submission, error) {
	table, err := dataset.Parse(filename, data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	if table.NumRows() == 0 {
		return nil, core.ErrNoRows
	}

	texts := dataset.Snippets(table, a.schema)
	token, err := a.orchestrator.Start(ctx, filename, texts)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.tables[token] = table
	a.mu.Unlock()

	return &Submission{
		Token:   token,
		Rows:    table.NumRows(),
		Columns: table.Columns,
	}, nil
}

// Status returns a snapshot of the ingestion job for the token.
func (a *Analyzer) Status(token string) (core.IngestionJob, error) {
	return a.registry.Get(token)
}

// Cancel signals the token's ingestion job to stop.
func (a *Analyzer) Cancel(token string) error {
	return a.registry.Cancel(token)
}

// Wait blocks until all in-flight ingestion jobs finish.
func (a *Analyzer) Wait() {
	a.orchestrator.Wait()
}

// Retrieve fetches snippet records for the token. topK > 0 ranks by
// similarity to the query; topK <= 0 returns everything in row order.
func (a *Analyzer) Retrieve(ctx context.Context, token, query string, topK int) ([]*core.Record, error) {
	return a.retriever.Retrieve(ctx, token, query, topK)
}

// Stats reports the persisted record count and filename for the token.
func (a *Analyzer) Stats(ctx context.Context, token string) (*storage.DatasetStats, error) {
	return a.repo.Stats(ctx, token)
}

// Summarize generates a natural-language summary of the dataset. The
// prompt carries storage stats, structured KPI values and a handful of
// sample snippets; if the model is unavailable the result is a fixed
// degraded message, never an error.
func (a *Analyzer) Summarize(ctx context.Context, token string) (string, error) {
	table, err := a.table(token)
	if err != nil {
		return "", err
	}

	stats, err := a.repo.Stats(ctx, token)
	if err != nil {
		return "", fmt.Errorf("dataset stats: %w", err)
	}

	records, err := a.retriever.Retrieve(ctx, token, "", 0)
	if err != nil {
		return "", fmt.Errorf("sample snippets: %w", err)
	}
	samples := make([]string, 0, sampleSnippetCount)
	for _, record := range records {
		if len(samples) == sampleSnippetCount {
			break
		}
		samples = append(samples, record.Contents)
	}

	report := analytics.KPI(table, a.schema)
	prompt := rag.SummaryPrompt(stats.Filename, stats.Records, report, samples)
	return a.gateway.Summarize(ctx, prompt), nil
}

// Suggest generates up to five actionable suggestions from the
// dataset's KPI profile.
func (a *Analyzer) Suggest(ctx context.Context, token string) ([]string, error) {
	table, err := a.table(token)
	if err != nil {
		return nil, err
	}

	report := analytics.KPI(table, a.schema)
	raw := a.gateway.Suggest(ctx, rag.SuggestionPrompt(report))
	return rag.ParseSuggestions(raw), nil
}

// Ask answers a free-form question over the dataset using the topK most
// similar snippets as context.
func (a *Analyzer) Ask(ctx context.Context, token, question string, topK int) (string, error) {
	if topK <= 0 {
		topK = 5
	}
	records, err := a.retriever.Retrieve(ctx, token, question, topK)
	if err != nil {
		return "", err
	}

	snippets := make([]string, len(records))
	for i, record := range records {
		snippets[i] = record.Contents
	}
	return a.gateway.Summarize(ctx, rag.QuestionPrompt(question, snippets)), nil
}

// KPI returns the aggregate indicator report for the token's dataset.
func (a *Analyzer) KPI(token string) (*analytics.Report, error) {
	table, err := a.table(token)
	if err != nil {
		return nil, err
	}
	return analytics.KPI(table, a.schema), nil
}

// Trend returns per-date totals for the token's dataset.
func (a *Analyzer) Trend(token string) ([]analytics.TrendPoint, error) {
	table, err := a.table(token)
	if err != nil {
		return nil, err
	}
	return analytics.Trend(table, a.schema), nil
}

// Insights returns short human-readable findings for the token's dataset.
func (a *Analyzer) Insights(token string) ([]string, error) {
	table, err := a.table(token)
	if err != nil {
		return nil, err
	}
	return analytics.Insights(table, a.schema), nil
}

// ActionItems returns baseline recommendations derived from the KPI
// profile alone, independent of model availability.
func (a *Analyzer) ActionItems(token string) ([]string, error) {
	table, err := a.table(token)
	if err != nil {
		return nil, err
	}
	return analytics.ActionItems(analytics.KPI(table, a.schema)), nil
}

// Compare sums the count column for two regions, optionally restricted
// to an inclusive date range.
func (a *Analyzer) Compare(token, region1, region2 string, start, end time.Time) (map[string]int64, error) {
	table, err := a.table(token)
	if err != nil {
		return nil, err
	}
	return analytics.Compare(table, a.schema, region1, region2, start, end), nil
}

func (a *Analyzer) table(token string) (*core.Table, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	table, ok := a.tables[token]
	if !ok {
		return nil, ErrNoDataset
	}
	return table, nil
}
