// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	datalens "github.com/poiesic/datalens"
	"github.com/poiesic/datalens/ai"
	"github.com/poiesic/datalens/ai/openai"
	"github.com/poiesic/datalens/config"
	"github.com/poiesic/datalens/core"
	"github.com/poiesic/datalens/storage"
	badgerstore "github.com/poiesic/datalens/storage/badger"
	"github.com/poiesic/datalens/storage/postgres"
)

func main() {
	cfg := config.Load()

	app := &cli.App{
		Name:  "datalens",
		Usage: "analyze tabular datasets with embeddings and language models",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug, info, warn, error)",
				Value: cfg.LogLevel,
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "BadgerDB data directory",
				Value: cfg.DataDir,
			},
			&cli.StringFlag{
				Name:  "postgres-url",
				Usage: "PostgreSQL connection string (uses pgvector backend when set)",
				Value: cfg.PostgresURL,
			},
			&cli.StringFlag{
				Name:  "ai-host",
				Usage: "base URL of the OpenAI-compatible model server",
				Value: cfg.AIHost,
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "embedding model identifier",
				Value: cfg.EmbeddingModel,
			},
			&cli.StringFlag{
				Name:  "generation-model",
				Usage: "generation model identifier",
				Value: cfg.GenerationModel,
			},
			&cli.StringFlag{
				Name:  "api-key",
				Usage: "API key for hosted model services",
				Value: cfg.APIKey,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "ingest a CSV file and print analytics plus an AI summary",
				ArgsUsage: "--file data.csv",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "CSV file to analyze",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "question",
						Usage: "optional question to answer over the dataset",
					},
				},
				Action: runAnalyze,
			},
			{
				Name:      "ask",
				Usage:     "ingest a CSV file and answer a question over it",
				ArgsUsage: "--file data.csv --question \"...\"",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "CSV file to load",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "question",
						Usage:    "question to answer",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "number of snippets used as context",
						Value: 5,
					},
				},
				Action: runAsk,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger(c *cli.Context) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.String("log-level"))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.String("log-level"), err)
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}

// openRepository picks the storage backend: pgvector when a connection
// string is given, embedded Badger otherwise.
func openRepository(c *cli.Context) (storage.RecordRepository, func(), error) {
	if url := c.String("postgres-url"); url != "" {
		store, err := postgres.NewStore(c.Context, url)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := store.Init(c.Context); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}

	backend, err := badgerstore.OpenBackend(c.String("data-dir"), false)
	if err != nil {
		return nil, nil, fmt.Errorf("open data directory: %w", err)
	}
	repo, err := badgerstore.NewRecordRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	return repo, func() { backend.Close() }, nil
}

func newAnalyzer(c *cli.Context) (*datalens.Analyzer, func(), error) {
	aiCfg := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGenerationModel(c.String("generation-model")),
		ai.WithAPIKey(c.String("api-key")),
	)
	provider, err := openai.NewProvider(aiCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create AI provider: %w", err)
	}

	repo, closeRepo, err := openRepository(c)
	if err != nil {
		provider.Close()
		return nil, nil, err
	}

	analyzer, err := datalens.New(provider, repo)
	if err != nil {
		closeRepo()
		provider.Close()
		return nil, nil, err
	}

	cleanup := func() {
		closeRepo()
		provider.Close()
	}
	return analyzer, cleanup, nil
}

func ingest(ctx context.Context, analyzer *datalens.Analyzer, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	sub, err := analyzer.Submit(ctx, filepath.Base(path), data)
	if err != nil {
		return "", err
	}
	fmt.Printf("Ingesting %d rows (token %s)\n", sub.Rows, sub.Token)

	lastProgress := -1
	for {
		job, err := analyzer.Status(sub.Token)
		if err != nil {
			return "", err
		}
		if job.Progress != lastProgress {
			fmt.Printf("  %s %d%%\n", job.Status, job.Progress)
			lastProgress = job.Progress
		}
		if job.Status.Terminal() {
			if job.Status == core.StatusFailed {
				return "", fmt.Errorf("ingestion failed: %s", job.Message)
			}
			break
		}
		time.Sleep(200 * time.Millisecond)
	}

	return sub.Token, nil
}

func runAnalyze(c *cli.Context) error {
	analyzer, cleanup, err := newAnalyzer(c)
	if err != nil {
		return err
	}
	defer cleanup()

	token, err := ingest(c.Context, analyzer, c.String("file"))
	if err != nil {
		return err
	}

	report, err := analyzer.KPI(token)
	if err != nil {
		return err
	}
	fmt.Printf("\nTotal count: %d\n", report.TotalCount)
	for _, region := range report.TopRegions(5) {
		fmt.Printf("  %s: %d\n", region, report.RegionDistribution[region])
	}

	insights, err := analyzer.Insights(token)
	if err != nil {
		return err
	}
	if len(insights) > 0 {
		fmt.Println("\nInsights:")
		for _, insight := range insights {
			fmt.Printf("  %s\n", insight)
		}
	}

	summary, err := analyzer.Summarize(c.Context, token)
	if err != nil {
		return err
	}
	fmt.Printf("\nSummary:\n%s\n", summary)

	suggestions, err := analyzer.Suggest(c.Context, token)
	if err != nil {
		return err
	}
	if len(suggestions) > 0 {
		fmt.Println("\nSuggestions:")
		for _, item := range suggestions {
			fmt.Printf("  - %s\n", item)
		}
	}

	actions, err := analyzer.ActionItems(token)
	if err != nil {
		return err
	}
	if len(actions) > 0 {
		fmt.Println("\nRecommended actions:")
		for _, item := range actions {
			fmt.Printf("  - %s\n", item)
		}
	}

	if question := c.String("question"); question != "" {
		answer, err := analyzer.Ask(c.Context, token, question, 5)
		if err != nil {
			return err
		}
		fmt.Printf("\nQ: %s\nA: %s\n", question, answer)
	}

	return nil
}

func runAsk(c *cli.Context) error {
	analyzer, cleanup, err := newAnalyzer(c)
	if err != nil {
		return err
	}
	defer cleanup()

	token, err := ingest(c.Context, analyzer, c.String("file"))
	if err != nil {
		return err
	}

	answer, err := analyzer.Ask(c.Context, token, c.String("question"), c.Int("top-k"))
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}
