// Copyright 2026 Stratum Authors
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
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/stratumkb/stratum"
	"github.com/stratumkb/stratum/ai"
	"github.com/stratumkb/stratum/core"
	"github.com/stratumkb/stratum/ingestion"
	"github.com/stratumkb/stratum/retrieval"
	"github.com/stratumkb/stratum/storage"
)

func main() {
	app := &cli.App{
		Name:  "stratum",
		Usage: "Hierarchical knowledge retrieval engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:     "db",
				Aliases:  []string{"d"},
				Usage:    "Path to BadgerDB database directory",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
				Value: "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
				Value: "embeddinggemma",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Ingest a document from a text file",
				Action: ingestCommand,
				Flags: append(sourceFlags(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the extracted text content ('-' for stdin)",
						Required: true,
					},
				),
			},
			{
				Name:   "update",
				Usage:  "Replace a document's content with a new version",
				Action: updateCommand,
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:     "id",
						Usage:    "Document ID to replace",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the new text content ('-' for stdin)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "version",
						Usage:    "Version label of the replacement",
						Required: true,
					},
				},
			},
			{
				Name:   "delete",
				Usage:  "Deprecate a document, or remove it once past the grace period",
				Action: deleteCommand,
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:     "id",
						Usage:    "Document ID to delete",
						Required: true,
					},
				},
			},
			{
				Name:   "reap",
				Usage:  "Hard-delete deprecated documents past the grace period",
				Action: reapCommand,
			},
			{
				Name:      "retrieve",
				Usage:     "Run a scoped retrieval query",
				ArgsUsage: "<query text>",
				Action:    retrieveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "tenant",
						Usage:    "Caller tenant ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "suite",
						Usage: "Caller suite ID",
					},
					&cli.StringFlag{
						Name:  "module",
						Usage: "Caller module ID",
					},
					&cli.BoolFlag{
						Name:  "authenticated",
						Usage: "Treat the caller as authenticated",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Fail the request if any level query fails",
					},
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "Print the request state machine and per-level results",
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List documents matching a filter",
				Action: listCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by status (active, deprecated)",
					},
					&cli.StringFlag{
						Name:  "level",
						Usage: "Filter by level (platform, suite, module, entity)",
					},
					&cli.StringFlag{
						Name:  "tenant",
						Usage: "Filter by tenant ID",
					},
					&cli.StringFlag{
						Name:  "suite",
						Usage: "Filter by suite ID",
					},
					&cli.StringFlag{
						Name:  "module",
						Usage: "Filter by module ID",
					},
				},
			},
			{
				Name:   "accuracy-check",
				Usage:  "Run the fixed accuracy test set through the coordinator",
				Action: accuracyCheckCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "cases",
						Usage:    "Path to a JSON file of test cases",
						Required: true,
					},
				},
			},
			{
				Name:   "drift-check",
				Usage:  "Compare recent query similarity against a baseline",
				Action: driftCheckCommand,
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:  "baseline",
						Usage: "Mean top-1 similarity measured during a known-good period",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "level",
			Usage:    "Hierarchy level (platform, suite, module, entity)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "tenant",
			Usage:    "Owning tenant ID ('global' for platform documents)",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "suite",
			Usage: "Suite ID (required for suite and module levels)",
		},
		&cli.StringFlag{
			Name:  "module",
			Usage: "Module ID (required for module level)",
		},
		&cli.StringFlag{
			Name:     "title",
			Usage:    "Document title",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "source-type",
			Usage: "Origin of the content (upload, url, api)",
			Value: "upload",
		},
		&cli.StringFlag{
			Name:  "source-uri",
			Usage: "URI the content came from",
		},
		&cli.StringFlag{
			Name:  "classification",
			Usage: "Visibility (public, internal, tenant_private)",
			Value: "internal",
		},
		&cli.StringFlag{
			Name:  "version",
			Usage: "Version label",
			Value: "v1",
		},
		&cli.StringFlag{
			Name:  "tags",
			Usage: "Comma-separated tags",
		},
		&cli.StringFlag{
			Name:  "ingested-by",
			Usage: "Identity recorded as the ingester",
		},
	}
}

func openEngine(c *cli.Context) (*stratum.Engine, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
	)
	return stratum.NewEngine(c.String("db"), stratum.WithAIConfig(aiConfig))
}

func readContent(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func ingestCommand(c *cli.Context) error {
	content, err := readContent(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	level, err := parseLevel(c.String("level"))
	if err != nil {
		return err
	}
	sourceType, err := parseSourceType(c.String("source-type"))
	if err != nil {
		return err
	}
	classification, err := parseClassification(c.String("classification"))
	if err != nil {
		return err
	}

	var tags []string
	if raw := c.String("tags"); raw != "" {
		tags = strings.Split(raw, ",")
	}

	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	pipeline, err := engine.NewIngestionPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	id, err := pipeline.Ingest(context.Background(), content, ingestion.Source{
		Level:          level,
		TenantID:       c.String("tenant"),
		SuiteID:        c.String("suite"),
		ModuleID:       c.String("module"),
		Title:          c.String("title"),
		SourceType:     sourceType,
		SourceURI:      c.String("source-uri"),
		Classification: classification,
		Version:        c.String("version"),
		Tags:           tags,
		IngestedBy:     c.String("ingested-by"),
	})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("ingested document %d\n", id)
	return nil
}

func updateCommand(c *cli.Context) error {
	content, err := readContent(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	pipeline, err := engine.NewIngestionPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	newID, err := pipeline.Update(context.Background(), core.ID(c.Uint64("id")), content, c.String("version"))
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	fmt.Printf("deprecated document %d, replacement is %d\n", c.Uint64("id"), newID)
	return nil
}

func deleteCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	pipeline, err := engine.NewIngestionPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	if err := pipeline.Delete(context.Background(), core.ID(c.Uint64("id"))); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	fmt.Printf("document %d deleted or scheduled for reaping\n", c.Uint64("id"))
	return nil
}

func reapCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	pipeline, err := engine.NewIngestionPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	reaped, err := pipeline.Reap(context.Background())
	if err != nil {
		return fmt.Errorf("reap failed: %w", err)
	}

	fmt.Printf("reaped %d documents\n", reaped)
	return nil
}

func retrieveCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("query text is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	coordinator, err := engine.NewCoordinator()
	if err != nil {
		return err
	}

	req := retrieval.Request{
		Query: query,
		Caller: core.Caller{
			TenantID:      c.String("tenant"),
			SuiteID:       c.String("suite"),
			ModuleID:      c.String("module"),
			Authenticated: c.Bool("authenticated"),
		},
		Strict: c.Bool("strict"),
	}

	var monitor retrieval.RetrieveMonitor
	if c.Bool("verbose") {
		monitor = &printMonitor{out: os.Stderr}
	}

	results, err := coordinator.RetrieveWithMonitor(context.Background(), req, monitor)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	fmt.Printf("found %d chunks\n", len(results))
	for i, rc := range results {
		fmt.Printf("%d: doc %d %q (%s) score %.3f (raw %.3f)\n",
			i+1, rc.Document.Id, rc.Document.Title, rc.Level, rc.AdjustedScore, rc.RawSimilarity)
		fmt.Printf("   %s\n", snippet(rc.Chunk.Content, 120))
	}
	return nil
}

func listCommand(c *cli.Context) error {
	var filter storage.DocumentFilter
	var err error

	if s := c.String("status"); s != "" {
		if filter.Status, err = parseStatus(s); err != nil {
			return err
		}
	}
	if s := c.String("level"); s != "" {
		if filter.Level, err = parseLevel(s); err != nil {
			return err
		}
	}
	filter.TenantID = c.String("tenant")
	filter.SuiteID = c.String("suite")
	filter.ModuleID = c.String("module")

	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	docs, err := engine.DocumentRepository().ListDocuments(context.Background(), filter)
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	for _, doc := range docs {
		fmt.Printf("%d\t%s\t%s\t%s\t%s\t%q\tchunks=%d\tingested=%s\n",
			doc.Id, doc.Status, doc.Level, doc.TenantID, doc.Version, doc.Title,
			doc.ChunkCount, doc.IngestedAt.Format("2006-01-02"))
	}
	fmt.Fprintf(os.Stderr, "%d documents\n", len(docs))
	return nil
}

// accuracyCase is the JSON shape of one accuracy test case.
type accuracyCase struct {
	Query            string `json:"query"`
	TenantID         string `json:"tenant_id"`
	SuiteID          string `json:"suite_id"`
	ModuleID         string `json:"module_id"`
	ExpectedDocument uint64 `json:"expected_document"`
}

func accuracyCheckCommand(c *cli.Context) error {
	data, err := os.ReadFile(c.String("cases"))
	if err != nil {
		return fmt.Errorf("failed to read cases file: %w", err)
	}

	var raw []accuracyCase
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid cases file: %w", err)
	}

	cases := make([]retrieval.TestCase, len(raw))
	for i, rc := range raw {
		cases[i] = retrieval.TestCase{
			Query: rc.Query,
			Caller: core.Caller{
				TenantID:      rc.TenantID,
				SuiteID:       rc.SuiteID,
				ModuleID:      rc.ModuleID,
				Authenticated: true,
			},
			ExpectedDocument: core.ID(rc.ExpectedDocument),
		}
	}

	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	coordinator, err := engine.NewCoordinator()
	if err != nil {
		return err
	}
	monitor, err := engine.NewQualityMonitor(coordinator)
	if err != nil {
		return err
	}

	report, err := monitor.AccuracyCheck(context.Background(), cases)
	if err != nil {
		return fmt.Errorf("accuracy check failed: %w", err)
	}

	fmt.Printf("accuracy: %d/%d passed (%.1f%%)\n", report.Passed, report.Total, report.PassRate*100)
	for _, result := range report.Cases {
		if result.Passed {
			continue
		}
		if result.Err != nil {
			fmt.Printf("FAIL %q: %v\n", result.Case.Query, result.Err)
		} else {
			fmt.Printf("FAIL %q: document %d not in top results\n", result.Case.Query, result.Case.ExpectedDocument)
		}
	}
	if report.Flagged {
		fmt.Println("ALERT: pass rate below floor")
	}
	return nil
}

func driftCheckCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	coordinator, err := engine.NewCoordinator()
	if err != nil {
		return err
	}
	monitor, err := engine.NewQualityMonitor(coordinator)
	if err != nil {
		return err
	}

	if baseline := c.Float64("baseline"); baseline > 0 {
		monitor.SetBaseline(baseline)
	}

	report, err := monitor.DriftCheck(context.Background())
	if err != nil {
		return fmt.Errorf("drift check failed: %w", err)
	}

	fmt.Printf("baseline %.3f, current mean %.3f over %d samples (drop %.1f%%)\n",
		report.Baseline, report.Mean, report.Samples, report.RelativeDrop*100)
	if report.Flagged {
		fmt.Println("ALERT: similarity drift past tolerance")
	}
	return nil
}

func snippet(text string, max int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}

func parseLevel(s string) (core.Level, error) {
	switch strings.ToLower(s) {
	case "platform":
		return core.LevelPlatform, nil
	case "suite":
		return core.LevelSuite, nil
	case "module":
		return core.LevelModule, nil
	case "entity":
		return core.LevelEntity, nil
	default:
		return 0, fmt.Errorf("invalid level %q: must be one of platform, suite, module, entity", s)
	}
}

func parseClassification(s string) (core.Classification, error) {
	switch strings.ToLower(s) {
	case "public":
		return core.ClassificationPublic, nil
	case "internal":
		return core.ClassificationInternal, nil
	case "tenant_private":
		return core.ClassificationTenantPrivate, nil
	default:
		return 0, fmt.Errorf("invalid classification %q: must be one of public, internal, tenant_private", s)
	}
}

func parseSourceType(s string) (core.SourceType, error) {
	switch strings.ToLower(s) {
	case "upload":
		return core.SourceTypeUpload, nil
	case "url":
		return core.SourceTypeURL, nil
	case "api":
		return core.SourceTypeAPI, nil
	default:
		return 0, fmt.Errorf("invalid source type %q: must be one of upload, url, api", s)
	}
}

func parseStatus(s string) (core.Status, error) {
	switch strings.ToLower(s) {
	case "active":
		return core.StatusActive, nil
	case "deprecated":
		return core.StatusDeprecated, nil
	case "deleted":
		return core.StatusDeleted, nil
	default:
		return 0, fmt.Errorf("invalid status %q: must be one of active, deprecated, deleted", s)
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
