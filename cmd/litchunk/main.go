package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/litchunk/internal/config"
	"github.com/dgallion1/litchunk/internal/document"
	"github.com/dgallion1/litchunk/internal/extract"
	"github.com/dgallion1/litchunk/internal/pipeline"
	"github.com/dgallion1/litchunk/internal/tokens"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "litchunk",
		Usage:     "Extract, chunk and estimate tokens for literature documents",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Load settings from these .env files (default ./.env when present)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Override LOG_LEVEL (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "Extract cleaned text and a title from a PDF, DOCX or HTML file",
				ArgsUsage: "FILE",
				Action:    extractCommand,
			},
			{
				Name:      "chunk",
				Usage:     "Split files or text into enriched chunks",
				ArgsUsage: "[FILE...]",
				Action:    chunkCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "text",
						Usage: "Chunk this text instead of files",
					},
					&cli.StringFlag{
						Name:     "literature-id",
						Usage:    "Literature ID stamped on every chunk (file stem when several files are given)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "group-id",
						Usage:    "Group ID stamped on every chunk",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Target chunk size in characters (default CHUNK_SIZE)",
					},
					&cli.IntFlag{
						Name:  "chunk-overlap",
						Usage: "Characters shared by consecutive chunks (default CHUNK_OVERLAP)",
					},
					&cli.StringFlag{
						Name:  "method",
						Usage: "Token count method: auto, exact, words or chars (default TOKEN_COUNT_METHOD)",
					},
				},
			},
			{
				Name:      "tokens",
				Usage:     "Estimate the token count of TEXT",
				ArgsUsage: "TEXT",
				Action:    tokensCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "method",
						Usage: "Token count method: auto, exact, words or chars (default TOKEN_COUNT_METHOD)",
					},
				},
			},
		},
	}
}

// env is the configured pipeline shared by every command.
type env struct {
	cfg  config.Config
	log  *slog.Logger
	ext  *extract.Extractor
	est  *tokens.Estimator
	orch *pipeline.Orchestrator
}

func setup(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.StringSlice("env-file")...)
	if err != nil {
		return nil, err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = strings.ToLower(lvl)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	types, err := cfg.SourceTypes()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: cfg.Level()}))
	est := tokens.NewEstimator(
		tokens.NewTiktokenEncoder(cfg.TokenModel),
		tokens.NewGseSegmenter(logger, cfg.SegmenterDicts...),
		logger,
	)
	ext := extract.New(logger, extract.Options{
		TitleMaxLength: cfg.TitleMaxLength,
		EnabledTypes:   types,
		PDFFallback:    cfg.PDFFallbackPdftotext,
	})
	return &env{
		cfg:  cfg,
		log:  logger,
		ext:  ext,
		est:  est,
		orch: pipeline.NewOrchestrator(ext, est, logger),
	}, nil
}

func extractCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("extract takes exactly one FILE")
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	path := c.Args().First()
	return printJSON(c, e.ext.ExtractMetadata(path, filepath.Base(path)))
}

type fileResult struct {
	Filename string                 `json:"filename"`
	Metadata document.ExtractedText `json:"metadata"`
	Chunks   []document.Chunk       `json:"chunks,omitempty"`
	Summary  *document.Summary      `json:"summary,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

func chunkCommand(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	spec, err := chunkSpec(c, e.cfg)
	if err != nil {
		return err
	}
	litID, groupID := c.String("literature-id"), c.String("group-id")

	if c.IsSet("text") {
		if c.NArg() > 0 {
			return fmt.Errorf("give either --text or files, not both")
		}
		chunks, err := e.orch.Process(c.String("text"), litID, groupID, spec)
		if err != nil {
			return err
		}
		return printJSON(c, map[string]any{
			"chunks":  chunks,
			"summary": document.Summarize(chunks),
		})
	}

	paths := c.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("chunk needs --text or at least one FILE")
	}

	items := make([]pipeline.BatchItem, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		id := litID
		if len(paths) > 1 {
			id = litID + "/" + extract.TitleFromFilename(p)
		}
		items = append(items, pipeline.BatchItem{
			Filename:     filepath.Base(p),
			Data:         data,
			LiteratureID: id,
			GroupID:      groupID,
		})
	}

	batch, err := pipeline.NewBatch(e.orch, e.cfg.BatchWorkers, e.log)
	if err != nil {
		return err
	}
	defer batch.Release()

	var out []fileResult
	failed := 0
	for _, res := range batch.Run(context.Background(), items, spec) {
		fr := fileResult{Filename: res.Filename, Metadata: res.Metadata}
		if res.Err != nil {
			fr.Error = res.Err.Error()
			failed++
		} else {
			sum := document.Summarize(res.Chunks)
			fr.Chunks, fr.Summary = res.Chunks, &sum
		}
		out = append(out, fr)
	}
	if err := printJSON(c, out); err != nil {
		return err
	}
	if failed == len(out) {
		return fmt.Errorf("no file produced chunks (%d failed)", failed)
	}
	return nil
}

func chunkSpec(c *cli.Context, cfg config.Config) (pipeline.ChunkSpec, error) {
	spec := pipeline.ChunkSpec{
		TargetSize:  cfg.ChunkSize,
		Overlap:     cfg.ChunkOverlap,
		TokenMethod: cfg.TokenMethod(),
	}
	if c.IsSet("chunk-size") {
		spec.TargetSize = c.Int("chunk-size")
	}
	if c.IsSet("chunk-overlap") {
		spec.Overlap = c.Int("chunk-overlap")
	}
	if m := c.String("method"); m != "" {
		spec.TokenMethod = tokens.Method(m)
	}
	return spec, spec.Validate()
}

func tokensCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("tokens takes exactly one TEXT argument")
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	method := e.cfg.TokenMethod()
	if m := c.String("method"); m != "" {
		if method, err = tokens.ParseMethod(m); err != nil {
			return err
		}
	}
	text := c.Args().First()
	return printJSON(c, map[string]any{
		"estimated_tokens": e.est.Estimate(text, method),
		"method":           method,
	})
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
