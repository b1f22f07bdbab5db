package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/gwbischof/ghstyle/internal/checkpoint"
	"github.com/gwbischof/ghstyle/internal/commentstore"
	"github.com/gwbischof/ghstyle/internal/config"
	"github.com/gwbischof/ghstyle/internal/costcontrol"
	"github.com/gwbischof/ghstyle/internal/generator"
	"github.com/gwbischof/ghstyle/internal/progress"
	"github.com/gwbischof/ghstyle/internal/provider"
	"github.com/gwbischof/ghstyle/internal/web"
	"github.com/joho/godotenv"
)

var (
	loadDotEnv         = godotenv.Load
	loadConfig         = config.Load
	newProvider        = provider.NewProvider
	defaultListenServe = http.ListenAndServe
)

func main() {
	if err := run(context.Background(), os.Args[1:], defaultListenServe); err != nil {
		log.Fatalf("Generation failed: %v", err)
	}
}

func run(ctx context.Context, args []string, serve func(string, http.Handler) error) error {
	fs := flag.NewFlagSet("ghstyle-generate", flag.ContinueOnError)
	comments := fs.String("comments", "", "comment store file (default {username}_comments.json)")
	output := fs.String("output", "", "style document file (default {username}_style_document.md)")
	checkpointPath := fs.String("checkpoint", "progress.json", "checkpoint file")
	batchSize := fs.Int("batch-size", 0, "comments per batch (default from BATCH_SIZE env, then 50)")
	maxLines := fs.Int("max-lines", 0, "document size before compaction (default from MAX_STYLE_LINES env, then 5000)")
	clean := fs.Bool("clean", false, "delete the checkpoint and start over")
	statusAddr := fs.String("status-addr", "", "serve a progress web UI on this address (e.g. :8080)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: ghstyle-generate [flags] <username>")
	}
	username := fs.Arg(0)

	// Load .env file (ignore error if file doesn't exist)
	_ = loadDotEnv()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	commentsPath := *comments
	if commentsPath == "" {
		commentsPath = fmt.Sprintf("%s_comments.json", username)
	}
	outputPath := *output
	if outputPath == "" {
		outputPath = fmt.Sprintf("%s_style_document.md", username)
	}

	checkpoints := checkpoint.NewStore(*checkpointPath)
	if *clean {
		if err := checkpoints.Clear(); err != nil {
			return fmt.Errorf("failed to clear checkpoint: %w", err)
		}
		log.Printf("[Generate] Cleared checkpoint %s", checkpoints.Path())
	}

	records, err := commentstore.Load(commentsPath)
	if err != nil {
		return fmt.Errorf("failed to load comment store: %w", err)
	}
	if len(records) == 0 {
		log.Printf("[Generate] Comment store %s is empty, nothing to do", commentsPath)
		return nil
	}
	log.Printf("[Generate] Loaded %d comments from %s", len(records), commentsPath)

	summarizer, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	log.Printf("[Generate] AI Provider: %s", summarizer.Name())

	tracker := costcontrol.NewTracker(cfg.MaxLLMCalls, cfg.MaxSpendUSD)

	runs := progress.NewStore()
	runID := fmt.Sprintf("%s-%d", username, time.Now().Unix())

	genCfg := generator.Config{
		Username:       username,
		OutputPath:     outputPath,
		BatchSize:      *batchSize,
		MaxLines:       *maxLines,
		RunID:          runID,
		AnalyzeTimeout: cfg.AnalyzeTimeout,
		MergeTimeout:   cfg.MergeTimeout,
		CompactTimeout: cfg.CompactTimeout,
	}
	if genCfg.BatchSize == 0 {
		genCfg.BatchSize = cfg.BatchSize
	}
	if genCfg.MaxLines == 0 {
		genCfg.MaxLines = cfg.MaxLines
	}

	runs.Create(&progress.Run{
		ID:            runID,
		Username:      username,
		Status:        progress.StatusPending,
		TotalComments: len(records),
		BatchSize:     genCfg.BatchSize,
	})

	if *statusAddr != "" {
		if err := startStatusServer(*statusAddr, runs, serve); err != nil {
			return err
		}
	}

	gen := generator.New(records, checkpoints, summarizer, tracker, runs, genCfg)
	if err := gen.Run(ctx); err != nil {
		return err
	}

	calls, spend := tracker.Totals()
	log.Printf("[Generate] Done: %d LLM calls, $%.4f total cost", calls, spend)
	log.Printf("[Generate] Style document written to %s", outputPath)

	return nil
}

func buildProvider(cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider {
	case "claude":
		if cfg.ClaudeModel != "" {
			log.Printf("[Generate] Claude model: %s", cfg.ClaudeModel)
		}
		return newProvider(&provider.Config{
			Name:         "claude",
			ClaudeAPIKey: cfg.ClaudeAPIKey,
			ClaudeModel:  cfg.ClaudeModel,
		})
	case "codex":
		log.Printf("[Generate] Codex model: %s", cfg.CodexModel)
		if cfg.OpenAIBaseURL != "" {
			log.Printf("[Generate] Using custom OpenAI Base URL: %s", cfg.OpenAIBaseURL)
		}
		return newProvider(&provider.Config{
			Name:          "codex",
			OpenAIAPIKey:  cfg.OpenAIAPIKey,
			OpenAIBaseURL: cfg.OpenAIBaseURL,
			CodexModel:    cfg.CodexModel,
		})
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// startStatusServer serves the progress UI in the background. Serve
// errors only get logged; a broken UI should not kill the run.
func startStatusServer(addr string, runs *progress.Store, serve func(string, http.Handler) error) error {
	webHandler, err := web.NewHandler(runs)
	if err != nil {
		return fmt.Errorf("failed to initialize web handler: %w", err)
	}

	r := mux.NewRouter()
	webHandler.RegisterRoutes(r)
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	log.Printf("[Generate] Status UI listening on %s", addr)
	go func() {
		if err := serve(addr, r); err != nil {
			log.Printf("[Generate] Status UI server stopped: %v", err)
		}
	}()
	return nil
}
