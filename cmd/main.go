package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"review-rag/internal/chromemdb"
	"review-rag/internal/config"
	"review-rag/internal/db"
	"review-rag/internal/embedding"
	"review-rag/internal/helper"
	"review-rag/internal/indexer"
	"review-rag/internal/llmservice"
	"review-rag/internal/parser"
	"review-rag/internal/rag"
	"review-rag/internal/ragerror"
)

// vectorStore is the full store surface the CLI wires together; both
// backends satisfy it.
type vectorStore interface {
	indexer.Store
	rag.Searcher
	Count(ctx context.Context) (int, error)
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", "./configs/config.yaml", "Path to the config file")
	filePath := flag.String("file", "", "Path to the tabular review source to index")
	query := flag.String("query", "", "One-shot question to answer")
	dryRun := flag.Bool("dry-run", false, "Parse the source and print records without indexing")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	ctx := context.Background()

	source := *filePath
	if source == "" && cfg.Source.Path != "" && *query == "" {
		// Default run: index the configured source (a no-op once the store
		// exists), then take questions interactively.
		source = cfg.Source.Path
	}

	if source != "" && *dryRun {
		records, err := parser.Load(source)
		if err != nil {
			reportError(err)
			os.Exit(1)
		}
		helper.PrettyPrint(records)
		return
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	store, cleanup, err := openStore(ctx, cfg, embedder)
	if err != nil {
		reportError(err)
		os.Exit(1)
	}
	defer cleanup()

	if source != "" {
		if err := ingest(ctx, cfg, store, source); err != nil {
			reportError(err)
			os.Exit(1)
		}
		if *filePath != "" && *query == "" {
			// Explicit -file without a question is an index-only run.
			return
		}
	}

	generator, err := llmservice.New(&cfg.InferLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing generation client")
	}

	retriever := rag.NewRetriever(store, cfg.RAG.TopK)
	pipeline := rag.NewPipeline(retriever, generator, cfg.RAG.MaxContextChars)

	if *query != "" {
		if !askOne(ctx, pipeline, *query) {
			os.Exit(1)
		}
		return
	}

	runLoop(ctx, pipeline)
}

func openStore(ctx context.Context, cfg *config.Config, embedder *embeddings.EmbedderImpl) (vectorStore, func(), error) {
	switch cfg.Store.Backend {
	case "postgres":
		sqldb, err := db.Connect(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		store := db.New(sqldb, cfg.Database.Debug, embedder)
		if err := store.Init(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case "memory":
		store, err := chromemdb.New(cfg.Store.Path, cfg.Store.Collection, true, cfg.Store.EncryptionKey, embedding.Func(embedder))
		if err != nil {
			return nil, nil, err
		}
		// The in-memory variant is durable through its encrypted export;
		// load the previous one back before taking questions.
		if store.Exists() {
			if err := store.Import(ctx); err != nil {
				return nil, nil, err
			}
		}
		return store, func() {}, nil
	default:
		store, err := chromemdb.New(cfg.Store.Path, cfg.Store.Collection, false, cfg.Store.EncryptionKey, embedding.Func(embedder))
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func ingest(ctx context.Context, cfg *config.Config, store vectorStore, source string) error {
	records, err := parser.Load(source)
	if err != nil {
		return err
	}
	policy, err := indexer.ParsePolicy(cfg.Store.Reindex)
	if err != nil {
		return err
	}
	return indexer.New(store, policy).Index(ctx, records)
}

func askOne(ctx context.Context, pipeline *rag.Pipeline, question string) bool {
	answer, err := pipeline.Answer(ctx, question)
	if err != nil {
		reportError(err)
		return false
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", answer.Query)

	log.Info().Msg("Source: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", answer.Source)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", answer.Content)
	return true
}

func runLoop(ctx context.Context, pipeline *rag.Pipeline) {
	fmt.Println("\nAsk questions about the restaurant reviews.")
	fmt.Println("Exit with: q | quit | exit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Println("\n" + strings.Repeat("#", 55))
		fmt.Print("Ask your question (q to quit): ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		fmt.Println()

		if isExitCommand(question) {
			fmt.Println("Goodbye!")
			break
		}
		if question == "" {
			fmt.Println("Please enter a question (or 'q' to quit).")
			continue
		}

		// One bad question must not kill the session.
		answer, err := pipeline.Answer(ctx, question)
		if err != nil {
			reportError(err)
			continue
		}
		fmt.Println("Answer:")
		fmt.Println(answer.Content)
	}
}

func isExitCommand(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "q", "quit", "exit":
		return true
	}
	return false
}

// reportError prints a short diagnostic plus actionable hints picked by
// error kind, keeping hint text out of the errors themselves.
func reportError(err error) {
	log.Error().Err(err).Msg("Operation failed")
	fmt.Println("Something went wrong.")
	for _, hint := range hintsFor(err) {
		fmt.Println("  - " + hint)
	}
}

func hintsFor(err error) []string {
	switch ragerror.KindOf(err) {
	case ragerror.KindSourceNotFound:
		return []string{
			"check that the review source file exists at the configured path",
			"pass -file to point at a different source",
		}
	case ragerror.KindSchema:
		hints := []string{"column names are case-sensitive and must match exactly: Title, Review, Rating, Date"}
		if fields := ragerror.FieldsOf(err); fields != nil {
			if missing, ok := fields["missing"]; ok {
				hints = append(hints, fmt.Sprintf("missing columns: %v", missing))
			}
		}
		return hints
	case ragerror.KindStoreUnavailable:
		return []string{
			"is the vector store path readable (or the database reachable)?",
			"was the index built? Run with -file to index the reviews first",
		}
	case ragerror.KindGeneration, ragerror.KindPipeline:
		return []string{
			"is the generation backend (e.g. Ollama) running and the model pulled?",
			"was the index built? Run with -file to index the reviews first",
		}
	default:
		return nil
	}
}
