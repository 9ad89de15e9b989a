package rag

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"review-rag/internal/models"
	"review-rag/internal/ragerror"
)

// Searcher is the read side of the vector store.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]models.Document, error)
}

// Generator turns a finished prompt into a text completion.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Retriever answers similarity queries with a top-k fixed at construction.
type Retriever struct {
	store Searcher
	topK  int
}

func NewRetriever(store Searcher, topK int) *Retriever {
	if topK <= 0 {
		topK = models.DefaultTopK
	}
	return &Retriever{store: store, topK: topK}
}

// Retrieve returns up to k documents nearest to the query, nearest first.
// "No results" is an empty slice, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]models.Document, error) {
	return r.store.Search(ctx, query, r.topK)
}

// FormatContext renders retrieved reviews into the context block for the
// prompt. Pure and deterministic: same documents in, same block out.
func FormatContext(docs []models.Document, maxChars int) string {
	if len(docs) == 0 {
		return models.NoMatchSentinel
	}
	if maxChars <= 0 {
		maxChars = models.ContextMaxRunes
	}

	lines := make([]string, 0, len(docs))
	for i, d := range docs {
		lines = append(lines, fmt.Sprintf("- Review #%d: %s", i+1, snippet(d.Content)))
	}
	joined := strings.Join(lines, "\n")

	// Hard character cutoff, not word- or line-boundary aware.
	if utf8.RuneCountInString(joined) > maxChars {
		joined = string([]rune(joined)[:maxChars]) + models.TruncationMarker
	}
	return joined
}

// snippet collapses internal newlines and caps the excerpt at 400 runes,
// marking the cut with an ellipsis.
func snippet(content string) string {
	s := strings.ReplaceAll(strings.TrimSpace(content), "\n", " ")
	if utf8.RuneCountInString(s) > models.SnippetMaxRunes {
		s = string([]rune(s)[:models.SnippetMaxRunes]) + models.SnippetEllipsis
	}
	return s
}

// Pipeline runs one question through retrieve, format, and generate.
type Pipeline struct {
	retriever       *Retriever
	generator       Generator
	maxContextChars int
}

func NewPipeline(retriever *Retriever, generator Generator, maxContextChars int) *Pipeline {
	if maxContextChars <= 0 {
		maxContextChars = models.ContextMaxRunes
	}
	return &Pipeline{retriever: retriever, generator: generator, maxContextChars: maxContextChars}
}

// Answer retrieves evidence for the question, builds the prompt, and returns
// the model's raw output. Any failure surfaces as a single pipeline error
// wrapping the cause; the caller decides whether it is fatal.
func (p *Pipeline) Answer(ctx context.Context, question string) (*models.Answer, error) {
	docs, err := p.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, ragerror.New(ragerror.KindPipeline, "rag.Answer", err).
			With("stage", "retrieve")
	}

	contextBlock := FormatContext(docs, p.maxContextChars)
	prompt := fmt.Sprintf(models.PromptTemplate, contextBlock, question)

	text, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, ragerror.New(ragerror.KindPipeline, "rag.Answer", err).
			With("stage", "generate")
	}

	return &models.Answer{
		Query:   question,
		Source:  contextBlock,
		Content: text,
	}, nil
}
