package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"review-rag/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Full(t *testing.T) {
	path := writeConfig(t, `
source:
  path: ./reviews.csv
store:
  backend: postgres
  reindex: rebuild
database:
  url: postgres://localhost:5432/reviews
embed_llm:
  provider: ollama
  base_url: http://localhost:11434
  model: mxbai-embed-large
infer_llm:
  model: llama3.2
rag:
  top_k: 3
  max_context_chars: 900
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "./reviews.csv", cfg.Source.Path)
	require.Equal(t, "postgres", cfg.Store.Backend)
	require.Equal(t, "rebuild", cfg.Store.Reindex)
	require.Equal(t, "mxbai-embed-large", cfg.EmbedLLM.Model)
	require.Equal(t, "llama3.2", cfg.InferLLM.Model)
	require.Equal(t, 3, cfg.RAG.TopK)
	require.Equal(t, 900, cfg.RAG.MaxContextChars)
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "source:\n  path: ./reviews.csv\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "chromem", cfg.Store.Backend)
	require.Equal(t, "restaurant_reviews", cfg.Store.Collection)
	require.Equal(t, "skip-if-exists", cfg.Store.Reindex)
	require.Equal(t, "ollama", cfg.EmbedLLM.Provider)
	require.Equal(t, models.DefaultTopK, cfg.RAG.TopK)
	require.Equal(t, models.ContextMaxRunes, cfg.RAG.MaxContextChars)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_PASSWORD", "s3cret")
	t.Setenv("INFER_LLM_KEY", "Bearer abc")

	path := writeConfig(t, `
database:
  url: postgres://localhost:5432/reviews
  password: from-file
infer_llm:
  key: file-key
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "s3cret", cfg.Database.Password)
	require.Equal(t, "Bearer abc", cfg.InferLLM.Key)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
