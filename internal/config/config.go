package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"review-rag/internal/models"
)

type SourceConfig struct {
	Path string `yaml:"path"`
}

type StoreConfig struct {
	Backend       string `yaml:"backend"`
	Path          string `yaml:"path"`
	Collection    string `yaml:"collection"`
	Reindex       string `yaml:"reindex"`
	EncryptionKey string `yaml:"encryption_key"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

type RAGConfig struct {
	TopK            int `yaml:"top_k"`
	MaxContextChars int `yaml:"max_context_chars"`
}

type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	InferLLM LLMConfig      `yaml:"infer_llm"`
	RAG      RAGConfig      `yaml:"rag"`
}

// LoadConfig reads the yaml config file. A .env file, if present, is loaded
// first so secrets can stay out of the yaml; matching environment variables
// override file values.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("EMBED_LLM_KEY"); v != "" {
		cfg.EmbedLLM.Key = v
	}
	if v := os.Getenv("INFER_LLM_KEY"); v != "" {
		cfg.InferLLM.Key = v
	}
	if v := os.Getenv("STORE_ENCRYPTION_KEY"); v != "" {
		cfg.Store.EncryptionKey = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "chromem"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "./chromem-reviews"
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = "restaurant_reviews"
	}
	if cfg.Store.Reindex == "" {
		cfg.Store.Reindex = "skip-if-exists"
	}
	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = "ollama"
	}
	if cfg.EmbedLLM.BaseURL == "" {
		cfg.EmbedLLM.BaseURL = "http://localhost:11434"
	}
	if cfg.EmbedLLM.Model == "" {
		cfg.EmbedLLM.Model = "mxbai-embed-large"
	}
	if cfg.InferLLM.Provider == "" {
		cfg.InferLLM.Provider = "ollama"
	}
	if cfg.InferLLM.BaseURL == "" {
		cfg.InferLLM.BaseURL = "http://localhost:11434"
	}
	if cfg.InferLLM.Model == "" {
		cfg.InferLLM.Model = "llama3.2"
	}
	if cfg.RAG.TopK <= 0 {
		cfg.RAG.TopK = models.DefaultTopK
	}
	if cfg.RAG.MaxContextChars <= 0 {
		cfg.RAG.MaxContextChars = models.ContextMaxRunes
	}
}
