package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pdf-rag/internal/models"
)

const (
	ProviderGoogleAI = "googleai"
	ProviderOpenAI   = "openai"
	ProviderOllama   = "ollama"

	BackendChromem  = "chromem"
	BackendPostgres = "postgres"

	SplitterWindow    = "window"
	SplitterRecursive = "recursive"
)

type Config struct {
	EmbedLLM     LLMConfig      `yaml:"embed_llm"`
	InferenceLLM LLMConfig      `yaml:"inference_llm"`
	RAG          RAGConfig      `yaml:"rag"`
	Index        IndexConfig    `yaml:"index"`
	Database     DatabaseConfig `yaml:"database"`
	Server       ServerConfig   `yaml:"server"`
	Log          LogConfig      `yaml:"log"`
}

// LLMConfig configures one remote model. Key wins over KeyEnv.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Key         string  `yaml:"key"`
	KeyEnv      string  `yaml:"key_env"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

type RAGConfig struct {
	ChunkSize      int           `yaml:"chunk_size"`
	ChunkOverlap   int           `yaml:"chunk_overlap"`
	Splitter       string        `yaml:"splitter"`
	TopK           int           `yaml:"top_k"`
	EmbedBatchSize int           `yaml:"embed_batch_size"`
	ValidatePDF    bool          `yaml:"validate_pdf"`
	CountTokens    bool          `yaml:"count_tokens"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	EncryptionKey  string        `yaml:"encryption_key"`
}

type IndexConfig struct {
	Backend  string `yaml:"backend"`
	Path     string `yaml:"path"`
	Compress bool   `yaml:"compress"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	BodyLimitMB int    `yaml:"body_limit_mb"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// unsetOverlap marks rag.chunk_overlap as absent from the config file.
const unsetOverlap = -1

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		EmbedLLM: LLMConfig{
			Provider: ProviderGoogleAI,
			Model:    "embedding-001",
		},
		InferenceLLM: LLMConfig{
			Provider:    ProviderGoogleAI,
			Model:       "gemini-pro",
			Temperature: models.DefaultTemperature,
		},
		RAG: RAGConfig{
			ChunkSize:      models.DefaultChunkSize,
			ChunkOverlap:   models.DefaultChunkOverlap,
			Splitter:       SplitterWindow,
			TopK:           models.DefaultTopK,
			EmbedBatchSize: 32,
			ValidatePDF:    true,
		},
		Index: IndexConfig{
			Backend: BackendChromem,
			Path:    "./vector_index",
		},
		Server: ServerConfig{
			Addr:        ":8080",
			BodyLimitMB: 64,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads the YAML file at path on top of the defaults. A missing file
// is not an error. A .env file in the working directory is loaded first.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	cfg.RAG.ChunkOverlap = unsetOverlap
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.EmbedLLM.Model = getEnv("PDFRAG_EMBEDDING_MODEL", cfg.EmbedLLM.Model)
	cfg.InferenceLLM.Model = getEnv("PDFRAG_GENERATION_MODEL", cfg.InferenceLLM.Model)
	cfg.Index.Path = getEnv("PDFRAG_INDEX_PATH", cfg.Index.Path)
	cfg.Server.Addr = getEnv("PDFRAG_SERVER_ADDR", cfg.Server.Addr)
	cfg.Log.Level = getEnv("PDFRAG_LOG_LEVEL", cfg.Log.Level)
	cfg.RAG.TopK = getEnvInt("PDFRAG_TOP_K", cfg.RAG.TopK)
	if v := os.Getenv("PDFRAG_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.InferenceLLM.Temperature = f
		}
	}
}

func applyDefaults(cfg *Config) {
	def := Default()
	for _, pair := range []struct{ llm, def *LLMConfig }{
		{&cfg.EmbedLLM, &def.EmbedLLM},
		{&cfg.InferenceLLM, &def.InferenceLLM},
	} {
		if pair.llm.Provider == "" {
			pair.llm.Provider = pair.def.Provider
		}
		if pair.llm.KeyEnv == "" {
			pair.llm.KeyEnv = defaultKeyEnv(pair.llm.Provider)
		}
	}
	if cfg.EmbedLLM.Model == "" {
		cfg.EmbedLLM.Model = def.EmbedLLM.Model
	}
	if cfg.InferenceLLM.Model == "" {
		cfg.InferenceLLM.Model = def.InferenceLLM.Model
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = def.RAG.ChunkSize
	}
	if cfg.RAG.ChunkOverlap == unsetOverlap {
		// the default overlap must stay below a smaller configured chunk size
		cfg.RAG.ChunkOverlap = def.RAG.ChunkOverlap
		if cfg.RAG.ChunkOverlap >= cfg.RAG.ChunkSize {
			cfg.RAG.ChunkOverlap = max(cfg.RAG.ChunkSize/10, 0)
		}
	}
	if cfg.RAG.Splitter == "" {
		cfg.RAG.Splitter = def.RAG.Splitter
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = def.RAG.TopK
	}
	if cfg.RAG.EmbedBatchSize == 0 {
		cfg.RAG.EmbedBatchSize = def.RAG.EmbedBatchSize
	}
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = def.Index.Backend
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = def.Index.Path
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Server.BodyLimitMB == 0 {
		cfg.Server.BodyLimitMB = def.Server.BodyLimitMB
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
}

func defaultKeyEnv(provider string) string {
	switch provider {
	case ProviderGoogleAI:
		return "GOOGLE_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// APIKey returns the credential for the model, looking at Key then KeyEnv.
func (c LLMConfig) APIKey() string {
	if c.Key != "" {
		return c.Key
	}
	if c.KeyEnv != "" {
		return os.Getenv(c.KeyEnv)
	}
	return ""
}

// Validate checks the pipeline settings. Missing credentials are reported
// here rather than at the first service call.
func (c *Config) Validate() error {
	for _, l := range []struct {
		field string
		cfg   LLMConfig
	}{
		{"embed_llm", c.EmbedLLM},
		{"inference_llm", c.InferenceLLM},
	} {
		switch l.cfg.Provider {
		case ProviderGoogleAI, ProviderOpenAI:
			if l.cfg.APIKey() == "" {
				return &models.ConfigError{Field: l.field + ".key", Reason: fmt.Sprintf("is required (set it in the config or in $%s)", l.cfg.KeyEnv)}
			}
		case ProviderOllama:
		default:
			return &models.ConfigError{Field: l.field + ".provider", Reason: fmt.Sprintf("unknown provider %q", l.cfg.Provider)}
		}
		if l.cfg.Model == "" {
			return &models.ConfigError{Field: l.field + ".model", Reason: "is required"}
		}
	}

	if t := c.InferenceLLM.Temperature; t < 0 || t > 2 {
		return &models.ConfigError{Field: "inference_llm.temperature", Reason: fmt.Sprintf("must be between 0 and 2, got %v", t)}
	}
	if c.RAG.ChunkSize <= 0 {
		return &models.ConfigError{Field: "rag.chunk_size", Reason: "must be positive"}
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return &models.ConfigError{Field: "rag.chunk_overlap", Reason: fmt.Sprintf("must be in [0, %d), got %d", c.RAG.ChunkSize, c.RAG.ChunkOverlap)}
	}
	if c.RAG.Splitter != SplitterWindow && c.RAG.Splitter != SplitterRecursive {
		return &models.ConfigError{Field: "rag.splitter", Reason: fmt.Sprintf("unknown splitter %q", c.RAG.Splitter)}
	}
	if c.RAG.TopK <= 0 {
		return &models.ConfigError{Field: "rag.top_k", Reason: "must be positive"}
	}
	if k := c.RAG.EncryptionKey; k != "" && len(k) != 32 {
		return &models.ConfigError{Field: "rag.encryption_key", Reason: "must be 32 bytes long"}
	}

	switch c.Index.Backend {
	case BackendChromem:
		if c.Index.Path == "" {
			return &models.ConfigError{Field: "index.path", Reason: "is required"}
		}
	case BackendPostgres:
		if c.Database.DSN == "" {
			return &models.ConfigError{Field: "database.dsn", Reason: "is required for the postgres backend"}
		}
	default:
		return &models.ConfigError{Field: "index.backend", Reason: fmt.Sprintf("unknown backend %q", c.Index.Backend)}
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
