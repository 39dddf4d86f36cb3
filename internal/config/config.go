package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vector index providers.
const (
	ProviderMilvus  = "milvus"
	ProviderChromem = "chromem"
)

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	UploadDir   string `yaml:"upload_dir"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
}

type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`
	BatchSize    int `yaml:"batch_size"`
}

type VectorConfig struct {
	Provider        string `yaml:"provider"`
	Dimension       int    `yaml:"dimension"`
	Metric          string `yaml:"metric"`
	ReadyTimeoutSec int    `yaml:"ready_timeout_sec"`
	ChromemPath     string `yaml:"chromem_path"`

	// Secrets, environment only.
	Address    string `yaml:"-"`
	APIKey     string `yaml:"-"`
	Collection string `yaml:"-"`
}

// LLMConfig configures one OpenAI-compatible endpoint, used both for the
// embedding service and for the completion service.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Key     string `yaml:"-"`
}

type Config struct {
	Server    ServerConfig `yaml:"server"`
	RAG       RAGConfig    `yaml:"rag"`
	Vector    VectorConfig `yaml:"vector"`
	Embedding LLMConfig    `yaml:"embedding"`
	LLM       LLMConfig    `yaml:"llm"`
}

// Load reads the yaml config (a missing file means defaults only), overlays
// secrets from the environment and validates required keys so that a
// misconfigured process dies at startup instead of at first use.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = "uploaded_docs"
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = 10
	}
	if c.RAG.ChunkSize <= 0 {
		c.RAG.ChunkSize = 500
	}
	if c.RAG.ChunkOverlap <= 0 {
		c.RAG.ChunkOverlap = 50
	}
	if c.RAG.TopK <= 0 {
		c.RAG.TopK = 3
	}
	if c.RAG.BatchSize <= 0 {
		c.RAG.BatchSize = 32
	}
	if c.Vector.Provider == "" {
		c.Vector.Provider = ProviderMilvus
	}
	if c.Vector.Dimension <= 0 {
		c.Vector.Dimension = 768
	}
	if c.Vector.Metric == "" {
		c.Vector.Metric = "COSINE"
	}
	if c.Vector.ReadyTimeoutSec <= 0 {
		c.Vector.ReadyTimeoutSec = 60
	}
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = "http://localhost:11434/v1"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "nomic-embed-text"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama-3.1-8b-instant"
	}
}

func (c *Config) loadEnv() error {
	c.Vector.Address = os.Getenv("MILVUS_ADDRESS")
	c.Vector.APIKey = os.Getenv("MILVUS_API_KEY")
	c.Vector.Collection = os.Getenv("MILVUS_COLLECTION")
	c.LLM.Key = os.Getenv("GROQ_API_KEY")
	c.Embedding.Key = os.Getenv("EMBEDDINGS_API_KEY")

	if v := os.Getenv("EMBEDDING_DIM"); v != "" {
		dim, err := strconv.Atoi(v)
		if err != nil || dim <= 0 {
			return fmt.Errorf("invalid EMBEDDING_DIM %q", v)
		}
		c.Vector.Dimension = dim
	}

	if c.Vector.Provider == ProviderChromem && c.Vector.Collection == "" {
		c.Vector.Collection = "medical-index"
	}
	return nil
}

func (c *Config) validate() error {
	if c.Vector.Provider != ProviderMilvus && c.Vector.Provider != ProviderChromem {
		return fmt.Errorf("unknown vector provider %q", c.Vector.Provider)
	}

	var missing []string
	if c.LLM.Key == "" {
		missing = append(missing, "GROQ_API_KEY")
	}
	if c.Embedding.Key == "" {
		missing = append(missing, "EMBEDDINGS_API_KEY")
	}
	if c.Vector.Provider == ProviderMilvus {
		if c.Vector.Address == "" {
			missing = append(missing, "MILVUS_ADDRESS")
		}
		if c.Vector.APIKey == "" {
			missing = append(missing, "MILVUS_API_KEY")
		}
		if c.Vector.Collection == "" {
			missing = append(missing, "MILVUS_COLLECTION")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
