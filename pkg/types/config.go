package types

import "time"

// OracleMode selects the judgment oracle implementation.
type OracleMode string

const (
	OracleClaude OracleMode = "claude"
	OracleMock   OracleMode = "mock"
)

// AIConfig holds shared settings for components that call the judgment oracle.
type AIConfig struct {
	// Mode selects the oracle backend: claude or mock.
	Mode OracleMode `json:"mode" yaml:"mode"`

	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed oracle calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout bounds the oracle work for a single document. On timeout the
	// document is skipped and the run continues (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// ParserConfig holds settings for the text-extraction stage.
type ParserConfig struct {
	// InputDir is the folder scanned for source documents.
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// MaxExcerptChars caps the extracted text passed to classification and
	// extraction. Content past the cap is invisible to analysis; the cap is
	// a deliberate cost/latency control (default 1000).
	MaxExcerptChars int `json:"max_excerpt_chars" yaml:"max_excerpt_chars"`
}

// ClassifierConfig holds settings for the taxonomy classifier.
type ClassifierConfig struct {
	// BiasTopN is how many historically frequent category paths are passed
	// to the classifier as soft guidance (default 5).
	BiasTopN int `json:"bias_top_n" yaml:"bias_top_n"`

	// FallbackUncategorized applies the "Uncategorized" path when
	// classification fails instead of skipping the document.
	FallbackUncategorized bool `json:"fallback_uncategorized" yaml:"fallback_uncategorized"`
}

// StoreConfig holds settings for the knowledge store.
type StoreConfig struct {
	// Path is the store file location (default "output_kb/knowledge_base.yaml").
	Path string `json:"path" yaml:"path"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	AI         AIConfig         `json:"ai" yaml:"ai"`
	Parser     ParserConfig     `json:"parser" yaml:"parser"`
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier"`
	Store      StoreConfig      `json:"store" yaml:"store"`
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *PipelineConfig) ApplyDefaults() {
	if c.AI.Mode == "" {
		c.AI.Mode = OracleClaude
	}
	if c.AI.Model == "" {
		c.AI.Model = "claude-sonnet-4-5-20250929"
	}
	if c.AI.MaxRetries <= 0 {
		c.AI.MaxRetries = 3
	}
	if c.AI.Timeout <= 0 {
		c.AI.Timeout = 60 * time.Second
	}
	if c.Parser.InputDir == "" {
		c.Parser.InputDir = "input_docs"
	}
	if c.Parser.MaxExcerptChars <= 0 {
		c.Parser.MaxExcerptChars = 1000
	}
	if c.Classifier.BiasTopN <= 0 {
		c.Classifier.BiasTopN = 5
	}
	if c.Store.Path == "" {
		c.Store.Path = "output_kb/knowledge_base.yaml"
	}
}
