// Package llm provides the language-model client used to classify application emails.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for yes/no gating questions
	TierLite ModelTier = "lite"
	// TierStandard is for structured extraction
	TierStandard ModelTier = "standard"
)

// Config holds the model configuration for the application
type Config struct {
	Models          map[ModelTier]string
	MaxOutputTokens map[ModelTier]int32 // 0 or missing means the model default
	EmbeddingModel  string
	Temperature     float32
}

// DefaultConfig returns the Gemini models used for gating and extraction.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
		},
		// The gate only needs "Yes" or "No"
		MaxOutputTokens: map[ModelTier]int32{
			TierLite: 16,
		},
		EmbeddingModel: "text-embedding-004",
		Temperature:    0,
	}
}

// GetModel returns the model name for a given tier, falling back to the standard
// tier and then the lite tier.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}
