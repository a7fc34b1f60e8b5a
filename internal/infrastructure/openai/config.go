package openai

import "errors"

// Config holds configuration for the OpenAI Assistants API integration
type Config struct {
	// APIKey is the bearer token for API authorization
	APIKey string
	// BaseURL is the REST API base URL
	BaseURL string
	// UploadBaseURL is the base URL for the upload-session endpoints
	UploadBaseURL string
	// Model is the model assigned to newly created assistants
	Model string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
	// UploadAttempts is the total attempt budget per file upload
	UploadAttempts int
}

const (
	// DefaultBaseURL is the production API endpoint
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultUploadBaseURL is the production upload endpoint
	DefaultUploadBaseURL = "https://upload.openai.com/v1"
	// DefaultModel is the assistant model used when none is configured
	DefaultModel = "gpt-4o"
)

// ErrConfigMissingAPIKey indicates no API key was configured
var ErrConfigMissingAPIKey = errors.New("openai: api key is required")

// NewConfig creates a new OpenAI configuration with defaults
func NewConfig(apiKey string) *Config {
	return &Config{
		APIKey:         apiKey,
		BaseURL:        DefaultBaseURL,
		UploadBaseURL:  DefaultUploadBaseURL,
		Model:          DefaultModel,
		TimeoutSeconds: 120,
		UploadAttempts: 3,
	}
}

// Validate validates the OpenAI configuration
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrConfigMissingAPIKey
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.UploadBaseURL == "" {
		c.UploadBaseURL = DefaultUploadBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 120
	}
	if c.UploadAttempts <= 0 {
		c.UploadAttempts = 3
	}
	return nil
}
