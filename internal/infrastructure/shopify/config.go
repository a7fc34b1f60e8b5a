package shopify

import (
	"errors"
	"fmt"
	"strconv"
)

// Config holds configuration for the Shopify Admin API integration
type Config struct {
	// Domain is the shop's myshopify.com domain
	Domain string
	// APIVersion is the Admin API version, e.g. "2024-01"
	APIVersion string
	// AccessToken is the private app access token
	AccessToken string
	// APIBaseURL overrides the derived base URL, used for testing
	APIBaseURL string
	// IgnoredLocationIDs lists locations excluded from level sync
	IgnoredLocationIDs []string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// DefaultAPIVersion is used when no version is configured
const DefaultAPIVersion = "2024-01"

// Errors for Shopify configuration
var (
	ErrConfigMissingDomain      = errors.New("shopify: shop domain is required")
	ErrConfigMissingAccessToken = errors.New("shopify: access token is required")
)

// NewConfig creates a new Shopify configuration with defaults
func NewConfig(domain, accessToken string) *Config {
	return &Config{
		Domain:         domain,
		APIVersion:     DefaultAPIVersion,
		AccessToken:    accessToken,
		TimeoutSeconds: 30,
	}
}

// Validate validates the Shopify configuration
func (c *Config) Validate() error {
	if c.Domain == "" {
		return ErrConfigMissingDomain
	}
	if c.AccessToken == "" {
		return ErrConfigMissingAccessToken
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// BaseURL returns the versioned Admin API base URL
func (c *Config) BaseURL() string {
	if c.APIBaseURL != "" {
		return c.APIBaseURL
	}
	return fmt.Sprintf("https://%s/admin/api/%s", c.Domain, c.APIVersion)
}

// IsIgnoredLocation reports whether a location is excluded from level sync
func (c *Config) IsIgnoredLocation(locationID int64) bool {
	id := strconv.FormatInt(locationID, 10)
	for _, ignored := range c.IgnoredLocationIDs {
		if ignored == id {
			return true
		}
	}
	return false
}
