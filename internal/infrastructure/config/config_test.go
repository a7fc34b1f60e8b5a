package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "shopsync-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "2024-01", cfg.Shopify.APIVersion)
	assert.Equal(t, 30, cfg.Shopify.TimeoutSeconds)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, "https://upload.openai.com/v1", cfg.OpenAI.UploadBaseURL)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 3, cfg.OpenAI.UploadAttempts)
	assert.Equal(t, "exports", cfg.Export.Dir)
	assert.Equal(t, time.Hour, cfg.Scheduler.SyncInterval)
	assert.Equal(t, 2, cfg.Scheduler.RecentWindowDays)
}

func TestValidate_ConnectionPool(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Database.MaxIdleConns = 50
	cfg.Database.MaxOpenConns = 10

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_idle_conns")
}

func TestValidate_ProductionRequirements(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing shopify domain",
			mutate:  func(c *Config) {},
			wantErr: "shopify.domain",
		},
		{
			name: "missing shopify token",
			mutate: func(c *Config) {
				c.Shopify.Domain = "shop.myshopify.com"
			},
			wantErr: "shopify.access_token",
		},
		{
			name: "missing openai key",
			mutate: func(c *Config) {
				c.Shopify.Domain = "shop.myshopify.com"
				c.Shopify.AccessToken = "shpat_x"
			},
			wantErr: "openai.api_key",
		},
		{
			name: "missing db password",
			mutate: func(c *Config) {
				c.Shopify.Domain = "shop.myshopify.com"
				c.Shopify.AccessToken = "shpat_x"
				c.OpenAI.APIKey = "sk-x"
			},
			wantErr: "database.password",
		},
		{
			name: "sslmode disable rejected",
			mutate: func(c *Config) {
				c.Shopify.Domain = "shop.myshopify.com"
				c.Shopify.AccessToken = "shpat_x"
				c.OpenAI.APIKey = "sk-x"
				c.Database.Password = "secret"
			},
			wantErr: "sslmode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			applyDefaults(cfg)
			cfg.App.Env = "production"
			tt.mutate(cfg)

			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := &DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "sync",
		Password: "p@ss/word",
		DBName:   "shopsync",
		SSLMode:  "require",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5433")
	assert.Contains(t, dsn, "sslmode=require")
	// Password must be escaped, not embedded raw
	assert.NotContains(t, dsn, "p@ss/word")
}
