package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the assistant-backend service.
type Config struct {
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Anthropic AnthropicConfig
	Chain     ChainConfig
	Storage   StorageConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host      string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port      string `envconfig:"SERVER_PORT" default:"8080"`
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	DSN string `envconfig:"DATABASE_DSN" required:"true"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	URI string `envconfig:"REDIS_URI" required:"true"`
}

// AnthropicConfig holds the language-model oracle configuration.
type AnthropicConfig struct {
	APIKey string `envconfig:"ANTHROPIC_API_KEY" required:"true"`
	Model  string `envconfig:"ANTHROPIC_MODEL" default:"claude-sonnet-4-20250514"`
}

// ChainConfig holds EVM provider configuration.
type ChainConfig struct {
	RPCURL       string `envconfig:"CHAIN_RPC_URL" required:"true"`
	ChainID      int64  `envconfig:"CHAIN_ID" default:"8453"`
	NativeSymbol string `envconfig:"CHAIN_NATIVE_SYMBOL" default:"ETH"`
	NativeCoinID string `envconfig:"CHAIN_NATIVE_COIN_ID" default:"ethereum"`
	ExplorerURL  string `envconfig:"CHAIN_EXPLORER_URL" default:"https://basescan.org"`
	TokenFactory string `envconfig:"CHAIN_TOKEN_FACTORY" required:"true"`
	NFTMinter    string `envconfig:"CHAIN_NFT_MINTER" required:"true"`
}

// StorageConfig holds the asset-upload gateway configuration.
type StorageConfig struct {
	GatewayURL string `envconfig:"STORAGE_GATEWAY_URL" required:"true"`
	APIToken   string `envconfig:"STORAGE_API_TOKEN" required:"true"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration for logical errors beyond required fields.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Chain.ChainID <= 0 {
		return fmt.Errorf("chain id must be positive, got %d", c.Chain.ChainID)
	}
	return nil
}
