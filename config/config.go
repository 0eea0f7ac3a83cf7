package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Database configuration. Empty means the in-memory store is used.
	DatabaseURL string

	// HTTP server configuration
	ListenAddr string

	// Wallet settings
	StartingBalance decimal.Decimal

	// Settlement settings
	RakeRate        decimal.Decimal // fraction of the pot kept by the house
	PlayerShareRate decimal.Decimal // fraction of backing winnings routed to the backed player

	// Oasis reward token settings
	DailyMintCap  decimal.Decimal
	WinMintAmount decimal.Decimal // tokens minted to a contest winner

	// Event forwarding. Empty disables the NATS forwarder.
	NATSURL string

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ListenAddr:  os.Getenv("LISTEN_ADDR"),
		NATSURL:     os.Getenv("NATS_URL"),
		Environment: os.Getenv("ENVIRONMENT"),

		// Defaults
		StartingBalance: decimal.NewFromInt(1000),
		RakeRate:        decimal.RequireFromString("0.05"),
		PlayerShareRate: decimal.RequireFromString("0.10"),
		DailyMintCap:    decimal.NewFromInt(10000),
		WinMintAmount:   decimal.NewFromInt(10),
	}

	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}
	if config.Environment == "" {
		config.Environment = "development"
	}

	// Override defaults if environment variables are set
	var err error
	if config.StartingBalance, err = decimalEnv("STARTING_BALANCE", config.StartingBalance); err != nil {
		return nil, err
	}
	if config.RakeRate, err = decimalEnv("RAKE_RATE", config.RakeRate); err != nil {
		return nil, err
	}
	if config.PlayerShareRate, err = decimalEnv("PLAYER_SHARE_RATE", config.PlayerShareRate); err != nil {
		return nil, err
	}
	if config.DailyMintCap, err = decimalEnv("DAILY_MINT_CAP", config.DailyMintCap); err != nil {
		return nil, err
	}
	if config.WinMintAmount, err = decimalEnv("WIN_MINT_AMOUNT", config.WinMintAmount); err != nil {
		return nil, err
	}

	if config.RakeRate.IsNegative() || config.RakeRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("RAKE_RATE must be between 0 and 1")
	}
	if config.Environment == "production" && config.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required in production")
	}

	return config, nil
}

func decimalEnv(name string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", name, err)
	}
	return value, nil
}
