package config

import "github.com/caarlos0/env/v6"

type Config struct {
	// Server configuration
	Server struct {
		Port string `env:"PORT" envDefault:"8080"`

		// Comma-separated list of allowed CORS origins
		AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	}

	// Database configuration
	Database struct {
		Path string `env:"DB_PATH" envDefault:"flipcast.db"`
	}

	// External provider credentials
	Providers struct {
		// RentCast property data API key
		RentCastAPIKey string `env:"RENTCAST_API_KEY"`

		// API Ninjas key for interest rate and amortization lookups
		RatesAPIKey string `env:"RATES_API_KEY"`
	}

	// Retention configuration for the background cache sweeper
	Retention struct {
		// Superseded cache rows older than this many days are deleted
		Days int `env:"RETENTION_DAYS" envDefault:"30"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
