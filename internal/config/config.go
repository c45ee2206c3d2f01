// Package config loads service settings from the environment (and .env in dev).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ETAnderson/catalogfeed/internal/feed"
	"github.com/ETAnderson/catalogfeed/internal/tax"
	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Env string `env:"ENV" envDefault:"dev" validate:"required"`

	Port string `env:"PORT" envDefault:"8080" validate:"required,numeric"`

	StateBackend string `env:"STATE_BACKEND" envDefault:"memory" validate:"oneof=memory mysql"`
	MySQLDSN     string `env:"DB_DSN" validate:"required_if=StateBackend mysql"`

	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"20" validate:"gte=1"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`

	// Optional: run migrations at startup (dev convenience)
	RunMigrations bool `env:"RUN_MIGRATIONS" envDefault:"false"`

	LogLevel        string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn warning error"`
	JWTPublicKeyEnv string `env:"JWT_PUBLIC_KEY_ENV" envDefault:"JWT_PUBLIC_KEY_PEM"`

	EnabledChannels []string `env:"ENABLED_CHANNELS" envDefault:"google" envSeparator:","`

	Feed   FeedSettings
	Worker WorkerSettings
}

// FeedSettings describe the destination and the store the feed is built from.
type FeedSettings struct {
	TargetCountry   string `env:"FEED_TARGET_COUNTRY" envDefault:"US" validate:"len=2,alpha"`
	ContentLanguage string `env:"FEED_CONTENT_LANGUAGE" envDefault:"en" validate:"min=2,max=5"`
	Channel         string `env:"FEED_CHANNEL" envDefault:"online" validate:"oneof=online local"`
	Currency        string `env:"STORE_CURRENCY" envDefault:"USD" validate:"len=3,alpha"`

	// TaxInclusive is derived from the target country when unset.
	TaxInclusive *bool `env:"FEED_TAX_INCLUSIVE"`

	StoreDimensionUnit string `env:"STORE_DIMENSION_UNIT" envDefault:"in" validate:"oneof=in m cm mm yd"`
	StoreWeightUnit    string `env:"STORE_WEIGHT_UNIT" envDefault:"lbs" validate:"oneof=lbs lb kg g oz"`
	DimensionUnit      string `env:"FEED_DIMENSION_UNIT" validate:"omitempty,oneof=in m cm mm yd"`
	WeightUnit         string `env:"FEED_WEIGHT_UNIT" validate:"omitempty,oneof=lbs lb kg g oz"`

	TaxRate          float64 `env:"TAX_RATE" envDefault:"0" validate:"gte=0,lt=1"`
	PricesIncludeTax bool    `env:"PRICES_INCLUDE_TAX" envDefault:"false"`

	ImageBaseURL string `env:"IMAGE_BASE_URL" validate:"omitempty,url"`
	ImageSize    string `env:"IMAGE_SIZE" envDefault:"full"`

	IdentifierMetaKey string `env:"FEED_IDENTIFIER_META_KEY" envDefault:"global_identifier_values"`
}

type WorkerSettings struct {
	Concurrency int           `env:"WORKER_CONCURRENCY" envDefault:"4" validate:"gte=1,lte=64"`
	PollEvery   time.Duration `env:"POLL_EVERY" envDefault:"1s" validate:"gt=0"`
	MaxPerClaim int           `env:"WORKER_MAX_PER_CLAIM" envDefault:"10" validate:"gte=1"`

	MetricsPort string `env:"WORKER_METRICS_PORT" envDefault:"9090" validate:"numeric"`

	// Embedded runs the run worker inside the api process.
	Embedded bool `env:"WORKER_EMBEDDED" envDefault:"false"`
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads only the process environment.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// FeedConfig maps the settings onto the builder configuration.
func (s FeedSettings) FeedConfig() feed.Config {
	// feed units default to the store units
	lengthUnit, weightUnit := s.DimensionUnit, s.WeightUnit
	if lengthUnit == "" {
		lengthUnit = s.StoreDimensionUnit
	}
	if weightUnit == "" {
		weightUnit = s.StoreWeightUnit
	}

	inclusive := !tax.ExcludedForCountry(s.TargetCountry)
	if s.TaxInclusive != nil {
		inclusive = *s.TaxInclusive
	}

	return feed.Config{
		TargetCountry:   strings.ToUpper(s.TargetCountry),
		ContentLanguage: strings.ToLower(s.ContentLanguage),
		Channel:         s.Channel,
		Currency:        s.Currency,
		TaxInclusive:    inclusive,
		LengthUnit:      lengthUnit,
		WeightUnit:      weightUnit,
		StoreLengthUnit: s.StoreDimensionUnit,
		StoreWeightUnit: s.StoreWeightUnit,
	}
}

// TaxCalculator returns NoTax when no rate is configured.
func (s FeedSettings) TaxCalculator() tax.Calculator {
	if s.TaxRate <= 0 {
		return tax.NoTax{}
	}
	return tax.NewPercentage(s.TaxRate, s.PricesIncludeTax)
}

func (c Config) IsDev() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "dev")
}
