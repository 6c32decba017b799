// Package config loads application settings from the environment and an
// optional .env file.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"

	"proposalgen/logx"
)

// RedisConfig is read from REDIS_URL, REDIS_READ_TIMEOUT, etc. Timeouts are
// in seconds.
type RedisConfig struct {
	URL            string        `split_words:"true"`
	ReadTimeout    int           `split_words:"true" default:"3"`
	WriteTimeout   int           `split_words:"true" default:"3"`
	DialTimeout    int           `split_words:"true" default:"5"`
	ConnectTimeout time.Duration `split_words:"true" default:"30s"`
}

// Config holds every tunable of the proposal service.
type Config struct {
	Env                string `envconfig:"APP_ENV" default:"development"`
	TemplatesDir       string `envconfig:"TEMPLATES_DIR" default:"./templates"`
	InstallmentCount   int    `envconfig:"INSTALLMENT_COUNT" default:"10"`
	ProposalCodeOffset int    `envconfig:"PROPOSAL_CODE_OFFSET" default:"83"`

	Redis RedisConfig
}

// Load reads envFiles (".env" when none are given) and then the process
// environment. A missing .env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env files: %w", err)
		}
		logx.Debug().Strs("files", envFiles).Msg("config: no .env file, using process environment")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the proposal pipeline cannot work with.
func (c *Config) Validate() error {
	if c.InstallmentCount < 1 {
		return fmt.Errorf("INSTALLMENT_COUNT must be at least 1, got %d", c.InstallmentCount)
	}
	if c.ProposalCodeOffset < 0 {
		return fmt.Errorf("PROPOSAL_CODE_OFFSET must not be negative, got %d", c.ProposalCodeOffset)
	}
	if c.TemplatesDir == "" {
		return fmt.Errorf("TEMPLATES_DIR must not be empty")
	}
	return nil
}

// Enabled reports whether a Redis URL was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// New connects to Redis, retrying the initial ping with exponential backoff
// for up to ConnectTimeout.
func (r RedisConfig) New(ctx context.Context) (*redis.Client, error) {
	opts, err := redis.ParseURL(r.URL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	opts.ReadTimeout = time.Duration(r.ReadTimeout) * time.Second
	opts.WriteTimeout = time.Duration(r.WriteTimeout) * time.Second
	opts.DialTimeout = time.Duration(r.DialTimeout) * time.Second

	client := redis.NewClient(opts)

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = r.ConnectTimeout

	ping := func() error {
		return client.Ping(ctx).Err()
	}
	notify := func(err error, wait time.Duration) {
		logx.Warn().Err(err).Dur("retry_in", wait).Msg("config: redis not ready")
	}
	if err := backoff.RetryNotify(ping, backoff.WithContext(policy, ctx), notify); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}
