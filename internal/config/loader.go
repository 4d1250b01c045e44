package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if FUNNEL_CONFIG is set
//  3. env (prefix FUNNEL_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("FUNNEL_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: FUNNEL_ADDR, FUNNEL_TOKEN_TTL, ...
	// Map env keys like FUNNEL_TOKEN_TTL -> token_ttl (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("FUNNEL_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "funnel_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Basic validation
	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.ATSThreshold < 0 || cfg.ATSThreshold > 100 {
		return nil, fmt.Errorf("%w: ats_threshold must be within [0, 100]", ErrInvalidConfig)
	}
	if cfg.ExamThreshold < 0 || cfg.ExamThreshold > 100 {
		return nil, fmt.Errorf("%w: exam_threshold must be within [0, 100]", ErrInvalidConfig)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("%w: token_ttl must be positive", ErrInvalidConfig)
	}
	return &cfg, nil
}
