package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cognitivefashion/fashion-cli/internal/api"
)

// Overrides are the values given on the command line. Empty strings and nil
// pointers mean "not set".
type Overrides struct {
	Profile              string
	BaseURL              string
	APIKey               string
	APIVersion           string
	DataCollectionOptOut *bool
}

// ClientConfig is the resolved connection setup for one run.
type ClientConfig struct {
	Profile              string
	BaseURL              string `validate:"required,http_url"`
	APIKey               string `validate:"required"`
	APIVersion           string `validate:"required"`
	DataCollectionOptOut bool
	// Source names where the API key came from: flag, env or profile.
	Source string
}

// ResolveProfileName picks the profile to use: flag, then FASHION_PROFILE,
// then the stored current profile.
func ResolveProfileName(flagValue string, e Env) (string, error) {
	if name := strings.TrimSpace(flagValue); name != "" {
		return name, nil
	}
	if name := strings.TrimSpace(e.Profile); name != "" {
		return name, nil
	}
	return CurrentProfile()
}

// ResolveClientConfig merges command-line overrides, environment and the
// stored profile, in that order of precedence. The profile is only read when
// flags and environment leave the base URL or API key unset.
func ResolveClientConfig(o Overrides, e Env) (ClientConfig, error) {
	cfg := ClientConfig{
		BaseURL:    firstNonBlank(o.BaseURL, e.BaseURL),
		APIKey:     firstNonBlank(o.APIKey, e.APIKey),
		APIVersion: firstNonBlank(o.APIVersion, e.APIVersion),
	}
	switch {
	case strings.TrimSpace(o.APIKey) != "":
		cfg.Source = "flag"
	case strings.TrimSpace(e.APIKey) != "":
		cfg.Source = "env"
	}

	optOut := o.DataCollectionOptOut
	if optOut == nil {
		optOut = e.DataCollectionOptOut
	}

	if cfg.BaseURL == "" || cfg.APIKey == "" || cfg.APIVersion == "" || optOut == nil {
		name, err := ResolveProfileName(o.Profile, e)
		if err != nil {
			return ClientConfig{}, err
		}
		cfg.Profile = name

		profile, err := LoadProfile(name)
		switch {
		case err == nil:
			if cfg.BaseURL == "" {
				cfg.BaseURL = profile.BaseURL
			}
			if cfg.APIKey == "" {
				cfg.APIKey = profile.APIKey
				cfg.Source = "profile"
			}
			if cfg.APIVersion == "" {
				cfg.APIVersion = profile.APIVersion
			}
			if optOut == nil {
				optOut = &profile.DataCollectionOptOut
			}
		case errors.Is(err, ErrNotConfigured):
			if cfg.BaseURL == "" || cfg.APIKey == "" {
				return ClientConfig{}, ErrNotConfigured
			}
		default:
			return ClientConfig{}, err
		}
	}

	if cfg.APIVersion == "" {
		cfg.APIVersion = api.DefaultAPIVersion
	}
	if optOut != nil {
		cfg.DataCollectionOptOut = *optOut
	}

	if err := validateStruct(cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := ValidateAPIVersion(cfg.APIVersion); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

// Options converts the resolved settings into client options.
func (c ClientConfig) Options() []api.Option {
	return []api.Option{
		api.WithAPIVersion(c.APIVersion),
		api.WithDataCollectionOptOut(c.DataCollectionOptOut),
	}
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
