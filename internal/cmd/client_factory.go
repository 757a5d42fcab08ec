package cmd

import (
	"fmt"
	"time"

	"github.com/cognitivefashion/fashion-cli/internal/api"
	"github.com/cognitivefashion/fashion-cli/internal/config"
)

type clientFactory struct {
	timeout   time.Duration
	userAgent string
}

func newClientFactory() *clientFactory {
	return &clientFactory{
		timeout:   flags.Timeout,
		userAgent: fmt.Sprintf("fashion-cli/%s", version),
	}
}

func (f *clientFactory) overrides() config.Overrides {
	o := config.Overrides{
		Profile:    flags.Profile,
		BaseURL:    flags.BaseURL,
		APIKey:     flags.APIKey,
		APIVersion: flags.APIVersion,
	}
	if flags.OptOutSet {
		optOut := flags.OptOut
		o.DataCollectionOptOut = &optOut
	}
	return o
}

func (f *clientFactory) client() (*api.Client, error) {
	cfg, err := config.ResolveClientConfig(f.overrides(), runtimeEnv)
	if err != nil {
		return nil, err
	}
	return f.newClient(cfg), nil
}

func (f *clientFactory) newClient(cfg config.ClientConfig) *api.Client {
	opts := append(cfg.Options(), api.WithTimeout(f.timeout))
	if f.userAgent != "" {
		opts = append(opts, api.WithUserAgent(f.userAgent))
	}
	return api.New(cfg.BaseURL, cfg.APIKey, opts...)
}

// getClient creates an API client from flags, environment and the stored profile.
func getClient() (*api.Client, error) {
	return newClientFactory().client()
}
