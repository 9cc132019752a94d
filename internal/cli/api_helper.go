package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/genefit/genefit-link/internal/api"
	"github.com/genefit/genefit-link/internal/models"
	"github.com/genefit/genefit-link/internal/session"
)

// getAPIClient loads configuration and creates an API client.
func getAPIClient() (*api.Client, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	client, err := api.NewClient(cfg, GetLogger().Component("api"))
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}

// openSession opens the configured session store. The returned func releases it.
func openSession(ctx context.Context) (session.Storage, func(), error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	store, err := session.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session: %w", err)
	}
	release := func() {
		if c, ok := store.(io.Closer); ok {
			c.Close()
		}
	}
	return store, release, nil
}

// currentUser returns the stored session user, or nil if none is stored.
func currentUser(ctx context.Context) (*models.User, error) {
	store, release, err := openSession(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return session.Bootstrap(ctx, store, GetLogger())
}

// requireUser is currentUser for commands that cannot run without a profile.
func requireUser(ctx context.Context) (*models.User, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("no user profile loaded; run 'genefit user create' or 'genefit user load --id <id>'")
	}
	return user, nil
}
