package session

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/genefit/genefit-link/internal/config"
	"github.com/genefit/genefit-link/internal/constants"
	"github.com/genefit/genefit-link/internal/logging"
	"github.com/genefit/genefit-link/internal/models"
)

// Open returns the storage backend selected by cfg.SessionBackend.
func Open(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.SessionBackend {
	case "memory":
		return NewMemoryStorage(), nil
	case "redis":
		return NewRedisStorage(ctx, cfg.RedisURL)
	case "file", "":
		return NewFileStorage(filepath.Join(config.ConfigDirectory(), constants.SessionFileName)), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

// Bootstrap loads the stored user. It returns (nil, nil) when no user is
// stored. A record that cannot be decoded is removed and treated as absent.
func Bootstrap(ctx context.Context, store Storage, logger *logging.Logger) (*models.User, error) {
	raw, ok, err := store.Get(ctx, constants.SessionUserKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user.ID == "" {
		if logger != nil {
			logger.Warn().Err(err).Msg("Discarding unreadable session record")
		}
		if rmErr := store.Remove(ctx, constants.SessionUserKey); rmErr != nil {
			return nil, fmt.Errorf("failed to clear corrupt session: %w", rmErr)
		}
		return nil, nil
	}
	return &user, nil
}

// Save stores user as the signed-in user.
func Save(ctx context.Context, store Storage, user *models.User) error {
	if user == nil || user.ID == "" {
		return fmt.Errorf("cannot save a session without a user id")
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return store.Set(ctx, constants.SessionUserKey, string(data))
}

// Clear removes the signed-in user.
func Clear(ctx context.Context, store Storage) error {
	return store.Remove(ctx, constants.SessionUserKey)
}
