package repositories

import (
	"context"
	"fmt"
)

// TokenKey is the metadata key holding the raw session token.
const TokenKey = "token"

// TokenRepository persists the session token across process restarts.
type TokenRepository struct {
	meta *MetadataRepository
}

// NewTokenRepository creates a [TokenRepository] backed by the metadata table.
func NewTokenRepository(db DBTX) *TokenRepository {
	return &TokenRepository{meta: NewMetadataRepository(db)}
}

// Token returns the stored token, or "" when the client is unauthenticated.
func (r *TokenRepository) Token(ctx context.Context) (string, error) {
	token, _, err := r.meta.Get(ctx, TokenKey)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return token, nil
}

// SetToken stores token, replacing any previous one. An empty token clears the store.
func (r *TokenRepository) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return r.ClearToken(ctx)
	}
	if err := r.meta.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// ClearToken removes the stored token.
func (r *TokenRepository) ClearToken(ctx context.Context) error {
	if err := r.meta.Delete(ctx, TokenKey); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}
