// Package transport resolves a group's outbound mail configuration and
// submits messages over SMTP.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/shivangsaraswat/certiflow/internal/models"
	"github.com/shivangsaraswat/certiflow/internal/secrets"
	"github.com/shivangsaraswat/certiflow/internal/store"
)

// ErrNotConfigured signals that a group has no transport set up yet.
// It is a legitimate state, not an infrastructure failure.
var ErrNotConfigured = errors.New("transport: not configured for group")

// ConfigStore is the slice of the store the resolver reads.
type ConfigStore interface {
	GetTransport(ctx context.Context, groupID string) (*store.TransportRow, error)
}

// Resolver loads and decrypts per-group transport configuration. The
// decrypted credential stays inside the returned TransportConfig; the
// dispatcher never touches key material.
type Resolver struct {
	store ConfigStore
	codec *secrets.Codec
}

func NewResolver(cs ConfigStore, codec *secrets.Codec) *Resolver {
	return &Resolver{store: cs, codec: codec}
}

func (r *Resolver) Resolve(ctx context.Context, groupID string) (*models.TransportConfig, error) {
	row, err := r.store.GetTransport(ctx, groupID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("load transport for group %s: %w", groupID, err)
	}

	password, err := r.codec.Decrypt(row.PasswordEncrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt transport credential for group %s: %w", groupID, err)
	}

	return &models.TransportConfig{
		Host:        row.Host,
		Port:        row.Port,
		Email:       row.Email,
		Password:    password,
		Encryption:  row.Encryption,
		DisplayName: row.DisplayName,
		ReplyTo:     row.ReplyTo,
	}, nil
}
