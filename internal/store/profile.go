package store

import (
	"context"
	"strings"
	"sync"

	"fintrack/internal/vault"
)

type profileData struct {
	Name string `json:"name"`
}

// Profile holds the user's display name.
type Profile struct {
	vault *vault.Vault

	mu   sync.Mutex
	data profileData
}

func NewProfile(ctx context.Context, v *vault.Vault) *Profile {
	p := &Profile{vault: v}
	loadPartition(ctx, v, vault.PartProfile, &p.data)
	return p
}

func (p *Profile) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data.Name
}

func (p *Profile) SetName(ctx context.Context, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data.Name = strings.TrimSpace(name)
	return savePartition(ctx, p.vault, vault.PartProfile, p.data)
}
