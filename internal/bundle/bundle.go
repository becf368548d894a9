// Package bundle handles whole-vault export and import. The bundle is a
// byte-for-byte passthrough of partition contents: values stay encrypted
// (or stay legacy plaintext) exactly as stored, so a bundle created under a
// different passphrase remains unreadable until that passphrase is
// supplied. No re-keying happens on either side.
package bundle

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"fintrack/internal/vault"
)

const (
	Format  = "fintrack-bundle"
	Version = 1
)

// Document is the on-disk bundle shape.
type Document struct {
	Format     string            `json:"format"`
	Version    int               `json:"version"`
	ExportedAt time.Time         `json:"exportedAt"`
	Partitions map[string]string `json:"partitions"`
}

// Export writes every partition's raw value into one bundle file.
func Export(ctx context.Context, v *vault.Vault, path string) error {
	partitions, err := v.ExportRaw(ctx)
	if err != nil {
		return fmt.Errorf("collect partitions: %w", err)
	}

	doc := Document{
		Format:     Format,
		Version:    Version,
		ExportedAt: time.Now().UTC(),
		Partitions: partitions,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize bundle: %w", err)
	}
	return nil
}

// Import reads a bundle file and writes each partition back verbatim in one
// atomic commit. A malformed bundle is rejected wholesale; nothing is
// partially applied. Callers must reload application state afterwards.
func Import(ctx context.Context, v *vault.Vault, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read bundle: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("malformed bundle: %w", err)
	}
	if doc.Format != Format {
		return fmt.Errorf("malformed bundle: unexpected format %q", doc.Format)
	}
	if doc.Version != Version {
		return fmt.Errorf("unsupported bundle version %d", doc.Version)
	}
	if len(doc.Partitions) == 0 {
		return fmt.Errorf("malformed bundle: no partitions")
	}

	if err := v.ImportRaw(ctx, doc.Partitions); err != nil {
		return fmt.Errorf("apply bundle: %w", err)
	}
	return nil
}
