// Package vault mediates every read and write of the persisted partitions
// under a single active passphrase. It detects legacy plaintext partitions
// written before encryption existed, migrates them silently on the next
// save, and survives wrong-passphrase and corrupt-ciphertext conditions
// without ever losing readable data.
package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"fintrack/internal/codec"
)

// Managed data partitions. Each holds one JSON-serialized collection.
const (
	PartExpenses          = "expenses"
	PartIncomes           = "incomes"
	PartExpenseCategories = "expense_categories"
	PartIncomeSources     = "income_sources"
	PartBudgets           = "budgets"
	PartRecurring         = "recurring"
	PartGoals             = "goals"
	PartProfile           = "profile"
)

// Reserved partitions, excluded from the managed data set.
const (
	// canaryPartition holds a known plaintext encrypted under the active
	// passphrase, so a wrong passphrase is distinguishable from "no data".
	canaryPartition = "vault_canary"

	// sessionKeyPartition holds the remembered passphrase when the user
	// opts into persistence across restarts. Stored as entered; this is a
	// trust decision surfaced to the user, not a security guarantee.
	sessionKeyPartition = "session_key"
)

const canaryPlaintext = `"fintrack-canary"`

var (
	ErrLocked          = errors.New("vault is locked")
	ErrWrongPassphrase = errors.New("wrong passphrase")
	ErrEmptyPassphrase = errors.New("empty passphrase")
	ErrKeyMismatch     = errors.New("supplied key does not match the active key")
	ErrAlreadyRotating = errors.New("key rotation already in progress")
)

// ManagedPartitions returns the data partitions the vault is responsible
// for, in stable order.
func ManagedPartitions() []string {
	return []string{
		PartExpenses,
		PartIncomes,
		PartExpenseCategories,
		PartIncomeSources,
		PartBudgets,
		PartRecurring,
		PartGoals,
		PartProfile,
	}
}

// KV is the persistence the vault sits on. PutAll and DeleteAll must apply
// atomically.
type KV interface {
	Get(ctx context.Context, name string) (string, bool, error)
	Put(ctx context.Context, name, value string) error
	PutAll(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, name string) error
	DeleteAll(ctx context.Context, names []string) error
}

type Vault struct {
	kv KV

	mu       sync.Mutex
	key      string
	rotating bool
}

func New(kv KV) *Vault {
	return &Vault{kv: kv}
}

// Unlock establishes the active key for the session. On first run (no
// canary yet) the passphrase is accepted and a canary is written; on later
// runs the canary must decrypt under it, otherwise ErrWrongPassphrase.
func (v *Vault) Unlock(ctx context.Context, passphrase string) error {
	if passphrase == "" {
		return ErrEmptyPassphrase
	}

	raw, found, err := v.kv.Get(ctx, canaryPartition)
	if err != nil {
		return fmt.Errorf("read canary: %w", err)
	}

	if found {
		plain, err := codec.Decrypt(raw, passphrase)
		if err != nil || plain != canaryPlaintext {
			return ErrWrongPassphrase
		}
	} else {
		sealed, err := codec.Encrypt(canaryPlaintext, passphrase)
		if err != nil {
			return fmt.Errorf("seal canary: %w", err)
		}
		if err := v.kv.Put(ctx, canaryPartition, sealed); err != nil {
			return fmt.Errorf("write canary: %w", err)
		}
	}

	v.mu.Lock()
	v.key = passphrase
	v.mu.Unlock()

	slog.InfoContext(ctx, "Vault unlocked", "first_run", !found)
	return nil
}

// ResumeSession unlocks with a previously remembered passphrase, if one was
// persisted. Returns false when nothing was remembered.
func (v *Vault) ResumeSession(ctx context.Context) (bool, error) {
	key, found, err := v.kv.Get(ctx, sessionKeyPartition)
	if err != nil {
		return false, fmt.Errorf("read remembered key: %w", err)
	}
	if !found || key == "" {
		return false, nil
	}
	if err := v.Unlock(ctx, key); err != nil {
		return false, err
	}
	return true, nil
}

// RememberKey persists the active passphrase so the vault does not re-lock
// on restart. Explicitly opt-in.
func (v *Vault) RememberKey(ctx context.Context) error {
	key := v.activeKey()
	if key == "" {
		return ErrLocked
	}
	if err := v.kv.Put(ctx, sessionKeyPartition, key); err != nil {
		return fmt.Errorf("remember key: %w", err)
	}
	return nil
}

// ForgetKey removes the remembered passphrase without locking the session.
func (v *Vault) ForgetKey(ctx context.Context) error {
	if err := v.kv.Delete(ctx, sessionKeyPartition); err != nil {
		return fmt.Errorf("forget key: %w", err)
	}
	return nil
}

// Lock clears the active key from session memory and removes any
// remembered passphrase. Subsequent loads fail decryption until Unlock.
func (v *Vault) Lock(ctx context.Context) error {
	v.mu.Lock()
	v.key = ""
	v.mu.Unlock()

	if err := v.kv.Delete(ctx, sessionKeyPartition); err != nil {
		return fmt.Errorf("clear remembered key: %w", err)
	}
	slog.InfoContext(ctx, "Vault locked")
	return nil
}

// Unlocked reports whether an active key is established.
func (v *Vault) Unlocked() bool {
	return v.activeKey() != ""
}

func (v *Vault) activeKey() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.key
}

// LoadPartition returns the decrypted serialized value of one partition.
// Absent partitions, undecryptable partitions and store-level failures all
// degrade to "" so callers fall back to their empty defaults; the data
// itself is left untouched on disk for a session with the right key.
func (v *Vault) LoadPartition(ctx context.Context, name string) string {
	raw, found, err := v.kv.Get(ctx, name)
	if err != nil {
		slog.ErrorContext(ctx, "Partition read failed", "partition", name, "error", err)
		return ""
	}
	if !found || raw == "" {
		return ""
	}

	// Legacy data written before encryption existed is raw JSON. Use it
	// as-is; the next save re-encrypts it.
	if codec.IsLikelyJSON(raw) {
		return raw
	}

	plain, err := codec.Decrypt(raw, v.activeKey())
	if err != nil {
		slog.WarnContext(ctx, "Partition unreadable with active key",
			"partition", name, "error", err)
		return ""
	}
	return plain
}

// SavePartition encrypts and writes one partition. Writing while locked is
// refused so valid ciphertext is never clobbered with unencryptable state.
func (v *Vault) SavePartition(ctx context.Context, name, serialized string) error {
	key := v.activeKey()
	if key == "" {
		return ErrLocked
	}

	sealed, err := codec.Encrypt(serialized, key)
	if err != nil {
		return fmt.Errorf("encrypt partition %s: %w", name, err)
	}
	if err := v.kv.Put(ctx, name, sealed); err != nil {
		return fmt.Errorf("save partition %s: %w", name, err)
	}
	return nil
}

// RotateKey re-encrypts every managed partition under newKey. The caller
// must supply the currently active key; the check is a trivial equality
// against session state, not a cryptographic proof. Partitions that fail to
// decrypt under the old key are left untouched rather than destroyed.
// All re-encrypted values are staged and committed in one atomic write, and
// only then does the active key switch to newKey.
func (v *Vault) RotateKey(ctx context.Context, oldKey, newKey string) error {
	if newKey == "" {
		return ErrEmptyPassphrase
	}

	v.mu.Lock()
	if v.rotating {
		v.mu.Unlock()
		return ErrAlreadyRotating
	}
	if v.key == "" {
		v.mu.Unlock()
		return ErrLocked
	}
	if oldKey != v.key {
		v.mu.Unlock()
		return ErrKeyMismatch
	}
	v.rotating = true
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		v.rotating = false
		v.mu.Unlock()
	}()

	staged := make(map[string]string)
	skipped := 0

	for _, name := range ManagedPartitions() {
		raw, found, err := v.kv.Get(ctx, name)
		if err != nil {
			return fmt.Errorf("read partition %s: %w", name, err)
		}
		if !found || raw == "" {
			continue
		}

		plain := raw
		if !codec.IsLikelyJSON(raw) {
			plain, err = v.decryptWith(raw, oldKey)
			if err != nil {
				slog.WarnContext(ctx, "Partition skipped during rotation",
					"partition", name, "error", err)
				skipped++
				continue
			}
		}

		sealed, err := codec.Encrypt(plain, newKey)
		if err != nil {
			return fmt.Errorf("re-encrypt partition %s: %w", name, err)
		}
		staged[name] = sealed
	}

	canary, err := codec.Encrypt(canaryPlaintext, newKey)
	if err != nil {
		return fmt.Errorf("re-seal canary: %w", err)
	}
	staged[canaryPartition] = canary

	// Keep a remembered passphrase usable after rotation.
	if _, remembered, err := v.kv.Get(ctx, sessionKeyPartition); err == nil && remembered {
		staged[sessionKeyPartition] = newKey
	}

	if err := v.kv.PutAll(ctx, staged); err != nil {
		return fmt.Errorf("commit rotation: %w", err)
	}

	v.mu.Lock()
	v.key = newKey
	v.mu.Unlock()

	slog.InfoContext(ctx, "Encryption key rotated",
		"partitions", len(staged), "skipped", skipped)
	return nil
}

func (v *Vault) decryptWith(raw, key string) (string, error) {
	return codec.Decrypt(raw, key)
}

// ResetAll erases every managed partition, the canary and the remembered
// key, returning the system to first-run state. Irreversible.
func (v *Vault) ResetAll(ctx context.Context) error {
	names := append(ManagedPartitions(), canaryPartition, sessionKeyPartition)
	if err := v.kv.DeleteAll(ctx, names); err != nil {
		return fmt.Errorf("reset partitions: %w", err)
	}

	v.mu.Lock()
	v.key = ""
	v.mu.Unlock()

	slog.InfoContext(ctx, "All partitions erased")
	return nil
}

// ExportRaw reads the managed partitions plus the canary byte-for-byte,
// still encrypted (or still plaintext for legacy data). The remembered key
// is never exported.
func (v *Vault) ExportRaw(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string)
	for _, name := range append(ManagedPartitions(), canaryPartition) {
		raw, found, err := v.kv.Get(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("read partition %s: %w", name, err)
		}
		if !found {
			continue
		}
		out[name] = raw
	}
	return out, nil
}

// ImportRaw writes partition values back verbatim in one atomic commit.
// Unknown names are rejected so a malformed bundle cannot plant rows.
func (v *Vault) ImportRaw(ctx context.Context, values map[string]string) error {
	known := make(map[string]bool)
	for _, name := range append(ManagedPartitions(), canaryPartition) {
		known[name] = true
	}
	for name := range values {
		if !known[name] {
			return fmt.Errorf("unknown partition %q in bundle", name)
		}
	}
	if err := v.kv.PutAll(ctx, values); err != nil {
		return fmt.Errorf("import partitions: %w", err)
	}
	return nil
}
