package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/models"
)

// Storage is the durable key/value backend behind a Store.
// Get reports ok=false for a missing key; that is not an error.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryStorage keeps entries in process memory
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// GormStorage stores entries in a SQL table, isolated per namespace.
// The portal uses one namespace per browser.
type GormStorage struct {
	db        *gorm.DB
	namespace string
}

// NewGormStorage returns a storage view over namespace
func NewGormStorage(db *gorm.DB, namespace string) *GormStorage {
	return &GormStorage{db: db, namespace: namespace}
}

func (g *GormStorage) Get(key string) (string, bool, error) {
	var entry models.StorageEntry
	err := g.db.Where("namespace = ? AND entry_key = ?", g.namespace, key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return entry.Value, true, nil
}

func (g *GormStorage) Set(key, value string) error {
	entry := models.StorageEntry{
		Namespace: g.namespace,
		Key:       key,
		Value:     value,
	}
	err := g.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (g *GormStorage) Delete(key string) error {
	err := g.db.Where("namespace = ? AND entry_key = ?", g.namespace, key).Delete(&models.StorageEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

const keyringService = "fleetctl"

// KeyringStorage persists entries in the OS keychain/credential manager,
// one entry per key and API host
type KeyringStorage struct {
	host string
}

func NewKeyringStorage(host string) *KeyringStorage {
	return &KeyringStorage{host: host}
}

func (k *KeyringStorage) keyFor(key string) string {
	return fmt.Sprintf("%s-%s", key, k.host)
}

func (k *KeyringStorage) Get(key string) (string, bool, error) {
	value, err := keyring.Get(keyringService, k.keyFor(key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, true, nil
}

func (k *KeyringStorage) Set(key, value string) error {
	if err := keyring.Set(keyringService, k.keyFor(key), value); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (k *KeyringStorage) Delete(key string) error {
	if err := keyring.Delete(keyringService, k.keyFor(key)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
