package store

import (
	"fmt"

	"github.com/mezonai/snapledger/db"
)

// StoreType represents the type of store implementation
type StoreType string

const (
	// LevelDBStoreType keeps state in a LevelDB directory
	LevelDBStoreType StoreType = "leveldb"

	// MemoryStoreType keeps state in an in-memory LevelDB; nothing survives the process
	MemoryStoreType StoreType = "memory"
)

// StoreConfig holds configuration for creating store instances
type StoreConfig struct {
	Type StoreType `json:"type" yaml:"type" ini:"type"`

	// Directory is the database directory path, ignored for memory stores
	Directory string `json:"directory" yaml:"directory" ini:"directory"`
}

// Validate validates the store configuration
func (sc *StoreConfig) Validate() error {
	switch sc.Type {
	case "":
		return fmt.Errorf("store type cannot be empty")
	case LevelDBStoreType:
		if sc.Directory == "" {
			return fmt.Errorf("directory cannot be empty")
		}
		return nil
	case MemoryStoreType:
		return nil
	default:
		return fmt.Errorf("unsupported store type: %s", sc.Type)
	}
}

// CreateProvider creates a database provider based on the configuration
func CreateProvider(config *StoreConfig) (db.IterableProvider, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	switch config.Type {
	case LevelDBStoreType:
		return db.NewLevelDBProvider(config.Directory)
	case MemoryStoreType:
		return db.NewMemLevelDBProvider()
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}

// OpenStateStore creates the provider described by config and wraps it in a StateStore
func OpenStateStore(config *StoreConfig) (*StateStore, error) {
	provider, err := CreateProvider(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	s, err := NewStateStore(provider)
	if err != nil {
		provider.Close()
		return nil, err
	}
	return s, nil
}
