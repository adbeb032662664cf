package db

// DatabaseProvider abstracts the key-value backend under the state store
type DatabaseProvider interface {
	// Get returns nil, nil when key is absent
	Get(key []byte) ([]byte, error)

	// GetBatch reads several keys at once; absent keys are left out of the result
	GetBatch(keys [][]byte) (map[string][]byte, error)

	Put(key, value []byte) error

	Delete(key []byte) error

	Has(key []byte) (bool, error)

	Close() error

	// Batch returns a new batch; nothing is visible until Write succeeds
	Batch() DatabaseBatch
}

// IterableProvider extends DatabaseProvider with prefix scans
type IterableProvider interface {
	DatabaseProvider

	// IteratePrefix visits keys with prefix in order until callback returns false
	IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error
}

// DatabaseBatch collects writes applied all at once
type DatabaseBatch interface {
	Put(key, value []byte)

	Delete(key []byte)

	// Write commits every queued operation atomically
	Write() error

	Reset()

	Close()
}
