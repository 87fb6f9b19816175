package storage

import (
	"errors"
	"fmt"
	"strings"
)

const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
)

var ErrUnsupportedBackend = errors.New("unsupported store backend")

// NewStore opens the run and genome store named by kind. Kind names are
// case-insensitive; an empty kind selects the memory store.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, kind)
	}
}

// DefaultStoreKind is sqlite when the binary was built with it, else memory.
func DefaultStoreKind() string {
	return defaultStoreKind
}

// CloseIfSupported releases stores that hold a connection and ignores the
// rest.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
