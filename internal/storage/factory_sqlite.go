//go:build sqlite

package storage

const defaultStoreKind = KindSQLite

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}
