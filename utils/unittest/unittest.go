package unittest

import (
	"os"
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/require"
)

// TempDir creates a directory for the test. The caller removes it.
func TempDir(t testing.TB) string {
	dir, err := os.MkdirTemp("", "txhistory-")
	require.NoError(t, err)
	return dir
}

// RunWithTempDir runs f with a fresh directory, removed once f returns.
func RunWithTempDir(t testing.TB, f func(dir string)) {
	dir := TempDir(t)
	defer os.RemoveAll(dir)
	f(dir)
}

// BadgerDB opens the database in dir. Level 0 tables stay in memory so
// small test histories never hit the disk.
func BadgerDB(t testing.TB, dir string) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions(dir).
		WithKeepL0InMemory(true).
		WithLogger(nil))
	require.NoError(t, err)
	return db
}

// RunWithBadgerDB runs f against an empty database, which is closed and
// removed once f returns.
func RunWithBadgerDB(t testing.TB, f func(*badger.DB)) {
	RunWithTempDir(t, func(dir string) {
		db := BadgerDB(t, dir)
		defer db.Close()
		f(db)
	})
}
