package iohistory

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/churnmill/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClearHistory tests the ClearHistory function.
func TestClearHistory(t *testing.T) {
	t.Run("SQLite backend", func(t *testing.T) {
		// Create a temporary test database in a temp directory
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "test_clear.db")

		// Create the database file directly with sql.Open
		db, err := sql.Open("sqlite", dbPath)
		assert.NoError(t, err, "Failed to create database")
		defer func() { _ = db.Close() }()

		// Create a simple table
		_, err = db.Exec("CREATE TABLE test (id INTEGER PRIMARY KEY)")
		assert.NoError(t, err, "Failed to create table")

		// Verify file exists
		_, err = os.Stat(dbPath)
		assert.False(t, os.IsNotExist(err), "Database file should exist before ClearHistory")

		// Clear the history
		err = ClearHistory(schema.SQLiteBackend, dbPath, "")
		assert.NoError(t, err, "ClearHistory should not fail")

		// Verify file is removed
		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err), "Database file should be removed after ClearHistory")
	})

	t.Run("SQLite backend - non-existent file", func(t *testing.T) {
		// Clearing non-existent file should not error
		tmpDir := t.TempDir()
		dbPath := filepath.Join(tmpDir, "non_existent.db")
		err := ClearHistory(schema.SQLiteBackend, dbPath, "")
		assert.NoError(t, err, "ClearHistory on non-existent file should not error")
	})

	t.Run("NoneBackend", func(t *testing.T) {
		// NoneBackend should be no-op
		err := ClearHistory(schema.NoneBackend, "", "")
		assert.NoError(t, err, "ClearHistory with NoneBackend should not error")
	})

	t.Run("empty dbFilePath for SQLite", func(t *testing.T) {
		err := ClearHistory(schema.SQLiteBackend, "", "")
		assert.Error(t, err, "Expected error for empty dbFilePath with SQLite backend")
	})

	t.Run("unsupported backend", func(t *testing.T) {
		err := ClearHistory("unsupported", "", "")
		assert.Error(t, err, "Expected error for unsupported backend")
	})
}

// TestInitStoresErrors tests error handling in InitStores.
func TestInitStoresErrors(t *testing.T) {
	t.Run("empty backend disables tracking", func(t *testing.T) {
		initOnce = sync.Once{}
		closeOnce = sync.Once{}

		err := InitStores("", "")
		assert.NoError(t, err)
		assert.Nil(t, Manager.GetRunStore(), "Store should stay nil when tracking is disabled")
	})

	t.Run("none backend disables tracking", func(t *testing.T) {
		initOnce = sync.Once{}
		closeOnce = sync.Once{}

		err := InitStores(schema.NoneBackend, "")
		assert.NoError(t, err)
		assert.Nil(t, Manager.GetRunStore(), "Store should stay nil when tracking is disabled")
	})

	t.Run("invalid MySQL connection", func(t *testing.T) {
		initOnce = sync.Once{}
		closeOnce = sync.Once{}

		// This should fail during database connection
		err := InitStores(schema.MySQLBackend, "invalid://connection")
		assert.Error(t, err, "Expected error for invalid MySQL connection string")
	})
}

// TestRunStoreManagerConcurrency tests concurrent access to RunStoreManager.
func TestRunStoreManagerConcurrency(t *testing.T) {
	initOnce = sync.Once{}
	closeOnce = sync.Once{}

	err := InitStores(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer CloseStores()

	// Concurrently access the manager
	const numGoroutines = 10
	done := make(chan bool, numGoroutines)

	for i := range numGoroutines {
		go func(id int) {
			defer func() { done <- true }()
			store := Manager.GetRunStore()
			if store == nil {
				t.Errorf("Goroutine %d: GetRunStore returned nil", id)
				return
			}
			// Perform some operations
			runID, err := store.BeginRun(time.Now(), storeTestConfig(), nil, map[string]any{"goroutine": id})
			if err != nil {
				t.Errorf("Goroutine %d: BeginRun failed: %v", id, err)
				return
			}
			if err := store.EndRun(runID, time.Now(), schema.RunCompleted); err != nil {
				t.Errorf("Goroutine %d: EndRun failed: %v", id, err)
			}
		}(i)
	}

	// Wait for all goroutines to complete
	for range numGoroutines {
		<-done
	}
}
