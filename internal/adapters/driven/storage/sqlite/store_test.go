package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/synindex/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "synindex-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "synindex-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	dbPath := filepath.Join(tempDir, DatabaseFile)
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)
	assert.NoError(t, store.db.Ping())
}

func TestNewStore_DefaultDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewStore("")
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	assert.Equal(t, filepath.Join(home, ".synindex", "data", DatabaseFile), store.Path())
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "synindex-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	nestedDir := filepath.Join(tempDir, "nested", "path", "to", "db")
	store, err := NewStore(nestedDir)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	assert.DirExists(t, nestedDir)
}

func TestNewStore_Migrations(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	var count int
	err := store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	for _, table := range []string{"fragments", "index_meta", "poll_schedule", "poll_runs"} {
		var tableExists int
		err := store.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&tableExists)
		require.NoError(t, err)
		assert.Equal(t, 1, tableExists, "table %s should exist", table)
	}

	for _, trigger := range []string{"fragments_parent_insert", "fragments_parent_update"} {
		var exists int
		err := store.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='trigger' AND name=?",
			trigger,
		).Scan(&exists)
		require.NoError(t, err)
		assert.Equal(t, 1, exists, "trigger %s should exist", trigger)
	}
}

func TestNewStore_ForeignKeysEnabled(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	// Every pooled connection must have the pragma, so check several.
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		conn, err := store.db.Conn(ctx)
		require.NoError(t, err)
		defer conn.Close()

		var fkEnabled int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fkEnabled))
		assert.Equal(t, 1, fkEnabled, "foreign keys should be enabled")
	}
}

func TestStore_WALMode(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	var journalMode string
	err := store.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	require.NoError(t, err)
	assert.Equal(t, "wal", journalMode)
}

func TestStore_Close(t *testing.T) {
	store, _ := setupTestStore(t)

	assert.NoError(t, store.Close())
	assert.Error(t, store.db.Ping())
	assert.NoError(t, store.Close())
}

func TestStore_InterfaceGetters(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.NotNil(t, store.FragmentStore())
	assert.NotNil(t, store.SchedulerStore())
}

// ==================== Migration Tests ====================

func TestStore_MigrationIdempotency(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "synindex-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store1, err := NewStore(tempDir)
	require.NoError(t, err)

	ctx := context.Background()
	fragments := store1.FragmentStore()
	_, err = fragments.EnsureModel(ctx, "all-minilm", 2)
	require.NoError(t, err)
	_, err = fragments.Insert(ctx, testFragment("/conf/api.xml", 1, 4, nil))
	require.NoError(t, err)
	require.NoError(t, store1.Close())

	store2, err := NewStore(tempDir)
	require.NoError(t, err)
	defer store2.Close()

	var count, version int
	require.NoError(t, store2.db.QueryRow("SELECT COUNT(*), MAX(version) FROM schema_migrations").Scan(&count, &version))
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, version)

	stats, err := store2.FragmentStore().Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Fragments, "reopening must keep existing rows")
}

// ==================== Helper Function Tests ====================

func TestClassifyConstraint(t *testing.T) {
	assert.NoError(t, classifyConstraint(nil))

	err := classifyConstraint(errors.New("constraint failed: UNIQUE constraint failed: fragments.document_path"))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	err = classifyConstraint(errors.New("FOREIGN KEY constraint failed: parent outside document"))
	assert.ErrorIs(t, err, domain.ErrReferentialIntegrity)

	other := errors.New("disk I/O error")
	assert.Equal(t, other, classifyConstraint(other))
}

func TestFloat32SliceToBytes(t *testing.T) {
	tests := []struct {
		name   string
		input  []float32
		output []byte
	}{
		{
			name:   "empty slice",
			input:  []float32{},
			output: nil,
		},
		{
			name:   "nil slice",
			input:  nil,
			output: nil,
		},
		{
			name:   "single value",
			input:  []float32{1.0},
			output: []byte{0x00, 0x00, 0x80, 0x3f},
		},
		{
			name:  "multiple values",
			input: []float32{0.0, 1.0, -1.0},
			output: []byte{
				0x00, 0x00, 0x00, 0x00, // 0.0
				0x00, 0x00, 0x80, 0x3f, // 1.0
				0x00, 0x00, 0x80, 0xbf, // -1.0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.output, float32SliceToBytes(tt.input))
		})
	}
}

func TestBytesToFloat32Slice(t *testing.T) {
	tests := []struct {
		name   string
		input  []byte
		output []float32
	}{
		{
			name:   "nil slice",
			input:  nil,
			output: nil,
		},
		{
			name:   "single value",
			input:  []byte{0x00, 0x00, 0x80, 0x3f},
			output: []float32{1.0},
		},
		{
			name: "multiple values",
			input: []byte{
				0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x80, 0x3f,
				0x00, 0x00, 0x80, 0xbf,
			},
			output: []float32{0.0, 1.0, -1.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.output, bytesToFloat32Slice(tt.input))
		})
	}
}

func TestFloat32Roundtrip(t *testing.T) {
	original := []float32{0.1, 0.2, 0.3, -0.5, 100.5, -200.75}
	assert.Equal(t, original, bytesToFloat32Slice(float32SliceToBytes(original)))
}
