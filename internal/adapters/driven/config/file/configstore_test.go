package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, ConfigFile), store.Path())
	assert.NoFileExists(t, store.Path(), "constructor must not write a file")
}

func TestNewConfigStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".synindex", "config.toml"), store.Path())
}

func TestNewConfigStore_WithNestedDirectory(t *testing.T) {
	nestedPath := filepath.Join(t.TempDir(), "nested", "deep", "path")

	store, err := NewConfigStore(nestedPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(nestedPath, ConfigFile), store.Path())

	info, err := os.Stat(nestedPath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte("this is not valid TOML {{{[["), 0600)
	require.NoError(t, err)

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_NestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[index]
roots = ["/opt/synapse/conf", "/srv/apis"]
extensions = [".xml"]
poll_interval = "45s"

[embedding]
provider = "openai"
dimensions = 1536
requests_per_second = 2.5

[telemetry]
stdout = true
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, []string{"/opt/synapse/conf", "/srv/apis"}, store.GetStringSlice("index.roots"))
	assert.Equal(t, 45*time.Second, store.GetDuration("index.poll_interval"))
	assert.Equal(t, "openai", store.GetString("embedding.provider"))
	assert.Equal(t, 1536, store.GetInt("embedding.dimensions"))
	assert.InDelta(t, 2.5, store.GetFloat("embedding.requests_per_second"), 1e-9)
	assert.True(t, store.GetBool("telemetry.stdout"))
}

func TestConfigStore_Getters_WrongType(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("int_key", 42))
	require.NoError(t, store.Set("string_key", "not a number"))

	assert.Equal(t, "", store.GetString("int_key"))
	assert.Equal(t, 0, store.GetInt("string_key"))
	assert.Equal(t, 0.0, store.GetFloat("string_key"))
	assert.False(t, store.GetBool("string_key"))
	assert.Zero(t, store.GetDuration("string_key"))
	assert.Nil(t, store.GetStringSlice("nonexistent"))

	val, ok := store.Get("nonexistent")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_Set_EmptyKey(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Set("", "value"))
}

func TestConfigStore_SaveReload_WritesTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("index.roots", []string{"/conf"}))
	require.NoError(t, store.Set("index.poll_interval", "1m"))
	require.NoError(t, store.Set("embedding.dimensions", 384))
	require.NoError(t, store.Set("search.cache_size", int64(64)))
	require.NoError(t, store.Set("telemetry.stdout", false))
	require.NoError(t, store.Save())

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[index]")
	assert.Contains(t, string(raw), "[embedding]")
	assert.NotContains(t, string(raw), `"index.roots"`)

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"/conf"}, store2.GetStringSlice("index.roots"))
	assert.Equal(t, time.Minute, store2.GetDuration("index.poll_interval"))
	assert.Equal(t, 384, store2.GetInt("embedding.dimensions"))
	assert.Equal(t, 64, store2.GetInt("search.cache_size"))
	assert.False(t, store2.GetBool("telemetry.stdout"))
}

func TestConfigStore_Set_DoesNotPersist(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("index.roots", []string{"/conf"}))
	assert.NoFileExists(t, store.Path())
}

func TestConfigStore_Save_WriteFileError(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	// A directory where the file should be makes the write fail.
	require.NoError(t, os.Mkdir(store.Path(), 0700))
	require.NoError(t, store.Set("test", "value"))

	assert.Error(t, store.Save())
}

func TestConfigStore_Save_Unmarshallable(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("channel", make(chan int)))
	assert.Error(t, store.Save())
}

func TestConfigStore_Load_ReplacesState(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("unsaved", "value"))
	require.NoError(t, store.Load())

	_, ok := store.Get("unsaved")
	assert.False(t, ok)
}

func TestConfigStore_Load_InvalidTOML(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(store.Path(), []byte("invalid toml syntax ][}{"), 0600))
	assert.Error(t, store.Load())
}

func TestConfigStore_Load_CommentOnly(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte("# Just a comment\n\n"), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	_, ok := store.Get("any_key")
	assert.False(t, ok)
}

func TestFlattenMap(t *testing.T) {
	nested := map[string]any{
		"index": map[string]any{
			"roots": []any{"/a"},
			"deep":  map[string]any{"x": int64(1)},
		},
		"top": "v",
	}

	assert.Equal(t, map[string]any{
		"index.roots":  []any{"/a"},
		"index.deep.x": int64(1),
		"top":          "v",
	}, flattenMap(nested, ""))
}

func TestUnflattenMap(t *testing.T) {
	flat := map[string]any{
		"index.roots":  []string{"/a"},
		"index.deep.x": 1,
		"top":          "v",
	}

	assert.Equal(t, map[string]any{
		"index": map[string]any{
			"roots": []string{"/a"},
			"deep":  map[string]any{"x": 1},
		},
		"top": "v",
	}, unflattenMap(flat))

	// A scalar colliding with a table prefix leaves a single entry.
	collide := unflattenMap(map[string]any{"a": 1, "a.b": 2})
	assert.Len(t, collide, 1)
}
