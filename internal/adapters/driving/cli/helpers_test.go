package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const ordersAPI = `<api name="orders" context="/orders">
    <resource methods="GET" uri-template="/{id}">
        <inSequence>
            <log level="full"/>
            <call>
                <endpoint key="OrderBackend"/>
            </call>
            <respond/>
        </inSequence>
    </resource>
</api>
`

// testEnv is a config directory pointing at a temp root and sqlite store
// with the offline hashing embedder.
type testEnv struct {
	configDir string
	root      string
	dataDir   string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		configDir: t.TempDir(),
		root:      t.TempDir(),
		dataDir:   t.TempDir(),
	}

	config := fmt.Sprintf(`[index]
roots = [%q]
poll_interval = "1h"

[store]
driver = "sqlite"
path = %q

[embedding]
provider = "hashing"
model = "hashing-v1"
dimensions = 64
`, env.root, env.dataDir)
	require.NoError(t, os.WriteFile(filepath.Join(env.configDir, "config.toml"), []byte(config), 0600))

	old := configDir
	configDir = env.configDir
	t.Cleanup(func() { configDir = old })
	return env
}

func (e *testEnv) writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.root, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}
