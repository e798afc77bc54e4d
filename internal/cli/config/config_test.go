package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultModelsDir, cfg.ModelsDir)
	assert.Equal(t, DefaultConnection, cfg.Connection)
	assert.True(t, cfg.FailFast)
	assert.False(t, cfg.Verbose)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cadac.yaml")
	content := `models_dir: warehouse/models
connection: postgres://localhost:5432/analytics
fail_fast: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "warehouse/models", cfg.ModelsDir)
	assert.Equal(t, "postgres://localhost:5432/analytics", cfg.Connection)
	assert.False(t, cfg.FailFast)
	assert.Equal(t, path, GetConfigFileUsed())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cadac.yaml")
	require.NoError(t, os.WriteFile(path, []byte("models_dir: from_file\n"), 0o644))

	t.Setenv("CADAC_MODELS_DIR", "from_env")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.ModelsDir)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("CADAC_CONNECTION", "duckdb://env.db")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("conn", "", "")
	flags.String("models-dir", "", "")
	require.NoError(t, flags.Set("conn", "duckdb://flag.db"))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	// --conn maps onto the connection config key.
	assert.Equal(t, "duckdb://flag.db", cfg.Connection)
	// Unchanged flags do not override env or defaults.
	assert.Equal(t, DefaultModelsDir, cfg.ModelsDir)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cadac.yaml")
	require.NoError(t, os.WriteFile(path, []byte("models_dir: [unclosed"), 0o644))

	_, err := Load(path, nil)
	assert.Error(t, err)
}

func TestFromContext_Fallback(t *testing.T) {
	cfg := FromContext(t.Context())
	assert.Equal(t, DefaultModelsDir, cfg.ModelsDir)
	assert.True(t, cfg.FailFast)
}
