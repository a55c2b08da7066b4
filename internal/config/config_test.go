package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every bound variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, b := range envBindings {
		for _, name := range b.names {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Server.CallTimeout)
	assert.Equal(t, 30*time.Second, cfg.RPC.Timeout)
	assert.Equal(t, "https://ipfs.io", cfg.IPFS.GatewayURL)
	assert.Equal(t, int64(16<<20), cfg.IPFS.MaxBytes)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Encoding)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Zero(t, cfg.Chain.ChainID)
}

func TestLoad_EnvAliases(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALCHEMY_URL", "https://eth-sepolia.example/v2/key")
	t.Setenv("MONGO_URI", "memory://")
	t.Setenv("PORT", "3000")
	t.Setenv("CALL_TIMEOUT", "5s")
	t.Setenv("CHAIN_ID", "11155111")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load("", "")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://eth-sepolia.example/v2/key", cfg.RPC.URL)
	assert.Equal(t, "memory://", cfg.Store.URI)
	assert.Equal(t, ":3000", cfg.Server.Addr())
	assert.Equal(t, 5*time.Second, cfg.Server.CallTimeout)
	assert.Equal(t, int64(11155111), cfg.Chain.ChainID)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_PrimaryNameWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("RPC_URL", "http://primary:8545")
	t.Setenv("ALCHEMY_URL", "http://alias:8545")

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "http://primary:8545", cfg.RPC.URL)
}

func TestLoad_FilePrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "gateway.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
rpc:
  url: http://from-yaml:8545
store:
  uri: memory://
server:
  port: "8080"
log:
  level: debug
`), 0o600))

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("PORT=9090\nTOKEN_CONTRACT_ADDRESS=0xdAC17F958D2ee523a2206206994597C13D831ec7\n"), 0o600))

	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(yamlPath, envPath)
	require.NoError(t, err)

	assert.Equal(t, "http://from-yaml:8545", cfg.RPC.URL)
	assert.Equal(t, "9090", cfg.Server.Port, "dotenv overrides the config file")
	assert.Equal(t, "0xdAC17F958D2ee523a2206206994597C13D831ec7", cfg.Chain.TokenContract)
	assert.Equal(t, "warn", cfg.Log.Level, "environment overrides both files")
}

func TestLoad_MissingDotenvIsIgnored(t *testing.T) {
	clearEnv(t)

	_, err := Load("", filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
}

func TestLoad_MissingConfigFileFails(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "")
	require.Error(t, err)
}

func TestValidate_ListsEveryMissingKey(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", "")
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RPC_URL")
	assert.Contains(t, err.Error(), "STORE_URI")
	assert.Contains(t, err.Error(), "PORT")
}

func TestValidate_BadPort(t *testing.T) {
	cfg := Config{
		Server: ServerConfig{Port: "http", CallTimeout: time.Second},
		RPC:    RPCConfig{URL: "http://localhost:8545", Timeout: time.Second},
		Store:  StoreConfig{URI: "memory://"},
		IPFS:   IPFSConfig{MaxBytes: 1},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid port")
}
