// Package config loads the gateway configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// PathEnv names the environment variable holding an optional YAML config file.
const PathEnv = "GATEWAY_CONFIG"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	RPC     RPCConfig     `mapstructure:"rpc"`
	Store   StoreConfig   `mapstructure:"store"`
	Chain   ChainConfig   `mapstructure:"chain"`
	IPFS    IPFSConfig    `mapstructure:"ipfs"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port        string        `mapstructure:"port"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// Addr returns the listen address for Port.
func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

type RPCConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type StoreConfig struct {
	URI string `mapstructure:"uri"`
}

type ChainConfig struct {
	TokenContract string `mapstructure:"token_contract"`
	PrivateKey    string `mapstructure:"private_key"`
	ChainID       int64  `mapstructure:"chain_id"` // 0 queries eth_chainId
}

type IPFSConfig struct {
	APIURL     string `mapstructure:"api_url"`
	GatewayURL string `mapstructure:"gateway_url"`
	MaxBytes   int64  `mapstructure:"max_bytes"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// envBindings maps config keys to environment names, first match wins.
var envBindings = []struct {
	key   string
	names []string
}{
	{"rpc.url", []string{"RPC_URL", "ALCHEMY_URL"}},
	{"rpc.timeout", []string{"RPC_TIMEOUT"}},
	{"store.uri", []string{"STORE_URI", "MONGO_URI"}},
	{"server.port", []string{"PORT"}},
	{"server.call_timeout", []string{"CALL_TIMEOUT"}},
	{"chain.token_contract", []string{"TOKEN_CONTRACT_ADDRESS"}},
	{"chain.private_key", []string{"PRIVATE_KEY"}},
	{"chain.chain_id", []string{"CHAIN_ID"}},
	{"ipfs.api_url", []string{"IPFS_API_URL"}},
	{"ipfs.gateway_url", []string{"IPFS_GATEWAY_URL"}},
	{"ipfs.max_bytes", []string{"IPFS_MAX_BYTES"}},
	{"log.level", []string{"LOG_LEVEL"}},
	{"log.encoding", []string{"LOG_ENCODING"}},
	{"metrics.enabled", []string{"METRICS_ENABLED"}},
}

// Load reads defaults, then the YAML file at path, then the dotenv file at
// dotenvPath, then the process environment. Empty or missing files are skipped.
func Load(path, dotenvPath string) (Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("rpc.url", "")
	v.SetDefault("rpc.timeout", "30s")
	v.SetDefault("store.uri", "")
	v.SetDefault("server.port", "")
	v.SetDefault("server.call_timeout", "30s")
	v.SetDefault("chain.token_contract", "")
	v.SetDefault("chain.private_key", "")
	v.SetDefault("chain.chain_id", 0)
	v.SetDefault("ipfs.api_url", "")
	v.SetDefault("ipfs.gateway_url", "https://ipfs.io")
	v.SetDefault("ipfs.max_bytes", 16<<20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.development", false)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("metrics.enabled", true)

	for _, b := range envBindings {
		args := append([]string{b.key}, b.names...)
		if err := v.BindEnv(args...); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", b.key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if dotenvPath != "" {
		values, err := readDotenv(dotenvPath)
		if err != nil {
			return Config{}, err
		}
		if err := v.MergeConfigMap(values); err != nil {
			return Config{}, fmt.Errorf("merge %s: %w", dotenvPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.trim()
	return cfg, nil
}

// readDotenv maps the known variables of a dotenv file onto config keys.
// A missing file yields no values.
func readDotenv(path string) (map[string]any, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	d := viper.New()
	d.SetConfigFile(path)
	d.SetConfigType("env")
	if err := d.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read dotenv %s: %w", path, err)
	}

	values := make(map[string]any)
	for _, b := range envBindings {
		for _, name := range b.names {
			key := strings.ToLower(name)
			if d.IsSet(key) && d.GetString(key) != "" {
				setNested(values, b.key, d.GetString(key))
				break
			}
		}
	}
	return values, nil
}

func setNested(m map[string]any, key string, value any) {
	section, field, _ := strings.Cut(key, ".")
	sub, ok := m[section].(map[string]any)
	if !ok {
		sub = make(map[string]any)
		m[section] = sub
	}
	sub[field] = value
}

func (c *Config) trim() {
	c.RPC.URL = strings.TrimSpace(c.RPC.URL)
	c.Store.URI = strings.TrimSpace(c.Store.URI)
	c.Server.Port = strings.TrimSpace(c.Server.Port)
	c.Chain.TokenContract = strings.TrimSpace(c.Chain.TokenContract)
	c.Chain.PrivateKey = strings.TrimSpace(c.Chain.PrivateKey)
}

// Validate reports every missing or malformed mandatory setting at once.
func (c Config) Validate() error {
	var problems []string
	if c.RPC.URL == "" {
		problems = append(problems, "rpc.url (RPC_URL or ALCHEMY_URL) is required")
	}
	if c.Store.URI == "" {
		problems = append(problems, "store.uri (STORE_URI or MONGO_URI) is required")
	}
	if c.Server.Port == "" {
		problems = append(problems, "server.port (PORT) is required")
	} else if p, err := strconv.Atoi(c.Server.Port); err != nil || p <= 0 || p > 65535 {
		problems = append(problems, fmt.Sprintf("server.port (PORT) %q is not a valid port", c.Server.Port))
	}
	if c.Server.CallTimeout <= 0 {
		problems = append(problems, "server.call_timeout (CALL_TIMEOUT) must be positive")
	}
	if c.RPC.Timeout <= 0 {
		problems = append(problems, "rpc.timeout (RPC_TIMEOUT) must be positive")
	}
	if c.IPFS.MaxBytes <= 0 {
		problems = append(problems, "ipfs.max_bytes (IPFS_MAX_BYTES) must be positive")
	}
	if c.Chain.ChainID < 0 {
		problems = append(problems, "chain.chain_id (CHAIN_ID) must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
