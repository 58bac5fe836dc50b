package shared

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/subosito/gotenv"
)

type Config struct {
	Network           string
	APIKey            string
	RPCURL            string
	CompressionRPCURL string
	WebsocketURL      string
	KeypairPath       string
	LogLevel          string
}

var dotenvLoadOnce sync.Once

// ConfigFromEnv performs the requested operation.
func ConfigFromEnv() (Config, error) {
	return ConfigFromEnvWithDefault(NetworkDevnet)
}

// ConfigFromEnvWithDefault reads the configuration from the environment,
// falling back to defaultNetwork when NETWORK is unset.
func ConfigFromEnvWithDefault(defaultNetwork string) (Config, error) {
	loadDotEnvIfPresent()

	network := firstNonEmptyEnv("NETWORK", "SOLANA_NETWORK")
	if network == "" {
		network = defaultNetwork
	}

	return NewConfig(Config{
		Network:           network,
		APIKey:            firstNonEmptyEnv("API_KEY", "HELIUS_API_KEY", "api_key"),
		RPCURL:            firstNonEmptyEnv("RPC_URL", "SOLANA_RPC_URL"),
		CompressionRPCURL: firstNonEmptyEnv("COMPRESSION_RPC_URL", "PHOTON_URL"),
		WebsocketURL:      firstNonEmptyEnv("WS_URL", "SOLANA_WS_URL"),
		KeypairPath:       firstNonEmptyEnv("KEYPAIR_PATH", "SOLANA_KEYPAIR"),
		LogLevel:          firstNonEmptyEnv("LOG_LEVEL"),
	})
}

// NewConfig normalizes the network and fills in every endpoint, keypair path
// and log level left empty.
func NewConfig(config Config) (Config, error) {
	network, err := NormalizeNetwork(config.Network)
	if err != nil {
		return Config{}, err
	}
	config.Network = network
	config.APIKey = strings.TrimSpace(config.APIKey)

	if err := config.resolveEndpoints(); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(config.KeypairPath) == "" {
		config.KeypairPath = DefaultKeypairPath()
	}
	if strings.TrimSpace(config.LogLevel) == "" {
		config.LogLevel = "info"
	}

	return config, nil
}

func (c *Config) resolveEndpoints() error {
	if c.RPCURL == "" {
		rpcURL, err := RPCEndpoint(c.Network, c.APIKey)
		if err != nil {
			return err
		}
		c.RPCURL = rpcURL
	}

	if c.CompressionRPCURL == "" {
		c.CompressionRPCURL = c.RPCURL
		if c.RPCURL == LocalnetRPCURL {
			c.CompressionRPCURL = LocalnetCompressionURL
		}
	}

	if c.WebsocketURL == "" {
		wsURL, err := WebsocketEndpoint(c.RPCURL)
		if err != nil {
			return fmt.Errorf("failed to derive websocket URL: %w", err)
		}
		c.WebsocketURL = wsURL
	}

	return nil
}

// LoadDotEnv loads the nearest .env file into the process environment. It
// runs at most once per process.
func LoadDotEnv() {
	loadDotEnvIfPresent()
}

func loadDotEnvIfPresent() {
	dotenvLoadOnce.Do(func() {
		startPaths := make([]string, 0, 2)

		if cwd, err := os.Getwd(); err == nil {
			startPaths = append(startPaths, cwd)
		}
		if _, currentFile, _, ok := runtime.Caller(0); ok {
			startPaths = append(startPaths, filepath.Dir(currentFile))
		}

		seenCandidates := make(map[string]struct{})
		for _, start := range startPaths {
			current := start
			for {
				candidate := filepath.Join(current, ".env")
				if _, exists := seenCandidates[candidate]; !exists {
					seenCandidates[candidate] = struct{}{}
					if _, statErr := os.Stat(candidate); statErr == nil {
						_ = gotenv.Load(candidate)
						return
					}
				}

				parent := filepath.Dir(current)
				if parent == current {
					break
				}
				current = parent
			}
		}
	})
}

func firstNonEmptyEnv(keys ...string) string {
	for _, key := range keys {
		value := strings.TrimSpace(os.Getenv(key))
		if value != "" {
			return value
		}
	}
	return ""
}
