package shared

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// DefaultKeypairPath returns the solana CLI default keypair location.
func DefaultKeypairPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "solana", "id.json")
	}
	return filepath.Join(home, ".config", "solana", "id.json")
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed != "~" && !strings.HasPrefix(trimmed, "~/") {
		return trimmed, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(trimmed, "~")), nil
}

// LoadKeypair reads a solana-keygen JSON keypair file.
func LoadKeypair(path string) (solana.PrivateKey, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultKeypairPath()
	}

	expanded, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}

	key, err := solana.PrivateKeyFromSolanaKeygenFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to load keypair %s: %w", expanded, err)
	}
	return key, nil
}

// WriteKeypair stores a keypair in the solana-keygen JSON array format.
func WriteKeypair(path string, key solana.PrivateKey) error {
	if err := key.Validate(); err != nil {
		return fmt.Errorf("invalid keypair: %w", err)
	}

	expanded, err := ExpandHome(path)
	if err != nil {
		return err
	}

	values := make([]int, len(key))
	for index, value := range key {
		values[index] = int(value)
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode keypair: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(expanded), 0o700); err != nil {
		return fmt.Errorf("failed to create keypair directory: %w", err)
	}
	if err := os.WriteFile(expanded, payload, 0o600); err != nil {
		return fmt.Errorf("failed to write keypair: %w", err)
	}
	return nil
}

// NewKeypair creates a new Keypair.
func NewKeypair() (solana.PrivateKey, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}
	return key, nil
}

// ParsePrivateKey parses the provided input value.
func ParsePrivateKey(raw string) (solana.PrivateKey, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return nil, fmt.Errorf("private key cannot be empty")
	}

	if strings.HasPrefix(candidate, "[") {
		key, err := solana.PrivateKeyFromSolanaKeygenFileBytes([]byte(candidate))
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key JSON array: %w", err)
		}
		return key, nil
	}

	key, err := solana.PrivateKeyFromBase58(candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key as base58: %w", err)
	}
	return key, nil
}
