// Package senders resolves the local signing keys commands are sent from.
package senders

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/usecase"
)

// KeyEnvPrefix prefixes the environment variables named keys are read from,
// e.g. URBANDAO_KEY_ADMIN for "admin".
const KeyEnvPrefix = "URBANDAO_KEY_"

// KeyStore resolves key names against the environment. The .env files are
// loaded into the environment by the config provider before this runs.
type KeyStore struct {
	lookup func(string) (string, bool)
}

// NewKeyStore creates a key store over the process environment
func NewKeyStore() *KeyStore {
	return &KeyStore{lookup: os.LookupEnv}
}

// Key resolves name, trying in order: a raw hex private key, the variable
// URBANDAO_KEY_<NAME>, and a variable called name itself.
func (k *KeyStore) Key(name string) (*ecdsa.PrivateKey, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty key name", domain.ErrInvalidInput)
	}
	if isHexKey(name) {
		return parsePrivateKey(name)
	}

	for _, env := range envNames(name) {
		if v, ok := k.lookup(env); ok && v != "" {
			key, err := parsePrivateKey(v)
			if err != nil {
				return nil, fmt.Errorf("key %s (from %s): %w", name, env, err)
			}
			return key, nil
		}
	}
	return nil, fmt.Errorf("%w: key %q (set %s or pass a hex private key)", domain.ErrNotFound, name, envNames(name)[0])
}

func envNames(name string) []string {
	upper := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(name))
	return []string{KeyEnvPrefix + upper, name}
}

func isHexKey(s string) bool {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// parsePrivateKey parses a hex private key with or without 0x
func parsePrivateKey(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	privateKeyBytes, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode private key: %v", domain.ErrInvalidInput, err)
	}
	privateKey, err := crypto.ToECDSA(privateKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create private key: %v", domain.ErrInvalidInput, err)
	}
	return privateKey, nil
}

// Ensure KeyStore implements KeyStore
var _ usecase.KeyStore = (*KeyStore)(nil)
