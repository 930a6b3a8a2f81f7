package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer derives cache keys from lookup inputs such as endpoint params.
//
// Contract:
// - Determinism: equal inputs produce equal keys, whatever the map
// iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key returns the key for input within namespace.
	Key(namespace string, input any) (string, error)
}

// DefaultKeyer hashes the JSON encoding of the input.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a DefaultKeyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key returns "<namespace>:<hash>", where hash is the first 16 hex
// characters of SHA-256 over the JSON encoding of input. encoding/json
// writes map keys in sorted order.
func (k *DefaultKeyer) Key(namespace string, input any) (string, error) {
	b, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("cache: encode key input: %w", err)
	}
	sum := sha256.Sum256(b)
	return namespace + ":" + hex.EncodeToString(sum[:8]), nil
}

var _ Keyer = (*DefaultKeyer)(nil)
