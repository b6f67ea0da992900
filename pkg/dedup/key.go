package dedup

import (
	"crypto/md5" //nolint:gosec // key fingerprint, not a security boundary
	"encoding/json"
	"fmt"
)

// KeyGenerator derives deduplication keys from an operation name and its
// parameters. Generate is a pure function: no state, no I/O.
type KeyGenerator struct {
	prefix string
}

// NewKeyGenerator creates a KeyGenerator that namespaces keys with prefix.
func NewKeyGenerator(prefix string) *KeyGenerator {
	return &KeyGenerator{prefix: prefix}
}

// Generate returns "{prefix}:{operation}:{hash}" where the hash covers the
// operation and a canonical serialization of params. encoding/json emits map
// keys in sorted order, so insertion order never affects the key. Params that
// cannot be serialized degrade to an empty serialization rather than failing.
func (g *KeyGenerator) Generate(operation string, params map[string]any) string {
	payload, err := json.Marshal(params)
	if err != nil {
		payload = nil
	}

	sum := md5.Sum(append([]byte(operation+":"), payload...)) //nolint:gosec

	return fmt.Sprintf("%s:%s:%x", g.prefix, operation, sum)
}
