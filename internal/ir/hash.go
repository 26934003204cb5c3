package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for structural identity.
// Version suffix enables future algorithm migration.
const (
	DomainExpr = "replica/expr/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalKey renders a structural description as canonical JSON.
// Equal descriptions always produce the same key, so keys can be compared
// directly for deduplication.
func CanonicalKey(obj IRObject) (string, error) {
	data, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("CanonicalKey: failed to marshal: %w", err)
	}
	return string(data), nil
}

// ExprHash hashes an expression key. Compiled query plans are cached under
// this hash.
func ExprHash(key string) string {
	return hashWithDomain(DomainExpr, []byte(key))
}
