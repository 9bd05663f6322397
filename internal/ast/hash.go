package ast

import (
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSchema = "typemeld/schema/v1"
	DomainOutput = "typemeld/output/v1"
)

// hashWithDomain computes BLAKE3-256 with domain separation.
// Format: BLAKE3(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := blake3.New(32, nil)
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest computes the content address of a schema. Two schemas with the same
// declarations in the same order have the same digest regardless of source
// positions, file names or whitespace.
func Digest(s *Schema) (string, error) {
	canonical, err := Canonical(s)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	return hashWithDomain(DomainSchema, canonical), nil
}

// ContentDigest computes the content address of generated output.
func ContentDigest(content []byte) string {
	return hashWithDomain(DomainOutput, content)
}

// MustDigest is like Digest but panics on error.
// Use only in tests or when the schema is known to be serializable.
func MustDigest(s *Schema) string {
	d, err := Digest(s)
	if err != nil {
		panic(err)
	}
	return d
}
