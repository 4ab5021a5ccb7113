package ast

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix leaves room for
// changing the algorithm later.
const (
	DomainTree   = "transpiler/ast/v1"
	DomainOutput = "transpiler/output/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator keeps domain and data boundaries unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content hash of a tree.
// Trees that differ only in map iteration order hash identically.
func Hash(tree any) (string, error) {
	canonical, err := MarshalCanonical(tree)
	if err != nil {
		return "", fmt.Errorf("hash tree: %w", err)
	}
	return hashWithDomain(DomainTree, canonical), nil
}

// OutputHash returns the content hash of rendered text.
func OutputHash(output string) string {
	return hashWithDomain(DomainOutput, []byte(output))
}

// MustHash is like Hash but panics on error.
// Use only in tests or when the tree is known to be canonical.
func MustHash(tree any) string {
	h, err := Hash(tree)
	if err != nil {
		panic(err)
	}
	return h
}
