// Package id generates identifiers for records that are not keyed by the
// relational store: sessions, token ids and saved searches.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes used by the server.
const (
	PrefixSession = "session"
	PrefixToken   = "token"
)

// Generate creates a prefixed NanoID, e.g. "session-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// NewSearchID returns a random UUID string for a saved search snapshot.
func NewSearchID() string {
	return uuid.NewString()
}

// IsSearchID reports whether s is a well-formed saved search id.
func IsSearchID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
