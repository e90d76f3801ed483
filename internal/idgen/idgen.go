// Package idgen generates short, URL-safe ids for connections and stream
// subscribers, backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet is the character set of the random part.
const Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Length is the number of random characters after the kind prefix.
const Length = 8

// Generate returns an id of the form "<kind>-<random>", e.g. "ws-k3x9a0qz".
func Generate(kind string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	if kind == "" {
		return id, nil
	}
	return kind + "-" + id, nil
}

// For is Generate for log correlation, where a failure is not worth
// surfacing: it falls back to the bare kind.
func For(kind string) string {
	id, err := Generate(kind)
	if err != nil {
		return kind
	}
	return id
}
