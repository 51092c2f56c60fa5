package cache

import (
	"crypto/sha256"
	"encoding/hex"

	json "github.com/goccy/go-json"
)

// digestKey builds "kind:<sha256>" over the JSON encoding of parts. Artifact
// keys hash the study document hash together with the render options, so
// two requests for the same picture share one entry.
func digestKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return kind + ":" + hex.EncodeToString(sum[:])
}

// Hash returns the hex SHA-256 of a study document. It identifies the
// document content in artifact keys and in registry reloads.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
