// Package store persists rendered analyses on disk, content-addressed by the
// inputs that produced them. The analysis pipeline itself never caches; the
// store is driven only by the CLI, so repeated invocations on unchanged
// source can skip re-rendering.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound reports a key with no stored artifact.
var ErrNotFound = errors.New("artifact not found")

// Artifact is one persisted analysis result.
type Artifact struct {
	Function   string   `msgpack:"function"`
	Language   string   `msgpack:"language"`
	Format     string   `msgpack:"format"`
	Lines      []string `msgpack:"lines"`
	Warnings   []string `msgpack:"warnings"`
	Complexity int      `msgpack:"complexity"`
	CreatedAt  int64    `msgpack:"created_at"`
}

// Key derives the content address for one analysis: identical language,
// source, and function always map to the same key.
func Key(language string, source []byte, function string) string {
	h := sha256.New()
	h.Write([]byte(language))
	h.Write([]byte{0})
	h.Write(source)
	h.Write([]byte{0})
	h.Write([]byte(function))
	return hex.EncodeToString(h.Sum(nil))
}

// Store is a directory of msgpack-encoded artifacts, one file per key.
type Store struct {
	dir string
}

// Open prepares the store directory.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".msgpack")
}

// Save writes the artifact atomically: encode to a temp file, then rename.
func (s *Store) Save(key string, a *Artifact) error {
	if a.CreatedAt == 0 {
		a.CreatedAt = time.Now().Unix()
	}
	data, err := msgpack.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "artifact-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to place artifact: %w", err)
	}
	return nil
}

// Load reads the artifact for a key, or ErrNotFound.
func (s *Store) Load(key string) (*Artifact, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	var a Artifact
	if err := msgpack.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", key, err)
	}
	return &a, nil
}

// Has reports whether a key is stored without decoding it.
func (s *Store) Has(key string) bool {
	_, err := os.Stat(s.path(key))
	return err == nil
}

// Keys lists every stored key, unordered.
func (s *Store) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list store: %w", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".msgpack") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".msgpack"))
	}
	return keys, nil
}
