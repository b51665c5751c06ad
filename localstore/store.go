// ABOUTME: Namespaced local key-value store for client-side state
// ABOUTME: JSON get/set/remove over a pluggable Backend (Badger on disk, in memory, or Charm KV)
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by a Backend when a key is absent.
var ErrNotFound = errors.New("key not found")

// Backend is a raw byte key-value store.
type Backend interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Close() error
}

// Store prefixes every key with a namespace and stores values as JSON.
type Store struct {
	backend   Backend
	namespace string
}

// New wraps backend under namespace.
func New(backend Backend, namespace string) *Store {
	return &Store{backend: backend, namespace: namespace}
}

func (s *Store) key(k string) []byte {
	if s.namespace == "" {
		return []byte(k)
	}
	return []byte(s.namespace + ":" + k)
}

// GetJSON decodes the value at key into v. A missing key reports found=false
// without an error.
func (s *Store) GetJSON(key string, v any) (bool, error) {
	data, err := s.backend.Get(s.key(key))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it at key.
func (s *Store) SetJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.backend.Set(s.key(key), data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *Store) Remove(key string) error {
	err := s.backend.Delete(s.key(key))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
