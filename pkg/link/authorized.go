package link

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// AuthorizedStore remembers ports the user has granted access to.
// List returns them in insertion order.
type AuthorizedStore interface {
	List() []string
	Authorize(port string) error
}

// MemoryStore is an in-memory AuthorizedStore.
type MemoryStore struct {
	mu    sync.Mutex
	ports []string
}

// NewMemoryStore creates a store pre-populated with ports.
func NewMemoryStore(ports ...string) *MemoryStore {
	s := &MemoryStore{}
	for _, p := range ports {
		_ = s.Authorize(p)
	}
	return s
}

// List returns a copy of the authorized ports.
func (s *MemoryStore) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ports)
}

// Authorize appends port unless already present.
func (s *MemoryStore) Authorize(port string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if port != "" && !slices.Contains(s.ports, port) {
		s.ports = append(s.ports, port)
	}
	return nil
}

// authorizedFile is the on-disk layout of a FileStore.
type authorizedFile struct {
	Ports []string `yaml:"ports"`
}

// FileStore persists authorized ports as YAML.
type FileStore struct {
	mu   sync.Mutex
	path string
	mem  *MemoryStore
}

// NewFileStore loads path if it exists. A missing file is an empty store.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, mem: NewMemoryStore()}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read authorized ports: %w", err)
	}

	var f authorizedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse authorized ports: %w", err)
	}
	for _, p := range f.Ports {
		_ = s.mem.Authorize(p)
	}
	return s, nil
}

// List returns the authorized ports.
func (s *FileStore) List() []string {
	return s.mem.List()
}

// Authorize records port and rewrites the file when it is new.
func (s *FileStore) Authorize(port string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.mem.List())
	_ = s.mem.Authorize(port)
	ports := s.mem.List()
	if len(ports) == before {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	data, err := yaml.Marshal(authorizedFile{Ports: ports})
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

var (
	_ AuthorizedStore = (*MemoryStore)(nil)
	_ AuthorizedStore = (*FileStore)(nil)
)
