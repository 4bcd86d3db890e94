// Package envstore persists the named deployment environments. This is part
// of the Imperative Shell - it owns the ndeploy home directory on disk.
package envstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nexxera/ndeploy/internal/core/domain"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrEnvironmentNotFound is returned when no environment has the
	// requested name.
	ErrEnvironmentNotFound = errors.New("environment not found")

	// ErrEnvironmentExists is returned when adding an environment whose
	// name is already taken.
	ErrEnvironmentExists = errors.New("environment already exists")
)

// =============================================================================
// Store
// =============================================================================

// Store manages the environments document and the per-environment key
// material under a single base directory (conventionally ~/.ndeploy).
//
// Layout:
//
//	<dir>/environments.json
//	<dir>/.ssh/id_rsa_<env>      private key, never serialized elsewhere
//	<dir>/.ssh/id_rsa_<env>.pub  public key, authorized_keys format
type Store struct {
	dir          string
	environments []domain.Environment
}

// New opens the store at dir, creating the directory layout and loading any
// persisted environments.
func New(dir string) (*Store, error) {
	s := &Store{dir: dir}
	if err := os.MkdirAll(s.keyDir(), 0o700); err != nil {
		return nil, fmt.Errorf("create store directories: %w", err)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the store base directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) environmentsFile() string {
	return filepath.Join(s.dir, "environments.json")
}

func (s *Store) keyDir() string {
	return filepath.Join(s.dir, ".ssh")
}

// Add persists a new environment and generates its RSA key pair.
func (s *Store) Add(env domain.Environment) error {
	if _, err := s.Get(env.Name); err == nil {
		return fmt.Errorf("%w: %s", ErrEnvironmentExists, env.Name)
	}
	if err := generateKeyPair(s.privateKeyPath(env.Name)); err != nil {
		return fmt.Errorf("generate key pair for %s: %w", env.Name, err)
	}
	s.environments = append(s.environments, env)
	return s.save()
}

// Update replaces the stored environment with the same name.
func (s *Store) Update(env domain.Environment) error {
	for i, existing := range s.environments {
		if existing.Name == env.Name {
			s.environments[i] = env
			return s.save()
		}
	}
	return fmt.Errorf("%w: %s", ErrEnvironmentNotFound, env.Name)
}

// Remove deletes the environment by name. Removing an absent environment is
// not an error.
func (s *Store) Remove(name string) error {
	kept := s.environments[:0]
	for _, env := range s.environments {
		if env.Name != name {
			kept = append(kept, env)
		}
	}
	s.environments = kept
	return s.save()
}

// Get returns the environment by name.
func (s *Store) Get(name string) (domain.Environment, error) {
	for _, env := range s.environments {
		if env.Name == name {
			return env, nil
		}
	}
	return domain.Environment{}, fmt.Errorf("%w: %s", ErrEnvironmentNotFound, name)
}

// List returns all environments in storage order.
func (s *Store) List() []domain.Environment {
	out := make([]domain.Environment, len(s.environments))
	copy(out, s.environments)
	return out
}

// PublicKey returns the environment public key in authorized_keys format.
func (s *Store) PublicKey(name string) (string, error) {
	if _, err := s.Get(name); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.publicKeyPath(name))
	if err != nil {
		return "", fmt.Errorf("read public key for %s: %w", name, err)
	}
	return string(data), nil
}

func (s *Store) privateKeyPath(name string) string {
	return filepath.Join(s.keyDir(), "id_rsa_"+name)
}

func (s *Store) publicKeyPath(name string) string {
	return s.privateKeyPath(name) + ".pub"
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.environmentsFile())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read environments file: %w", err)
	}
	if err := json.Unmarshal(data, &s.environments); err != nil {
		return fmt.Errorf("parse environments file: %w", err)
	}
	return nil
}

func (s *Store) save() error {
	envs := s.environments
	if envs == nil {
		envs = []domain.Environment{}
	}
	data, err := json.MarshalIndent(envs, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize environments: %w", err)
	}
	if err := os.WriteFile(s.environmentsFile(), data, 0o600); err != nil {
		return fmt.Errorf("write environments file: %w", err)
	}
	return nil
}
