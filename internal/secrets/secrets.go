// Package secrets keeps credentials such as the bot token encrypted at rest
// with age.
package secrets

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"filippo.io/age"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by Get for unknown keys.
var ErrNotFound = errors.New("secret not found")

// Manager handles secret encryption and storage
type Manager struct {
	dir         string
	keyFile     string
	secretsFile string
}

// NewManager creates a new secrets manager rooted at dir
func NewManager(dir string) *Manager {
	return &Manager{
		dir:         dir,
		keyFile:     filepath.Join(dir, "keys.txt"),
		secretsFile: filepath.Join(dir, "secrets.age"),
	}
}

// Initialized reports whether a keypair exists.
func (m *Manager) Initialized() bool {
	_, err := os.Stat(m.keyFile)
	return err == nil
}

// Init generates a new age identity and returns its public key
func (m *Manager) Init() (string, error) {
	if m.Initialized() {
		return "", fmt.Errorf("keys already exist at %s", m.keyFile)
	}
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create secrets dir: %w", err)
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return "", fmt.Errorf("failed to generate identity: %w", err)
	}

	f, err := os.OpenFile(m.keyFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create key file: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "# Public key: %s\n%s\n", identity.Recipient(), identity); err != nil {
		return "", fmt.Errorf("failed to write key file: %w", err)
	}

	return identity.Recipient().String(), nil
}

func (m *Manager) identity() (*age.X25519Identity, error) {
	f, err := os.Open(m.keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load keys (did you run 'secrets init'?): %w", err)
	}
	defer f.Close()

	identities, err := age.ParseIdentities(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse keys: %w", err)
	}
	for _, id := range identities {
		if x, ok := id.(*age.X25519Identity); ok {
			return x, nil
		}
	}
	return nil, fmt.Errorf("no X25519 identity in %s", m.keyFile)
}

// Get returns the decrypted value for key
func (m *Manager) Get(key string) (string, error) {
	all, err := m.loadAll()
	if err != nil {
		return "", err
	}
	v, ok := all[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return v, nil
}

// Set stores value under key, replacing any previous value
func (m *Manager) Set(key, value string) error {
	all, err := m.loadAll()
	if err != nil {
		return err
	}
	all[key] = value
	return m.saveAll(all)
}

// Delete removes key
func (m *Manager) Delete(key string) error {
	all, err := m.loadAll()
	if err != nil {
		return err
	}
	delete(all, key)
	return m.saveAll(all)
}

// List returns the stored key names, sorted
func (m *Manager) List() ([]string, error) {
	all, err := m.loadAll()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Manager) loadAll() (map[string]string, error) {
	identity, err := m.identity()
	if err != nil {
		return nil, err
	}

	ciphertext, err := os.ReadFile(m.secretsFile)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt secrets: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt secrets: %w", err)
	}

	all := map[string]string{}
	if err := yaml.Unmarshal(plaintext, &all); err != nil {
		return nil, fmt.Errorf("failed to parse secrets: %w", err)
	}
	return all, nil
}

func (m *Manager) saveAll(all map[string]string) error {
	identity, err := m.identity()
	if err != nil {
		return err
	}

	plaintext, err := yaml.Marshal(all)
	if err != nil {
		return fmt.Errorf("failed to marshal secrets: %w", err)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, identity.Recipient())
	if err != nil {
		return fmt.Errorf("failed to encrypt secrets: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return fmt.Errorf("failed to encrypt secrets: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to encrypt secrets: %w", err)
	}

	tmp := m.secretsFile + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write secrets: %w", err)
	}
	return os.Rename(tmp, m.secretsFile)
}
