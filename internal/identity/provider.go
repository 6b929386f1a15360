// Package identity issues the anonymous, persistent user identifier that
// scopes a pantry collection, and tracks the sign-in state of a session.
package identity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// FileName is the identity file inside the config directory.
const FileName = "identity.yaml"

// Identity errors.
var (
	ErrNotReady        = errors.New("identity is not ready")
	ErrCorruptIdentity = errors.New("identity file is corrupt")
)

// Provider signs a user in and returns their identifier.
type Provider interface {
	SignIn(ctx context.Context) (string, error)
}

// identityFile is the structure stored in identity.yaml.
type identityFile struct {
	UserID    string    `yaml:"user_id"`
	CreatedAt time.Time `yaml:"created_at"`
}

// FileProvider keeps an anonymous UUID in a YAML file. The first SignIn
// creates it; later calls return the same ID.
type FileProvider struct {
	path  string
	now   func() time.Time
	newID func() (uuid.UUID, error)
}

// NewFileProvider returns a provider storing its identity in configDir.
func NewFileProvider(configDir string) *FileProvider {
	return &FileProvider{
		path:  filepath.Join(configDir, FileName),
		now:   time.Now,
		newID: uuid.NewV7,
	}
}

// Path returns the identity file location.
func (p *FileProvider) Path() string { return p.path }

// SignIn implements Provider.
func (p *FileProvider) SignIn(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id, err := p.load()
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	u, err := p.newID()
	if err != nil {
		return "", fmt.Errorf("generating user ID: %w", err)
	}
	rec := identityFile{UserID: u.String(), CreatedAt: p.now().UTC().Truncate(time.Second)}
	if err := p.save(rec); err != nil {
		return "", err
	}
	return rec.UserID, nil
}

func (p *FileProvider) load() (string, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return "", err
	}
	var rec identityFile
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptIdentity, err)
	}
	if _, err := uuid.Parse(rec.UserID); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptIdentity, err)
	}
	return rec.UserID, nil
}

func (p *FileProvider) save(rec identityFile) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	if err := os.WriteFile(p.path, data, 0o600); err != nil {
		return fmt.Errorf("write identity: %w", err)
	}
	return nil
}
