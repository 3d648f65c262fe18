package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/changshize/fiction-tiktok/internal/domain"
)

// Store persists generated artifacts on the local filesystem under
// {base}/{category}/{name}. Writes go to a temp file in the target
// directory and are renamed into place, so readers never observe a
// partially written artifact.
type Store struct {
	base string
}

// NewStore creates a store rooted at base and ensures the category
// directories exist.
func NewStore(base string) (*Store, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve base dir: %w", err)
	}
	for _, c := range []domain.Capability{domain.CapabilityIllustration, domain.CapabilityAudio, domain.CapabilityVideo} {
		dir := filepath.Join(abs, c.ArtifactCategory())
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create %s dir: %w", c.ArtifactCategory(), err)
		}
	}
	return &Store{base: abs}, nil
}

// ArtifactName builds the canonical artifact file name:
// {capability}_{jobID}_{8 hex chars}{ext}. The random suffix keeps
// regenerated artifacts from colliding with orphans of earlier attempts.
func ArtifactName(capability domain.Capability, jobID uuid.UUID) string {
	suffix := make([]byte, 4)
	rand.Read(suffix)
	return fmt.Sprintf("%s_%s_%s%s", capability, jobID, hex.EncodeToString(suffix), capability.FileExtension())
}

// Save writes data into the capability's category directory and returns the
// path relative to the store base. The relative path is what gets persisted
// on the job record.
func (s *Store) Save(capability domain.Capability, name string, data []byte) (string, int64, error) {
	category := capability.ArtifactCategory()
	if category == "" {
		return "", 0, fmt.Errorf("storage: unknown capability %q", capability)
	}
	if name == "" || name != filepath.Base(name) {
		return "", 0, fmt.Errorf("storage: invalid artifact name %q", name)
	}

	dir := filepath.Join(s.base, category)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", 0, fmt.Errorf("storage: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", 0, fmt.Errorf("storage: write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", 0, fmt.Errorf("storage: close artifact: %w", err)
	}

	final := filepath.Join(dir, name)
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return "", 0, fmt.Errorf("storage: finalize artifact: %w", err)
	}

	return filepath.Join(category, name), int64(len(data)), nil
}

// Remove deletes a stored artifact by its relative path. Missing files are
// not an error; delete must be idempotent.
func (s *Store) Remove(relPath string) error {
	if relPath == "" {
		return nil
	}
	clean := filepath.Clean(relPath)
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return fmt.Errorf("storage: path %q escapes base dir", relPath)
	}
	err := os.Remove(filepath.Join(s.base, clean))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove artifact: %w", err)
	}
	return nil
}

// AbsPath resolves a stored relative path against the base directory.
func (s *Store) AbsPath(relPath string) string {
	return filepath.Join(s.base, filepath.Clean(relPath))
}
