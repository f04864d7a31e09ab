// Package artifact keeps the normalizer's JSON tables on disk and copies the
// previous version of a table to a backup blob store before overwriting it.
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
	"github.com/JakeFAU/game-genres-crawler/internal/hash/sha256"
)

const backupLayout = "2006-01-02_150405"

// Store reads and writes named JSON artifacts under a directory.
type Store struct {
	dir     string
	backups crawler.BlobStore
	clock   crawler.Clock
	logger  *zap.Logger
	hasher  *sha256.Hasher
}

// New creates the directory if needed. backups may be nil to disable copies.
func New(dir string, backups crawler.BlobStore, clock crawler.Clock, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("artifact directory is required")
	}
	if clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		dir:     dir,
		backups: backups,
		clock:   clock,
		logger:  logger.Named("artifact"),
		hasher:  sha256.New(),
	}, nil
}

// Path returns the file backing name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Load decodes the artifact into v. It reports false when the file does not exist.
func (s *Store) Load(name string, v any) (bool, error) {
	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

// Save overwrites the artifact with v. Identical content is left untouched and
// reported as unchanged.
func (s *Store) Save(ctx context.Context, name string, v any) (bool, error) {
	data, err := Encode(v)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", name, err)
	}
	path := s.Path(name)
	previous, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		previous = nil
	case err != nil:
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if s.hasher.Same(previous, data) {
		return false, nil
	}
	if len(previous) > 0 && s.backups != nil {
		backupName := fmt.Sprintf("%s_%s", s.clock.Now().Format(backupLayout), name)
		uri, err := s.backups.PutObject(ctx, backupName, "application/json", bytes.NewReader(previous))
		if err != nil {
			return false, fmt.Errorf("backup %s: %w", name, err)
		}
		s.logger.Debug("artifact backed up", zap.String("name", name), zap.String("uri", uri))
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return false, fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return false, fmt.Errorf("replace %s: %w", name, err)
	}
	s.logger.Info("artifact saved",
		zap.String("name", name),
		zap.Int("bytes", len(data)),
		zap.String("sha256", s.hasher.Sum(data)),
	)
	return true, nil
}

// Encode renders v as indented JSON without HTML escaping.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
