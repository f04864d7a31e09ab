// Package backup exports the dump table to a blob store and restores it.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"go.uber.org/zap"

	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
)

const (
	timestampLayout = "2006-01-02_150405"
	contentType     = "application/json"
)

// Service snapshots dumps. A nil blob store turns Backup into a no-op.
type Service struct {
	store  crawler.DumpStore
	blobs  crawler.BlobStore
	clock  crawler.Clock
	prefix string
	logger *zap.Logger
}

// New constructs a Service.
func New(store crawler.DumpStore, blobs crawler.BlobStore, clock crawler.Clock, prefix string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, blobs: blobs, clock: clock, prefix: prefix, logger: logger.Named("backup")}
}

// Backup writes every dump to <prefix>/<timestamp>.json and returns the URI.
func (s *Service) Backup(ctx context.Context) (string, error) {
	if s.blobs == nil {
		return "", nil
	}
	var buf bytes.Buffer
	n, err := s.Export(ctx, &buf)
	if err != nil {
		return "", err
	}
	name := path.Join(s.prefix, s.clock.Now().UTC().Format(timestampLayout)+".json")
	uri, err := s.blobs.PutObject(ctx, name, contentType, &buf)
	if err != nil {
		return "", fmt.Errorf("upload backup: %w", err)
	}
	s.logger.Info("dumps backed up", zap.String("uri", uri), zap.Int("dumps", n))
	return uri, nil
}

// Export writes every dump as an indented JSON array and returns the count.
func (s *Service) Export(ctx context.Context, w io.Writer) (int, error) {
	dumps, err := s.store.Dumps(ctx)
	if err != nil {
		return 0, fmt.Errorf("list dumps: %w", err)
	}
	if dumps == nil {
		dumps = []crawler.Dump{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(dumps); err != nil {
		return 0, fmt.Errorf("encode dumps: %w", err)
	}
	return len(dumps), nil
}

// Restore reads a JSON array of dumps and adds the ones not yet stored.
// It returns the number of dumps added.
func (s *Service) Restore(ctx context.Context, r io.Reader) (int, error) {
	var dumps []crawler.Dump
	if err := json.NewDecoder(r).Decode(&dumps); err != nil {
		return 0, fmt.Errorf("decode dumps: %w", err)
	}
	added := 0
	for _, d := range dumps {
		if d.Site == "" || d.Title == "" {
			s.logger.Warn("skipping incomplete dump", zap.String("site", d.Site), zap.String("name", d.Title))
			continue
		}
		exists, err := s.store.DumpExists(ctx, d.Site, d.Title)
		if err != nil {
			return added, fmt.Errorf("check dump: %w", err)
		}
		if exists {
			continue
		}
		d.Genres = crawler.CleanGenres(d.Genres)
		if err := s.store.AddDump(ctx, d); err != nil {
			return added, fmt.Errorf("add dump: %w", err)
		}
		added++
	}
	s.logger.Info("dumps restored", zap.Int("read", len(dumps)), zap.Int("added", added))
	return added, nil
}

// RestoreObject restores from a blob written by Backup.
func (s *Service) RestoreObject(ctx context.Context, name string) (int, error) {
	if s.blobs == nil {
		return 0, fmt.Errorf("no backup store configured")
	}
	rc, err := s.blobs.GetObject(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("open backup: %w", err)
	}
	defer rc.Close()
	return s.Restore(ctx, rc)
}
