package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
)

// lockRetryDelay is how often a busy catalog lock is retried
const lockRetryDelay = 50 * time.Millisecond

// Store persists a Catalog as a single JSON file.
//
// Each Load and Save holds a lock on "<path>.lock" for its own duration, so
// readers never see a partially written file. A caller doing Load, mutate,
// Save while another process does the same can still lose an update; the
// last Save wins.
type Store struct {
	path   string
	logger *logrus.Logger
}

// NewStore creates a store for the catalog file at path, creating its
// directory if needed
func NewStore(path string, logger *logrus.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("catalog path must not be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}
	return &Store{path: path, logger: logger}, nil
}

// Path returns the catalog file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the whole catalog. A missing file is an empty catalog.
func (s *Store) Load(ctx context.Context) (Catalog, error) {
	fileLock := flock.New(s.path + ".lock")
	locked, err := fileLock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire read lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("could not acquire read lock on catalog file")
	}
	defer func() {
		if err := fileLock.Unlock(); err != nil {
			s.logger.WithError(err).Warn("Failed to release catalog read lock")
		}
	}()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.WithField("path", s.path).Debug("Catalog file not found, starting empty")
		return Catalog{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	catalog := Catalog{}
	if len(data) == 0 {
		return catalog, nil
	}
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", s.path, err)
	}
	for code, subject := range catalog {
		subject.Code = code
		catalog[code] = subject
	}

	s.logger.WithFields(logrus.Fields{
		"path":     s.path,
		"subjects": len(catalog),
	}).Debug("Catalog loaded")

	return catalog, nil
}

// Save overwrites the catalog file with the given catalog
func (s *Store) Save(ctx context.Context, catalog Catalog) error {
	fileLock := flock.New(s.path + ".lock")
	locked, err := fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire write lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("could not acquire write lock on catalog file")
	}
	defer func() {
		if err := fileLock.Unlock(); err != nil {
			s.logger.WithError(err).Warn("Failed to release catalog write lock")
		}
	}()

	if catalog == nil {
		catalog = Catalog{}
	}
	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	// Write to a temporary file first so the rename replaces the catalog in one step
	tempFile := s.path + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		_ = file.Close()
		if _, err := os.Stat(tempFile); err == nil {
			if err := os.Remove(tempFile); err != nil {
				s.logger.WithError(err).Warn("Failed to remove temporary catalog file")
			}
		}
	}()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Rename(tempFile, s.path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"path":     s.path,
		"subjects": len(catalog),
	}).Debug("Catalog saved")

	return nil
}
