// Package testutils holds helpers shared by the package tests.
package testutils

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/txrtlemrry/PaperFinder-App/internal/catalog"
)

// CreateTestLogger creates a logger suitable for testing
func CreateTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel) // Reduce noise in tests
	return logger
}

// FixedClock returns a clock that always reports the given time
func FixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

// NewCatalogStore creates a catalog store in a temporary directory seeded
// with the given subjects
func NewCatalogStore(t *testing.T, subjects ...catalog.Subject) *catalog.Store {
	t.Helper()

	store, err := catalog.NewStore(filepath.Join(t.TempDir(), "subjects.json"), CreateTestLogger())
	if err != nil {
		t.Fatalf("Failed to create catalog store: %v", err)
	}
	if len(subjects) == 0 {
		return store
	}

	c := catalog.Catalog{}
	for _, s := range subjects {
		c.Put(s)
	}
	if err := store.Save(context.Background(), c); err != nil {
		t.Fatalf("Failed to seed catalog: %v", err)
	}
	return store
}

// MustSubject builds a subject or fails the test
func MustSubject(t *testing.T, code, name, papersString string) catalog.Subject {
	t.Helper()
	s, err := catalog.NewSubject(code, name, papersString)
	if err != nil {
		t.Fatalf("Invalid test subject %s: %v", code, err)
	}
	return s
}

// WriteFile writes content to dir/name and returns the full path
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}
