package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var ErrBadRunID = errors.New("bad run id")

// ============================================================
// File Storage
// ============================================================

// FileStorage keeps the uploaded source document of every run under
// <root>/<run id>/.
type FileStorage struct {
	root string
}

func NewFileStorage(root string) *FileStorage {
	return &FileStorage{root: root}
}

// id прогона попадает в путь, поэтому только [A-Za-z0-9-]
var runIDRe = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

func (s *FileStorage) RunDir(runID string) string {
	return filepath.Join(s.root, runID)
}

// SourcePath is the archived document of a run. format is used as the
// file extension.
func (s *FileStorage) SourcePath(runID, format string) string {
	return filepath.Join(s.RunDir(runID), "source."+format)
}

func (s *FileStorage) EnsureDir(runID string) error {
	if !runIDRe.MatchString(runID) {
		return fmt.Errorf("%w: %q", ErrBadRunID, runID)
	}
	if err := os.MkdirAll(s.RunDir(runID), 0o755); err != nil {
		return fmt.Errorf("mkdir run dir: %w", err)
	}
	return nil
}

// SaveSource сохраняет исходный документ прогона
func (s *FileStorage) SaveSource(runID, format string, data []byte) (string, error) {
	if err := s.EnsureDir(runID); err != nil {
		return "", err
	}
	target := s.SourcePath(runID, format)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write source: %w", err)
	}
	return target, nil
}

func (s *FileStorage) ReadSource(runID, format string) ([]byte, error) {
	if !runIDRe.MatchString(runID) {
		return nil, fmt.Errorf("%w: %q", ErrBadRunID, runID)
	}
	return os.ReadFile(s.SourcePath(runID, format))
}

// RemoveRun удаляет каталог прогона
func (s *FileStorage) RemoveRun(runID string) error {
	if !runIDRe.MatchString(runID) {
		return fmt.Errorf("%w: %q", ErrBadRunID, runID)
	}
	return os.RemoveAll(s.RunDir(runID))
}
