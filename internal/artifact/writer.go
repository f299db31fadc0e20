// Package artifact persists the tracked packages index as YAML.
package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cdnsync/internal/models"

	"gopkg.in/yaml.v3"
)

var ErrWrite = errors.New("artifact write failed")

const BackupSuffix = ".bak"

// Writer overwrites the artifact at path, keeping one previous generation in path.bak.
type Writer struct {
	path string
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) BackupPath() string {
	return w.path + BackupSuffix
}

// Marshal renders index with sorted keys and without line wrapping. The
// output only depends on the index, so equal indexes give identical bytes.
func Marshal(index models.TrackedPackagesIndex) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(index); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

/**
 * Persist index to the artifact path
 * @param {models.TrackedPackagesIndex} index - Index rebuilt by the current run
 * @returns {error} ErrWrite wrapped with the cause; nothing on disk changes if marshalling fails
 * @description
 * - The current artifact, if any, is copied to path.bak before being overwritten
 * - With no current artifact a stale path.bak is removed, so .bak always holds
 *   what the primary contained right before this call
 * - The primary is overwritten in place, not renamed over
 */
func (w *Writer) Persist(index models.TrackedPackagesIndex) error {
	data, err := Marshal(index)
	if err != nil {
		return fmt.Errorf("%w: marshal: %w", ErrWrite, err)
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("%w: MkdirAll('%s'): %w", ErrWrite, filepath.Dir(w.path), err)
	}
	if err := w.backup(); err != nil {
		return fmt.Errorf("%w: backup: %w", ErrWrite, err)
	}
	if err := os.WriteFile(w.path, data, 0644); err != nil {
		return fmt.Errorf("%w: write '%s': %w", ErrWrite, w.path, err)
	}
	return nil
}

func (w *Writer) backup() error {
	src, err := os.Open(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.Remove(w.BackupPath()); err != nil && !os.IsNotExist(err) {
				return err
			}
			return nil
		}
		return err
	}
	defer src.Close()

	dst, err := os.Create(w.BackupPath())
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// Read loads a persisted index.
func Read(path string) (models.TrackedPackagesIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	index := models.TrackedPackagesIndex{}
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse '%s': %w", path, err)
	}
	return index, nil
}
