// Package pkg provides reusable utilities for zkmutant.
package pkg

import (
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// Spool is a disk-backed, append-only sequence of records of type T. The
// run workflow spools classified mutants through it so large runs keep
// bounded memory between the execution and reporting stages.
type Spool[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	AppendAll(items []T) error
	At(index uint64) (T, error)
	Each(fn func(index uint64, item T) error) error
	Close() error
}

type spool[T any] struct {
	path    string
	file    *os.File
	encoder *gob.Encoder
	mu      sync.Mutex
	length  uint64
}

// NewSpool creates a Spool backed by a gob-encoded temp file named after
// pattern. The file is removed on Close.
func NewSpool[T any](pattern string) (Spool[T], error) {
	file, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create spool file: %w", err)
	}

	slog.Debug("created spool", "path", file.Name())

	return &spool[T]{
		path:    file.Name(),
		file:    file,
		encoder: gob.NewEncoder(file),
	}, nil
}

// Append encodes one record at the end of the spool.
func (s *spool[T]) Append(item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.encoder.Encode(item); err != nil {
		return fmt.Errorf("failed to encode record %d: %w", s.length, err)
	}

	s.length++

	return nil
}

// AppendAll encodes every record in order.
func (s *spool[T]) AppendAll(items []T) error {
	for _, item := range items {
		if err := s.Append(item); err != nil {
			return err
		}
	}

	return nil
}

// At decodes the record at index. Gob streams carry their type info up
// front, so reads always decode from the start of the file.
func (s *spool[T]) At(index uint64) (T, error) {
	var item T

	s.mu.Lock()
	defer s.mu.Unlock()

	if index >= s.length {
		return item, fmt.Errorf("index %d out of bounds (length %d)", index, s.length)
	}

	decoder, closeFile, err := s.openDecoder()
	if err != nil {
		return item, err
	}

	defer closeFile()

	for i := uint64(0); i <= index; i++ {
		if err := decoder.Decode(&item); err != nil {
			return item, fmt.Errorf("failed to decode record %d: %w", i, err)
		}
	}

	return item, nil
}

// Each decodes every record in append order and passes it to fn. A non-nil
// error from fn stops the walk and is returned as-is.
func (s *spool[T]) Each(fn func(index uint64, item T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	decoder, closeFile, err := s.openDecoder()
	if err != nil {
		return err
	}

	defer closeFile()

	var item T

	for i := uint64(0); i < s.length; i++ {
		if err := decoder.Decode(&item); err != nil {
			return fmt.Errorf("failed to decode record %d: %w", i, err)
		}

		if err := fn(i, item); err != nil {
			return err
		}
	}

	return nil
}

// Len returns the number of records appended so far.
func (s *spool[T]) Len() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.length
}

// Path returns the backing file's path.
func (s *spool[T]) Path() string {
	return s.path
}

// Close closes and removes the backing file. Safe to call more than once.
func (s *spool[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}

	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close spool file: %w", err)
	}

	s.file = nil

	if err := os.Remove(s.path); err != nil {
		return fmt.Errorf("failed to remove spool file: %w", err)
	}

	slog.Debug("closed spool", "path", s.path, "length", s.length)

	return nil
}

// openDecoder opens a fresh read handle; the caller holds the lock.
func (s *spool[T]) openDecoder() (*gob.Decoder, func(), error) {
	file, err := os.Open(s.path) // #nosec G304 - path comes from os.CreateTemp
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open spool file: %w", err)
	}

	closeFile := func() {
		if err := file.Close(); err != nil {
			slog.Warn("failed to close spool read handle", "path", s.path, "error", err)
		}
	}

	return gob.NewDecoder(file), closeFile, nil
}
