package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// File keeps every key in one JSON object on disk and rewrites the whole
// object on each Set.
type File struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// OpenFile reads path if it exists. A file that does not decode is moved
// aside to path+".corrupt" and the store starts empty.
func OpenFile(path string, logger *zap.Logger) (*File, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	s := &File{path: path, data: map[string]string{}}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&s.data); err != nil {
		aside := path + ".corrupt"
		logger.Warn("store file is not valid JSON, starting empty",
			zap.String("path", path), zap.String("moved_to", aside), zap.Error(err))
		f.Close()
		if err := os.Rename(path, aside); err != nil {
			return nil, fmt.Errorf("move corrupt store aside: %w", err)
		}
		s.data = map[string]string{}
	}
	if s.data == nil {
		s.data = map[string]string{}
	}
	return s, nil
}

func (s *File) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set writes to a temp file and renames it over the store so a failed write
// never truncates the previous contents.
func (s *File) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data[key]
	s.data[key] = value
	if err := s.flush(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

func (s *File) flush() error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *File) Close() error { return nil }
