package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

type fileEntry struct {
	ExpiresAt time.Time `json:"expires_at"`
	Value     []byte    `json:"value"`
}

// File keeps one JSON file per key under a directory.
type File struct {
	dir string
	now func() time.Time
}

// NewFile creates the directory if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &File{dir: dir, now: time.Now}, nil
}

// fileName maps a key to a file name. Keys use ':' as a separator.
func fileName(key string) string {
	return strings.ReplaceAll(key, ":", "_") + ".json"
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, fileName(key))
}

func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var e fileEntry
	if err := sonic.Unmarshal(data, &e); err != nil {
		// Corrupt entries read as misses and get overwritten.
		return nil, false, nil
	}
	if !e.ExpiresAt.IsZero() && f.now().After(e.ExpiresAt) {
		return nil, false, nil
	}
	return e.Value, true, nil
}

func (f *File) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := fileEntry{Value: value}
	if ttl > 0 {
		e.ExpiresAt = f.now().Add(ttl)
	}
	data, err := sonic.Marshal(e)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path(key), data, 0600)
}

func (f *File) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (f *File) DeletePrefix(_ context.Context, prefix string) error {
	matches, err := filepath.Glob(filepath.Join(f.dir, strings.ReplaceAll(prefix, ":", "_")+"*.json"))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (f *File) Close() error { return nil }
