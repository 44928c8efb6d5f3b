package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of an asset file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// formatOf maps a file extension to its format.
func formatOf(path string) (Format, bool) {
	switch filepath.Ext(path) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	default:
		return "", false
	}
}

func (f Format) marshal(v any) ([]byte, error) {
	if f == FormatYAML {
		return yaml.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}

func (f Format) unmarshal(b []byte, v any) error {
	if f == FormatYAML {
		return yaml.Unmarshal(b, v)
	}
	return json.Unmarshal(b, v)
}

type Storer[T ValidatingSpec] interface {
	Save(string, T) error
	Get(string) T
	GetAll() map[string]T
}

// FileStore keeps every asset under a directory in memory. JSON and YAML
// files are both loaded; saves use the store's format.
type FileStore[T ValidatingSpec] struct {
	path    string
	format  Format
	records map[string]T

	mu sync.RWMutex
}

// FileStoreOpt configures a FileStore.
type FileStoreOpt func(*FileStoreConfig)

// FileStoreConfig holds FileStore options.
type FileStoreConfig struct {
	Format Format
}

// WithFormat sets the format saves are written in.
func WithFormat(f Format) FileStoreOpt {
	return func(c *FileStoreConfig) {
		if f != "" {
			c.Format = f
		}
	}
}

func NewFileStore[T ValidatingSpec](path string, opts ...FileStoreOpt) (*FileStore[T], error) {
	cfg := FileStoreConfig{Format: FormatJSON}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Format != FormatJSON && cfg.Format != FormatYAML {
		return nil, fmt.Errorf("unknown storage format %q", cfg.Format)
	}

	s := &FileStore[T]{
		path:    path,
		format:  cfg.Format,
		records: map[string]T{},
	}

	err := s.load()
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *FileStore[T]) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = map[string]T{}

	return filepath.Walk(s.path, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		format, ok := formatOf(path)
		if !ok {
			return nil
		}

		asset, err := s.loadAsset(path, format)
		if err != nil {
			return fmt.Errorf("loading %s: %w", filepath.Base(path), err)
		}

		err = asset.Validate()
		if err != nil {
			return fmt.Errorf("validating %s: %w", filepath.Base(path), err)
		}

		id := asset.Id().String()
		if _, ok := s.records[id]; ok {
			return fmt.Errorf("duplicate key detected: %s", id)
		}

		s.records[id] = asset.Spec
		return nil
	})
}

func (s *FileStore[T]) Save(id string, o T) error {
	asset := &Asset[T]{
		Version:    1,
		Identifier: Identifier(id),
		Spec:       o,
	}
	if err := asset.Validate(); err != nil {
		return fmt.Errorf("validating %s: %w", id, err)
	}

	data, err := s.format.marshal(asset)
	if err != nil {
		return fmt.Errorf("marshalling %s: %w", s.format, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[id] = o
	return atomicWrite(s.filePath(id), data, 0644)
}

// atomicWrite writes data to a temp file then renames it to the target path.
// This prevents partial or empty files if the process is interrupted.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		if removeErr := os.Remove(tmp); removeErr != nil {
			slog.Warn("failed to remove temp file after rename failure", "path", tmp, "error", removeErr)
		}
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Get returns the record with id, or the zero T.
func (s *FileStore[T]) Get(id string) T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[id]
}

func (s *FileStore[T]) GetAll() map[string]T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vals := make(map[string]T, len(s.records))
	for id, v := range s.records {
		vals[id] = v
	}

	return vals
}

func (s *FileStore[T]) filePath(id string) string {
	return filepath.Join(s.path, fmt.Sprintf("%s.%s", id, s.format))
}

func (s *FileStore[T]) loadAsset(path string, format Format) (*Asset[T], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	asset := &Asset[T]{}
	err = format.unmarshal(data, asset)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling asset: %w", err)
	}

	return asset, nil
}
