package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/c360/semledger/errors"
	"github.com/c360/semledger/writer"
)

var _ writer.Sink = (*File)(nil)

// FileConfig holds configuration for the JSON Lines file sink.
type FileConfig struct {
	Path   string `json:"path"   yaml:"path"`
	Append bool   `json:"append" yaml:"append"`
}

// DefaultFileConfig returns default configuration for the file sink.
func DefaultFileConfig() FileConfig {
	return FileConfig{Append: true}
}

// Validate checks the configuration for errors.
func (c *FileConfig) Validate() error {
	if c.Path == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "FileConfig", "Validate", "path is required")
	}
	return nil
}

// fileEntity is the persisted line shape. One file may carry multiple
// entity types, so each line names its own.
type fileEntity struct {
	EntityType string         `json:"entity_type"`
	Entity     map[string]any `json:"entity"`
}

// File appends entities to a local file as JSON Lines.
type File struct {
	path   string
	logger *slog.Logger

	fileMu sync.Mutex
	file   *os.File

	written int64
	errors  int64
}

// NewFile opens the output file and returns a sink writing to it. The
// parent directory is created if missing.
func NewFile(config FileConfig, logger *slog.Logger) (*File, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, errors.WrapFatal(err, "File", "NewFile", "create output directory")
	}

	flags := os.O_CREATE | os.O_WRONLY
	if config.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(config.Path, flags, 0644)
	if err != nil {
		return nil, errors.WrapFatal(err, "File", "NewFile", "open output file")
	}

	return &File{
		path:   config.Path,
		logger: logger,
		file:   file,
	}, nil
}

// Name identifies the sink in writer logs and metrics.
func (f *File) Name() string { return "file" }

// SaveEntity appends one entity as a JSON line. The returned id is the
// file path with the one-based line ordinal.
func (f *File) SaveEntity(_ context.Context, entityType string, data map[string]any) (string, error) {
	line, err := json.Marshal(fileEntity{EntityType: entityType, Entity: data})
	if err != nil {
		return "", errors.WrapInvalid(err, "File", "SaveEntity", "marshal entity")
	}

	f.fileMu.Lock()
	defer f.fileMu.Unlock()

	if f.file == nil {
		return "", errors.WrapInvalid(errors.ErrAlreadyStopped, "File", "SaveEntity", "sink closed")
	}

	if _, err := f.file.Write(append(line, '\n')); err != nil {
		f.errors++
		return "", errors.WrapTransient(err, "File", "SaveEntity", "write entity line")
	}

	f.written++
	return fmt.Sprintf("%s:%d", f.path, f.written), nil
}

// Written returns the number of lines written so far.
func (f *File) Written() int64 {
	f.fileMu.Lock()
	defer f.fileMu.Unlock()
	return f.written
}

// Close closes the underlying file. Saves after Close fail.
func (f *File) Close() error {
	f.fileMu.Lock()
	defer f.fileMu.Unlock()

	if f.file == nil {
		return nil
	}

	err := f.file.Close()
	f.file = nil
	if err != nil {
		f.logger.Warn("Failed to close sink file", "path", f.path, "error", err)
		return errors.WrapTransient(err, "File", "Close", "close output file")
	}

	f.logger.Debug("Closed file sink", "path", f.path, "written", f.written, "errors", f.errors)
	return nil
}
