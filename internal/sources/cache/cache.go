// Package cache keeps a local JSON copy of the registry plugin list so
// repeated runs within the freshness window skip the download.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pluginsync/pluginsync/pkg/constants"
	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/plugins"
)

// DefaultPath is the cache file used when none is configured.
const DefaultPath = "plugins.json"

// File is a JSON array of plugins on disk.
type File struct {
	Path string
	TTL  time.Duration
	now  func() time.Time
}

// Option configures a File.
type Option func(*File)

// WithTTL sets the freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(f *File) {
		f.TTL = ttl
	}
}

// WithClock overrides the time source used for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(f *File) {
		f.now = now
	}
}

// New creates a cache file handle. An empty path uses DefaultPath.
func New(path string, opts ...Option) *File {
	if path == "" {
		path = DefaultPath
	}
	f := &File{Path: path, TTL: constants.CacheTTL, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Load reads the cached plugins. A missing file yields a nil list and no error.
func (f *File) Load() ([]plugins.Plugin, error) {
	data, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WrapIO("read", f.Path, err)
	}
	var list []plugins.Plugin
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, errors.WrapParse("json", f.Path, err)
	}
	return list, nil
}

// Fresh reports whether cached can be reused instead of refetching. The cache
// is stale when older than the TTL, empty, or shorter than the upstream
// count. An upstream count below zero means unknown and is ignored.
func (f *File) Fresh(cached []plugins.Plugin, upstreamCount int) bool {
	if len(cached) == 0 {
		return false
	}
	if upstreamCount >= 0 && len(cached) < upstreamCount {
		return false
	}
	info, err := os.Stat(f.Path)
	if err != nil {
		return false
	}
	return f.now().Sub(info.ModTime()) < f.TTL
}

// Save writes list atomically via a temp file and rename.
func (f *File) Save(list []plugins.Plugin) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return errors.WrapParse("json", f.Path, err)
	}

	tempFile, err := os.CreateTemp(dir, "plugins_*.json")
	if err != nil {
		return errors.WrapIO("create", "temp file", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return errors.WrapIO("write", f.Path, err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("write", f.Path, err)
	}
	if err := os.Chmod(tempPath, constants.FilePermissions); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("chmod", f.Path, err)
	}

	// Atomically move temp file to final location
	if err := os.Rename(tempPath, f.Path); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("move", f.Path, err)
	}
	return nil
}

// Remove deletes the cache file if present.
func (f *File) Remove() error {
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return errors.WrapIO("delete", f.Path, err)
	}
	return nil
}
