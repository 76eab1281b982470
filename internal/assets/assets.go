// Package assets resolves game files from loose data directories and GRF
// archives, caching what it reads.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/pkg/encoding"
	"github.com/Faultbox/meshforge/pkg/grf"
)

// ErrNotFound is returned when no source holds the requested file.
var ErrNotFound = errors.New("asset not found")

// source is one place files can come from.
type source interface {
	ReadFile(path string) ([]byte, error)
	Close() error
	String() string
}

type dirSource struct {
	root string
}

func (d dirSource) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(d.root, filepath.FromSlash(path)))
}

func (d dirSource) Close() error   { return nil }
func (d dirSource) String() string { return d.root }

type archiveSource struct {
	*grf.Archive
	path string
}

func (a archiveSource) String() string { return a.path }

// Manager handles asset loading. Sources added later take priority.
type Manager struct {
	sources []source
	cache   *Cache
	log     *zap.Logger
	mu      sync.RWMutex
}

// NewManager creates an empty asset manager.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(),
		log:   logger.Named("assets"),
	}
}

// AddDir adds a directory holding extracted game files. Paths are resolved
// relative to it as stored, then in normalized form.
func (m *Manager) AddDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding data dir: %s is not a directory", dir)
	}
	m.add(dirSource{root: dir})
	return nil
}

// AddArchive opens a GRF archive and adds it.
func (m *Manager) AddArchive(path string) error {
	archive, err := grf.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", path, err)
	}
	m.log.Debug("archive opened", zap.String("path", path), zap.Int("files", archive.Len()))
	m.add(archiveSource{Archive: archive, path: path})
	return nil
}

func (m *Manager) add(s source) {
	m.mu.Lock()
	m.sources = append(m.sources, s)
	m.mu.Unlock()
}

// Load returns the contents of path from the highest priority source
// holding it.
func (m *Manager) Load(path string) ([]byte, error) {
	key := encoding.NormalizePath(path)
	if data, ok := m.cache.Get(key); ok {
		return data, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.sources) - 1; i >= 0; i-- {
		s := m.sources[i]
		data, err := s.ReadFile(path)
		if err != nil && key != path {
			data, err = s.ReadFile(key)
		}
		if err == nil {
			m.cache.Set(key, data)
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, grf.ErrNotFound) {
			m.log.Warn("asset read failed", zap.String("path", path), zap.Stringer("source", s), zap.Error(err))
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
}

// Close closes all archives and drops the cache.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, s := range m.sources {
		errs = append(errs, s.Close())
	}
	m.sources = nil
	m.cache.Clear()
	return errors.Join(errs...)
}

// Stats returns cache hits and misses.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{data: make(map[string][]byte)}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}
