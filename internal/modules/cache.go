package modules

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	depsDir         = "deps"
	genDir          = "gen"
	compiledExt     = ".starc"
	sidecarExt      = ".meta.toml"
	historyFileName = "repl_history"
	appDirName      = "ember"
)

// Cache is the on-disk layout under the cache root: remote sources live in deps/, compiled
// programs and their sidecars in gen/.
type Cache struct {
	root string
}

// NewCache returns a cache rooted at root. An empty root selects the user cache directory.
func NewCache(root string) *Cache {
	if root == "" {
		root = DefaultCacheDir()
	}
	return &Cache{root: root}
}

// DefaultCacheDir returns the default cache root.
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, appDirName)
	}
	return filepath.Join(os.TempDir(), appDirName)
}

// Root returns the cache root directory.
func (c *Cache) Root() string {
	return c.root
}

// SourcePath returns where the source of a remote module is stored.
func (c *Cache) SourcePath(u *url.URL) string {
	p := strings.TrimPrefix(u.Path, "/")
	if u.RawQuery != "" {
		p += "_" + hashString(u.RawQuery)[:12]
	}
	host := strings.ReplaceAll(u.Host, ":", "_")
	return filepath.Join(c.root, depsDir, u.Scheme, host, filepath.FromSlash(p))
}

// CompiledPath returns where the compiled program for key is stored.
func (c *Cache) CompiledPath(key string) string {
	return filepath.Join(c.root, genDir, key+compiledExt)
}

// SidecarPath returns where the metadata of the compiled program for key is stored.
func (c *Cache) SidecarPath(key string) string {
	return filepath.Join(c.root, genDir, key+sidecarExt)
}

// HistoryPath returns the REPL history file.
func (c *Cache) HistoryPath() string {
	return filepath.Join(c.root, historyFileName)
}

// Sidecar describes a compiled program written to gen/.
type Sidecar struct {
	Specifier  string    `toml:"specifier"`
	SourceHash string    `toml:"source_hash"`
	CompiledAt time.Time `toml:"compiled_at"`
	Imports    []string  `toml:"imports"`
}

// WriteSidecar stores the sidecar for key.
func (c *Cache) WriteSidecar(key string, s Sidecar) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode sidecar: %w", err)
	}
	return writeFile(c.SidecarPath(key), data)
}

// ReadSidecar loads the sidecar for key.
func (c *Cache) ReadSidecar(key string) (Sidecar, error) {
	var s Sidecar
	data, err := os.ReadFile(c.SidecarPath(key))
	if err != nil {
		return s, err
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to decode sidecar: %w", err)
	}
	return s, nil
}

// compileKey identifies a compiled program by its source and the settings that affect
// compilation.
func compileKey(specifier string, source []byte, salt string) string {
	h := sha256.New()
	h.Write([]byte(specifier))
	h.Write([]byte{0})
	h.Write(source)
	h.Write([]byte{0})
	h.Write([]byte(salt))
	return hex.EncodeToString(h.Sum(nil))
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
