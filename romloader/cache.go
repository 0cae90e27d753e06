package romloader

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
)

// DefaultCacheSize is the number of decoded images kept by a Cache.
const DefaultCacheSize = 4

// Cache keeps recently loaded images so a reset or reload skips archive
// extraction. An entry is keyed by path, size and modification time, so a
// rewritten file is read again.
type Cache struct {
	fs     afero.Fs
	images *lru.Cache[string, ROM]
}

// NewCache creates a Cache holding up to size images.
func NewCache(fs afero.Fs, size int) (*Cache, error) {
	images, err := lru.New[string, ROM](size)
	if err != nil {
		return nil, fmt.Errorf("create rom cache: %w", err)
	}
	return &Cache{fs: fs, images: images}, nil
}

// Load returns the image at path. The returned Data is the caller's own
// copy.
func (c *Cache) Load(path string) (ROM, error) {
	info, err := c.fs.Stat(path)
	if err != nil {
		return ROM{}, fmt.Errorf("failed to stat file: %w", err)
	}
	key := fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())

	if rom, ok := c.images.Get(key); ok {
		return rom.clone(), nil
	}

	rom, err := LoadROM(c.fs, path)
	if err != nil {
		return ROM{}, err
	}
	c.images.Add(key, rom)
	return rom.clone(), nil
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	return c.images.Len()
}

// Purge drops every cached image.
func (c *Cache) Purge() {
	c.images.Purge()
}

func (r ROM) clone() ROM {
	return ROM{Data: append([]byte(nil), r.Data...), Name: r.Name}
}
