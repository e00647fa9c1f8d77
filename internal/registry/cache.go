// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/algorist/algorist/pkg/rustsrc"
)

// DefaultCacheSize bounds the number of parsed files kept by NewParseCache
// when a non-positive size is requested.
const DefaultCacheSize = 256

// ParseCache memoizes parsed library files by origin and content hash, so a
// registry rebuilt after an unrelated edit reparses only what changed.
// Parsed files are never mutated, so cached values are shared freely. It is
// safe for concurrent use.
type ParseCache struct {
	files *lru.Cache[string, *rustsrc.File]
}

// NewParseCache returns a cache holding up to size parsed files.
func NewParseCache(size int) (*ParseCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	files, err := lru.New[string, *rustsrc.File](size)
	if err != nil {
		return nil, fmt.Errorf("create parse cache: %w", err)
	}
	return &ParseCache{files: files}, nil
}

// Parse returns the cached parse of src or parses and stores it. Failed
// parses are not cached.
func (c *ParseCache) Parse(name string, src []byte) (*rustsrc.File, error) {
	if c == nil {
		return rustsrc.Parse(name, src)
	}
	sum := sha256.Sum256(src)
	key := name + "\x00" + hex.EncodeToString(sum[:])
	if f, ok := c.files.Get(key); ok {
		return f, nil
	}
	f, err := rustsrc.Parse(name, src)
	if err != nil {
		return nil, err
	}
	c.files.Add(key, f)
	return f, nil
}

// Len reports the number of cached files.
func (c *ParseCache) Len() int {
	if c == nil {
		return 0
	}
	return c.files.Len()
}
