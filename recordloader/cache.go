/**
 * Copyright (c) 2024, The Nexus Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package recordloader

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/botobag/nexus"
)

// Cache remembers resolved Results by id across dispatches. Implementations are not required to
// be goroutine-safe; the Loader serializes access under its own lock.
type Cache interface {
	Get(id nexus.DataID) (Result, bool)
	Set(id nexus.DataID, result Result)
	Delete(id nexus.DataID)
	Clear()
}

// MapCache is the default Cache: an unbounded map. Every id the Loader has ever resolved stays
// resident until evicted explicitly.
type MapCache struct {
	entries map[nexus.DataID]Result
}

// NewMapCache creates an empty MapCache.
func NewMapCache() *MapCache {
	return &MapCache{entries: make(map[nexus.DataID]Result)}
}

// Get implements Cache.
func (c *MapCache) Get(id nexus.DataID) (Result, bool) {
	result, ok := c.entries[id]
	return result, ok
}

// Set implements Cache.
func (c *MapCache) Set(id nexus.DataID, result Result) {
	c.entries[id] = result
}

// Delete implements Cache.
func (c *MapCache) Delete(id nexus.DataID) {
	delete(c.entries, id)
}

// Clear implements Cache.
func (c *MapCache) Clear() {
	c.entries = make(map[nexus.DataID]Result)
}

// LRUCache bounds residency to the size most recently used ids. Use it for a Loader expected to
// see far more distinct ids over its lifetime than are worth keeping resident at once.
type LRUCache struct {
	entries *lru.Cache[nexus.DataID, Result]
}

// NewLRUCache creates an LRUCache holding at most size entries. size must be positive.
func NewLRUCache(size int) (*LRUCache, error) {
	entries, err := lru.New[nexus.DataID, Result](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{entries: entries}, nil
}

// Get implements Cache.
func (c *LRUCache) Get(id nexus.DataID) (Result, bool) {
	return c.entries.Get(id)
}

// Set implements Cache.
func (c *LRUCache) Set(id nexus.DataID, result Result) {
	c.entries.Add(id, result)
}

// Delete implements Cache.
func (c *LRUCache) Delete(id nexus.DataID) {
	c.entries.Remove(id)
}

// Clear implements Cache.
func (c *LRUCache) Clear() {
	c.entries.Purge()
}
