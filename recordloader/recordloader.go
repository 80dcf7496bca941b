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

// Package recordloader batches and caches record lookups against a backing store. A burst of
// Loads issued while walking a selection collapses into one BatchLoad round trip per Dispatch,
// and ids resolved once answer from cache on every later Load until evicted.
package recordloader

import (
	"context"
	"fmt"
	"sync"

	"github.com/botobag/nexus"
	"github.com/botobag/nexus/nexuserr"
)

// Result is what a load resolves to: the (record, nonexistent, ok) triple of
// nexus.RecordSource.Get, or a load error.
type Result struct {
	Record      nexus.Record
	Nonexistent bool
	OK          bool
	Err         error
}

// BatchLoadFunc services one batch of ids in a single round trip to the backing store. It must
// return exactly one Result per id, in the same order.
type BatchLoadFunc func(ctx context.Context, ids []nexus.DataID) []Result

// Config configures a Loader.
type Config struct {
	// BatchLoad services dispatched batches. Required.
	BatchLoad BatchLoadFunc

	// Cache remembers resolved Results across dispatches. Nil selects an unbounded MapCache;
	// use NewLRUCache to bound residency instead.
	Cache Cache

	// MaxBatchSize caps how many ids one BatchLoad call receives. Zero or negative means
	// unlimited: every queued id dispatches in one batch.
	MaxBatchSize int
}

// Loader coalesces Load calls into batches. Loads enqueue; Dispatch drains the queue through
// BatchLoad and fires the callbacks. Concurrent Loads for the same id share one slot in the
// batch and one cache entry.
type Loader struct {
	batchLoad    BatchLoadFunc
	cache        Cache
	maxBatchSize int

	mu      sync.Mutex
	pending map[nexus.DataID][]func(Result)
	order   []nexus.DataID
}

// New creates a Loader from config.
func New(config Config) (*Loader, error) {
	if config.BatchLoad == nil {
		return nil, nexuserr.New(nexuserr.Op("recordloader.New"), nexuserr.KindInvariant,
			"config.BatchLoad is required")
	}
	cache := config.Cache
	if cache == nil {
		cache = NewMapCache()
	}
	return &Loader{
		batchLoad:    config.BatchLoad,
		cache:        cache,
		maxBatchSize: config.MaxBatchSize,
		pending:      make(map[nexus.DataID][]func(Result)),
	}, nil
}

// Load resolves id. If the id is cached, cb fires before Load returns; otherwise the id joins
// the current batch and cb fires during the Dispatch that services it. cb is invoked exactly
// once either way.
func (l *Loader) Load(id nexus.DataID, cb func(Result)) {
	l.mu.Lock()
	if result, ok := l.cache.Get(id); ok {
		l.mu.Unlock()
		cb(result)
		return
	}
	callbacks, queued := l.pending[id]
	l.pending[id] = append(callbacks, cb)
	if !queued {
		l.order = append(l.order, id)
	}
	l.mu.Unlock()
}

// Dispatch drains every queued id through BatchLoad, in MaxBatchSize-bounded batches, firing the
// callbacks as each batch resolves. Ids queued by callbacks (or by concurrent Loads) while a
// batch is in flight are picked up before Dispatch returns. Concurrent Dispatch calls are safe;
// each id is serviced once.
func (l *Loader) Dispatch(ctx context.Context) {
	for {
		l.mu.Lock()
		if len(l.order) == 0 {
			l.mu.Unlock()
			return
		}
		n := len(l.order)
		if l.maxBatchSize > 0 && n > l.maxBatchSize {
			n = l.maxBatchSize
		}
		ids := make([]nexus.DataID, n)
		copy(ids, l.order[:n])
		l.order = l.order[n:]
		callbacks := make([][]func(Result), n)
		for i, id := range ids {
			callbacks[i] = l.pending[id]
			delete(l.pending, id)
		}
		l.mu.Unlock()

		results := l.batchLoad(ctx, ids)

		for i, id := range ids {
			var result Result
			if i < len(results) {
				result = results[i]
			} else {
				result = Result{Err: fmt.Errorf("recordloader: BatchLoad returned %d results for %d ids", len(results), len(ids))}
			}
			if result.Err == nil {
				l.mu.Lock()
				l.cache.Set(id, result)
				l.mu.Unlock()
			}
			for _, cb := range callbacks[i] {
				cb(result)
			}
		}
	}
}

// Prime stores a Result for id without a round trip, so later Loads answer from cache. A write
// path that already has the record in hand primes it here rather than letting the next read
// refetch it.
func (l *Loader) Prime(id nexus.DataID, result Result) {
	if result.Err != nil {
		return
	}
	l.mu.Lock()
	l.cache.Set(id, result)
	l.mu.Unlock()
}

// Evict forgets id's cached Result. Call after mutating id in the backing store.
func (l *Loader) Evict(id nexus.DataID) {
	l.mu.Lock()
	l.cache.Delete(id)
	l.mu.Unlock()
}

// ClearCache forgets every cached Result.
func (l *Loader) ClearCache() {
	l.mu.Lock()
	l.cache.Clear()
	l.mu.Unlock()
}
