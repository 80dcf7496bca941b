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

// Package store implements the Store: it owns the authoritative base RecordSource, tracks
// subscriptions and retainers, and performs mark-sweep garbage
// collection of unretained records.
//
// GC runs off the caller's goroutine: retainer releases coalesce into one deferred sweep handed
// to a scheduler.Serial executor. GC and publish counts are exported through the collectors in
// nexus/metrics.
package store

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/botobag/nexus"
	"github.com/botobag/nexus/checker"
	"github.com/botobag/nexus/handler"
	"github.com/botobag/nexus/metrics"
	"github.com/botobag/nexus/proxy"
	"github.com/botobag/nexus/publish"
	"github.com/botobag/nexus/reader"
	"github.com/botobag/nexus/recordsource"
	"github.com/botobag/nexus/scheduler"
)

// composedSource reads through an optimistic overlay first, falling back to base - the view
// presented to Store.lookup/check while an optimistic update is live.
type composedSource struct {
	overlay nexus.RecordSource
	base    nexus.RecordSource
}

func (c composedSource) Get(id nexus.DataID) (nexus.Record, bool, bool) {
	if c.overlay != nil && c.overlay.Has(id) {
		return c.overlay.Get(id)
	}
	return c.base.Get(id)
}

func (c composedSource) Has(id nexus.DataID) bool {
	if c.overlay != nil && c.overlay.Has(id) {
		return true
	}
	return c.base.Has(id)
}

func (c composedSource) GetStatus(id nexus.DataID) nexus.RecordState {
	if c.overlay != nil && c.overlay.Has(id) {
		return c.overlay.GetStatus(id)
	}
	return c.base.GetStatus(id)
}

func (c composedSource) Size() int {
	return len(c.GetRecordIDs())
}

func (c composedSource) GetRecordIDs() []nexus.DataID {
	seen := nexus.NewRecordIDSet()
	ids := c.base.GetRecordIDs()
	for _, id := range ids {
		seen.Add(id)
	}
	if c.overlay != nil {
		for _, id := range c.overlay.GetRecordIDs() {
			seen.Add(id)
		}
	}
	return seen.Slice()
}

// retainer is a live (selector, refCount) pair.
type retainer struct {
	selector nexus.Selector
	refCount int
}

// Store owns the authoritative base RecordSource and drives retain/subscribe/notify/GC.
// Construct with New; a Store is safe for concurrent use by external callers dispatching
// onto its single execution context, but the core itself performs
// no internal locking beyond what's needed to keep that contract honest under concurrent retains
// and disposals.
type Store struct {
	mu sync.Mutex

	base     nexus.MutableRecordSource
	overlay  nexus.RecordSource // set by the Queue while an optimistic update is live; nil otherwise
	handlers *handler.Registry
	queue    *publish.Queue

	subscriptions map[*nexus.Subscription]struct{}
	retainers     []*retainer
	updatedIDs    nexus.RecordIDSet

	gcExecutor scheduler.Executor
	gcPending  int32

	// checkMemo backs CheckWithHandlers: a MissingFieldHandler consulted across many feasibility
	// checks for the same record/field answers from cache after its first call.
	checkMemo *checker.Memo

	log zerolog.Logger
}

// checkMemoSize bounds how many distinct (kind, record, field, args) MissingFieldHandler answers
// CheckWithHandlers keeps memoized at once.
const checkMemoSize = 1024

// New creates a Store with an empty base source.
func New(logger zerolog.Logger) *Store {
	s := &Store{
		base:          recordsource.New(),
		gcExecutor:    scheduler.NewSerial(),
		handlers:      handler.NewRegistry(),
		subscriptions: make(map[*nexus.Subscription]struct{}),
		updatedIDs:    nexus.NewRecordIDSet(),
		checkMemo:     checker.NewMemo(checkMemoSize),
		log:           logger,
	}
	s.queue = publish.NewQueue(s, s.handlers)
	return s
}

// Handlers returns the Registry handle fields are dispatched through.
func (s *Store) Handlers() *handler.Registry { return s.handlers }

// Queue returns the Store's PublishQueue.
func (s *Store) Queue() *publish.Queue { return s.queue }

// Source implements publish.Store: the Store's current authoritative base.
func (s *Store) Source() nexus.RecordSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base
}

// SetSource implements publish.Store.
func (s *Store) SetSource(newBase nexus.MutableRecordSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = newBase
}

// SetOptimisticOverlay implements publish.Store.
func (s *Store) SetOptimisticOverlay(overlay nexus.RecordSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay = overlay
}

// currentSource returns the view reads should see: the optimistic overlay composed over the base
// if one is live, else the base alone.
func (s *Store) currentSource() nexus.RecordSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overlay == nil {
		return s.base
	}
	return composedSource{overlay: s.overlay, base: s.base}
}

// Publish merges source into the base record-by-record, accumulating changed ids into the
// Store's pending updatedRecordIDs.
func (s *Store) Publish(source nexus.RecordSource) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := recordsource.Merge(s.base, source)
	s.updatedIDs.AddAll(changed)
}

// Run drains the PublishQueue and folds the ids it touched into the Store's
// pending updatedRecordIDs, ready for the next Notify.
func (s *Store) Run() error {
	timer := metrics.NewTimer()
	changed, err := s.queue.Run()
	timer.ObserveDuration(metrics.PublishRunDuration)
	if err != nil {
		return err
	}
	metrics.PublishRunsTotal.Inc()

	s.mu.Lock()
	s.updatedIDs.AddAll(changed)
	s.mu.Unlock()
	return nil
}

// Notify re-reads every subscription whose seen-set intersects the accumulated updatedRecordIDs,
// invoking callbacks for those whose data actually changed, then clears updatedRecordIDs.
func (s *Store) Notify() {
	s.mu.Lock()
	updated := s.updatedIDs
	s.updatedIDs = nexus.NewRecordIDSet()
	subs := make([]*nexus.Subscription, 0, len(s.subscriptions))
	for sub := range s.subscriptions {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	if len(updated) == 0 {
		return
	}

	source := s.currentSource()
	for _, sub := range subs {
		if !sub.Snapshot.SeenRecords.Intersects(updated) {
			metrics.NotifySkippedTotal.Inc()
			continue
		}
		next := reader.Read(source, sub.Snapshot.Selector)
		if dataEqual(sub.Snapshot.Data, next.Data) {
			metrics.NotifySkippedTotal.Inc()
			continue
		}
		sub.Snapshot = next
		sub.Stale = false
		metrics.NotifyDispatchedTotal.Inc()
		if sub.Callback != nil {
			sub.Callback(next)
		}
	}
}

// Subscribe registers snapshot and cb; disposing the returned Disposable removes the
// subscription.
func (s *Store) Subscribe(snapshot nexus.Snapshot, cb func(nexus.Snapshot)) nexus.Disposable {
	sub := &nexus.Subscription{Snapshot: snapshot, Callback: cb}

	s.mu.Lock()
	s.subscriptions[sub] = struct{}{}
	s.mu.Unlock()

	return nexus.OnceDisposable(func() {
		s.mu.Lock()
		delete(s.subscriptions, sub)
		s.mu.Unlock()
	})
}

// Retain registers selector as live, incrementing its refcount if already retained. Disposing the
// returned Disposable decrements it; when it reaches zero, GC is scheduled.
func (s *Store) Retain(selector nexus.Selector) nexus.Disposable {
	s.mu.Lock()
	var r *retainer
	for _, existing := range s.retainers {
		if reflect.DeepEqual(existing.selector, selector) {
			r = existing
			break
		}
	}
	if r == nil {
		r = &retainer{selector: selector}
		s.retainers = append(s.retainers, r)
	}
	r.refCount++
	s.mu.Unlock()

	return nexus.OnceDisposable(func() {
		s.mu.Lock()
		r.refCount--
		schedule := r.refCount <= 0
		if schedule {
			s.removeRetainer(r)
		}
		s.mu.Unlock()
		if schedule {
			s.scheduleGC()
		}
	})
}

func (s *Store) removeRetainer(target *retainer) {
	for i, r := range s.retainers {
		if r == target {
			s.retainers = append(s.retainers[:i], s.retainers[i+1:]...)
			return
		}
	}
}

// Check delegates to nexus/checker without MissingFieldHandlers.
func (s *Store) Check(selector nexus.Selector) bool {
	return checker.Check(s.Source().(nexus.MutableRecordSource), selector, nil, nil)
}

// CheckWithHandlers delegates to nexus/checker with handlers. It backs pre-fetch feasibility
// checks: a caller asks whether
// selector's data would be complete once handlers (e.g. one that substitutes a locally-known id
// for a field the network hasn't answered yet) have had a chance to patch in substitutes. Handler
// answers are memoized through the Store's own checkMemo so a handler consulted across many
// checks for the same record/field is invoked once.
func (s *Store) CheckWithHandlers(selector nexus.Selector, handlers []checker.Handler) bool {
	return checker.Check(s.Source().(nexus.MutableRecordSource), selector, handlers, s.checkMemo)
}

// Lookup delegates to nexus/reader.
func (s *Store) Lookup(selector nexus.Selector) nexus.Snapshot {
	return reader.Read(s.currentSource(), selector)
}

// UnmaskedProxy returns a RecordSourceProxy over the current base, for callers (tests, tooling)
// that need direct overlay-free write access outside of a PublishQueue cycle.
func (s *Store) UnmaskedProxy() proxy.RecordSourceProxy {
	return proxy.New(s.base, s.base)
}

func dataEqual(a, b map[string]interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !deepEqual(av, bv) {
			return false
		}
	}
	return true
}

func deepEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		return ok && dataEqual(av, bv)
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// scheduleGC dispatches a mark-sweep pass onto the Store's executor, coalescing concurrent
// releases: if a sweep is already pending, this call is a no-op.
func (s *Store) scheduleGC() {
	if !atomic.CompareAndSwapInt32(&s.gcPending, 0, 1) {
		return
	}

	if err := s.gcExecutor.Submit(scheduler.TaskFunc(func() {
		defer atomic.StoreInt32(&s.gcPending, 0)
		s.collectGarbage()
	})); err != nil {
		atomic.StoreInt32(&s.gcPending, 0)
		s.log.Error().Err(err).Msg("nexus/store: failed to schedule GC sweep")
	}
}

// collectGarbage performs the mark-sweep pass: seed a worklist with the root id and every
// retained selector, read each through nexus/reader to mark everything reachable, then remove
// everything else from the base.
func (s *Store) collectGarbage() {
	timer := metrics.NewTimer()

	// The whole sweep (mark and sweep alike) holds s.mu: the base is mutated only by the Store,
	// and since GC runs on its own goroutine rather than the caller's, the lock is what keeps
	// that mutation serialized against a concurrent Publish/Run.
	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.base
	reachable := nexus.NewRecordIDSet()
	reachable.Add(nexus.RootID)

	for _, r := range s.retainers {
		snap := reader.Read(base, r.selector)
		reachable.AddAll(snap.SeenRecords)
	}

	collected := 0
	for _, id := range base.GetRecordIDs() {
		if !reachable.Has(id) {
			base.Remove(id)
			collected++
		}
	}

	timer.ObserveDuration(metrics.GCSweepDuration)
	metrics.GCSweepsTotal.Inc()
	metrics.GCCollectedTotal.Add(float64(collected))
	metrics.RecordsTotal.Set(float64(base.Size()))

	s.log.Debug().
		Int("reachable", len(reachable)).
		Int("collected", collected).
		Msg("nexus/store: GC sweep complete")
}
