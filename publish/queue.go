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

// Package publish implements the publish queue: it stages server
// payloads, optimistic updates and client updaters, then linearizes them into the owning Store's
// base source - plus a transient optimistic overlay - on Run.
//
// Work items accumulate between Runs; a Run drains every server payload and client updater
// enqueued since the last one in a single pass, and replays every optimistic update that has not
// been disposed.
package publish

import (
	"github.com/botobag/nexus"
	"github.com/botobag/nexus/handler"
	"github.com/botobag/nexus/normalizer"
	"github.com/botobag/nexus/proxy"
	"github.com/botobag/nexus/recordsource"
)

// Store is the minimal surface PublishQueue needs onto its owning Store (nexus/store.Store
// implements it). Keeping this as a small local interface, rather than importing nexus/store
// directly, avoids an import cycle (Store embeds a Queue).
type Store interface {
	// Source returns the Store's current base RecordSource.
	Source() nexus.RecordSource

	// SetSource replaces the Store's base with newBase.
	SetSource(newBase nexus.MutableRecordSource)

	// SetOptimisticOverlay installs the RecordSource reads should see on top of the base - the
	// composition of the base with every live optimistic update - or clears it when overlay is nil.
	SetOptimisticOverlay(overlay nexus.RecordSource)
}

// ServerPayload is a normalized response source staged for the next Run, plus the
// HandleFieldPayloads collected while normalizing it.
type ServerPayload struct {
	Source        nexus.RecordSource
	FieldPayloads []handler.Payload
}

// Updater mutates the store through a RecordSourceProxy overlay. It is the shape of both client
// updaters and storeUpdater-style optimistic updates.
type Updater func(store proxy.RecordSourceProxy) error

// OptimisticResponse is the declarative form of an optimistic update: Response is normalized
// against Selector into the optimistic overlay before Updater (if non-nil) runs for any
// additional fixups.
type OptimisticResponse struct {
	Selector nexus.Selector
	Response map[string]interface{}
	Updater  Updater
}

type optimisticEntry struct {
	updater  Updater
	response *OptimisticResponse
	disposed bool
}

// Queue is the concrete PublishQueue.
type Queue struct {
	store    Store
	handlers *handler.Registry

	serverPayloads []ServerPayload
	clientUpdaters []Updater
	optimistic     []*optimisticEntry

	// optimisticIDs holds the ids the last installed optimistic overlay wrote.
	optimisticIDs nexus.RecordIDSet
}

// NewQueue creates a Queue publishing into store and dispatching handle fields through handlers.
// handlers may be nil if no handle fields are in use.
func NewQueue(store Store, handlers *handler.Registry) *Queue {
	if handlers == nil {
		handlers = handler.NewRegistry()
	}
	return &Queue{store: store, handlers: handlers}
}

// CommitPayload stages a server payload to be applied on the next Run, in FIFO order relative to
// other staged payloads.
func (q *Queue) CommitPayload(payload ServerPayload) {
	q.serverPayloads = append(q.serverPayloads, payload)
}

// CommitUpdate stages a non-revertible client updater to be applied on the next Run.
func (q *Queue) CommitUpdate(updater Updater) {
	q.clientUpdaters = append(q.clientUpdaters, updater)
}

// ApplyUpdate stages a revertible optimistic update driven by a plain updater function. The
// returned Disposable revokes it; reverting takes effect on the following Run.
func (q *Queue) ApplyUpdate(updater Updater) nexus.Disposable {
	entry := &optimisticEntry{updater: updater}
	q.optimistic = append(q.optimistic, entry)
	return nexus.OnceDisposable(func() { entry.disposed = true })
}

// ApplyUpdateWithResponse stages a revertible optimistic update driven by a declarative response
//.
func (q *Queue) ApplyUpdateWithResponse(opt OptimisticResponse) nexus.Disposable {
	entry := &optimisticEntry{response: &opt}
	q.optimistic = append(q.optimistic, entry)
	return nexus.OnceDisposable(func() { entry.disposed = true })
}

// Run is the single linearization point:
//  1. Build a base overlay seeded from the Store's current source, then merge in every staged
//     server payload (FIFO), dispatching each payload's HandleFieldPayloads through the Handler
//     registry, then apply every staged client updater against a proxy over that overlay.
//  2. Write the overlay back into the Store as its new base. When nothing was staged, the
//     Store's current base is left in place.
//  3. Build an optimistic overlay atop the new base by replaying every live optimistic update, in
//     original enqueue order, against a proxy over the evolving overlay, and install it on the
//     Store as the read-through view. Ids the previous optimistic overlay wrote count as touched,
//     so a disposed update's records are re-read.
//  4. Return the union of every id touched across steps 1-3, so the caller (normally Store.Run,
//     ahead of Store.Notify) can decide which subscriptions need re-reading.
//
// Run clears the server-payload and client-updater queues (they are one-shot); live optimistic
// updates remain staged and are replayed again, in their original enqueue order, on the next
// Run.
func (q *Queue) Run() (nexus.RecordIDSet, error) {
	touched := nexus.NewRecordIDSet()
	staged := len(q.serverPayloads) > 0 || len(q.clientUpdaters) > 0

	// Step 1: base overlay, seeded (not merged - a seed is not a "change") from the current base.
	base := recordsource.New()
	recordsource.Seed(base, q.store.Source())

	for _, payload := range q.serverPayloads {
		touched.AddAll(recordsource.Merge(base, payload.Source))
		for _, fp := range payload.FieldPayloads {
			p := proxy.New(base, base)
			if err := q.handlers.Dispatch(p, fp); err != nil {
				return nil, err
			}
		}
	}
	q.serverPayloads = nil

	for _, updater := range q.clientUpdaters {
		overlay := recordsource.New()
		p := proxy.New(base, overlay)
		if err := updater(p); err != nil {
			return nil, err
		}
		touched.AddAll(recordsource.Merge(base, overlay))
	}
	q.clientUpdaters = nil

	// Step 2: the base overlay becomes the Store's new authoritative base.
	if staged {
		q.store.SetSource(base)
	}

	// Step 3: optimistic overlay, replayed fresh against the new base every Run.
	touched.AddAll(q.optimisticIDs)
	q.optimisticIDs = nexus.NewRecordIDSet()
	live := q.liveOptimistic()
	if len(live) == 0 {
		q.store.SetOptimisticOverlay(nil)
		return touched, nil
	}

	optimisticOverlay := recordsource.New()
	recordsource.Seed(optimisticOverlay, base)

	for _, entry := range live {
		overlay := recordsource.New()
		p := proxy.New(optimisticOverlay, overlay)

		if entry.response != nil {
			normalized := recordsource.New()
			if _, err := normalizer.Normalize(normalized, entry.response.Response, entry.response.Selector); err != nil {
				return nil, err
			}
			q.optimisticIDs.AddAll(recordsource.Merge(optimisticOverlay, normalized))
			if entry.response.Updater != nil {
				if err := entry.response.Updater(p); err != nil {
					return nil, err
				}
			}
		} else if entry.updater != nil {
			if err := entry.updater(p); err != nil {
				return nil, err
			}
		}

		q.optimisticIDs.AddAll(recordsource.Merge(optimisticOverlay, overlay))
	}

	touched.AddAll(q.optimisticIDs)
	q.store.SetOptimisticOverlay(optimisticOverlay)
	return touched, nil
}

func (q *Queue) liveOptimistic() []*optimisticEntry {
	live := make([]*optimisticEntry, 0, len(q.optimistic))
	kept := q.optimistic[:0]
	for _, e := range q.optimistic {
		if e.disposed {
			continue
		}
		live = append(live, e)
		kept = append(kept, e)
	}
	q.optimistic = kept
	return live
}
