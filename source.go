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

package nexus

import "context"

// RecordState classifies the status of a DataID within a RecordSource.
type RecordState uint8

const (
	// Unknown means the id has never been fetched (or was removed entirely).
	Unknown RecordState = iota
	// Existent means the id currently resolves to a Record.
	Existent
	// Nonexistent means the id is known to the server to not exist (an explicit null entity); it
	// is terminal until a later write republishes the id.
	Nonexistent
)

// String implements fmt.Stringer.
func (s RecordState) String() string {
	switch s {
	case Unknown:
		return "UNKNOWN"
	case Existent:
		return "EXISTENT"
	case Nonexistent:
		return "NONEXISTENT"
	}
	return "INVALID"
}

// RecordSource is a read-only mapping from DataID to Record with a four-state (three RecordState
// values plus the "undefined" Go return) lookup contract.
type RecordSource interface {
	// Get returns the Record for id, whether the status is Nonexistent (in which case the Record
	// return is the zero value and must be ignored), and whether it is present (false iff status
	// is Unknown).
	Get(id DataID) (record Record, nonexistent bool, ok bool)

	// Has reports whether id's status is not Unknown.
	Has(id DataID) bool

	// GetStatus returns the RecordState for id.
	GetStatus(id DataID) RecordState

	// Size returns the count of non-Unknown entries.
	Size() int

	// GetRecordIDs returns every non-Unknown id in unspecified order.
	GetRecordIDs() []DataID
}

// MutableRecordSource extends RecordSource with the write operations used by the normalizer,
// publish overlays, and update proxies.
type MutableRecordSource interface {
	RecordSource

	// Set stores record under its own id, overwriting any previous entry and moving its status to
	// Existent.
	Set(record Record)

	// Delete marks id as Nonexistent, discarding any previously stored Record value.
	Delete(id DataID)

	// Remove erases id entirely, returning its status to Unknown.
	Remove(id DataID)

	// Clear empties the source.
	Clear()
}

// LoadableRecordSource is implemented by sources that back onto out-of-band storage and so must
// resolve some reads asynchronously; Load is the only asynchronous read path in the cache.
// The in-memory sources in
// nexus/recordsource do not implement this; nexus/recordsource/boltsource does.
type LoadableRecordSource interface {
	RecordSource

	// Load resolves id's Record asynchronously. cb is invoked exactly once with the same
	// (record, nonexistent, ok) shape as Get once the value is available, or with a non-nil error
	// if loading failed.
	Load(ctx context.Context, id DataID, cb func(record Record, nonexistent bool, ok bool, err error))
}

// Disposable is a handle to a live registration (a retainer, a subscription, or an optimistic
// update) that can be revoked. Dispose is idempotent.
type Disposable interface {
	Dispose()
}

// DisposableFunc adapts a plain function to Disposable.
type DisposableFunc func()

// Dispose implements Disposable.
func (f DisposableFunc) Dispose() {
	if f != nil {
		f()
	}
}

// onceDisposable wraps a Disposable so repeated Dispose calls after the first are no-ops.
type onceDisposable struct {
	dispose func()
	done    bool
}

// OnceDisposable returns a Disposable that invokes dispose at most once, regardless of how many
// times Dispose is called.
func OnceDisposable(dispose func()) Disposable {
	d := &onceDisposable{dispose: dispose}
	return DisposableFunc(d.fire)
}

func (d *onceDisposable) fire() {
	if d.done {
		return
	}
	d.done = true
	if d.dispose != nil {
		d.dispose()
	}
}
