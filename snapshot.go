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

// RecordIDSet is a set of DataID, used for Snapshot.SeenRecords and for the Store's
// updatedRecordIDs accumulator.
type RecordIDSet map[DataID]struct{}

// NewRecordIDSet creates a set containing the given ids.
func NewRecordIDSet(ids ...DataID) RecordIDSet {
	s := make(RecordIDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id into the set.
func (s RecordIDSet) Add(id DataID) {
	s[id] = struct{}{}
}

// Has reports whether id is a member.
func (s RecordIDSet) Has(id DataID) bool {
	_, ok := s[id]
	return ok
}

// Intersects reports whether s and other share any member. Used by Store.notify to decide whether
// a subscription needs to be re-read.
func (s RecordIDSet) Intersects(other RecordIDSet) bool {
	small, big := s, other
	if len(big) < len(small) {
		small, big = big, small
	}
	for id := range small {
		if big.Has(id) {
			return true
		}
	}
	return false
}

// AddAll inserts every member of other into s.
func (s RecordIDSet) AddAll(other RecordIDSet) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// Clone returns a copy of s.
func (s RecordIDSet) Clone() RecordIDSet {
	out := make(RecordIDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Slice returns the set's members in unspecified order.
func (s RecordIDSet) Slice() []DataID {
	out := make([]DataID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

// Snapshot is the result of reading a Selector against a RecordSource: a response-shaped Data
// tree, the set of records visited while producing it, and whether any data was missing.
type Snapshot struct {
	Selector Selector

	// Data mirrors the selection shape. Scalar fields hold their raw value; linked fields hold
	// either a nested map[string]interface{}, a []interface{} of such maps for plural fields, or
	// nil for a field resolved against a Nonexistent record. A masked fragment spread produces a
	// FragmentPointer value in place of inlined data.
	Data map[string]interface{}

	// SeenRecords is every DataID visited while producing Data, including ids resolved through
	// dangling or Unknown references.
	SeenRecords RecordIDSet

	// IsMissingData is true if any visited record was Unknown, a selected field of an existent
	// record was absent or Undefined, or a linked field held a value of the wrong kind.
	IsMissingData bool
}

// FragmentPointer is written into Snapshot.Data in place of a masked fragment spread's inlined
// selections, letting a downstream consumer re-read that fragment independently.
type FragmentPointer struct {
	ID DataID

	// Fragments maps fragment name to the variables it was spread with.
	Fragments map[string]Variables
}

// Subscription is a live registration of a callback to be invoked with a fresh Snapshot whenever
// its dependency set is touched by a change and its re-read data differs from what was last
// dispatched.
type Subscription struct {
	Snapshot Snapshot
	Callback func(Snapshot)

	// Stale marks a subscription whose last-dispatched Data may no longer match the source.
	// Store.Notify resets it to false on each dispatch; nothing in this module sets it to true.
	Stale bool
}
