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

// Package recordsource provides in-memory implementations of nexus.RecordSource and
// nexus.MutableRecordSource. See the boltsource subpackage for a persisted,
// asynchronously-loadable implementation.
package recordsource

import "github.com/botobag/nexus"

// entry is the per-id bookkeeping a Source keeps: its RecordState and, when Existent, its
// Record value.
type entry struct {
	state  nexus.RecordState
	record nexus.Record
}

// Source is a MutableRecordSource backed by a plain Go map. It is the default base source used by
// nexus/store.Store and the default overlay source used while publishing
// (nexus/publish.Queue).
type Source struct {
	entries map[nexus.DataID]entry
}

var (
	_ nexus.RecordSource        = (*Source)(nil)
	_ nexus.MutableRecordSource = (*Source)(nil)
)

// New creates an empty Source.
func New() *Source {
	return &Source{entries: make(map[nexus.DataID]entry)}
}

// Get implements nexus.RecordSource.
func (s *Source) Get(id nexus.DataID) (nexus.Record, bool, bool) {
	e, ok := s.entries[id]
	if !ok {
		return nexus.Record{}, false, false
	}
	return e.record, e.state == nexus.Nonexistent, true
}

// Has implements nexus.RecordSource.
func (s *Source) Has(id nexus.DataID) bool {
	_, ok := s.entries[id]
	return ok
}

// GetStatus implements nexus.RecordSource.
func (s *Source) GetStatus(id nexus.DataID) nexus.RecordState {
	e, ok := s.entries[id]
	if !ok {
		return nexus.Unknown
	}
	return e.state
}

// Size implements nexus.RecordSource.
func (s *Source) Size() int {
	return len(s.entries)
}

// GetRecordIDs implements nexus.RecordSource.
func (s *Source) GetRecordIDs() []nexus.DataID {
	ids := make([]nexus.DataID, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	return ids
}

// Set implements nexus.MutableRecordSource.
func (s *Source) Set(record nexus.Record) {
	s.entries[record.ID()] = entry{state: nexus.Existent, record: record}
}

// Delete implements nexus.MutableRecordSource.
func (s *Source) Delete(id nexus.DataID) {
	s.entries[id] = entry{state: nexus.Nonexistent}
}

// Remove implements nexus.MutableRecordSource.
func (s *Source) Remove(id nexus.DataID) {
	delete(s.entries, id)
}

// Clear implements nexus.MutableRecordSource.
func (s *Source) Clear() {
	s.entries = make(map[nexus.DataID]entry)
}

// Clone returns a Source whose entries are a snapshot of s's at the time of the call. Because
// nexus.Record values are themselves persistent, this is a shallow copy of the
// index and is cheap; later writes to either source do not affect the other.
func (s *Source) Clone() *Source {
	out := &Source{entries: make(map[nexus.DataID]entry, len(s.entries))}
	for id, e := range s.entries {
		out.entries[id] = e
	}
	return out
}

// ApplyTo merges s into dst; see Merge for the merge rule.
func (s *Source) ApplyTo(dst nexus.MutableRecordSource) nexus.RecordIDSet {
	return Merge(dst, s)
}

// Merge writes every non-UNKNOWN entry of src into dst, following the field-wise merge rule used
// by both normalization and Store.publish: an entry NONEXISTENT in src marks
// dst NONEXISTENT; an EXISTENT entry in src is merged field-wise over whatever dst already has
// (treating a missing base record as an empty one, so fields untouched by src still come from dst
// whenever dst already had them - merge semantics, not replace).
//
// Merge returns the set of ids whose value in dst differs from what it had before the call. src
// need only satisfy nexus.RecordSource, so Merge works equally well as the staging step of
// nexus/publish.Queue.Run (composing the base overlay from several staged sources) as it does
// for Source.ApplyTo.
func Merge(dst nexus.MutableRecordSource, src nexus.RecordSource) nexus.RecordIDSet {
	changed := nexus.NewRecordIDSet()
	for _, id := range src.GetRecordIDs() {
		record, nonexistent, ok := src.Get(id)
		if !ok {
			continue
		}

		if nonexistent {
			if dst.GetStatus(id) != nexus.Nonexistent {
				dst.Delete(id)
				changed.Add(id)
			}
			continue
		}

		base, baseNonexistent, baseOK := dst.Get(id)
		var merged nexus.Record
		if baseOK && !baseNonexistent {
			merged = base.MergeFrom(record)
		} else {
			merged = nexus.NewRecord(id, "").MergeFrom(record)
		}
		if !baseOK || baseNonexistent || !recordsEqual(base, merged) {
			dst.Set(merged)
			changed.Add(id)
		}
	}
	return changed
}

// Seed copies every entry of src into dst verbatim, without the change-tracking Merge performs.
// Use it to initialize a fresh overlay from an existing source (e.g. nexus/publish.Queue.Run
// seeding its base overlay from the Store's current source) before layering genuine updates on
// top with Merge - seeding through Merge instead would spuriously report every id as "changed"
// merely because the destination started empty.
func Seed(dst nexus.MutableRecordSource, src nexus.RecordSource) {
	for _, id := range src.GetRecordIDs() {
		record, nonexistent, ok := src.Get(id)
		if !ok {
			continue
		}
		if nonexistent {
			dst.Delete(id)
			continue
		}
		dst.Set(record)
	}
}

// recordsEqual reports whether a and b hold the same set of fields with Equal values.
func recordsEqual(a, b nexus.Record) bool {
	aKeys := a.Keys()
	bKeys := b.Keys()
	if len(aKeys) != len(bKeys) {
		return false
	}
	for _, k := range aKeys {
		av, _ := a.Get(k)
		bv, ok := b.Get(k)
		if !ok || !av.Equal(bv) {
			return false
		}
	}
	return true
}
