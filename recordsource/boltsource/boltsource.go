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

// Package boltsource implements nexus.RecordSource, nexus.MutableRecordSource and
// nexus.LoadableRecordSource on top of a single-file bbolt database.
//
// Synchronous reads (Get, Has, GetStatus, Size, GetRecordIDs) run one bbolt View transaction each.
// Load batches concurrent lookups through a nexus/recordloader.Loader so that a burst of Loads
// issued while walking a selection (nexus/reader, nexus/checker) collapses into a single bbolt
// View transaction per dispatch.
package boltsource

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/botobag/nexus"
	"github.com/botobag/nexus/recordloader"
)

var recordsBucket = []byte("records")

// Source is a RecordSource backed by a bbolt database file.
type Source struct {
	db     *bbolt.DB
	loader *recordloader.Loader
}

var (
	_ nexus.RecordSource         = (*Source)(nil)
	_ nexus.MutableRecordSource  = (*Source)(nil)
	_ nexus.LoadableRecordSource = (*Source)(nil)
)

// Open opens (creating if necessary) a bbolt database at path and returns a Source backed by it.
// Every record its loader has ever resolved stays cached for the life of the Source; for a
// long-lived Source over a large database, OpenWithCache bounds that growth.
func Open(path string) (*Source, error) {
	return open(path, nil)
}

// OpenWithCache is Open, but bounds the Source's load cache to the most recently used cacheSize
// records instead of letting it grow without bound -- for a Source that expects to Load far more
// distinct ids over its lifetime than it needs resident at once.
func OpenWithCache(path string, cacheSize int) (*Source, error) {
	cache, err := recordloader.NewLRUCache(cacheSize)
	if err != nil {
		return nil, err
	}
	return open(path, cache)
}

func open(path string, cache recordloader.Cache) (*Source, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltsource: open %q: %w", path, err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("boltsource: create bucket: %w", err)
	}

	s := &Source{db: db}

	loader, err := recordloader.New(recordloader.Config{
		BatchLoad: s.batchLoad,
		Cache:     cache,
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	s.loader = loader

	return s, nil
}

// Close closes the underlying bbolt database.
func (s *Source) Close() error {
	return s.db.Close()
}

// wireRecord is the on-disk JSON representation of a nexus.Record: a map from StorageKey to one
// of a scalar, a scalar list, {"__ref": DataID} or {"__refs": [DataID-or-null, ...]} -- the same
// shape the in-memory Record stores its field values in.
type wireRecord struct {
	TypeName string                     `json:"__typename,omitempty"`
	Fields   map[string]json.RawMessage `json:"fields"`
}

type wireRef struct {
	Ref *nexus.DataID `json:"__ref"`
}

type wireRefs struct {
	Refs []*nexus.DataID `json:"__refs"`
}

func encodeRecord(r nexus.Record) ([]byte, error) {
	out := wireRecord{
		TypeName: r.TypeName(),
		Fields:   make(map[string]json.RawMessage, len(r.Keys())),
	}
	for _, key := range r.Keys() {
		v, _ := r.Get(key)
		var (
			raw []byte
			err error
		)
		switch {
		case v.IsUndefined():
			raw = []byte("null")
		case v.IsScalar():
			raw, err = json.Marshal(v.Scalar())
		case v.IsScalarList():
			raw, err = json.Marshal(v.ScalarList())
		case v.IsLink():
			if v.IsNullLink() {
				raw, err = json.Marshal(wireRef{Ref: nil})
			} else {
				id := v.Link()
				raw, err = json.Marshal(wireRef{Ref: &id})
			}
		case v.IsLinkList():
			raw, err = json.Marshal(wireRefs{Refs: v.LinkList()})
		}
		if err != nil {
			return nil, fmt.Errorf("boltsource: encode field %q: %w", key, err)
		}
		out.Fields[string(key)] = raw
	}
	return json.Marshal(out)
}

func decodeRecord(id nexus.DataID, data []byte) (nexus.Record, error) {
	var in wireRecord
	if err := json.Unmarshal(data, &in); err != nil {
		return nexus.Record{}, fmt.Errorf("boltsource: decode record %q: %w", id, err)
	}

	r := nexus.NewRecord(id, in.TypeName)
	for key, raw := range in.Fields {
		value, err := decodeFieldValue(raw)
		if err != nil {
			return nexus.Record{}, fmt.Errorf("boltsource: decode field %q of %q: %w", key, id, err)
		}
		r = r.Set(nexus.StorageKey(key), value)
	}
	return r, nil
}

func decodeFieldValue(raw json.RawMessage) (nexus.FieldValue, error) {
	if string(raw) == "null" {
		return nexus.Undefined, nil
	}

	var ref wireRef
	if json.Unmarshal(raw, &ref) == nil && ref.Ref != nil {
		return nexus.LinkValue(*ref.Ref), nil
	}
	if string(raw) == `{"__ref":null}` {
		return nexus.NullLinkValue(), nil
	}
	var refs wireRefs
	if json.Unmarshal(raw, &refs) == nil && refs.Refs != nil {
		return nexus.LinkListValue(refs.Refs), nil
	}

	var scalar interface{}
	if err := json.Unmarshal(raw, &scalar); err != nil {
		return nexus.FieldValue{}, err
	}
	if list, ok := scalar.([]interface{}); ok {
		return nexus.ScalarListValue(list), nil
	}
	return nexus.ScalarValue(scalar), nil
}

// Get implements nexus.RecordSource.
func (s *Source) Get(id nexus.DataID) (nexus.Record, bool, bool) {
	var (
		record      nexus.Record
		nonexistent bool
		ok          bool
	)
	_ = s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(recordsBucket).Get([]byte(id))
		if v == nil {
			return nil
		}
		ok = true
		if len(v) == 0 {
			nonexistent = true
			return nil
		}
		rec, err := decodeRecord(id, v)
		if err != nil {
			return err
		}
		record = rec
		return nil
	})
	return record, nonexistent, ok
}

// Has implements nexus.RecordSource.
func (s *Source) Has(id nexus.DataID) bool {
	_, _, ok := s.Get(id)
	return ok
}

// GetStatus implements nexus.RecordSource.
func (s *Source) GetStatus(id nexus.DataID) nexus.RecordState {
	record, nonexistent, ok := s.Get(id)
	if !ok {
		return nexus.Unknown
	}
	if nonexistent {
		return nexus.Nonexistent
	}
	_ = record
	return nexus.Existent
}

// Size implements nexus.RecordSource.
func (s *Source) Size() int {
	n := 0
	_ = s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(recordsBucket).ForEach(func(_, _ []byte) error {
			n++
			return nil
		})
	})
	return n
}

// GetRecordIDs implements nexus.RecordSource.
func (s *Source) GetRecordIDs() []nexus.DataID {
	var ids []nexus.DataID
	_ = s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(recordsBucket).ForEach(func(k, _ []byte) error {
			ids = append(ids, nexus.DataID(k))
			return nil
		})
	})
	return ids
}

// Set implements nexus.MutableRecordSource.
func (s *Source) Set(record nexus.Record) {
	data, err := encodeRecord(record)
	if err != nil {
		panic(err)
	}
	_ = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(recordsBucket).Put([]byte(record.ID()), data)
	})
	s.loader.Prime(record.ID(), recordloader.Result{OK: true, Record: record})
}

// Delete implements nexus.MutableRecordSource by storing a zero-length sentinel value for id,
// distinguishing Nonexistent (an empty-but-present value) from Unknown (no key at all).
func (s *Source) Delete(id nexus.DataID) {
	_ = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(recordsBucket).Put([]byte(id), []byte{})
	})
	s.loader.Prime(id, recordloader.Result{OK: true, Nonexistent: true})
}

// Remove implements nexus.MutableRecordSource.
func (s *Source) Remove(id nexus.DataID) {
	_ = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(recordsBucket).Delete([]byte(id))
	})
	s.loader.Evict(id)
}

// Clear implements nexus.MutableRecordSource.
func (s *Source) Clear() {
	_ = s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(recordsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(recordsBucket)
		return err
	})
	s.loader.ClearCache()
}

// batchLoad services every Load issued since the last dispatch with a single bbolt View
// transaction.
func (s *Source) batchLoad(_ context.Context, ids []nexus.DataID) []recordloader.Result {
	results := make([]recordloader.Result, len(ids))
	_ = s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(recordsBucket)
		for i, id := range ids {
			v := bucket.Get([]byte(id))
			if v == nil {
				continue
			}
			if len(v) == 0 {
				results[i] = recordloader.Result{OK: true, Nonexistent: true}
				continue
			}
			record, err := decodeRecord(id, v)
			if err != nil {
				results[i] = recordloader.Result{Err: err}
				continue
			}
			results[i] = recordloader.Result{OK: true, Record: record}
		}
		return nil
	})
	return results
}

// Load implements nexus.LoadableRecordSource. It enqueues id onto the shared Loader and
// dispatches the batch on its own goroutine; cb fires either synchronously (cache hit) or on the
// dispatching goroutine once the batch resolves.
func (s *Source) Load(ctx context.Context, id nexus.DataID, cb func(nexus.Record, bool, bool, error)) {
	s.loader.Load(id, func(result recordloader.Result) {
		cb(result.Record, result.Nonexistent, result.OK, result.Err)
	})
	go s.loader.Dispatch(ctx)
}
