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

// Package proxy implements the optimistic store overlay: a
// RecordSourceProxy/RecordProxy pair presented to user updaters and Handlers. Reads fall through
// to a base RecordSource; writes accumulate in a sibling MutableRecordSource (the "overlay"),
// never touching base directly.
//
// The overlay composes one read-through base with one accumulating write buffer, merged lazily
// on read.
package proxy

import (
	"github.com/botobag/nexus"
	"github.com/botobag/nexus/ast"
	"github.com/botobag/nexus/nexuserr"
	"github.com/botobag/nexus/storagekey"
)

// RecordSourceProxy is the overlay surface user updaters, Handlers, and optimistic updates operate
// against.
type RecordSourceProxy interface {
	// Create returns a new RecordProxy for id, failing if id already exists as EXISTENT in the
	// overlay-or-base view.
	Create(id nexus.DataID, typeName string) (RecordProxy, error)

	// Delete marks id NONEXISTENT in the overlay.
	Delete(id nexus.DataID)

	// Get returns a RecordProxy backed by the overlay-or-base view of id, or false if id is UNKNOWN
	// or NONEXISTENT.
	Get(id nexus.DataID) (RecordProxy, bool)

	// GetRoot returns the RecordProxy for the root record, creating it in the overlay if absent.
	GetRoot() RecordProxy

	// GetRootField returns the RecordProxy the named root field links to. It requires the proxy to
	// have been constructed with a Selector (NewForSelector) so the field's selection AST (and
	// therefore its StorageKey) is known.
	GetRootField(name string) (RecordProxy, bool)

	// GetPluralRootField returns the RecordProxies a plural root field links to.
	GetPluralRootField(name string) []RecordProxy
}

// RecordProxy is a handle onto one record's overlay-or-base view.
type RecordProxy interface {
	GetDataID() nexus.DataID
	GetType() string

	GetValue(key nexus.StorageKey) nexus.FieldValue
	SetValue(key nexus.StorageKey, value nexus.FieldValue)

	GetLinkedRecord(key nexus.StorageKey) (RecordProxy, bool)
	SetLinkedRecord(key nexus.StorageKey, id nexus.DataID)

	GetLinkedRecords(key nexus.StorageKey) []RecordProxy
	SetLinkedRecords(key nexus.StorageKey, ids []nexus.DataID)

	// GetOrCreateLinkedRecord returns the record key already links to, or creates (in the overlay)
	// a new one with the given id and typeName, links to it, and returns it.
	GetOrCreateLinkedRecord(key nexus.StorageKey, id nexus.DataID, typeName string) RecordProxy

	// CopyFieldsFrom writes every field other has set (other's own StorageKey set, not
	// transitively resolved) onto this record, replacing values under the same key; fields that
	// only this record has are kept.
	CopyFieldsFrom(other RecordProxy)
}

// Overlay is the concrete RecordSourceProxy implementation.
type Overlay struct {
	base    nexus.RecordSource
	overlay nexus.MutableRecordSource

	// selector (with its Variables) is set only when the overlay was constructed via NewForSelector, enabling
	// GetRootField/GetPluralRootField.
	selector *nexus.Selector
}

var _ RecordSourceProxy = (*Overlay)(nil)

// New creates an Overlay reading through base and buffering writes in overlay.
func New(base nexus.RecordSource, overlay nexus.MutableRecordSource) *Overlay {
	return &Overlay{base: base, overlay: overlay}
}

// NewForSelector creates an Overlay additionally bound to selector, enabling GetRootField and
// GetPluralRootField to resolve named root selections.
func NewForSelector(base nexus.RecordSource, overlay nexus.MutableRecordSource, selector nexus.Selector) *Overlay {
	return &Overlay{base: base, overlay: overlay, selector: &selector}
}

// Overlay returns the proxy's write buffer, e.g. so a PublishQueue can inspect what an updater
// touched.
func (o *Overlay) Overlay() nexus.MutableRecordSource { return o.overlay }

func (o *Overlay) status(id nexus.DataID) (nexus.Record, nexus.RecordState) {
	if o.overlay.Has(id) {
		rec, nonexistent, _ := o.overlay.Get(id)
		if nonexistent {
			return nexus.Record{}, nexus.Nonexistent
		}
		return rec, nexus.Existent
	}
	rec, nonexistent, ok := o.base.Get(id)
	if !ok {
		return nexus.Record{}, nexus.Unknown
	}
	if nonexistent {
		return nexus.Record{}, nexus.Nonexistent
	}
	return rec, nexus.Existent
}

// Create implements RecordSourceProxy.
func (o *Overlay) Create(id nexus.DataID, typeName string) (RecordProxy, error) {
	if _, state := o.status(id); state == nexus.Existent {
		return nil, nexuserr.New(nexuserr.Op("proxy.Overlay.Create"), nexuserr.KindInvariant, id,
			"record already exists")
	}
	o.overlay.Set(nexus.NewRecord(id, typeName))
	return &record{overlay: o, id: id}, nil
}

// Delete implements RecordSourceProxy.
func (o *Overlay) Delete(id nexus.DataID) {
	o.overlay.Delete(id)
}

// Get implements RecordSourceProxy.
func (o *Overlay) Get(id nexus.DataID) (RecordProxy, bool) {
	_, state := o.status(id)
	if state != nexus.Existent {
		return nil, false
	}
	return &record{overlay: o, id: id}, true
}

// GetRoot implements RecordSourceProxy.
func (o *Overlay) GetRoot() RecordProxy {
	if _, state := o.status(nexus.RootID); state != nexus.Existent {
		o.overlay.Set(nexus.NewRecord(nexus.RootID, ""))
	}
	return &record{overlay: o, id: nexus.RootID}
}

// GetRootField implements RecordSourceProxy. It requires the Overlay to have been built with
// NewForSelector.
func (o *Overlay) GetRootField(name string) (RecordProxy, bool) {
	key, ok := o.rootFieldKey(name)
	if !ok {
		return nil, false
	}
	root := o.GetRoot()
	return root.GetLinkedRecord(key)
}

// GetPluralRootField implements RecordSourceProxy.
func (o *Overlay) GetPluralRootField(name string) []RecordProxy {
	key, ok := o.rootFieldKey(name)
	if !ok {
		return nil
	}
	root := o.GetRoot()
	return root.GetLinkedRecords(key)
}

func (o *Overlay) rootFieldKey(name string) (nexus.StorageKey, bool) {
	if o.selector == nil {
		return "", false
	}
	for _, sel := range o.selector.Node {
		f, ok := sel.(ast.LinkedField)
		if !ok {
			continue
		}
		if ast.ResponseKey(f) != name {
			continue
		}
		return storagekey.Of(f.Name, f.Args, o.selector.Variables), true
	}
	return "", false
}

type record struct {
	overlay *Overlay
	id      nexus.DataID
}

var _ RecordProxy = (*record)(nil)

// snapshot returns the record's current overlay-or-base value without writing anything;
// ensureOverlayed is what materializes it into the overlay (copy-on-write) on first write.
func (r *record) snapshot() nexus.Record {
	rec, _ := r.overlay.status(r.id)
	return rec
}

func (r *record) ensureOverlayed() nexus.Record {
	if r.overlay.overlay.Has(r.id) {
		rec, _, _ := r.overlay.overlay.Get(r.id)
		return rec
	}
	rec := r.snapshot()
	if rec.ID() == "" {
		rec = nexus.NewRecord(r.id, "")
	}
	r.overlay.overlay.Set(rec)
	return rec
}

func (r *record) GetDataID() nexus.DataID { return r.id }

func (r *record) GetType() string { return r.snapshot().TypeName() }

func (r *record) GetValue(key nexus.StorageKey) nexus.FieldValue {
	v, _ := r.snapshot().Get(key)
	return v
}

func (r *record) SetValue(key nexus.StorageKey, value nexus.FieldValue) {
	rec := r.ensureOverlayed()
	rec = rec.Set(key, value)
	r.overlay.overlay.Set(rec)
}

func (r *record) GetLinkedRecord(key nexus.StorageKey) (RecordProxy, bool) {
	v, ok := r.snapshot().Get(key)
	if !ok || !v.IsLink() || v.IsNullLink() {
		return nil, false
	}
	return &record{overlay: r.overlay, id: v.Link()}, true
}

func (r *record) SetLinkedRecord(key nexus.StorageKey, id nexus.DataID) {
	var value nexus.FieldValue
	if id == "" {
		value = nexus.NullLinkValue()
	} else {
		value = nexus.LinkValue(id)
	}
	r.SetValue(key, value)
}

func (r *record) GetLinkedRecords(key nexus.StorageKey) []RecordProxy {
	v, ok := r.snapshot().Get(key)
	if !ok || !v.IsLinkList() {
		return nil
	}
	ids := v.LinkList()
	out := make([]RecordProxy, len(ids))
	for i, id := range ids {
		if id == nil {
			out[i] = nil
			continue
		}
		out[i] = &record{overlay: r.overlay, id: *id}
	}
	return out
}

func (r *record) SetLinkedRecords(key nexus.StorageKey, ids []nexus.DataID) {
	refs := make([]*nexus.DataID, len(ids))
	for i, id := range ids {
		id := id
		if id == "" {
			refs[i] = nil
			continue
		}
		refs[i] = &id
	}
	r.SetValue(key, nexus.LinkListValue(refs))
}

func (r *record) GetOrCreateLinkedRecord(key nexus.StorageKey, id nexus.DataID, typeName string) RecordProxy {
	if child, ok := r.GetLinkedRecord(key); ok {
		return child
	}
	if _, state := r.overlay.status(id); state != nexus.Existent {
		r.overlay.overlay.Set(nexus.NewRecord(id, typeName))
	}
	r.SetLinkedRecord(key, id)
	return &record{overlay: r.overlay, id: id}
}

func (r *record) CopyFieldsFrom(other RecordProxy) {
	src, ok := other.(*record)
	if !ok {
		return
	}
	rec := r.ensureOverlayed()
	rec = rec.MergeFrom(src.snapshot())
	r.overlay.overlay.Set(rec)
}
