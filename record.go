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

// StorageKey is the canonical string under which a field (plus its resolved arguments) is stored
// in a Record. See the nexus/storagekey package for its derivation.
type StorageKey string

// Reserved storage keys present on every Record.
const (
	// IDKey stores the record's own DataID.
	IDKey StorageKey = "__id"
	// TypenameKey stores the record's GraphQL type name.
	TypenameKey StorageKey = "__typename"
)

// FieldValue is stored under a StorageKey in a Record. It is a closed sum type: exactly one of
// Scalar, ScalarList, Link or LinkList (see IsScalar, IsScalarList, IsLink and IsLinkList) is
// meaningful, or none for Undefined.
type FieldValue struct {
	kind       fieldValueKind
	scalar     interface{}
	scalarList []interface{}
	link       DataID
	linkList   []*DataID
}

type fieldValueKind uint8

const (
	kindUndefined fieldValueKind = iota
	kindScalar
	kindScalarList
	kindLink
	kindLinkList
)

// Undefined is the sentinel FieldValue representing a field that is known to be missing from a
// Record (as opposed to a field that was never looked up, which the Record simply doesn't
// contain a key for).
var Undefined = FieldValue{kind: kindUndefined}

// ScalarValue wraps a leaf JSON value: number, string, bool, or nil.
func ScalarValue(v interface{}) FieldValue {
	return FieldValue{kind: kindScalar, scalar: v}
}

// ScalarListValue wraps a list of leaf JSON values.
func ScalarListValue(v []interface{}) FieldValue {
	return FieldValue{kind: kindScalarList, scalarList: v}
}

// LinkValue wraps a single linked reference to another record. An empty id represents an
// explicitly null reference (a nullable linked field whose response value was null), distinct from
// the field being Undefined or absent; see IsNullLink.
func LinkValue(id DataID) FieldValue {
	return FieldValue{kind: kindLink, link: id}
}

// NullLinkValue wraps an explicitly null single linked reference.
func NullLinkValue() FieldValue {
	return FieldValue{kind: kindLink, link: ""}
}

// LinkListValue wraps a plural linked reference. A nil entry represents a null element in the
// list (distinct from the list itself being absent).
func LinkListValue(ids []*DataID) FieldValue {
	return FieldValue{kind: kindLinkList, linkList: ids}
}

// IsUndefined reports whether the value is the Undefined sentinel.
func (v FieldValue) IsUndefined() bool { return v.kind == kindUndefined }

// IsScalar reports whether the value holds a scalar.
func (v FieldValue) IsScalar() bool { return v.kind == kindScalar }

// IsScalarList reports whether the value holds a scalar list.
func (v FieldValue) IsScalarList() bool { return v.kind == kindScalarList }

// IsLink reports whether the value holds a single linked reference.
func (v FieldValue) IsLink() bool { return v.kind == kindLink }

// IsLinkList reports whether the value holds a plural linked reference.
func (v FieldValue) IsLinkList() bool { return v.kind == kindLinkList }

// IsNullLink reports whether the value is a single linked reference that is explicitly null.
func (v FieldValue) IsNullLink() bool { return v.kind == kindLink && v.link == "" }

// Scalar returns the wrapped scalar. It panics if !IsScalar().
func (v FieldValue) Scalar() interface{} {
	if v.kind != kindScalar {
		panic("nexus: FieldValue.Scalar called on non-scalar value")
	}
	return v.scalar
}

// ScalarList returns the wrapped scalar list. It panics if !IsScalarList().
func (v FieldValue) ScalarList() []interface{} {
	if v.kind != kindScalarList {
		panic("nexus: FieldValue.ScalarList called on non-scalar-list value")
	}
	return v.scalarList
}

// Link returns the wrapped DataID. It panics if !IsLink().
func (v FieldValue) Link() DataID {
	if v.kind != kindLink {
		panic("nexus: FieldValue.Link called on non-link value")
	}
	return v.link
}

// LinkList returns the wrapped DataID list. It panics if !IsLinkList().
func (v FieldValue) LinkList() []*DataID {
	if v.kind != kindLinkList {
		panic("nexus: FieldValue.LinkList called on non-link-list value")
	}
	return v.linkList
}

// Equal reports whether v and other represent the same field value. It is used by
// recordsource.Merge to decide whether a merged record differs from the one it replaces.
func (v FieldValue) Equal(other FieldValue) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case kindUndefined:
		return true
	case kindScalar:
		return scalarEqual(v.scalar, other.scalar)
	case kindScalarList:
		return scalarListEqual(v.scalarList, other.scalarList)
	case kindLink:
		return v.link == other.link
	case kindLinkList:
		return linkListEqual(v.linkList, other.linkList)
	}
	return false
}

func scalarEqual(a, b interface{}) bool {
	return a == b
}

func scalarListEqual(a, b []interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !scalarEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func linkListEqual(a, b []*DataID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		switch {
		case a[i] == nil && b[i] == nil:
			continue
		case a[i] == nil || b[i] == nil:
			return false
		case *a[i] != *b[i]:
			return false
		}
	}
	return true
}

// Record is a persistent mapping from StorageKey to FieldValue. Records are immutable once
// published: writes (Set, MergeFrom) return a new Record rather than mutating the receiver, so
// that a RecordSource overlay may share structure with its base.
type Record struct {
	// fields holds every key but __id, which is tracked separately since it never changes and is
	// looked up far more often than any other key.
	fields map[StorageKey]FieldValue
	id     DataID
}

// NewRecord creates an empty Record with the given id and, optionally, a __typename.
func NewRecord(id DataID, typeName string) Record {
	r := Record{
		id:     id,
		fields: make(map[StorageKey]FieldValue, 4),
	}
	if typeName != "" {
		r.fields[TypenameKey] = ScalarValue(typeName)
	}
	return r
}

// ID returns the record's own DataID.
func (r Record) ID() DataID { return r.id }

// TypeName returns the record's __typename, or "" if unset.
func (r Record) TypeName() string {
	v, ok := r.fields[TypenameKey]
	if !ok || !v.IsScalar() {
		return ""
	}
	name, _ := v.Scalar().(string)
	return name
}

// Get returns the value stored at key and whether it is present. A field present with
// Undefined is distinct from a field that is entirely absent: the former means "known to be
// missing from the response", the latter means "never written".
func (r Record) Get(key StorageKey) (FieldValue, bool) {
	if key == IDKey {
		return ScalarValue(string(r.id)), true
	}
	v, ok := r.fields[key]
	return v, ok
}

// Has reports whether key has ever been written to the record (whether or not its value is
// Undefined).
func (r Record) Has(key StorageKey) bool {
	if key == IDKey {
		return true
	}
	_, ok := r.fields[key]
	return ok
}

// Keys returns the storage keys written to the record, not including the implicit __id.
func (r Record) Keys() []StorageKey {
	keys := make([]StorageKey, 0, len(r.fields))
	for k := range r.fields {
		keys = append(keys, k)
	}
	return keys
}

// Set returns a copy of r with key bound to value. The receiver is left unmodified.
func (r Record) Set(key StorageKey, value FieldValue) Record {
	fields := make(map[StorageKey]FieldValue, len(r.fields)+1)
	for k, v := range r.fields {
		fields[k] = v
	}
	fields[key] = value
	return Record{id: r.id, fields: fields}
}

// Clone returns a shallow copy of r whose field map may be mutated without affecting r.
func (r Record) Clone() Record {
	fields := make(map[StorageKey]FieldValue, len(r.fields))
	for k, v := range r.fields {
		fields[k] = v
	}
	return Record{id: r.id, fields: fields}
}

// MergeFrom returns a copy of r with every field of patch written over the corresponding field of
// r. Fields present only in r are kept
// unchanged.
func (r Record) MergeFrom(patch Record) Record {
	out := r.Clone()
	for k, v := range patch.fields {
		out.fields[k] = v
	}
	return out
}
