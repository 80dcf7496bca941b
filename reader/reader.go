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

// Package reader walks a selection AST against a RecordSource, producing a Snapshot: a
// response-shaped data tree plus the set of record ids the read depended on.
//
// Its traversal mirrors nexus/normalizer's shape (same AST node kinds, same StorageKey
// derivation), read instead of written.
package reader

import (
	"github.com/botobag/nexus"
	"github.com/botobag/nexus/ast"
	"github.com/botobag/nexus/storagekey"
)

// Read produces a Snapshot for selector against source.
func Read(source nexus.RecordSource, selector nexus.Selector) nexus.Snapshot {
	r := &reading{source: source, vars: selector.Variables, seen: nexus.NewRecordIDSet(), visited: make(map[visitKey]bool)}
	data := r.readRecord(selector.DataID, selector.Node)
	return nexus.Snapshot{
		Selector:      selector,
		Data:          data,
		SeenRecords:   r.seen,
		IsMissingData: r.missing,
	}
}

// visitKey is a (record id, selection node) pair; the node side compares by pointer identity.
// Tracking visited pairs guards against infinite recursion on cyclic fragment spreads.
type visitKey struct {
	id   nexus.DataID
	node *ast.Selection
}

type reading struct {
	source  nexus.RecordSource
	vars    ast.Variables
	seen    nexus.RecordIDSet
	missing bool
	visited map[visitKey]bool
}

// readRecord reads selections against the record named id, returning a
// map[string]interface{} (or nil if the record is UNKNOWN).
func (r *reading) readRecord(id nexus.DataID, selections ast.SelectionSet) map[string]interface{} {
	r.seen.Add(id)

	rec, nonexistent, ok := r.source.Get(id)
	if !ok {
		r.missing = true
		return nil
	}
	if nonexistent {
		return nil
	}

	out := make(map[string]interface{})
	r.readInto(out, &rec, selections)
	return out
}

func (r *reading) readInto(out map[string]interface{}, rec *nexus.Record, selections ast.SelectionSet) {
	typeName := rec.TypeName()

	for i := range selections {
		sel := selections[i]

		if r.guard(rec.ID(), &selections[i]) {
			continue
		}

		switch f := sel.(type) {
		case ast.ScalarField:
			key := storagekey.Of(f.Name, f.Args, r.vars)
			out[ast.ResponseKey(f)] = r.readScalar(key, rec)

		case ast.LinkedField:
			key := storagekey.Of(f.Name, f.Args, r.vars)
			out[ast.ResponseKey(f)] = r.readLinked(key, rec, f)

		case ast.FragmentSpread:
			fragVars := mergeVars(r.vars, f.Args)
			if f.Masked {
				ptr, _ := out[f.FragmentName].(nexus.FragmentPointer)
				if ptr.Fragments == nil {
					ptr = nexus.FragmentPointer{ID: rec.ID(), Fragments: make(map[string]nexus.Variables)}
				}
				ptr.Fragments[f.FragmentName] = fragVars
				out[f.FragmentName] = ptr
				// A masked spread is not inlined: downstream consumers re-read the fragment
				// independently from the pointer.
				continue
			}
			sub := &reading{source: r.source, vars: fragVars, seen: r.seen, visited: r.visited}
			sub.readInto(out, rec, f.Selections)
			if sub.missing {
				r.missing = true
			}

		case ast.InlineFragment:
			if !f.Matches(typeName) {
				continue
			}
			r.readInto(out, rec, f.Selections)

		case ast.Condition:
			if !f.Evaluate(r.vars) {
				continue
			}
			r.readInto(out, rec, f.Selections)

		case ast.HandleField:
			// Handle fields are populated by a registered Handler during publish, not by the reader;
			// the reader simply surfaces whatever the handler already wrote under HandleKey.
			key := nexus.StorageKey(f.Key)
			if f.Key == "" {
				key = storagekey.Of(f.Name, f.Args, r.vars)
			}
			if f.Plural {
				out[ast.ResponseKey(f)] = r.readLinked(key, rec, ast.LinkedField{
					Name: f.Name, Alias: f.Alias, Plural: true, Selections: f.Selections,
				})
			} else {
				out[ast.ResponseKey(f)] = r.readLinked(key, rec, ast.LinkedField{
					Name: f.Name, Alias: f.Alias, Selections: f.Selections,
				})
			}
		}
	}
}

// guard reports whether (id, node) has already been visited in this read, recording it if not, so
// that cyclic fragment spreads terminate.
func (r *reading) guard(id nexus.DataID, node *ast.Selection) bool {
	key := visitKey{id: id, node: node}
	if r.visited[key] {
		return true
	}
	r.visited[key] = true
	return false
}

func (r *reading) readScalar(key nexus.StorageKey, rec *nexus.Record) interface{} {
	v, ok := rec.Get(key)
	if !ok || v.IsUndefined() {
		r.missing = true
		return nil
	}
	if v.IsScalarList() {
		return v.ScalarList()
	}
	return v.Scalar()
}

func (r *reading) readLinked(key nexus.StorageKey, rec *nexus.Record, f ast.LinkedField) interface{} {
	v, ok := rec.Get(key)
	if !ok || v.IsUndefined() {
		r.missing = true
		return nil
	}

	if f.Plural {
		if !v.IsLinkList() {
			r.missing = true
			return nil
		}
		ids := v.LinkList()
		out := make([]interface{}, len(ids))
		for i, id := range ids {
			if id == nil {
				out[i] = nil
				continue
			}
			out[i] = r.readRecord(*id, f.Selections)
		}
		return out
	}

	if !v.IsLink() {
		r.missing = true
		return nil
	}
	if v.IsNullLink() {
		return nil
	}
	return r.readRecord(v.Link(), f.Selections)
}

func mergeVars(vars ast.Variables, args ast.Arguments) ast.Variables {
	resolved := args.Resolve(vars)
	if len(resolved) == 0 {
		return vars
	}
	merged := make(ast.Variables, len(vars)+len(resolved))
	for k, v := range vars {
		merged[k] = v
	}
	for k, v := range resolved {
		merged[k] = v
	}
	return merged
}
