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

// Package normalizer walks a selection AST against a matching response tree and writes the result
// into a MutableRecordSource, deriving stable record identity and StorageKeys as it goes.
//
// The walker is a recursive descent over the selection AST, carrying a current record and a
// parallel cursor into the response object. It consumes a pre-compiled selection AST; compiling
// one from a schema is a separate concern.
package normalizer

import (
	"fmt"
	"strconv"

	"github.com/botobag/nexus"
	"github.com/botobag/nexus/ast"
	"github.com/botobag/nexus/handler"
	"github.com/botobag/nexus/nexuserr"
	"github.com/botobag/nexus/storagekey"
)

// Normalize writes responseRoot into source under selector, returning every HandleFieldPayload
// collected in traversal order.
//
// Normalize does not roll back writes already made when it returns an error; callers that need
// all-or-nothing semantics should normalize into a fresh, discardable source and merge only on
// success - recordsource.Source is cheap to allocate and merge via its ApplyTo method for exactly
// this reason.
func Normalize(source nexus.MutableRecordSource, responseRoot map[string]interface{}, selector nexus.Selector) ([]handler.Payload, error) {
	n := &normalization{source: source, vars: selector.Variables}

	rec := loadOrCreate(source, selector.DataID, typeNameOf(responseRoot))
	if err := n.walk(&rec, selector.Node, responseRoot); err != nil {
		return nil, err
	}
	source.Set(rec)

	return n.payloads, nil
}

type normalization struct {
	source   nexus.MutableRecordSource
	vars     ast.Variables
	payloads []handler.Payload
}

// loadOrCreate returns the current record for id, or a fresh one carrying typeName if id is
// UNKNOWN or NONEXISTENT in source.
func loadOrCreate(source nexus.RecordSource, id nexus.DataID, typeName string) nexus.Record {
	rec, nonexistent, ok := source.Get(id)
	if !ok || nonexistent {
		return nexus.NewRecord(id, typeName)
	}
	return rec
}

func typeNameOf(obj map[string]interface{}) string {
	if obj == nil {
		return ""
	}
	name, _ := obj["__typename"].(string)
	return name
}

// walk applies selections against obj, accumulating writes into *rec (the record for the current
// id) and recursing into child records for linked fields. rec is written back to n.source by the
// caller once the whole selection set for its id has been processed; nested fragment/inline/
// condition selections share the same *rec since they describe the same record.
func (n *normalization) walk(rec *nexus.Record, selections ast.SelectionSet, obj map[string]interface{}) error {
	typeName := rec.TypeName()

	for _, sel := range selections {
		switch f := sel.(type) {
		case ast.ScalarField:
			key := storagekey.Of(f.Name, f.Args, n.vars)
			v, present := obj[ast.ResponseKey(f)]
			*rec = rec.Set(key, scalarFieldValue(v, present))

		case ast.LinkedField:
			key := storagekey.Of(f.Name, f.Args, n.vars)
			raw, present := obj[ast.ResponseKey(f)]
			if !present {
				*rec = rec.Set(key, nexus.Undefined)
				continue
			}
			if raw == nil {
				*rec = rec.Set(key, nexus.NullLinkValue())
				continue
			}

			if f.Plural {
				items, ok := raw.([]interface{})
				if !ok {
					return nexuserr.New(nexuserr.Op("normalizer.walk"), nexuserr.KindShape,
						rec.ID(), fmt.Sprintf("expected a list for plural linked field %q", f.Name))
				}
				ids := make([]*nexus.DataID, len(items))
				for i, item := range items {
					if item == nil {
						ids[i] = nil
						continue
					}
					child, ok := item.(map[string]interface{})
					if !ok {
						return nexuserr.New(nexuserr.Op("normalizer.walk"), nexuserr.KindShape,
							rec.ID(), fmt.Sprintf("expected an object element for plural linked field %q", f.Name))
					}
					childType, err := childTypeName(f, child, rec.ID())
					if err != nil {
						return err
					}
					childID := childDataID(rec.ID(), key, child, i, true)
					if err := n.writeChild(childID, childType, f.Selections, child); err != nil {
						return err
					}
					id := childID
					ids[i] = &id
				}
				*rec = rec.Set(key, nexus.LinkListValue(ids))
				continue
			}

			child, ok := raw.(map[string]interface{})
			if !ok {
				return nexuserr.New(nexuserr.Op("normalizer.walk"), nexuserr.KindShape,
					rec.ID(), fmt.Sprintf("expected an object for linked field %q", f.Name))
			}
			childType, err := childTypeName(f, child, rec.ID())
			if err != nil {
				return err
			}
			childID := childDataID(rec.ID(), key, child, 0, false)
			if err := n.writeChild(childID, childType, f.Selections, child); err != nil {
				return err
			}
			*rec = rec.Set(key, nexus.LinkValue(childID))

		case ast.FragmentSpread:
			fragVars := mergeVars(n.vars, f.Args)
			sub := &normalization{source: n.source, vars: fragVars, payloads: n.payloads}
			if err := sub.walk(rec, f.Selections, obj); err != nil {
				return err
			}
			n.payloads = sub.payloads

		case ast.InlineFragment:
			if !f.Matches(typeName) {
				continue
			}
			if err := n.walk(rec, f.Selections, obj); err != nil {
				return err
			}

		case ast.Condition:
			if !f.Evaluate(n.vars) {
				continue
			}
			if err := n.walk(rec, f.Selections, obj); err != nil {
				return err
			}

		case ast.HandleField:
			fieldKey := storagekey.Of(f.Name, f.Args, n.vars)
			handleKey := fieldKey
			if f.Key != "" {
				handleKey = nexus.StorageKey(f.Key)
			}
			n.payloads = append(n.payloads, handler.Payload{
				Args:      f.Args.Resolve(n.vars),
				DataID:    rec.ID(),
				FieldKey:  fieldKey,
				Handle:    f.Handle,
				HandleKey: handleKey,
			})

		default:
			return nexuserr.New(nexuserr.Op("normalizer.walk"), nexuserr.KindInvariant,
				fmt.Sprintf("unrecognized selection node %T", sel))
		}
	}

	return nil
}

// childTypeName resolves the type a linked child record is written under: the response's
// __typename wins, else the field's statically-known ConcreteType. A child with neither would
// leave the record untyped and make every later type-conditioned read silently skip it, so it is
// rejected as a contract violation instead.
func childTypeName(f ast.LinkedField, child map[string]interface{}, parentID nexus.DataID) (string, error) {
	if name := typeNameOf(child); name != "" {
		return name, nil
	}
	if f.ConcreteType != "" {
		return f.ConcreteType, nil
	}
	return "", nexuserr.New(nexuserr.Op("normalizer.walk"), nexuserr.KindInvariant, parentID,
		fmt.Sprintf("missing __typename in response for linked field %q, which has no concrete type", f.Name))
}

// writeChild normalizes selections against child under childID, writing the result to n.source
// immediately (child records are independent top-level writes from the parent's perspective).
func (n *normalization) writeChild(childID nexus.DataID, typeName string, selections ast.SelectionSet, child map[string]interface{}) error {
	rec := loadOrCreate(n.source, childID, typeName)
	if err := n.walk(&rec, selections, child); err != nil {
		return err
	}
	n.source.Set(rec)
	return nil
}

// scalarFieldValue converts a response leaf (present or not) into a FieldValue. Arrays of leaves
// become a scalar list; everything else (including nil) is a scalar
func scalarFieldValue(v interface{}, present bool) nexus.FieldValue {
	if !present {
		return nexus.Undefined
	}
	if list, ok := v.([]interface{}); ok {
		return nexus.ScalarListValue(list)
	}
	return nexus.ScalarValue(v)
}

// childDataID derives the DataID for a linked response object: prefer a server-supplied "id",
// else synthesize a deterministic client id, appending ":index" for plural children that lack
// one.
func childDataID(parentID nexus.DataID, key nexus.StorageKey, obj map[string]interface{}, index int, plural bool) nexus.DataID {
	if raw, ok := obj["id"]; ok && raw != nil {
		return nexus.DataID(fmt.Sprint(raw))
	}

	base := string(parentID) + ":" + string(key)
	if plural {
		base += ":" + strconv.Itoa(index)
	}
	return nexus.DataID("client:" + base)
}

// mergeVars resolves args against the enclosing vars and layers the results on top, producing the
// variable binding a fragment spread's own body should see (Relay's @argumentDefinitions/
// @arguments pattern, simplified: the AST compiler is out of scope, so resolution here is just an
// override, not a type-checked binding).
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
