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

// Package checker implements the DataChecker: a reader variant that answers
// whether a selector's data is entirely present, optionally consulting MissingFieldHandlers to
// patch the source with substitute values as it goes.
//
// It shares nexus/reader's traversal shape (same node kinds, same StorageKey derivation) but
// threads a *bool* completeness result and a handler lookup down through the walk instead of
// nexus/reader's data tree.
package checker

import (
	"github.com/botobag/nexus"
	"github.com/botobag/nexus/ast"
	"github.com/botobag/nexus/storagekey"
)

// Kind discriminates a MissingFieldHandler's signature.
type Kind uint8

const (
	// KindScalar handlers substitute a scalar value for a missing scalar field.
	KindScalar Kind = iota
	// KindLinked handlers substitute a DataID for a missing singular linked field.
	KindLinked
	// KindPluralLinked handlers substitute a list of (possibly-nil) DataIDs for a missing plural
	// linked field.
	KindPluralLinked
)

// FieldContext is passed to a Handler describing the field that was found missing.
type FieldContext struct {
	// Field is the selection AST node for the missing field.
	Field ast.FieldSelection
	// RecordID is the id of the record the field belongs to.
	RecordID nexus.DataID
	// Args holds the field's resolved arguments.
	Args map[string]interface{}
}

// Handler is a MissingFieldHandler. Exactly one of Scalar, Linked or
// PluralLinked should be set, matching Kind.
type Handler struct {
	Kind Kind

	Scalar       func(ctx FieldContext) (interface{}, bool)
	Linked       func(ctx FieldContext) (nexus.DataID, bool)
	PluralLinked func(ctx FieldContext) ([]*nexus.DataID, bool)
}

// Check reports whether selector's data is entirely present in source. If handlers is non-empty,
// a missing field is first offered to every handler of the matching Kind, in order; the first to
// answer patches source (the record is rewritten with the substitute and Set back, so Check's
// effects are visible to the next Check/Read) and the traversal continues as if the field had
// been present all along. If no
// handler answers, Check returns false immediately.
//
// memo, if non-nil, memoizes each handler's Scalar/Linked answer by (kind, record, field, args) so
// a handler that resolves the same missing field across many Check calls (e.g. one backed by a
// remote id-mapping service) is invoked at most once per distinct FieldContext. Pass nil to
// dispatch handlers unmemoized.
func Check(source nexus.MutableRecordSource, selector nexus.Selector, handlers []Handler, memo *Memo) bool {
	if memo != nil {
		handlers = memo.wrap(handlers)
	}
	c := &checking{source: source, vars: selector.Variables, handlers: handlers}
	return c.checkRecord(selector.DataID, selector.Node)
}

type checking struct {
	source   nexus.MutableRecordSource
	vars     ast.Variables
	handlers []Handler
}

func (c *checking) checkRecord(id nexus.DataID, selections ast.SelectionSet) bool {
	rec, nonexistent, ok := c.source.Get(id)
	if !ok {
		return false
	}
	if nonexistent {
		return true
	}
	return c.checkInto(&rec, selections)
}

func (c *checking) checkInto(rec *nexus.Record, selections ast.SelectionSet) bool {
	typeName := rec.TypeName()

	for _, sel := range selections {
		switch f := sel.(type) {
		case ast.ScalarField:
			key := storagekey.Of(f.Name, f.Args, c.vars)
			if !c.checkScalar(rec, key, f) {
				return false
			}

		case ast.LinkedField:
			key := storagekey.Of(f.Name, f.Args, c.vars)
			if !c.checkLinked(rec, key, f) {
				return false
			}

		case ast.FragmentSpread:
			fragVars := mergeVars(c.vars, f.Args)
			sub := &checking{source: c.source, vars: fragVars, handlers: c.handlers}
			if !sub.checkInto(rec, f.Selections) {
				return false
			}

		case ast.InlineFragment:
			if !f.Matches(typeName) {
				continue
			}
			if !c.checkInto(rec, f.Selections) {
				return false
			}

		case ast.Condition:
			if !f.Evaluate(c.vars) {
				continue
			}
			if !c.checkInto(rec, f.Selections) {
				return false
			}

		case ast.HandleField:
			// Handle fields are populated during publish, not by the checker; their presence is not a
			// completeness criterion here.
		}
	}

	return true
}

func (c *checking) checkScalar(rec *nexus.Record, key nexus.StorageKey, f ast.ScalarField) bool {
	v, ok := rec.Get(key)
	if ok && !v.IsUndefined() {
		return true
	}

	ctx := FieldContext{Field: f, RecordID: rec.ID(), Args: f.Args.Resolve(c.vars)}
	for _, h := range c.handlers {
		if h.Kind != KindScalar || h.Scalar == nil {
			continue
		}
		if value, defined := h.Scalar(ctx); defined {
			*rec = rec.Set(key, nexus.ScalarValue(value))
			c.source.Set(*rec)
			return true
		}
	}
	return false
}

func (c *checking) checkLinked(rec *nexus.Record, key nexus.StorageKey, f ast.LinkedField) bool {
	v, ok := rec.Get(key)
	if ok && !v.IsUndefined() {
		if f.Plural {
			if !v.IsLinkList() {
				return false
			}
			for _, id := range v.LinkList() {
				if id == nil {
					continue
				}
				if !c.checkRecord(*id, f.Selections) {
					return false
				}
			}
			return true
		}
		if !v.IsLink() {
			return false
		}
		if v.IsNullLink() {
			return true
		}
		return c.checkRecord(v.Link(), f.Selections)
	}

	ctx := FieldContext{Field: f, RecordID: rec.ID(), Args: f.Args.Resolve(c.vars)}
	if f.Plural {
		for _, h := range c.handlers {
			if h.Kind != KindPluralLinked || h.PluralLinked == nil {
				continue
			}
			if ids, defined := h.PluralLinked(ctx); defined {
				*rec = rec.Set(key, nexus.LinkListValue(ids))
				c.source.Set(*rec)
				for _, id := range ids {
					if id != nil && !c.checkRecord(*id, f.Selections) {
						return false
					}
				}
				return true
			}
		}
		return false
	}

	for _, h := range c.handlers {
		if h.Kind != KindLinked || h.Linked == nil {
			continue
		}
		if id, defined := h.Linked(ctx); defined {
			*rec = rec.Set(key, nexus.LinkValue(id))
			c.source.Set(*rec)
			return c.checkRecord(id, f.Selections)
		}
	}
	return false
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
