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

package checker

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/botobag/nexus"
)

// Memo bounds the cost of a MissingFieldHandler that resolves the same field-missing lookup
// repeatedly across many Check calls (e.g. a handler backed by a remote id-mapping service).
// It is an opt-in companion to Handler, not part of the core recursion: Check never allocates
// one itself.
type Memo struct {
	cache *lru.Cache[string, interface{}]
}

// NewMemo creates a Memo holding at most size resolved handler answers.
func NewMemo(size int) *Memo {
	cache, err := lru.New[string, interface{}](size)
	if err != nil {
		// Only returned for a non-positive size, which is a caller bug.
		panic(err)
	}
	return &Memo{cache: cache}
}

func memoKey(kind Kind, ctx FieldContext) string {
	return fmt.Sprintf("%d:%s:%s:%v", kind, ctx.RecordID, ctx.Field.GetName(), ctx.Args)
}

// memoEntry boxes a cached answer so a legitimately-nil substitute (a defined null) is
// distinguishable from a cache miss.
type memoEntry struct {
	value interface{}
}

// MemoizeScalar wraps a scalar Handler function so repeated FieldContexts (same kind, record and
// field) are answered from cache instead of re-invoking fn.
func (m *Memo) MemoizeScalar(fn func(FieldContext) (interface{}, bool)) func(FieldContext) (interface{}, bool) {
	return func(ctx FieldContext) (interface{}, bool) {
		key := memoKey(KindScalar, ctx)
		if v, ok := m.cache.Get(key); ok {
			// Only defined answers are ever cached, so presence alone means defined.
			return v.(memoEntry).value, true
		}
		value, defined := fn(ctx)
		if defined {
			m.cache.Add(key, memoEntry{value: value})
		}
		return value, defined
	}
}

// MemoizeLinked wraps a linked Handler function the same way MemoizeScalar does for scalars.
func (m *Memo) MemoizeLinked(fn func(FieldContext) (nexus.DataID, bool)) func(FieldContext) (nexus.DataID, bool) {
	return func(ctx FieldContext) (nexus.DataID, bool) {
		key := memoKey(KindLinked, ctx)
		if v, ok := m.cache.Get(key); ok {
			id, _ := v.(memoEntry).value.(nexus.DataID)
			return id, true
		}
		id, defined := fn(ctx)
		if defined {
			m.cache.Add(key, memoEntry{value: id})
		}
		return id, defined
	}
}

// wrap returns a copy of handlers with every Scalar/Linked function routed through m. Check
// consumes this directly: it calls wrap once per Check, so repeated FieldContexts within (and
// across, since m outlives a single Check) calls skip straight to the cached answer instead of
// re-invoking the handler. PluralLinked is left unmemoized: its substitute is a slice, and keying
// a cache on slice identity would need a different key shape than memoKey produces for scalar and
// singular-linked lookups.
func (m *Memo) wrap(handlers []Handler) []Handler {
	if len(handlers) == 0 {
		return handlers
	}
	wrapped := make([]Handler, len(handlers))
	for i, h := range handlers {
		switch h.Kind {
		case KindScalar:
			if h.Scalar != nil {
				h.Scalar = m.MemoizeScalar(h.Scalar)
			}
		case KindLinked:
			if h.Linked != nil {
				h.Linked = m.MemoizeLinked(h.Linked)
			}
		}
		wrapped[i] = h
	}
	return wrapped
}
