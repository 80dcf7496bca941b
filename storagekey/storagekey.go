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

// Package storagekey derives the canonical StorageKey a field (plus its resolved arguments)
// occupies within a Record: "name(arg1:v1,arg2:v2)" with argument names sorted lexicographically
// and each value in canonical JSON, or the bare field name when no arguments remain.
package storagekey

import (
	"fmt"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/botobag/nexus"
	"github.com/botobag/nexus/ast"
)

// argJSON encodes argument values canonically: object keys sorted, no whitespace. Two logically
// equivalent argument sets must produce byte-identical keys, so map key order cannot be left to
// encoder defaults.
var argJSON = jsoniter.Config{SortMapKeys: true}.Froze()

// Of derives the StorageKey for a field named fieldName with the given argument AST, evaluated
// against vars. Arguments whose value resolves to undefined (an unbound variable) are dropped
// before encoding.
func Of(fieldName string, args ast.Arguments, vars ast.Variables) nexus.StorageKey {
	return encode(fieldName, args.Resolve(vars))
}

// OfArgs is a convenience for deriving a StorageKey from an already-resolved argument map,
// bypassing AST evaluation. It is used by handlers and updaters that construct storage keys
// directly instead of through a selection AST.
func OfArgs(fieldName string, resolvedArgs map[string]interface{}) nexus.StorageKey {
	return encode(fieldName, resolvedArgs)
}

func encode(fieldName string, resolved map[string]interface{}) nexus.StorageKey {
	if len(resolved) == 0 {
		return nexus.StorageKey(fieldName)
	}

	names := make([]string, 0, len(resolved))
	for name := range resolved {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(fieldName)
	b.WriteByte('(')
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
		b.WriteByte(':')
		value, err := argJSON.Marshal(resolved[name])
		if err != nil {
			// Resolved argument values are scalars, slices and string-keyed maps of the same; an
			// unencodable value here means the caller handed us a bad literal.
			panic(fmt.Sprintf("storagekey: failed to encode argument %q of %q: %v", name, fieldName, err))
		}
		b.Write(value)
	}
	b.WriteByte(')')

	return nexus.StorageKey(b.String())
}
