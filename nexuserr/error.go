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

// Package nexuserr classifies the errors the cache produces: shape conflicts between a payload
// and a selection, violated programmer contracts, network failures, and missing fields.
//
// An Error carries a message, an Op, a Kind and an optional wrapped error, with JSON
// serialization handled by jsoniter. The shape is modeled on upspin.io/errors.
package nexuserr

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/botobag/nexus"
)

// Op describes the operation that produced an error, usually "package.Function".
type Op string

// Kind classifies an error per the taxonomy
type Kind uint8

// Enumeration of Kind.
const (
	// KindOther is an unclassified error.
	KindOther Kind = iota
	// KindShape: a payload's shape conflicts with the selection (e.g. a scalar where a link was
	// expected). Fails the enclosing publish; no partial writes are retained.
	KindShape
	// KindInvariant: a programmer contract was violated (writing a linked record as a scalar,
	// missing __typename on a polymorphic field, an unresolved definition name). Surfaced
	// synchronously; never recovered by the core.
	KindInvariant
	// KindNetwork: surfaced through a mutation Observable's error channel; any associated
	// optimistic update is auto-disposed.
	KindNetwork
	// KindMissingField: soft. Never causes an Error to be raised on its own; reported through
	// Snapshot.IsMissingData instead. Retained here only so a caller that wants to log the
	// condition as an error can tag it consistently.
	KindMissingField
	// KindInternal is a bug in the cache itself.
	KindInternal
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindOther:
		return "other error"
	case KindShape:
		return "shape error"
	case KindInvariant:
		return "invariant error"
	case KindNetwork:
		return "network error"
	case KindMissingField:
		return "missing field error"
	case KindInternal:
		return "internal error"
	}
	return "unknown error kind"
}

// Error describes a failure encountered while normalizing, reading, publishing, or updating the
// cache. Build one with New, optionally wrapping an underlying error for context.
type Error struct {
	// Message describes the error for debugging.
	Message string

	// Path, if non-empty, names the DataID or StorageKey where the error occurred.
	Path string

	// Err is the underlying error, if any.
	Err error

	// Op is the operation being performed, usually the name of the function that raised it.
	Op Op

	// Kind classifies the error.
	Kind Kind
}

var _ error = (*Error)(nil)

// New builds an *Error from arguments, in the style of upspin.io/errors: args may include any
// mix of a string (stored as Message; only one is
// meaningful), an Op, a Kind, a Path, and a wrapped error.
func New(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch arg := arg.(type) {
		case string:
			e.Message = arg
		case Op:
			e.Op = arg
		case Kind:
			e.Kind = arg
		case nexus.DataID:
			e.Path = string(arg)
		case nexus.StorageKey:
			e.Path = string(arg)
		case error:
			e.Err = arg
		default:
			panic(fmt.Sprintf("nexuserr.New: unsupported argument type %T", arg))
		}
	}

	if prev, ok := e.Err.(*Error); ok {
		if e.Kind == KindOther {
			e.Kind = prev.Kind
		}
		if e.Path == "" {
			e.Path = prev.Path
		}
	}

	return e
}

// Error implements Go's error interface.
func (e *Error) Error() string {
	var msg string
	switch {
	case e.Op != "" && e.Message != "":
		msg = fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Op != "":
		msg = string(e.Op)
	default:
		msg = e.Message
	}

	if e.Path != "" {
		msg = fmt.Sprintf("%s (at %s)", msg, e.Path)
	}
	if e.Kind != KindOther {
		msg = fmt.Sprintf("%s: %s", msg, e.Kind)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

// Unwrap supports errors.Is/errors.As against the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is itself a *Error constructed with the given Kind; an *Error
// wrapped inside another error is not matched.
func IsKind(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

// MarshalJSON implements json.Marshaler via jsoniter.
func (e *Error) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal(struct {
		Message string `json:"message"`
		Path    string `json:"path,omitempty"`
		Kind    string `json:"kind,omitempty"`
	}{
		Message: e.Error(),
		Path:    e.Path,
		Kind: func() string {
			if e.Kind == KindOther {
				return ""
			}
			return e.Kind.String()
		}(),
	})
}
