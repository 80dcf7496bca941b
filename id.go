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

import "strings"

// DataID is the opaque stable identity of a Record. It is a short string; the cache makes no
// assumption about its contents beyond the two reserved forms below.
type DataID string

// RootID is the well-known identity of the query/mutation root record.
const RootID DataID = "client:root"

// clientIDPrefix marks identities synthesized by the normalizer for entities that lack a
// server-assigned global id.
const clientIDPrefix = "client:"

// IsClientID reports whether id was synthesized locally rather than assigned by the server.
func (id DataID) IsClientID() bool {
	return strings.HasPrefix(string(id), clientIDPrefix)
}

// String implements fmt.Stringer.
func (id DataID) String() string {
	return string(id)
}
