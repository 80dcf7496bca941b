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

package store_test

import (
	"github.com/botobag/nexus"
	"github.com/botobag/nexus/normalizer"
	"github.com/botobag/nexus/recordsource"
)

// normalize is a test helper wrapping normalizer.Normalize against userSelector("4")-shaped
// responses: it writes response into a fresh source and panics if writing fails, since every
// caller here supplies a known-good fixture.
func normalize(response map[string]interface{}) nexus.RecordSource {
	user, _ := response["user"].(map[string]interface{})
	id, _ := user["id"].(string)

	source := recordsource.New()
	if _, err := normalizer.Normalize(source, response, userSelector(id)); err != nil {
		panic(err)
	}
	return source
}

// recordSource builds a one-record RecordSource directly, for fixtures unrelated to the
// userSelector shape.
func recordSource(obj map[string]interface{}) nexus.RecordSource {
	id, _ := obj["id"].(string)
	typeName, _ := obj["__typename"].(string)

	source := recordsource.New()
	rec := nexus.NewRecord(nexus.DataID(id), typeName)
	source.Set(rec)
	return source
}
