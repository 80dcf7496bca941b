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

// Package nexus provides the core of a reactive graph-data client: an in-memory normalized
// cache keyed by stable record identity, with structured reads over selector trees, transactional
// application of server payloads and optimistic local updates, change notification limited to
// affected subscribers, and reference-counted retention with garbage collection.
//
// Record-Source-Selector Design
//
// The cache never stores response trees directly. Every entity is normalized into a Record keyed
// by a DataID, and every read re-derives a response-shaped Snapshot by walking a Selector (a
// selection AST bound to a root DataID and a set of variables) against the current RecordSource.
// Because reads are pure functions of (source, selector), the same selector can be re-evaluated
// cheaply whenever the set of changed record ids intersects the ids it previously touched; this is
// how notify() avoids redundant subscriber callbacks.
//
// Subpackages implement each moving part: nexus/ast is the selector AST, nexus/storagekey derives
// field storage keys, nexus/recordsource provides RecordSource implementations,
// nexus/normalizer and nexus/reader walk the AST to write and to read, nexus/checker answers
// completeness queries, nexus/proxy exposes the mutable overlay given to updaters,
// nexus/publish sequences staged writes, and nexus/store is the long-lived owner that ties
// subscriptions and retention together.
package nexus
