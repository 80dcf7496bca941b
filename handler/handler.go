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

// Package handler implements the handle-field contract: a registry of named
// Handlers invoked during publish against a RecordSourceProxy, fed by HandleFieldPayloads the
// normalizer collects while walking a handle field.
//
// The registry keeps one Handler per handle name in a sync.Map.
package handler

import (
	"sync"

	"github.com/botobag/nexus"
	"github.com/botobag/nexus/proxy"
)

// Payload is the HandleFieldPayload: a deferred field population request
// emitted by the normalizer when it encounters a HandleField selection.
type Payload struct {
	// Args holds the field's resolved arguments.
	Args map[string]interface{}
	// DataID is the id of the record the handle field belongs to.
	DataID nexus.DataID
	// FieldKey is the StorageKey the field would occupy absent the handle.
	FieldKey nexus.StorageKey
	// Handle names the registered Handler responsible for this field.
	Handle string
	// HandleKey is the StorageKey the handler should use to store its result, which may differ
	// from FieldKey when a handle mixes in extra parameters.
	HandleKey nexus.StorageKey
}

// Handler updates store in response to one Payload
// RecordSourceProxy overlay (nexus/proxy) that updaters write through, so handler writes land in
// the same overlay as updater writes"Handler writes are applied to the same
// overlay as updaters."
type Handler interface {
	Update(store proxy.RecordSourceProxy, payload Payload) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(store proxy.RecordSourceProxy, payload Payload) error

// Update implements Handler.
func (f HandlerFunc) Update(store proxy.RecordSourceProxy, payload Payload) error {
	return f(store, payload)
}

// Registry maps handle names to the Handler responsible for them. A single Registry is normally
// shared by one Environment's PublishQueue.
type Registry struct {
	handlers sync.Map // string -> Handler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register associates name with h, replacing any previous registration.
func (r *Registry) Register(name string, h Handler) {
	r.handlers.Store(name, h)
}

// Lookup returns the Handler registered for name, if any.
func (r *Registry) Lookup(name string) (Handler, bool) {
	v, ok := r.handlers.Load(name)
	if !ok {
		return nil, false
	}
	return v.(Handler), true
}

// Dispatch looks up the Handler named by payload.Handle and invokes it against store. It returns
// nil without error if no handler is registered for the name: an unregistered handle name most
// often means the handler simply hasn't been wired up yet in a partially-configured Environment.
func (r *Registry) Dispatch(store proxy.RecordSourceProxy, payload Payload) error {
	h, ok := r.Lookup(payload.Handle)
	if !ok {
		return nil
	}
	return h.Update(store, payload)
}
