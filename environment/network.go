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

package environment

import (
	"context"

	"github.com/botobag/nexus"
	"github.com/botobag/nexus/publish"
)

// Operation is the narrow slice of a compiled mutation the core needs: the selector an optimistic
// response normalizes against. The schema parser and IR compiler that would produce a richer
// operation descriptor are external collaborators; the core only ever looks at this.
type Operation struct {
	Selector nexus.Selector
}

// MutationRequest is the argument to ExecuteMutation. Uploadables are a network-transport
// concern and have no field here.
type MutationRequest struct {
	Operation Operation

	// OptimisticResponse, if set, is normalized into the optimistic overlay before the first
	// network emission, the declarative form of an optimistic update.
	OptimisticResponse map[string]interface{}

	// OptimisticUpdater, if set, runs against the optimistic overlay: alone, it is the imperative
	// form of an optimistic update; alongside OptimisticResponse, it runs after the response is
	// normalized, for additional fixups.
	OptimisticUpdater publish.Updater

	// Updater, if set, runs as a one-shot client updater every time a server payload is committed.
	Updater publish.Updater
}

// ResponsePayload is: `{source, fieldPayloads?, errors?}`. Errors are non-fatal field
// errors riding alongside a still-useful partial payload; a wholesale mutation failure is reported
// through Observer.OnError instead.
type ResponsePayload struct {
	publish.ServerPayload
	Errors []error
}

// Observer is the callback triple a subscriber passes to Observable.Subscribe. At most one of
// OnError/OnComplete fires, and never before OnNext stops being called.
type Observer struct {
	OnNext     func(ResponsePayload)
	OnError    func(error)
	OnComplete func()
}

// Subscriber is the lazy body of an Observable: nothing it does runs until Subscribe is called.
type Subscriber func(ctx context.Context, observer Observer) nexus.Disposable

// Observable is the lazy, pull-initiated stream"Observable pattern": no work begins
// until Subscribe is called, and disposing the returned handle cancels in-flight work.
type Observable struct {
	subscribe Subscriber
}

// NewObservable builds an Observable whose subscribe body is invoked once per Subscribe call.
func NewObservable(subscribe Subscriber) Observable {
	return Observable{subscribe: subscribe}
}

// Subscribe begins the stream, invoking the wrapped Subscriber. It panics if the Observable was
// built with the zero value (NewObservable was never called) since that indicates a NetworkHandle
// programmer error, not a runtime condition callers should need to guard against.
func (o Observable) Subscribe(ctx context.Context, observer Observer) nexus.Disposable {
	if o.subscribe == nil {
		panic("environment: Subscribe called on a zero-value Observable")
	}
	return o.subscribe(ctx, observer)
}

// NetworkHandle is the narrow contract carves the network transport out through: an
// Environment holds exactly one, and the core only ever calls
// ExecuteMutation and observes the Observable it returns.
type NetworkHandle interface {
	ExecuteMutation(ctx context.Context, req MutationRequest) Observable
}
