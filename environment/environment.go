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

// Package environment ties exactly one Store, one PublishQueue (reached through the Store) and
// one NetworkHandle together. There is no process-wide singleton; multiple Environments may
// coexist.
package environment

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/botobag/nexus"
	"github.com/botobag/nexus/nexuserr"
	"github.com/botobag/nexus/publish"
	"github.com/botobag/nexus/store"
)

// Config specifies how to build an Environment.
type Config struct {
	// (Required) Network is the narrow contract the Environment drives mutations through.
	Network NetworkHandle

	// (Optional) Store is the Store the Environment publishes into. If nil, New creates one with
	// Logger.
	Store *store.Store

	// (Optional, but see New) Logger is used for the Store's own lifecycle logging when Store is
	// nil, and for the Environment's own mutation lifecycle logging either way. Pass
	// zerolog.Nop() for silent operation, matching store.New's own contract.
	Logger zerolog.Logger
}

// Environment is the concrete binding of Config.
type Environment struct {
	store   *store.Store
	network NetworkHandle
	log     zerolog.Logger
}

var errMissingNetwork = nexuserr.New(nexuserr.Op("environment.New"), nexuserr.KindInvariant,
	"Config.Network is required")

// New validates config and builds an Environment.
func New(config Config) (*Environment, error) {
	if config.Network == nil {
		return nil, errMissingNetwork
	}

	st := config.Store
	if st == nil {
		st = store.New(config.Logger)
	}

	return &Environment{store: st, network: config.Network, log: config.Logger}, nil
}

// Store returns the Environment's Store.
func (e *Environment) Store() *store.Store { return e.store }

// ExecuteMutation applies req's optimistic update (if any) before the first network emission,
// commits every ResponsePayload the network observable emits as a server payload, and reverts the
// optimistic update exactly once, whether by completion, error, or the caller disposing early.
// Disposing the returned handle cancels in-flight network work and reverts too.
func (e *Environment) ExecuteMutation(ctx context.Context, req MutationRequest) nexus.Disposable {
	queue := e.store.Queue()

	var optimistic nexus.Disposable
	if req.OptimisticResponse != nil {
		optimistic = queue.ApplyUpdateWithResponse(publish.OptimisticResponse{
			Selector: req.Operation.Selector,
			Response: req.OptimisticResponse,
			Updater:  req.OptimisticUpdater,
		})
	} else if req.OptimisticUpdater != nil {
		optimistic = queue.ApplyUpdate(req.OptimisticUpdater)
	}
	if optimistic != nil {
		e.runAndNotify("apply optimistic update")
	}

	revertOptimistic := func() {
		if optimistic == nil {
			return
		}
		optimistic.Dispose()
		e.runAndNotify("revert optimistic update")
	}

	networkSub := e.network.ExecuteMutation(ctx, req).Subscribe(ctx, Observer{
		OnNext: func(payload ResponsePayload) {
			queue.CommitPayload(payload.ServerPayload)
			if req.Updater != nil {
				queue.CommitUpdate(req.Updater)
			}
			e.runAndNotify("commit mutation payload")
		},
		OnError: func(err error) {
			e.log.Warn().Err(err).Msg("nexus/environment: mutation failed")
			revertOptimistic()
		},
		OnComplete: revertOptimistic,
	})

	return nexus.OnceDisposable(func() {
		networkSub.Dispose()
		revertOptimistic()
	})
}

func (e *Environment) runAndNotify(op string) {
	if err := e.store.Run(); err != nil {
		e.log.Error().Err(err).Str("op", op).Msg("nexus/environment: store run failed")
		return
	}
	e.store.Notify()
}
