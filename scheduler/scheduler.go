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

// Package scheduler defers units of work off the caller's goroutine. The cache mutates its state
// on one logical execution context; work that must not run inline there (a garbage-collection
// sweep triggered by a retainer release, for example) is handed to an Executor instead.
package scheduler

import (
	"errors"
	"sync"
)

// Task is a deferred unit of work.
type Task interface {
	Run()
}

// TaskFunc adapts a plain function to Task.
type TaskFunc func()

// Run implements Task.
func (f TaskFunc) Run() { f() }

// Executor accepts tasks for later execution.
type Executor interface {
	// Submit enqueues task. It never blocks on the task itself; the only error is submitting to a
	// closed executor.
	Submit(task Task) error
}

// ErrExecutorClosed is returned by Submit after Close.
var ErrExecutorClosed = errors.New("scheduler: executor is closed")

// Serial is an Executor that runs tasks one at a time in submission order on a single background
// goroutine. The goroutine is started lazily on first Submit and parks again (exits) once the
// queue drains, so an idle Serial holds no resources beyond its queue slice.
type Serial struct {
	mu      sync.Mutex
	queue   []Task
	running bool
	closed  bool

	// idle is broadcast each time the drain goroutine parks; Drain waits on it.
	idle *sync.Cond
}

// NewSerial creates an empty Serial executor.
func NewSerial() *Serial {
	e := &Serial{}
	e.idle = sync.NewCond(&e.mu)
	return e
}

// Submit implements Executor.
func (e *Serial) Submit(task Task) error {
	if task == nil {
		return errors.New("scheduler: cannot submit nil task")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrExecutorClosed
	}
	e.queue = append(e.queue, task)
	if !e.running {
		e.running = true
		go e.drain()
	}
	return nil
}

func (e *Serial) drain() {
	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.running = false
			e.idle.Broadcast()
			e.mu.Unlock()
			return
		}
		task := e.queue[0]
		// Drop the head's reference so a long queue doesn't pin completed tasks.
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.mu.Unlock()

		task.Run()
	}
}

// Drain blocks until every task submitted before the call has finished running.
func (e *Serial) Drain() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.running {
		e.idle.Wait()
	}
}

// Close rejects further Submits. Tasks already queued still run; Close does not wait for them
// (use Drain for that).
func (e *Serial) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}
