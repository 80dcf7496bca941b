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

package scheduler_test

import (
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/botobag/nexus/scheduler"
)

var _ = Describe("Serial", func() {
	It("runs every submitted task", func() {
		e := scheduler.NewSerial()

		var (
			mu    sync.Mutex
			count int
		)
		for i := 0; i < 10; i++ {
			Expect(e.Submit(scheduler.TaskFunc(func() {
				mu.Lock()
				count++
				mu.Unlock()
			}))).To(Succeed())
		}

		e.Drain()
		mu.Lock()
		defer mu.Unlock()
		Expect(count).To(Equal(10))
	})

	It("runs tasks in submission order", func() {
		e := scheduler.NewSerial()

		var (
			mu    sync.Mutex
			order []int
		)
		for i := 0; i < 100; i++ {
			i := i
			Expect(e.Submit(scheduler.TaskFunc(func() {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
			}))).To(Succeed())
		}

		e.Drain()
		mu.Lock()
		defer mu.Unlock()
		Expect(order).To(HaveLen(100))
		for i, got := range order {
			Expect(got).To(Equal(i))
		}
	})

	It("accepts submissions from a task already running on the executor", func() {
		e := scheduler.NewSerial()

		done := make(chan struct{})
		Expect(e.Submit(scheduler.TaskFunc(func() {
			Expect(e.Submit(scheduler.TaskFunc(func() {
				close(done)
			}))).To(Succeed())
		}))).To(Succeed())

		Eventually(done).Should(BeClosed())
		e.Drain()
	})

	It("rejects a nil task", func() {
		e := scheduler.NewSerial()
		Expect(e.Submit(nil)).To(HaveOccurred())
	})

	It("rejects submissions after Close but still drains queued tasks", func() {
		e := scheduler.NewSerial()

		block := make(chan struct{})
		ran := false
		Expect(e.Submit(scheduler.TaskFunc(func() { <-block }))).To(Succeed())
		Expect(e.Submit(scheduler.TaskFunc(func() { ran = true }))).To(Succeed())

		e.Close()
		Expect(e.Submit(scheduler.TaskFunc(func() {}))).To(MatchError(scheduler.ErrExecutorClosed))

		close(block)
		e.Drain()
		Expect(ran).To(BeTrue())
	})

	It("restarts its drain goroutine after going idle", func() {
		e := scheduler.NewSerial()

		first := make(chan struct{})
		Expect(e.Submit(scheduler.TaskFunc(func() { close(first) }))).To(Succeed())
		Eventually(first).Should(BeClosed())
		e.Drain()

		second := make(chan struct{})
		Expect(e.Submit(scheduler.TaskFunc(func() { close(second) }))).To(Succeed())
		Eventually(second).Should(BeClosed())
	})
})
