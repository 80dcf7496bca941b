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

package checker_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/botobag/nexus"
	"github.com/botobag/nexus/ast"
	"github.com/botobag/nexus/checker"
	"github.com/botobag/nexus/recordsource"
)

var _ = Describe("Check", func() {
	It("reports true when every selected field is already present", func() {
		source := recordsource.New()
		source.Set(nexus.NewRecord(nexus.DataID("4"), "User").
			Set(nexus.StorageKey("name"), nexus.ScalarValue("Zuck")))

		node := ast.SelectionSet{ast.ScalarField{Name: "name"}}
		selector := nexus.Selector{DataID: nexus.DataID("4"), Node: node}

		Expect(checker.Check(source, selector, nil, nil)).To(BeTrue())
	})

	It("short-circuits false on a missing field with no handler to consult", func() {
		source := recordsource.New()
		source.Set(nexus.NewRecord(nexus.DataID("4"), "User"))

		node := ast.SelectionSet{ast.ScalarField{Name: "name"}}
		selector := nexus.Selector{DataID: nexus.DataID("4"), Node: node}

		Expect(checker.Check(source, selector, nil, nil)).To(BeFalse())
	})

	It("patches the source with a MissingFieldHandler's scalar substitute and reports true", func() {
		source := recordsource.New()
		source.Set(nexus.NewRecord(nexus.DataID("4"), "User"))

		node := ast.SelectionSet{ast.ScalarField{Name: "name"}}
		selector := nexus.Selector{DataID: nexus.DataID("4"), Node: node}

		handlers := []checker.Handler{{
			Kind: checker.KindScalar,
			Scalar: func(ctx checker.FieldContext) (interface{}, bool) {
				return "Zuck", true
			},
		}}

		Expect(checker.Check(source, selector, handlers, nil)).To(BeTrue())

		rec, _, _ := source.Get(nexus.DataID("4"))
		name, ok := rec.Get(nexus.StorageKey("name"))
		Expect(ok).To(BeTrue())
		Expect(name.Scalar()).To(Equal("Zuck"))
	})

	It("recurses into a handler-substituted linked id", func() {
		source := recordsource.New()
		source.Set(nexus.NewRecord(nexus.DataID("4"), "User"))
		source.Set(nexus.NewRecord(nexus.DataID("9"), "User").
			Set(nexus.StorageKey("name"), nexus.ScalarValue("Best Friend")))

		node := ast.SelectionSet{
			ast.LinkedField{
				Name:       "bestFriend",
				Selections: ast.SelectionSet{ast.ScalarField{Name: "name"}},
			},
		}
		selector := nexus.Selector{DataID: nexus.DataID("4"), Node: node}

		handlers := []checker.Handler{{
			Kind: checker.KindLinked,
			Linked: func(ctx checker.FieldContext) (nexus.DataID, bool) {
				return nexus.DataID("9"), true
			},
		}}

		Expect(checker.Check(source, selector, handlers, nil)).To(BeTrue())
	})

	It("treats a Nonexistent record as vacuously complete", func() {
		source := recordsource.New()
		source.Delete(nexus.DataID("4"))

		node := ast.SelectionSet{ast.ScalarField{Name: "name"}}
		selector := nexus.Selector{DataID: nexus.DataID("4"), Node: node}

		Expect(checker.Check(source, selector, nil, nil)).To(BeTrue())
	})

	It("reports false for an Unknown record", func() {
		source := recordsource.New()
		node := ast.SelectionSet{ast.ScalarField{Name: "name"}}
		selector := nexus.Selector{DataID: nexus.DataID("4"), Node: node}

		Expect(checker.Check(source, selector, nil, nil)).To(BeFalse())
	})

	It("invokes a handler at most once per FieldContext when given a shared Memo", func() {
		// Two independent sources, both missing "name" on record "4": since Check patches whichever
		// source it's given, reusing one source across calls would mask the handler behind the
		// now-present field rather than through the Memo. Separate sources isolate what's actually
		// under test.
		newSource := func() nexus.MutableRecordSource {
			s := recordsource.New()
			s.Set(nexus.NewRecord(nexus.DataID("4"), "User"))
			return s
		}

		node := ast.SelectionSet{ast.ScalarField{Name: "name"}}
		selector := nexus.Selector{DataID: nexus.DataID("4"), Node: node}

		calls := 0
		handlers := []checker.Handler{{
			Kind: checker.KindScalar,
			Scalar: func(ctx checker.FieldContext) (interface{}, bool) {
				calls++
				return "Zuck", true
			},
		}}

		memo := checker.NewMemo(16)

		Expect(checker.Check(newSource(), selector, handlers, memo)).To(BeTrue())
		Expect(checker.Check(newSource(), selector, handlers, memo)).To(BeTrue())
		Expect(calls).To(Equal(1))

		// Without a shared Memo the handler is consulted again.
		Expect(checker.Check(newSource(), selector, handlers, nil)).To(BeTrue())
		Expect(calls).To(Equal(2))
	})
})
