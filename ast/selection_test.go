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

package ast_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/botobag/nexus/ast"
)

var _ = Describe("ResponseKey", func() {
	It("uses the alias when present", func() {
		f := ast.ScalarField{Name: "name", Alias: "displayName"}
		Expect(ast.ResponseKey(f)).To(Equal("displayName"))
	})

	It("falls back to the field name when there's no alias", func() {
		f := ast.ScalarField{Name: "name"}
		Expect(ast.ResponseKey(f)).To(Equal("name"))
	})
})

var _ = Describe("InlineFragment", func() {
	It("matches only its own type condition", func() {
		frag := ast.InlineFragment{TypeCondition: "Actor"}
		Expect(frag.Matches("Actor")).To(BeTrue())
		Expect(frag.Matches("Page")).To(BeFalse())
	})
})

var _ = Describe("Condition", func() {
	It("evaluates a literal passing value", func() {
		c := ast.Condition{PassingValue: true, HasLiteral: true, Literal: true}
		Expect(c.Evaluate(nil)).To(BeTrue())
	})

	It("evaluates a literal that doesn't match the passing value", func() {
		c := ast.Condition{PassingValue: true, HasLiteral: true, Literal: false}
		Expect(c.Evaluate(nil)).To(BeFalse())
	})

	It("evaluates a bound variable against the passing value", func() {
		c := ast.Condition{PassingValue: false, Variable: "skip"}
		Expect(c.Evaluate(ast.Variables{"skip": false})).To(BeTrue())
		Expect(c.Evaluate(ast.Variables{"skip": true})).To(BeFalse())
	})
})

var _ = Describe("Selection", func() {
	It("is implemented by every node kind listed in the selector AST", func() {
		var nodes ast.SelectionSet = ast.SelectionSet{
			ast.ScalarField{Name: "id"},
			ast.LinkedField{Name: "author"},
			ast.FragmentSpread{FragmentName: "actorFields"},
			ast.InlineFragment{TypeCondition: "Actor"},
			ast.Condition{Variable: "includeExtra"},
			ast.HandleField{Name: "friends", Handle: "connection"},
		}
		Expect(nodes).To(HaveLen(6))
	})
})
