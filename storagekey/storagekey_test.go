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

package storagekey_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/botobag/nexus/ast"
	"github.com/botobag/nexus/storagekey"
)

var _ = Describe("Of", func() {
	It("is just the field name when there are no arguments", func() {
		key := storagekey.Of("name", nil, nil)
		Expect(string(key)).To(Equal("name"))
	})

	It("canonicalizes argument order regardless of the AST's order", func() {
		forward := ast.Arguments{
			{Name: "first", Value: ast.ScalarValue(10)},
			{Name: "after", Value: ast.ScalarValue("cursor")},
		}
		backward := ast.Arguments{
			{Name: "after", Value: ast.ScalarValue("cursor")},
			{Name: "first", Value: ast.ScalarValue(10)},
		}

		keyForward := storagekey.Of("friends", forward, nil)
		keyBackward := storagekey.Of("friends", backward, nil)

		Expect(keyForward).To(Equal(keyBackward))
		Expect(string(keyForward)).To(Equal(`friends(after:"cursor",first:10)`))
	})

	It("resolves variable references against the supplied Variables", func() {
		args := ast.Arguments{{Name: "id", Value: ast.VariableValue("userID")}}
		key := storagekey.Of("node", args, ast.Variables{"userID": "4"})
		Expect(string(key)).To(Equal(`node(id:"4")`))
	})

	It("drops arguments that resolve to undefined", func() {
		args := ast.Arguments{
			{Name: "id", Value: ast.ScalarValue("4")},
			{Name: "token", Value: ast.VariableValue("missing")},
		}
		key := storagekey.Of("node", args, ast.Variables{})
		Expect(string(key)).To(Equal(`node(id:"4")`))
	})
})

var _ = Describe("OfArgs", func() {
	It("matches Of's canonicalization for an equivalent resolved argument map", func() {
		viaAST := storagekey.Of("friends", ast.Arguments{
			{Name: "first", Value: ast.ScalarValue(10)},
			{Name: "after", Value: ast.ScalarValue("cursor")},
		}, nil)
		viaArgs := storagekey.OfArgs("friends", map[string]interface{}{
			"first": 10,
			"after": "cursor",
		})
		Expect(viaArgs).To(Equal(viaAST))
	})

	It("is just the field name for an empty argument map", func() {
		Expect(storagekey.OfArgs("name", nil)).To(Equal(storagekey.OfArgs("name", map[string]interface{}{})))
	})
})
