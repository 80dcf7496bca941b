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

package normalizer_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/botobag/nexus"
	"github.com/botobag/nexus/ast"
	"github.com/botobag/nexus/nexuserr"
	"github.com/botobag/nexus/normalizer"
	"github.com/botobag/nexus/recordsource"
	"github.com/botobag/nexus/storagekey"
)

var _ = Describe("Normalize", func() {
	selector := func(node ast.SelectionSet) nexus.Selector {
		return nexus.Selector{DataID: nexus.RootID, Node: node}
	}

	It("writes a simple node's scalar and linked fields into the source", func() {
		source := recordsource.New()

		node := ast.SelectionSet{
			ast.LinkedField{
				Name: "me",
				Selections: ast.SelectionSet{
					ast.ScalarField{Name: "id"},
					ast.ScalarField{Name: "name"},
				},
			},
		}

		response := map[string]interface{}{
			"me": map[string]interface{}{
				"__typename": "User",
				"id":         "4",
				"name":       "Zuck",
			},
		}

		_, err := normalizer.Normalize(source, response, selector(node))
		Expect(err).NotTo(HaveOccurred())

		rec, _, ok := source.Get(nexus.DataID("4"))
		Expect(ok).To(BeTrue())
		Expect(rec.TypeName()).To(Equal("User"))

		name, _ := rec.Get(nexus.StorageKey("name"))
		Expect(name.Scalar()).To(Equal("Zuck"))

		meKey := storagekey.Of("me", nil, nil)
		root, _, _ := source.Get(nexus.RootID)
		link, _ := root.Get(meKey)
		Expect(link.Link()).To(Equal(nexus.DataID("4")))
	})

	It("is idempotent: normalizing the same response twice changes nothing the second time", func() {
		source := recordsource.New()
		node := ast.SelectionSet{
			ast.LinkedField{
				Name:       "me",
				Selections: ast.SelectionSet{ast.ScalarField{Name: "id"}, ast.ScalarField{Name: "name"}},
			},
		}
		response := map[string]interface{}{
			"me": map[string]interface{}{"id": "4", "__typename": "User", "name": "Zuck"},
		}

		_, err := normalizer.Normalize(source, response, selector(node))
		Expect(err).NotTo(HaveOccurred())
		before := source.Clone()

		_, err = normalizer.Normalize(source, response, selector(node))
		Expect(err).NotTo(HaveOccurred())

		rec, _, _ := source.Get(nexus.DataID("4"))
		beforeRec, _, _ := before.Get(nexus.DataID("4"))
		Expect(rec).To(Equal(beforeRec))
	})

	It("synthesizes a client id for a plural linked field with no server id, appending the index", func() {
		source := recordsource.New()
		node := ast.SelectionSet{
			ast.LinkedField{
				Name:         "friends",
				Plural:       true,
				ConcreteType: "User",
				Selections: ast.SelectionSet{
					ast.ScalarField{Name: "name"},
				},
			},
		}
		response := map[string]interface{}{
			"friends": []interface{}{
				map[string]interface{}{"name": "Alice"},
				map[string]interface{}{"name": "Bob"},
			},
		}

		_, err := normalizer.Normalize(source, response, selector(node))
		Expect(err).NotTo(HaveOccurred())

		friendsKey := storagekey.Of("friends", nil, nil)
		root, _, _ := source.Get(nexus.RootID)
		links, _ := root.Get(friendsKey)
		ids := links.LinkList()
		Expect(ids).To(HaveLen(2))

		Expect(ids[0].IsClientID()).To(BeTrue())
		Expect(*ids[0]).NotTo(Equal(*ids[1]))

		first, _, _ := source.Get(*ids[0])
		Expect(first.TypeName()).To(Equal("User"))
		name, _ := first.Get(nexus.StorageKey("name"))
		Expect(name.Scalar()).To(Equal("Alice"))
	})

	It("types a synthesized child under the field's concrete type when the response has no __typename", func() {
		source := recordsource.New()
		node := ast.SelectionSet{
			ast.LinkedField{
				Name:         "profilePicture",
				ConcreteType: "Image",
				Selections:   ast.SelectionSet{ast.ScalarField{Name: "uri"}},
			},
		}
		response := map[string]interface{}{
			"profilePicture": map[string]interface{}{"uri": "https://example.com/4.jpg"},
		}

		_, err := normalizer.Normalize(source, response, selector(node))
		Expect(err).NotTo(HaveOccurred())

		root, _, _ := source.Get(nexus.RootID)
		link, _ := root.Get(storagekey.Of("profilePicture", nil, nil))
		child, _, ok := source.Get(link.Link())
		Expect(ok).To(BeTrue())
		Expect(child.TypeName()).To(Equal("Image"))
	})

	It("fails with an invariant error when a linked child has neither __typename nor a concrete type", func() {
		source := recordsource.New()
		node := ast.SelectionSet{
			ast.LinkedField{
				Name:       "owner",
				Selections: ast.SelectionSet{ast.ScalarField{Name: "name"}},
			},
		}
		response := map[string]interface{}{
			"owner": map[string]interface{}{"name": "Zuck"},
		}

		_, err := normalizer.Normalize(source, response, selector(node))
		Expect(err).To(HaveOccurred())
		Expect(nexuserr.IsKind(err, nexuserr.KindInvariant)).To(BeTrue())
	})

	It("writes a null response value as an explicitly null link", func() {
		source := recordsource.New()
		node := ast.SelectionSet{
			ast.LinkedField{Name: "me", Selections: ast.SelectionSet{ast.ScalarField{Name: "id"}}},
		}
		response := map[string]interface{}{"me": nil}

		_, err := normalizer.Normalize(source, response, selector(node))
		Expect(err).NotTo(HaveOccurred())

		meKey := storagekey.Of("me", nil, nil)
		root, _, _ := source.Get(nexus.RootID)
		link, _ := root.Get(meKey)
		Expect(link.IsNullLink()).To(BeTrue())
	})

	It("fails with a shape error when a singular linked field's response isn't an object", func() {
		source := recordsource.New()
		node := ast.SelectionSet{
			ast.LinkedField{Name: "me", Selections: ast.SelectionSet{ast.ScalarField{Name: "id"}}},
		}
		response := map[string]interface{}{"me": "not an object"}

		_, err := normalizer.Normalize(source, response, selector(node))
		Expect(err).To(HaveOccurred())
	})
})
