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

package proxy_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/botobag/nexus"
	"github.com/botobag/nexus/ast"
	"github.com/botobag/nexus/proxy"
	"github.com/botobag/nexus/recordsource"
)

var _ = Describe("Overlay", func() {
	var (
		base    nexus.MutableRecordSource
		overlay nexus.MutableRecordSource
		o       *proxy.Overlay
	)

	BeforeEach(func() {
		base = recordsource.New()
		overlay = recordsource.New()
		o = proxy.New(base, overlay)
	})

	It("reads through to base until a field is written, leaving base untouched", func() {
		base.Set(nexus.NewRecord(nexus.DataID("4"), "User").
			Set(nexus.StorageKey("name"), nexus.ScalarValue("Zuck")))

		rec, ok := o.Get(nexus.DataID("4"))
		Expect(ok).To(BeTrue())
		Expect(rec.GetValue(nexus.StorageKey("name")).Scalar()).To(Equal("Zuck"))

		rec.SetValue(nexus.StorageKey("name"), nexus.ScalarValue("Zuckerberg"))
		Expect(rec.GetValue(nexus.StorageKey("name")).Scalar()).To(Equal("Zuckerberg"))

		baseRec, _, _ := base.Get(nexus.DataID("4"))
		name, _ := baseRec.Get(nexus.StorageKey("name"))
		Expect(name.Scalar()).To(Equal("Zuck"), "write must land in the overlay, not base")
	})

	It("fails Create when the id already exists in base", func() {
		base.Set(nexus.NewRecord(nexus.DataID("4"), "User"))
		_, err := o.Create(nexus.DataID("4"), "User")
		Expect(err).To(HaveOccurred())
	})

	It("masks a base record as gone once Delete is called, without mutating base", func() {
		base.Set(nexus.NewRecord(nexus.DataID("4"), "User"))
		o.Delete(nexus.DataID("4"))

		_, ok := o.Get(nexus.DataID("4"))
		Expect(ok).To(BeFalse())

		_, nonexistent, ok := base.Get(nexus.DataID("4"))
		Expect(ok).To(BeTrue())
		Expect(nonexistent).To(BeFalse(), "Delete must not mutate base")
	})

	It("creates a linked record on GetOrCreateLinkedRecord when absent, and reuses it when present", func() {
		root := o.GetRoot()
		child := root.GetOrCreateLinkedRecord(nexus.StorageKey("viewer"), nexus.DataID("4"), "User")
		Expect(child.GetDataID()).To(Equal(nexus.DataID("4")))
		Expect(child.GetType()).To(Equal("User"))

		again := root.GetOrCreateLinkedRecord(nexus.StorageKey("viewer"), nexus.DataID("999"), "User")
		Expect(again.GetDataID()).To(Equal(nexus.DataID("4")),
			"GetOrCreateLinkedRecord must return the already-linked record, not create a new one")
	})

	It("copies the other proxy's own fields without disturbing fields CopyFieldsFrom's target already has", func() {
		root := o.GetRoot()
		dst := root.GetOrCreateLinkedRecord(nexus.StorageKey("dst"), nexus.DataID("dst-1"), "User")
		dst.SetValue(nexus.StorageKey("keep"), nexus.ScalarValue("mine"))

		src := root.GetOrCreateLinkedRecord(nexus.StorageKey("src"), nexus.DataID("src-1"), "User")
		src.SetValue(nexus.StorageKey("name"), nexus.ScalarValue("Zuck"))

		dst.CopyFieldsFrom(src)
		Expect(dst.GetValue(nexus.StorageKey("name")).Scalar()).To(Equal("Zuck"))
		Expect(dst.GetValue(nexus.StorageKey("keep")).Scalar()).To(Equal("mine"))
	})

	It("resolves GetRootField/GetPluralRootField only when built with NewForSelector", func() {
		selector := nexus.Selector{
			DataID: nexus.RootID,
			Node: ast.SelectionSet{
				ast.LinkedField{
					Name:       "friends",
					Plural:     true,
					Selections: ast.SelectionSet{ast.ScalarField{Name: "name"}},
				},
			},
		}
		bound := proxy.NewForSelector(base, overlay, selector)

		_, ok := bound.GetRootField("friends")
		Expect(ok).To(BeFalse(), "friends is plural; GetRootField must not resolve it")

		root := bound.GetRoot()
		root.SetLinkedRecords(nexus.StorageKey("friends"), []nexus.DataID{"1", "2"})

		friends := bound.GetPluralRootField("friends")
		Expect(friends).To(HaveLen(2))
		Expect(friends[0].GetDataID()).To(Equal(nexus.DataID("1")))
		Expect(friends[1].GetDataID()).To(Equal(nexus.DataID("2")))

		_, ok = o.GetRootField("friends")
		Expect(ok).To(BeFalse(), "an Overlay built with New (no selector) must never resolve root fields")
	})
})
