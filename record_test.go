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

package nexus_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/botobag/nexus"
)

var _ = Describe("Record", func() {
	It("answers __id through Get regardless of whether it was ever Set", func() {
		r := nexus.NewRecord(nexus.DataID("4"), "User")
		v, ok := r.Get(nexus.IDKey)
		Expect(ok).To(BeTrue())
		Expect(v.Scalar()).To(Equal("4"))
	})

	It("seeds __typename from NewRecord", func() {
		r := nexus.NewRecord(nexus.DataID("4"), "User")
		Expect(r.TypeName()).To(Equal("User"))
	})

	It("leaves __typename empty when not given one", func() {
		r := nexus.NewRecord(nexus.DataID("4"), "")
		Expect(r.TypeName()).To(Equal(""))
	})

	It("returns a new Record from Set, leaving the receiver untouched", func() {
		r1 := nexus.NewRecord(nexus.DataID("4"), "User")
		r2 := r1.Set(nexus.StorageKey("name"), nexus.ScalarValue("Zuck"))

		_, ok := r1.Get(nexus.StorageKey("name"))
		Expect(ok).To(BeFalse())

		v, ok := r2.Get(nexus.StorageKey("name"))
		Expect(ok).To(BeTrue())
		Expect(v.Scalar()).To(Equal("Zuck"))
	})

	It("distinguishes a field that is Undefined from one never written", func() {
		r := nexus.NewRecord(nexus.DataID("4"), "User")
		_, ok := r.Get(nexus.StorageKey("name"))
		Expect(ok).To(BeFalse())
		Expect(r.Has(nexus.StorageKey("name"))).To(BeFalse())

		r = r.Set(nexus.StorageKey("name"), nexus.Undefined)
		v, ok := r.Get(nexus.StorageKey("name"))
		Expect(ok).To(BeTrue())
		Expect(v.IsUndefined()).To(BeTrue())
		Expect(r.Has(nexus.StorageKey("name"))).To(BeTrue())
	})

	It("merges a patch field-wise over the base, keeping base-only fields", func() {
		base := nexus.NewRecord(nexus.DataID("4"), "User").
			Set(nexus.StorageKey("name"), nexus.ScalarValue("Zuck")).
			Set(nexus.StorageKey("age"), nexus.ScalarValue(30))
		patch := nexus.NewRecord(nexus.DataID("4"), "User").
			Set(nexus.StorageKey("age"), nexus.ScalarValue(31))

		merged := base.MergeFrom(patch)

		name, _ := merged.Get(nexus.StorageKey("name"))
		age, _ := merged.Get(nexus.StorageKey("age"))
		Expect(name.Scalar()).To(Equal("Zuck"))
		Expect(age.Scalar()).To(Equal(31))

		// base is untouched.
		baseAge, _ := base.Get(nexus.StorageKey("age"))
		Expect(baseAge.Scalar()).To(Equal(30))
	})

	It("clones independently of the receiver", func() {
		r1 := nexus.NewRecord(nexus.DataID("4"), "User")
		r2 := r1.Clone().Set(nexus.StorageKey("name"), nexus.ScalarValue("Zuck"))
		Expect(r1.Has(nexus.StorageKey("name"))).To(BeFalse())
		Expect(r2.Has(nexus.StorageKey("name"))).To(BeTrue())
	})
})

var _ = Describe("FieldValue", func() {
	It("panics when an accessor is used on the wrong kind", func() {
		Expect(func() { nexus.ScalarValue(1).Link() }).To(Panic())
		Expect(func() { nexus.LinkValue(nexus.DataID("4")).Scalar() }).To(Panic())
	})

	It("treats an empty-id LinkValue as an explicitly null link", func() {
		v := nexus.NullLinkValue()
		Expect(v.IsLink()).To(BeTrue())
		Expect(v.IsNullLink()).To(BeTrue())
	})

	It("compares link lists element-wise, treating nil entries as null elements", func() {
		a := nexus.DataID("1")
		b := nexus.DataID("2")
		v1 := nexus.LinkListValue([]*nexus.DataID{&a, nil, &b})
		v2 := nexus.LinkListValue([]*nexus.DataID{&a, nil, &b})
		v3 := nexus.LinkListValue([]*nexus.DataID{&a, &b, nil})

		Expect(v1.Equal(v2)).To(BeTrue())
		Expect(v1.Equal(v3)).To(BeFalse())
	})

	It("considers values of differing kind unequal even with overlapping zero values", func() {
		Expect(nexus.Undefined.Equal(nexus.ScalarValue(nil))).To(BeFalse())
	})
})

var _ = Describe("DataID", func() {
	It("recognizes client-synthesized ids by their prefix", func() {
		Expect(nexus.DataID("client:4:friends:0").IsClientID()).To(BeTrue())
		Expect(nexus.DataID("4").IsClientID()).To(BeFalse())
	})

	It("treats RootID as a client id", func() {
		Expect(nexus.RootID.IsClientID()).To(BeTrue())
	})
})
