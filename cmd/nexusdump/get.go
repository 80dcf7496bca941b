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

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/botobag/nexus"
	"github.com/botobag/nexus/recordsource/boltsource"
)

var getCmd = &cobra.Command{
	Use:   "get <file> <id>",
	Short: "Print one record's fields",
	Args:  cobra.ExactArgs(2),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	source, err := boltsource.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %v", args[0], err)
	}
	defer source.Close()

	id := nexus.DataID(args[1])
	rec, nonexistent, ok := source.Get(id)
	if !ok {
		fmt.Printf("%s: Unknown\n", id)
		return nil
	}
	if nonexistent {
		fmt.Printf("%s: Nonexistent\n", id)
		return nil
	}

	fmt.Printf("%s: %s\n", id, rec.TypeName())
	keys := rec.Keys()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, key := range keys {
		v, _ := rec.Get(key)
		fmt.Printf("  %s = %s\n", key, formatValue(v))
	}
	return nil
}

func formatValue(v nexus.FieldValue) string {
	switch {
	case v.IsUndefined():
		return "<undefined>"
	case v.IsScalar():
		return fmt.Sprintf("%v", v.Scalar())
	case v.IsScalarList():
		return fmt.Sprintf("%v", v.ScalarList())
	case v.IsLink():
		if v.IsNullLink() {
			return "-> null"
		}
		return fmt.Sprintf("-> %s", v.Link())
	case v.IsLinkList():
		ids := v.LinkList()
		refs := make([]string, len(ids))
		for i, id := range ids {
			if id == nil {
				refs[i] = "null"
				continue
			}
			refs[i] = string(*id)
		}
		return fmt.Sprintf("-> %v", refs)
	default:
		return "<unknown>"
	}
}
