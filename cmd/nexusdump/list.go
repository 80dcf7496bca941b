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

	"github.com/botobag/nexus/recordsource/boltsource"
)

var listCmd = &cobra.Command{
	Use:   "list <file>",
	Short: "List every record id and its type in a boltsource file",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	source, err := boltsource.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %v", args[0], err)
	}
	defer source.Close()

	ids := source.GetRecordIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		rec, nonexistent, _ := source.Get(id)
		if nonexistent {
			fmt.Printf("%s\tNonexistent\n", id)
			continue
		}
		fmt.Printf("%s\t%s\n", id, rec.TypeName())
	}
	return nil
}
