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

	"github.com/spf13/cobra"

	"github.com/botobag/nexus/recordsource/boltsource"
)

var sizeCmd = &cobra.Command{
	Use:   "size <file>",
	Short: "Print the record count in a boltsource file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSize,
}

func runSize(cmd *cobra.Command, args []string) error {
	source, err := boltsource.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %v", args[0], err)
	}
	defer source.Close()

	fmt.Printf("%d records\n", source.Size())
	return nil
}
