// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bootm

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Report writes the placements as an ASCII table.
func (img *Images) Report(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Boot images (window 0x%x-0x%x, map end 0x%x)", img.low, img.low+img.size, img.Ceiling())
	t.AppendHeader(table.Row{"Image", "Start", "End", "Size", "Human Size", "In Place"})
	for _, p := range img.placements {
		t.AppendRow(table.Row{
			p.Name,
			fmt.Sprintf("0x%016x", p.Addr),
			fmt.Sprintf("0x%016x", p.End()),
			fmt.Sprintf("0x%x", p.Size),
			humanize.IBytes(p.Size),
			p.InPlace,
		})
	}
	t.Render()
}
