// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lmb

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/u-boot/u-boot-sub110/pkg/log"
	"github.com/u-boot/u-boot-sub110/pkg/region"
)

func renderRegions(w io.Writer, title string, regions region.Regions) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("%s (%d regions, %s)", title, len(regions), humanize.IBytes(regions.TotalSize()))
	t.AppendHeader(table.Row{"#", "Base", "End", "Size", "Human Size"})
	for idx, r := range regions {
		t.AppendRow(table.Row{
			idx,
			fmt.Sprintf("0x%016x", r.Base),
			fmt.Sprintf("0x%016x", r.End()),
			fmt.Sprintf("0x%x", r.Size),
			humanize.IBytes(r.Size),
		})
	}
	t.Render()
}

// Dump writes the memory, reserved and still available regions to w as
// ASCII tables.
func (l *LMB) Dump(w io.Writer) {
	renderRegions(w, l.memory.name, l.memory.regions)
	renderRegions(w, l.reserved.name, l.reserved.regions)
	renderRegions(w, "available", l.Available())
}

// DumpAll writes the content of both region sets to the package logger.
func (l *LMB) DumpAll() {
	var b strings.Builder
	l.Dump(&b)
	for _, line := range strings.Split(strings.TrimRight(b.String(), "\n"), "\n") {
		log.Infof("%s", line)
	}
}

func (l *LMB) String() string {
	return fmt.Sprintf("%s %s", &l.memory, &l.reserved)
}
