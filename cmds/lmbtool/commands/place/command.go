// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package place

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/u-root/u-root/pkg/dt"

	"github.com/u-boot/u-boot-sub110/cmds/lmbtool/commands"
	"github.com/u-boot/u-boot-sub110/pkg/bootm"
	"github.com/u-boot/u-boot-sub110/pkg/memmap"
	"github.com/u-boot/u-boot-sub110/pkg/region"
)

var _ commands.Command = (*Command)(nil)

// Command is the "place" verb.
type Command struct {
	bootm.Config

	Kernel      string      `short:"k" long:"kernel" description:"path to the kernel image" required:"true"`
	Compression string      `short:"c" long:"comp" description:"compression of the kernel image [none, gzip, lzma, lz4, zstd]" default:"none"`
	LoadAddr    bootm.Value `long:"load-addr" description:"address the kernel runs from (default: placed top-down)"`
	Initrd      string      `long:"initrd" description:"path to the initrd"`
	InitrdAddr  bootm.Value `long:"initrd-addr" description:"address the initrd was loaded to"`
	FDT         string      `long:"fdt" description:"path to the flattened device tree"`
	FDTAddr     bootm.Value `long:"fdt-addr" description:"address the device tree was loaded to"`
	Memory      []string    `short:"m" long:"mem" description:"RAM bank as BASE:SIZE, may be repeated (default: memory nodes of the device tree, then the host memory map)"`
	FDTOut      string      `short:"o" long:"fdt-out" description:"write the fixed up device tree to this file"`
	Dump        bool        `long:"dump" description:"print the region sets after placement"`

	stdout io.Writer
}

// ShortDescription explains what this command does in one line
func (cmd *Command) ShortDescription() string {
	return "places boot images the way a boot loader does before starting the kernel"
}

// LongDescription explains what this verb does (without limitation in amount of lines)
func (cmd *Command) LongDescription() string {
	return `Reserves the firmware footprint, loads the kernel, places the initrd,
the command line and the device tree below the boot window ceiling and
fixes up /chosen. Nothing is copied: the resulting addresses are printed.`
}

// Execute is the main function here. It is responsible to
// start the execution of the command.
//
// `args` are the arguments left unused by verb itself and options.
func (cmd *Command) Execute(args []string) error {
	if len(args) != 0 {
		return commands.ErrArgs{Err: fmt.Errorf("there are extra arguments")}
	}
	if cmd.Initrd != "" && !cmd.InitrdAddr.Set {
		return commands.ErrArgs{Err: fmt.Errorf("--initrd requires --initrd-addr")}
	}
	if cmd.FDT != "" && !cmd.FDTAddr.Set {
		return commands.ErrArgs{Err: fmt.Errorf("--fdt requires --fdt-addr")}
	}
	out := cmd.stdout
	if out == nil {
		out = os.Stdout
	}

	req := bootm.Request{
		Compression: cmd.Compression,
		LoadAddr:    cmd.LoadAddr.Get(0),
	}

	var err error
	req.Kernel, err = os.ReadFile(cmd.Kernel)
	if err != nil {
		return fmt.Errorf("unable to read the kernel '%s': %w", cmd.Kernel, err)
	}

	if cmd.Initrd != "" {
		fi, err := os.Stat(cmd.Initrd)
		if err != nil {
			return fmt.Errorf("unable to stat the initrd '%s': %w", cmd.Initrd, err)
		}
		req.InitrdAddr = cmd.InitrdAddr.Get(0)
		req.InitrdSize = uint64(fi.Size())
	}

	if cmd.FDT != "" {
		blob, err := os.ReadFile(cmd.FDT)
		if err != nil {
			return fmt.Errorf("unable to read the device tree '%s': %w", cmd.FDT, err)
		}
		req.FDT, err = dt.ReadFDT(bytes.NewReader(blob))
		if err != nil {
			return fmt.Errorf("unable to parse the device tree '%s': %w", cmd.FDT, err)
		}
		req.FDTAddr = cmd.FDTAddr.Get(0)
		req.FDTSize = uint64(len(blob))
	}

	banks, err := cmd.banks(req.FDT)
	if err != nil {
		return err
	}

	img, err := bootm.Prepare(cmd.Config, banks, req)
	if img != nil {
		img.Report(out)
		if cmd.Dump {
			img.LMB().Dump(out)
		}
	}
	if err != nil {
		return err
	}

	if cmd.FDTOut != "" {
		if err := writeFDT(cmd.FDTOut, req.FDT); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *Command) banks(fdt *dt.FDT) (region.Regions, error) {
	if len(cmd.Memory) != 0 {
		return ParseBanks(cmd.Memory)
	}
	if fdt != nil {
		banks, err := memmap.FromFDT(fdt)
		if err != nil {
			return nil, fmt.Errorf("unable to get memory banks from the device tree: %w", err)
		}
		if len(banks) != 0 {
			return banks, nil
		}
	}
	banks, err := memmap.Host()
	if err != nil {
		return nil, fmt.Errorf("unable to get memory banks of the host: %w", err)
	}
	return banks, nil
}

// ParseBanks parses "BASE:SIZE" pairs.
func ParseBanks(args []string) (region.Regions, error) {
	var banks region.Regions
	for _, arg := range args {
		parts := strings.SplitN(arg, ":", 2)
		if len(parts) != 2 {
			return nil, commands.ErrArgs{Err: fmt.Errorf("invalid memory bank '%s', expected BASE:SIZE", arg)}
		}
		base, err := region.ParseSize(parts[0])
		if err != nil {
			return nil, commands.ErrArgs{Err: fmt.Errorf("invalid base of memory bank '%s': %w", arg, err)}
		}
		size, err := region.ParseSize(parts[1])
		if err != nil {
			return nil, commands.ErrArgs{Err: fmt.Errorf("invalid size of memory bank '%s': %w", arg, err)}
		}
		banks = append(banks, region.Region{Base: base, Size: size})
	}
	banks.SortAndMerge()
	return banks, nil
}

func writeFDT(path string, fdt *dt.FDT) error {
	if fdt == nil {
		return fmt.Errorf("no device tree to write")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create '%s': %w", path, err)
	}
	if _, err := fdt.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("unable to write the device tree to '%s': %w", path, err)
	}
	return f.Close()
}
