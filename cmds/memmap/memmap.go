// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// memmap prints the RAM banks and reservations a boot loader would start from.
//
// Synopsis:
//     memmap [--fdt FILE] [--capacity N]
//
// Without --fdt the memory map of the running system is used
// (/sys/firmware/memmap, Linux only).
package main

import (
	"bytes"
	"log"
	"os"

	flag "github.com/spf13/pflag"
	"github.com/u-root/u-root/pkg/dt"

	"github.com/u-boot/u-boot-sub110/pkg/lmb"
	"github.com/u-boot/u-boot-sub110/pkg/memmap"
	"github.com/u-boot/u-boot-sub110/pkg/region"
)

var (
	fdtPath  = flag.StringP("fdt", "f", "", "read memory nodes and reservations from a flattened device tree")
	capacity = flag.IntP("capacity", "n", lmb.MaxRegions, "capacity of each region set")
)

func main() {
	flag.Parse()
	if flag.NArg() != 0 {
		log.Fatal("Usage: memmap [--fdt FILE] [--capacity N]")
	}

	var (
		banks    region.Regions
		reserved region.Regions
		err      error
	)
	if *fdtPath != "" {
		blob, err := os.ReadFile(*fdtPath)
		if err != nil {
			log.Fatal(err)
		}
		fdt, err := dt.ReadFDT(bytes.NewReader(blob))
		if err != nil {
			log.Fatalf("unable to parse '%s': %v", *fdtPath, err)
		}
		if banks, err = memmap.FromFDT(fdt); err != nil {
			log.Fatal(err)
		}
		if reserved, err = memmap.ReservedFromFDT(fdt); err != nil {
			log.Fatal(err)
		}
	} else if banks, err = memmap.Host(); err != nil {
		log.Fatal(err)
	}

	l := lmb.NewWithCapacity(*capacity)
	if err := memmap.AddBanks(l, banks); err != nil {
		log.Printf("some banks were dropped: %v", err)
	}
	if err := memmap.ReserveAll(l, reserved); err != nil {
		log.Printf("some reservations were dropped: %v", err)
	}
	l.Dump(os.Stdout)
}
