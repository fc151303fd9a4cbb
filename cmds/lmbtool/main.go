// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// lmbtool exercises the boot memory reservation tracker.
//
// Synopsis:
//     lmbtool run -f PLAN_FILE [--capacity N] [--dump]
//     lmbtool place -k KERNEL [options]
//
// An example:
//     lmbtool run -f plan.txt --dump
//     lmbtool place -k Image.gz --comp gzip --initrd initrd.img --initrd-addr 0x84000000 \
//         --fdt board.dtb --fdt-addr 0x88000000 --mem 0x80000000:1GiB --sp 0xbff00000 \
//         --bootargs "console=ttyS0" --dump
//
// Description:
//     run:   Executes a plan of add/reserve/alloc operations
//     place: Places kernel, initrd, device tree and command line the way a
//            boot loader does before jumping to the kernel. Every option of
//            "place" can also be given through the environment
//            (BOOTM_LOW, BOOTM_SIZE, BOOTM_MAPSIZE, INITRD_HIGH, FDT_HIGH, ...).
package main

import (
	"log"

	"github.com/jessevdk/go-flags"

	"github.com/u-boot/u-boot-sub110/cmds/lmbtool/commands"
	"github.com/u-boot/u-boot-sub110/cmds/lmbtool/commands/place"
	"github.com/u-boot/u-boot-sub110/cmds/lmbtool/commands/run"
)

var (
	knownCommands = map[string]commands.Command{
		"run":   &run.Command{},
		"place": &place.Command{},
	}
)

func main() {
	flagsParser := flags.NewParser(nil, flags.Default)
	for commandName, command := range knownCommands {
		_, err := flagsParser.AddCommand(commandName, command.ShortDescription(), command.LongDescription(), command)
		if err != nil {
			panic(err)
		}
	}

	// parse arguments and execute the appropriate command
	if _, err := flagsParser.Parse(); err != nil {
		log.Fatal(err)
	}
}
