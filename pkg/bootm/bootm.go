// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bootm places the kernel, the initrd, the device tree and the
// command line in physical memory before the jump to the OS.
//
// No memory is written: every step only books its range in a memory
// reservation tracker and records the resulting Placement.
package bootm

import (
	"errors"
	"fmt"

	"github.com/u-boot/u-boot-sub110/pkg/compression"
	"github.com/u-boot/u-boot-sub110/pkg/lmb"
	"github.com/u-boot/u-boot-sub110/pkg/log"
	"github.com/u-boot/u-boot-sub110/pkg/region"
)

// Alignments used when an image is relocated.
const (
	InitrdAlign  = 0x1000
	FDTAlign     = 0x1000
	CmdlineAlign = 0x10
)

// ErrNoRAM means no RAM bank was given.
var ErrNoRAM = errors.New("no RAM banks")

// Placement is the location of one boot image.
type Placement struct {
	Name    string
	Addr    uint64
	Size    uint64
	InPlace bool
}

// End returns the first address after the image.
func (p Placement) End() uint64 {
	return p.Addr + p.Size
}

// Images is the state of one boot attempt.
type Images struct {
	cfg     Config
	lmb     *lmb.LMB
	low     uint64
	size    uint64
	mapSize uint64

	placements []Placement

	// OSData is the decompressed kernel.
	OSData  []byte
	OS      Placement
	Initrd  Placement
	FDT     Placement
	Cmdline Placement
}

// Start creates the memory reservation tracker of a boot attempt: the part
// of the RAM banks inside the bootm window becomes usable memory, and the
// firmware footprint above its stack pointer is reserved.
func Start(cfg Config, banks region.Regions) (*Images, error) {
	if len(banks) == 0 {
		return nil, ErrNoRAM
	}
	banks = append(region.Regions(nil), banks...)
	banks.SortAndMerge()

	ramStart := banks[0].Base
	ramEnd := banks[len(banks)-1].End()

	low := cfg.BootmLow.Get(ramStart)
	if low >= ramEnd {
		return nil, fmt.Errorf("bootm_low 0x%x is above the end of RAM 0x%x", low, ramEnd)
	}
	size := cfg.BootmSize.Get(ramEnd - low)

	img := &Images{
		cfg:     cfg,
		lmb:     lmb.New(),
		low:     low,
		size:    size,
		mapSize: cfg.BootmMapSize.Get(size),
	}

	window := region.Region{Base: low, Size: size}
	for _, bank := range banks {
		start, end := bank.Base, bank.End()
		if start < window.Base {
			start = window.Base
		}
		if end > window.End() {
			end = window.End()
		}
		if start >= end {
			continue
		}
		if err := img.lmb.Add(start, end-start); err != nil {
			return nil, fmt.Errorf("unable to add RAM bank 0x%x-0x%x: %w", start, end, err)
		}
	}
	if img.lmb.Memory().Len() == 0 {
		return nil, fmt.Errorf("bootm window 0x%x-0x%x does not cover any RAM", window.Base, window.End())
	}

	if err := img.reserveFirmware(banks); err != nil {
		return nil, err
	}
	return img, nil
}

func (img *Images) reserveFirmware(banks region.Regions) error {
	if !img.cfg.StackPointer.Set {
		return nil
	}
	sp := img.cfg.StackPointer.V
	if sp < StackSafety {
		return fmt.Errorf("stack pointer 0x%x is too low", sp)
	}
	sp -= StackSafety

	var top uint64
	for _, bank := range banks {
		if bank.Contains(sp) {
			top = bank.End()
		}
	}
	top = img.cfg.RAMTop.Get(top)
	if top <= sp {
		return fmt.Errorf("stack pointer 0x%x is not below the RAM top 0x%x", sp, top)
	}

	log.Infof("reserving firmware footprint: addr=%x size=%x", sp, top-sp)
	if err := img.lmb.Reserve(sp, top-sp); err != nil {
		return fmt.Errorf("unable to reserve the firmware footprint: %w", err)
	}
	return nil
}

// LMB returns the memory reservation tracker of the boot attempt.
func (img *Images) LMB() *lmb.LMB {
	return img.lmb
}

// Ceiling returns the default upper bound for relocated images, the end of
// the memory mapped by the kernel at entry.
func (img *Images) Ceiling() uint64 {
	return img.low + img.mapSize
}

func (img *Images) record(p Placement) Placement {
	img.placements = append(img.placements, p)
	return p
}

// Placements returns every image placed so far, in placement order.
func (img *Images) Placements() []Placement {
	return append([]Placement(nil), img.placements...)
}

// LoadOS decompresses the kernel and books its decompressed size. With a
// load address the kernel must fit there; without one it is placed as high
// as possible.
func (img *Images) LoadOS(image []byte, comp string, loadAddr uint64) (Placement, error) {
	c, err := compression.CompressorFromName(comp)
	if err != nil {
		return Placement{}, err
	}
	data, err := c.Decode(image)
	if err != nil {
		return Placement{}, fmt.Errorf("unable to decompress the kernel (%s): %w", c.Name(), err)
	}
	if len(data) == 0 {
		return Placement{}, errors.New("kernel image is empty")
	}
	size := uint64(len(data))

	var addr uint64
	if loadAddr != 0 {
		addr, err = img.lmb.AllocAddr(loadAddr, size)
	} else {
		addr, err = img.lmb.Alloc(size, img.cfg.KernelAlign.Get(DefaultKernelAlign))
	}
	if err != nil {
		return Placement{}, fmt.Errorf("kernel - allocation error: %w", err)
	}

	img.OSData = data
	img.OS = img.record(Placement{Name: "kernel", Addr: addr, Size: size})
	log.Infof("Loading Kernel Image (%s) to 0x%x, size 0x%x", c.Name(), addr, size)
	return img.OS, nil
}

// RamdiskHigh places an initrd loaded at [rdData, rdData+rdLen). It stays
// in place if initrd_high is all ones, otherwise it is relocated below
// initrd_high, or below the bootm map end when initrd_high is unset.
func (img *Images) RamdiskHigh(rdData, rdLen uint64) (Placement, error) {
	if rdLen == 0 {
		return Placement{}, nil
	}

	var p Placement
	high := img.cfg.InitrdHigh
	switch {
	case high.InPlace():
		if err := img.lmb.Reserve(rdData, rdLen); err != nil {
			return Placement{}, fmt.Errorf("ramdisk - allocation error: %w", err)
		}
		p = Placement{Name: "initrd", Addr: rdData, Size: rdLen, InPlace: true}
	default:
		ceiling := high.Get(img.Ceiling())
		var addr uint64
		var err error
		if ceiling != 0 {
			addr, err = img.lmb.AllocBase(rdLen, InitrdAlign, ceiling)
		} else {
			addr, err = img.lmb.Alloc(rdLen, InitrdAlign)
		}
		if err != nil {
			return Placement{}, fmt.Errorf("ramdisk - allocation error: %w", err)
		}
		p = Placement{Name: "initrd", Addr: addr, Size: rdLen}
	}

	img.Initrd = img.record(p)
	log.Infof("Loading Ramdisk to %08x, end %08x", p.Addr, p.End())
	return img.Initrd, nil
}

// RelocateFDT books the device tree blob at [blobAddr, blobAddr+blobSize)
// and then places a copy padded for fixups, below fdt_high.
func (img *Images) RelocateFDT(blobAddr, blobSize uint64) (Placement, error) {
	if blobSize == 0 {
		return Placement{}, errors.New("device tree is empty")
	}
	if blobAddr != 0 {
		if err := img.lmb.Reserve(blobAddr, blobSize); err != nil {
			return Placement{}, fmt.Errorf("device tree - unable to reserve the blob: %w", err)
		}
	}
	size := blobSize + img.cfg.FDTPad.Get(DefaultFDTPad)

	var p Placement
	var err error
	high := img.cfg.FDTHigh
	switch {
	case high.InPlace():
		if blobAddr == 0 {
			return Placement{}, errors.New("device tree - fdt_high keeps the blob in place, but it has no address")
		}
		err = img.lmb.Reserve(blobAddr, size)
		p = Placement{Name: "fdt", Addr: blobAddr, Size: size, InPlace: true}
	case high.Set && high.V == 0:
		p = Placement{Name: "fdt", Size: size}
		p.Addr, err = img.lmb.Alloc(size, FDTAlign)
	default:
		p = Placement{Name: "fdt", Size: size}
		p.Addr, err = img.lmb.AllocBase(size, FDTAlign, high.Get(img.Ceiling()))
	}
	if err != nil {
		return Placement{}, fmt.Errorf("device tree - allocation error: %w", err)
	}

	img.FDT = img.record(p)
	log.Infof("Loading Device Tree to %08x, end %08x", p.Addr, p.End())
	return img.FDT, nil
}

// GetCmdline places the command line buffer below the bootm map end.
func (img *Images) GetCmdline() (Placement, error) {
	size := img.cfg.CmdlineSize.Get(DefaultCmdlineSize)
	if uint64(len(img.cfg.Bootargs))+1 > size {
		return Placement{}, fmt.Errorf("bootargs (%d bytes) do not fit in the 0x%x bytes command line buffer", len(img.cfg.Bootargs), size)
	}
	addr, err := img.lmb.AllocBase(size, CmdlineAlign, img.Ceiling())
	if err != nil {
		return Placement{}, fmt.Errorf("command line - allocation error: %w", err)
	}
	img.Cmdline = img.record(Placement{Name: "cmdline", Addr: addr, Size: size})
	return img.Cmdline, nil
}
