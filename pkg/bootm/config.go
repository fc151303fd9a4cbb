// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bootm

import (
	"fmt"

	"github.com/u-boot/u-boot-sub110/pkg/region"
)

// Value is an optional address or size. The zero value is unset.
type Value struct {
	V   uint64
	Set bool
}

// NewValue returns a set Value.
func NewValue(v uint64) Value {
	return Value{V: v, Set: true}
}

// UnmarshalFlag implements flags.Unmarshaler.
func (v *Value) UnmarshalFlag(s string) error {
	parsed, err := region.ParseSize(s)
	if err != nil {
		return err
	}
	*v = NewValue(parsed)
	return nil
}

// MarshalFlag implements flags.Marshaler.
func (v Value) MarshalFlag() (string, error) {
	return v.String(), nil
}

// Get returns the value, or def if it is unset.
func (v Value) Get(def uint64) uint64 {
	if !v.Set {
		return def
	}
	return v.V
}

// InPlace returns true if the value is all ones, which for "initrd_high"
// and "fdt_high" means the image is used where it was loaded. Both the
// 32-bit and the 64-bit spelling are accepted.
func (v Value) InPlace() bool {
	return v.Set && (v.V == ^uint64(0) || v.V == 0xffffffff)
}

func (v Value) String() string {
	if !v.Set {
		return ""
	}
	return fmt.Sprintf("0x%x", v.V)
}

// Config holds the environment knobs of the boot placement flow.
type Config struct {
	BootmLow     Value  `long:"bootm-low" env:"BOOTM_LOW" description:"Lowest address usable by boot images (default: first RAM bank)"`
	BootmSize    Value  `long:"bootm-size" env:"BOOTM_SIZE" description:"Size of the boot memory window (default: up to the end of RAM)"`
	BootmMapSize Value  `long:"bootm-mapsize" env:"BOOTM_MAPSIZE" description:"Size of the memory mapped by the kernel at entry (default: bootm-size)"`
	InitrdHigh   Value  `long:"initrd-high" env:"INITRD_HIGH" description:"Ceiling for the initrd, all ones keeps it in place"`
	FDTHigh      Value  `long:"fdt-high" env:"FDT_HIGH" description:"Ceiling for the device tree, all ones keeps it in place, 0 places it anywhere"`
	Bootargs     string `long:"bootargs" env:"BOOTARGS" description:"Kernel command line"`
	FDTPad       Value  `long:"fdt-pad" env:"FDT_PAD" description:"Room added to the device tree for fixups (default: 0x3000)"`
	CmdlineSize  Value  `long:"cmdline-size" env:"CMDLINE_SIZE" description:"Size of the command line buffer (default: 0x1000)"`
	KernelAlign  Value  `long:"kernel-align" env:"KERNEL_ALIGN" description:"Alignment of a kernel placed without a load address (default: 2MiB)"`
	StackPointer Value  `long:"sp" env:"FIRMWARE_SP" description:"Firmware stack pointer, everything from it up to ram-top is reserved"`
	RAMTop       Value  `long:"ram-top" env:"RAM_TOP" description:"End of the memory used by the firmware (default: end of the bank holding sp)"`
}

// Defaults of the optional Config values.
const (
	DefaultFDTPad      = 0x3000
	DefaultCmdlineSize = 0x1000
	DefaultKernelAlign = 0x200000

	// StackSafety is the room kept below the firmware stack pointer.
	StackSafety = 4096
)
