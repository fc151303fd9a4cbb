// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memmap

import (
	"fmt"

	"github.com/u-root/u-root/pkg/boot/kexec"

	"github.com/u-boot/u-boot-sub110/pkg/region"
)

// FromKexec returns the "System RAM" ranges of a memory map, sorted and
// merged.
func FromKexec(mm kexec.MemoryMap) region.Regions {
	var result region.Regions
	for _, r := range mm {
		if r.Type != kexec.RangeRAM {
			continue
		}
		result = append(result, region.Region{
			Base: uint64(r.Range.Start),
			Size: uint64(r.Range.Size),
		})
	}
	result.SortAndMerge()
	return result
}

// Host returns the RAM banks of the running system, as exported in
// /sys/firmware/memmap.
func Host() (region.Regions, error) {
	mm, err := kexec.ParseMemoryMap()
	if err != nil {
		return nil, fmt.Errorf("unable to parse the memory map: %w", err)
	}
	return FromKexec(mm), nil
}
