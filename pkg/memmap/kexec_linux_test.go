// Copyright 2024 the LinuxBoot Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/u-root/u-root/pkg/boot/kexec"

	"github.com/u-boot/u-boot-sub110/pkg/region"
)

func TestFromKexec(t *testing.T) {
	mm := kexec.MemoryMap{
		{Range: kexec.Range{Start: 0x100000, Size: 0x100000}, Type: kexec.RangeRAM},
		{Range: kexec.Range{Start: 0x0, Size: 0x9f000}, Type: kexec.RangeRAM},
		{Range: kexec.Range{Start: 0x9f000, Size: 0x61000}, Type: kexec.RangeReserved},
		{Range: kexec.Range{Start: 0x200000, Size: 0x1000}, Type: kexec.RangeRAM},
		{Range: kexec.Range{Start: 0x7ffe0000, Size: 0x20000}, Type: kexec.RangeACPI},
	}
	assert.Equal(t, region.Regions{
		{Base: 0x0, Size: 0x9f000},
		{Base: 0x100000, Size: 0x101000},
	}, FromKexec(mm))
}
